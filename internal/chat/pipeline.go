package chat

// Pipeline names how a model's conversation is handled.
type Pipeline string

// PipelineChat is the text-in, speech-out chat pipeline.
const PipelineChat Pipeline = "chat"

// PipelineFor returns the pipeline for model. Every supported model is a
// chat model.
func PipelineFor(model string) Pipeline {
	return PipelineChat
}

// CheckPipeline returns a KindUnsupportedPipeline error for anything other
// than the chat pipeline.
func CheckPipeline(p Pipeline) error {
	if p != PipelineChat {
		return &Error{Kind: KindUnsupportedPipeline, Value: string(p)}
	}
	return nil
}
