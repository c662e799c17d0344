package chat

import (
	"errors"
	"fmt"
)

// Kind classifies chat request failures the caller must handle.
type Kind int

const (
	// KindUnsupportedPipeline means no pipeline handles the model.
	KindUnsupportedPipeline Kind = iota + 1
	// KindUnsupportedFileExtension means an attachment type is not accepted.
	KindUnsupportedFileExtension
	// KindInvalidMessage means the message itself cannot be processed.
	KindInvalidMessage
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedPipeline:
		return "unsupported_pipeline"
	case KindUnsupportedFileExtension:
		return "unsupported_file_extension"
	case KindInvalidMessage:
		return "invalid_message"
	default:
		return "unknown"
	}
}

// Error is a classified chat failure.
type Error struct {
	Kind  Kind
	Value string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnsupportedPipeline:
		return fmt.Sprintf("unsupported pipeline type: %s", e.Value)
	case KindUnsupportedFileExtension:
		return fmt.Sprintf("unsupported file type: %s", e.Value)
	default:
		return fmt.Sprintf("invalid message: %s", e.Value)
	}
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
