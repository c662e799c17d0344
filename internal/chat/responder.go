package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dgnsrekt/playvoice-go/internal/tts"
)

// EmptyMessageReply is returned instead of audio when the message is blank.
const EmptyMessageReply = "Please enter some text first"

// Request is one chat turn to answer.
type Request struct {
	Message Message     `json:"message"`
	History []Turn      `json:"history"`
	Engine  string      `json:"engine,omitempty"`
	Options tts.Options `json:"options"`
}

// ReplyContent is either a text notice or a path to reply audio.
type ReplyContent struct {
	Text string
	Path string
}

// MarshalJSON encodes audio content as {"path": ...} and notices as a string.
func (c ReplyContent) MarshalJSON() ([]byte, error) {
	if c.Path == "" {
		return json.Marshal(c.Text)
	}
	return json.Marshal(struct {
		Path string `json:"path"`
	}{c.Path})
}

// Reply is the assistant turn.
type Reply struct {
	Role    string       `json:"role"`
	Content ReplyContent `json:"content"`
	// User is the preprocessed user content.
	User *Content `json:"user,omitempty"`
}

// Responder answers chat turns with synthesized speech.
type Responder struct {
	engines *tts.Registry
	store   *Store
	maxText int
	logger  *slog.Logger
}

// NewResponder creates a responder. maxText <= 0 disables the length check.
func NewResponder(engines *tts.Registry, store *Store, maxText int, logger *slog.Logger) *Responder {
	return &Responder{
		engines: engines,
		store:   store,
		maxText: maxText,
		logger:  logger,
	}
}

// Respond synthesizes req.Message.Text and stores the audio as the reply
// for the current history length.
func (r *Responder) Respond(ctx context.Context, req Request) (Reply, error) {
	if strings.TrimSpace(req.Message.Text) == "" && len(req.Message.Files) == 0 {
		return Reply{Role: "assistant", Content: ReplyContent{Text: EmptyMessageReply}}, nil
	}

	opts := req.Options.WithDefaults()
	if err := CheckPipeline(PipelineFor(opts.Model)); err != nil {
		return Reply{}, err
	}

	content, err := Preprocess(req.Message)
	if err != nil {
		return Reply{}, err
	}
	if strings.TrimSpace(req.Message.Text) == "" {
		return Reply{Role: "assistant", Content: ReplyContent{Text: EmptyMessageReply}, User: &content}, nil
	}
	if r.maxText > 0 && utf8.RuneCountInString(req.Message.Text) > r.maxText {
		return Reply{}, &Error{Kind: KindInvalidMessage, Value: "text exceeds maximum length"}
	}

	engine, err := r.engines.Resolve(req.Engine)
	if err != nil {
		return Reply{}, err
	}

	result, err := engine.Synthesize(ctx, tts.Request{Text: req.Message.Text, Options: opts})
	if err != nil {
		return Reply{}, err
	}

	path, err := r.store.Save(len(req.History), result.Format, result.Data)
	if err != nil {
		return Reply{}, err
	}

	r.logger.Info("chat reply stored",
		"engine", engine.Name(),
		"path", path,
		"bytes", len(result.Data),
		"history", len(req.History),
	)

	return Reply{
		Role:    "assistant",
		Content: ReplyContent{Path: path},
		User:    &content,
	}, nil
}
