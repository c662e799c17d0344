// Package chat turns chat messages into spoken replies.
package chat

import (
	"encoding/base64"
	"encoding/json"
	"path/filepath"
	"slices"
	"strings"
)

// imageExtensions are the attachment types that may be embedded.
var imageExtensions = []string{"png", "jpg", "jpeg", "gif", "pdf"}

// Attachment is a file sent with a message.
type Attachment struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// Message is one user turn.
type Message struct {
	Text  string       `json:"text"`
	Files []Attachment `json:"files,omitempty"`
}

// Turn is a previous conversation entry. Only the history length matters
// for reply naming; content is kept opaque.
type Turn struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ImageURL wraps an embedded data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// Part is one element of multi-part content.
type Part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// Content is either plain text or a text part followed by an image part.
type Content struct {
	Text  string
	Parts []Part
}

// MarshalJSON encodes plain content as a string and multi-part content as
// an array.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.Parts == nil {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}

// Preprocess converts msg into model content. When files are attached
// only the last one is embedded.
func Preprocess(msg Message) (Content, error) {
	if len(msg.Files) == 0 {
		return Content{Text: msg.Text}, nil
	}

	file := msg.Files[len(msg.Files)-1]
	ext := strings.TrimPrefix(filepath.Ext(file.Name), ".")
	if !slices.Contains(imageExtensions, strings.ToLower(ext)) {
		return Content{}, &Error{Kind: KindUnsupportedFileExtension, Value: ext}
	}

	return Content{
		Text: msg.Text,
		Parts: []Part{
			{Type: "text", Text: msg.Text},
			{Type: "image_url", ImageURL: &ImageURL{URL: DataURL(ext, file.Data)}},
		},
	}, nil
}

// DataURL embeds data as a base64 image data URL.
func DataURL(ext string, data []byte) string {
	return "data:image/" + ext + ";base64," + base64.StdEncoding.EncodeToString(data)
}
