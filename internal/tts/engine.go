package tts

import (
	"bytes"
	"context"
	"io"

	"github.com/dgnsrekt/playvoice-go/internal/audio"
)

// Request contains parameters for one synthesis call.
type Request struct {
	Text    string
	Options Options
}

// AudioResult represents synthesized audio output.
type AudioResult struct {
	// Data contains the encoded audio bytes.
	Data []byte
	// Format is the container/encoding name (e.g. "mp3", "wav", "raw").
	Format string
	// SampleRate is the audio sample rate in Hz.
	SampleRate int
	// Channels is the number of audio channels.
	Channels int
}

// Reader returns an io.Reader for the audio data.
func (a *AudioResult) Reader() io.Reader {
	return bytes.NewReader(a.Data)
}

// ChunkStream is a live vendor stream of raw 16-bit 24kHz mono PCM.
// Chunk boundaries follow the network and carry no alignment guarantee.
type ChunkStream interface {
	audio.ChunkSource
	io.Closer
}

// Engine is the interface for text-to-speech synthesis.
type Engine interface {
	// Synthesize converts text to a complete audio file.
	Synthesize(ctx context.Context, req Request) (*AudioResult, error)
	// Name returns the engine identifier.
	Name() string
}

// StreamingEngine can deliver raw PCM while synthesis is still running.
type StreamingEngine interface {
	Engine
	// Stream starts synthesis and returns the raw PCM chunk stream.
	// The caller must Close the stream.
	Stream(ctx context.Context, req Request) (ChunkStream, error)
}
