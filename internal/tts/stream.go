package tts

import (
	"io"
	"sync"

	"github.com/dgnsrekt/playvoice-go/internal/audio"
)

// bodyStream exposes an HTTP response body as a ChunkStream.
type bodyStream struct {
	*audio.ReaderSource
	body    io.Closer
	release func()
	once    sync.Once
}

func newBodyStream(body io.ReadCloser, release func()) *bodyStream {
	return &bodyStream{
		ReaderSource: audio.NewReaderSource(body, audio.DefaultChunkSize),
		body:         body,
		release:      release,
	}
}

// Close closes the body and frees the throttle slot. It is idempotent.
func (s *bodyStream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.body.Close()
		s.release()
	})
	return err
}
