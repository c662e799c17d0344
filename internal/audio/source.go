package audio

import (
	"io"
)

// DefaultChunkSize is the read size used by ReaderSource when none is given.
const DefaultChunkSize = 4096

// maxEmptyReads bounds consecutive (0, nil) reads before giving up.
const maxEmptyReads = 100

// ReaderSource turns an io.Reader into a ChunkSource. Every successful Read
// becomes one chunk, so chunk boundaries follow the reader.
type ReaderSource struct {
	r   io.Reader
	buf []byte
}

// NewReaderSource wraps r, reading at most size bytes per chunk.
func NewReaderSource(r io.Reader, size int) *ReaderSource {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &ReaderSource{r: r, buf: make([]byte, size)}
}

// Next returns the next chunk read from the underlying reader.
// A reader that keeps returning no data and no error yields io.ErrNoProgress.
func (s *ReaderSource) Next() ([]byte, error) {
	for range maxEmptyReads {
		n, err := s.r.Read(s.buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, s.buf[:n])
			// Data is returned first; the error surfaces on the next call.
			return chunk, nil
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, io.ErrNoProgress
}

// SliceSource replays a fixed list of chunks.
type SliceSource struct {
	chunks [][]byte
	pos    int
}

// NewSliceSource returns a source over chunks.
func NewSliceSource(chunks ...[]byte) *SliceSource {
	return &SliceSource{chunks: chunks}
}

// Next returns the next chunk or io.EOF.
func (s *SliceSource) Next() ([]byte, error) {
	if s.pos >= len(s.chunks) {
		return nil, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

// Collect drains a frame stream into little-endian PCM.
func Collect(fs *FrameStream) ([]byte, error) {
	var pcm []byte
	for {
		f, err := fs.Next()
		if err == io.EOF {
			return pcm, nil
		}
		if err != nil {
			return nil, err
		}
		pcm = append(pcm, f.Bytes()...)
	}
}
