package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"iter"
)

const (
	// SampleWidth is the size of one 16-bit PCM sample in bytes.
	SampleWidth = 2
	// StreamSampleRate is the sample rate tagged onto every realigned frame.
	StreamSampleRate = 24000
	// LayoutMono is the channel label tagged onto every realigned frame.
	LayoutMono = "mono"
)

// Frame is a run of whole 16-bit samples decoded from one input chunk.
type Frame struct {
	SampleRate int
	Samples    []int16
	Layout     string
}

// Bytes re-encodes the samples as little-endian PCM.
func (f Frame) Bytes() []byte {
	out := make([]byte, len(f.Samples)*SampleWidth)
	for i, s := range f.Samples {
		binary.LittleEndian.PutUint16(out[i*SampleWidth:], uint16(s))
	}
	return out
}

// Realigner turns arbitrarily sliced PCM bytes into sample-aligned frames.
// It holds at most one undecoded byte between calls to Push and must not be
// shared between streams.
type Realigner struct {
	leftover []byte
}

// NewRealigner returns a realigner with an empty leftover buffer.
func NewRealigner() *Realigner {
	return &Realigner{}
}

// Push consumes one chunk. It returns false when the chunk, together with
// any held-over byte, does not complete a single sample.
func (r *Realigner) Push(chunk []byte) (Frame, bool) {
	working := make([]byte, 0, len(r.leftover)+len(chunk))
	working = append(working, r.leftover...)
	working = append(working, chunk...)

	n := len(working) - len(working)%SampleWidth
	r.leftover = working[n:]
	if n == 0 {
		return Frame{}, false
	}

	return Frame{
		SampleRate: StreamSampleRate,
		Samples:    DecodeSamples(working[:n]),
		Layout:     LayoutMono,
	}, true
}

// DecodeSamples reads little-endian int16 samples. A trailing odd byte is
// ignored.
func DecodeSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/SampleWidth)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*SampleWidth:]))
	}
	return samples
}

// Pending returns the number of bytes held over for the next chunk.
func (r *Realigner) Pending() int {
	return len(r.leftover)
}

// ChunkSource yields raw byte chunks. Next returns io.EOF once the stream
// is exhausted.
type ChunkSource interface {
	Next() ([]byte, error)
}

// FrameStream pulls chunks from a source only when the consumer asks for
// the next frame.
type FrameStream struct {
	src     ChunkSource
	r       *Realigner
	chunks  int
	dropped int
	done    bool
}

// NewFrameStream starts a realignment session over src.
func NewFrameStream(src ChunkSource) *FrameStream {
	return &FrameStream{src: src, r: NewRealigner()}
}

// Next returns the next frame, io.EOF at the end of the stream, or the
// source's error exactly as the source returned it.
func (s *FrameStream) Next() (Frame, error) {
	if s.done {
		return Frame{}, io.EOF
	}
	for {
		chunk, err := s.src.Next()
		if errors.Is(err, io.EOF) {
			// A trailing odd byte can never become a sample.
			s.done = true
			s.dropped = s.r.Pending()
			s.r.leftover = nil
			return Frame{}, io.EOF
		}
		if err != nil {
			return Frame{}, err
		}
		s.chunks++
		if f, ok := s.r.Push(chunk); ok {
			return f, nil
		}
	}
}

// Chunks returns how many chunks have been pulled from the source.
func (s *FrameStream) Chunks() int {
	return s.chunks
}

// Dropped returns the bytes discarded at end of stream. It is zero until
// Next has returned io.EOF.
func (s *FrameStream) Dropped() int {
	return s.dropped
}

// Pending returns the byte held back for the next chunk. A stream abandoned
// before end of stream loses these bytes.
func (s *FrameStream) Pending() int {
	return s.r.Pending()
}

// Frames adapts a chunk sequence into a frame sequence with the same
// semantics as FrameStream. Iteration stops after yielding an upstream error.
func Frames(chunks iter.Seq2[[]byte, error]) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		r := NewRealigner()
		for chunk, err := range chunks {
			if err != nil {
				yield(Frame{}, err)
				return
			}
			f, ok := r.Push(chunk)
			if !ok {
				continue
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}
