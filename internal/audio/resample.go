package audio

import (
	"encoding/binary"
	"fmt"
)

// ResamplePCM16 resamples 16-bit little-endian PCM using linear interpolation.
func ResamplePCM16(input []byte, fromRate, toRate int) ([]byte, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: from=%d, to=%d", fromRate, toRate)
	}
	if len(input)%SampleWidth != 0 {
		return nil, fmt.Errorf("input length %d is not a multiple of %d", len(input), SampleWidth)
	}

	if fromRate == toRate {
		out := make([]byte, len(input))
		copy(out, input)
		return out, nil
	}

	in := len(input) / SampleWidth
	n := int(int64(in) * int64(toRate) / int64(fromRate))
	if in == 0 || n == 0 {
		return []byte{}, nil
	}

	sample := func(i int) float64 {
		return float64(int16(binary.LittleEndian.Uint16(input[i*SampleWidth:])))
	}

	out := make([]byte, n*SampleWidth)
	ratio := float64(fromRate) / float64(toRate)
	for i := 0; i < n; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		var v float64
		if idx >= in-1 {
			v = sample(in - 1)
		} else {
			s0, s1 := sample(idx), sample(idx+1)
			v = s0 + (pos-float64(idx))*(s1-s0)
		}
		binary.LittleEndian.PutUint16(out[i*SampleWidth:], uint16(int16(v)))
	}

	return out, nil
}

// MonoToStereo duplicates every mono sample into a left/right pair.
func MonoToStereo(pcm []byte) []byte {
	n := len(pcm) / SampleWidth
	out := make([]byte, n*SampleWidth*2)
	for i := 0; i < n; i++ {
		s := pcm[i*SampleWidth : i*SampleWidth+SampleWidth]
		copy(out[i*4:], s)
		copy(out[i*4+2:], s)
	}
	return out
}
