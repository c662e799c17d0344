// Package wav provides utilities for WAV audio file handling.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// WAV format constants.
const (
	// HeaderSize is the size of a standard WAV file header in bytes.
	HeaderSize = 44

	// FormatPCM is the audio format code for uncompressed PCM.
	FormatPCM = 1
)

// Stream audio defaults. Vendor raw streams are 24kHz mono 16-bit.
const (
	StreamSampleRate    = 24000
	StreamChannels      = 1
	StreamBitsPerSample = 16
)

var (
	// ErrShortHeader is returned when data is smaller than a WAV header.
	ErrShortHeader = errors.New("wav: data shorter than header")
	// ErrNotWAV is returned when the RIFF/WAVE markers are missing.
	ErrNotWAV = errors.New("wav: missing RIFF/WAVE markers")
)

// Header holds the fields of a canonical 44-byte PCM header.
type Header struct {
	AudioFormat   uint16
	Channels      int
	SampleRate    int
	ByteRate      int
	BlockAlign    int
	BitsPerSample int
	DataSize      int
}

// WrapRawPCM adds a WAV header to raw PCM data.
// Parameters:
//   - pcm: raw PCM audio data bytes
//   - sampleRate: samples per second (e.g., 24000, 44100, 48000)
//   - channels: number of audio channels (1=mono, 2=stereo)
//   - bitsPerSample: bit depth per sample (typically 16)
func WrapRawPCM(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	dataSize := len(pcm)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	out := make([]byte, HeaderSize, HeaderSize+dataSize)

	// RIFF header
	copy(out[0:4], "RIFF")
	PutLE32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")

	// fmt subchunk
	copy(out[12:16], "fmt ")
	PutLE32(out[16:20], 16)
	PutLE16(out[20:22], FormatPCM)
	PutLE16(out[22:24], uint16(channels))
	PutLE32(out[24:28], uint32(sampleRate))
	PutLE32(out[28:32], uint32(byteRate))
	PutLE16(out[32:34], uint16(blockAlign))
	PutLE16(out[34:36], uint16(bitsPerSample))

	// data subchunk
	copy(out[36:40], "data")
	PutLE32(out[40:44], uint32(dataSize))

	return append(out, pcm...)
}

// WrapStream wraps PCM using the vendor stream defaults.
func WrapStream(pcm []byte) []byte {
	return WrapRawPCM(pcm, StreamSampleRate, StreamChannels, StreamBitsPerSample)
}

// Parse reads a canonical 44-byte header and returns it with the PCM
// payload. The payload is clamped to the declared data size.
func Parse(data []byte) (Header, []byte, error) {
	if len(data) < HeaderSize {
		return Header{}, nil, ErrShortHeader
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Header{}, nil, ErrNotWAV
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return Header{}, nil, fmt.Errorf("%w: non-canonical chunk layout", ErrNotWAV)
	}

	le := binary.LittleEndian
	h := Header{
		AudioFormat:   le.Uint16(data[20:22]),
		Channels:      int(le.Uint16(data[22:24])),
		SampleRate:    int(le.Uint32(data[24:28])),
		ByteRate:      int(le.Uint32(data[28:32])),
		BlockAlign:    int(le.Uint16(data[32:34])),
		BitsPerSample: int(le.Uint16(data[34:36])),
		DataSize:      int(le.Uint32(data[40:44])),
	}

	payload := data[HeaderSize:]
	if h.DataSize < len(payload) {
		payload = payload[:h.DataSize]
	}
	return h, payload, nil
}

// PutLE16 writes a uint16 value in little-endian format to a byte slice.
func PutLE16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}

// PutLE32 writes a uint32 value in little-endian format to a byte slice.
func PutLE32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}
