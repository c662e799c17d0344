package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/dgnsrekt/playvoice-go/internal/wav"
)

const (
	// DiscordSampleRate is the required sample rate for Discord voice.
	DiscordSampleRate = 48000
	// DiscordChannels is the required number of channels for Discord voice.
	DiscordChannels = 2
	// DiscordFrameSize is the number of samples per frame (20ms at 48kHz).
	DiscordFrameSize = 960
	// DiscordFrameBytes is the size of one frame in bytes (stereo 16-bit).
	DiscordFrameBytes = DiscordFrameSize * DiscordChannels * SampleWidth
)

// Output formats the converter can produce.
const (
	FormatWAV = "wav"
	FormatMP3 = "mp3"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg is not installed.
	ErrFFmpegNotFound = errors.New("ffmpeg not found in PATH")
	// ErrConversionFailed is returned when ffmpeg conversion fails.
	ErrConversionFailed = errors.New("audio conversion failed")
	// ErrUnsupportedFormat is returned for output formats other than wav and mp3.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrEmptyInput is returned when there is no PCM to encode.
	ErrEmptyInput = errors.New("empty input data")
)

// Converter encodes realigned PCM into container formats.
type Converter struct {
	ffmpegPath string
}

// NewConverter looks up ffmpeg in PATH.
func NewConverter() (*Converter, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, ErrFFmpegNotFound
	}
	return &Converter{ffmpegPath: path}, nil
}

// NewConverterWithPath creates a converter with a specific ffmpeg path.
func NewConverterWithPath(path string) *Converter {
	return &Converter{ffmpegPath: path}
}

// Encode wraps 16-bit little-endian PCM in the requested format.
// WAV is produced in-process and carries the PCM bytes unchanged; MP3 goes
// through ffmpeg.
func (c *Converter) Encode(ctx context.Context, pcm []byte, sampleRate, channels int, format string) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, ErrEmptyInput
	}

	switch format {
	case FormatWAV:
		return wav.WrapRawPCM(pcm, sampleRate, channels, SampleWidth*8), nil
	case FormatMP3:
		return c.encodeMP3(ctx, pcm, sampleRate, channels)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// encodeMP3 pipes raw PCM through ffmpeg:
// -f s16le -ar <rate> -ac <channels> -i pipe:0 -f mp3 pipe:1
func (c *Converter) encodeMP3(ctx context.Context, pcm []byte, sampleRate, channels int) ([]byte, error) {
	if c == nil || c.ffmpegPath == "" {
		return nil, ErrFFmpegNotFound
	}

	args := []string{
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-i", "pipe:0",
		"-f", "mp3",
		"-loglevel", "error",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	cmd.Stdin = bytes.NewReader(pcm)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s", ErrConversionFailed, stderr.String())
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: no output", ErrConversionFailed)
	}

	return stdout.Bytes(), nil
}

// PCMFrameReader slices raw PCM into Discord-sized frames.
type PCMFrameReader struct {
	data   []byte
	offset int
}

// NewPCMFrameReader creates a new frame reader from raw PCM data.
func NewPCMFrameReader(pcmData []byte) *PCMFrameReader {
	return &PCMFrameReader{data: pcmData}
}

// ReadFrame reads the next Discord-sized frame (960 samples * 2 channels * 2 bytes).
// Returns io.EOF when no more complete frames are available.
func (r *PCMFrameReader) ReadFrame() ([]byte, error) {
	if r.offset+DiscordFrameBytes > len(r.data) {
		return nil, io.EOF
	}

	frame := r.data[r.offset : r.offset+DiscordFrameBytes]
	r.offset += DiscordFrameBytes
	return frame, nil
}

// Rest returns the unread bytes and marks them consumed.
func (r *PCMFrameReader) Rest() []byte {
	rest := r.data[r.offset:]
	r.offset = len(r.data)
	return rest
}

// Remaining returns the number of bytes remaining.
func (r *PCMFrameReader) Remaining() int {
	return len(r.data) - r.offset
}
