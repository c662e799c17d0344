package playback

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/dgnsrekt/playvoice-go/internal/audio"
	"github.com/dgnsrekt/playvoice-go/internal/metrics"
	"github.com/dgnsrekt/playvoice-go/internal/queue"
	"github.com/dgnsrekt/playvoice-go/internal/tts"
	"github.com/dgnsrekt/playvoice-go/internal/wav"
)

var (
	// ErrNoTTSEngine is returned when the job's engine is not available.
	ErrNoTTSEngine = errors.New("no TTS engine available")
	// ErrPlaybackSynthesisFailed is returned when the vendor stream fails during playback.
	ErrPlaybackSynthesisFailed = errors.New("playback synthesis failed")
	// ErrSinkFailed is returned when the audio sink rejects a frame.
	ErrSinkFailed = errors.New("audio sink failed")
)

// FrameSink consumes sample-aligned 24kHz mono frames.
type FrameSink interface {
	// Ready prepares the sink, connecting if needed.
	Ready(ctx context.Context) error
	// WriteFrame delivers one frame.
	WriteFrame(ctx context.Context, f audio.Frame) error
	// Flush pushes out anything buffered.
	Flush(ctx context.Context) error
}

// Handler plays queued jobs by streaming vendor PCM through the realigner
// into a sink.
type Handler struct {
	engines *tts.Registry
	sink    FrameSink
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHandler creates a playback handler. m may be nil.
func NewHandler(engines *tts.Registry, sink FrameSink, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		engines: engines,
		sink:    sink,
		metrics: m,
		logger:  logger,
	}
}

// Handle speaks one job. It is the function passed to queue.SetPlaybackHandler.
func (h *Handler) Handle(ctx context.Context, job *queue.Job) error {
	h.logger.Info("processing speech job",
		"job_id", job.ID,
		"engine", job.Engine,
		"text_length", len(job.Text),
	)

	engine, err := h.engines.Resolve(job.Engine)
	if err != nil {
		return errors.Join(ErrNoTTSEngine, err)
	}

	if err := h.sink.Ready(ctx); err != nil {
		h.logger.Error("audio sink not ready", "job_id", job.ID, "error", err)
		return err
	}

	start := time.Now()
	src, err := h.open(ctx, engine, job)
	if err != nil {
		h.metrics.ObserveSynthesis(engine.Name(), "stream", start, err)
		h.logger.Error("TTS synthesis failed", "job_id", job.ID, "engine", engine.Name(), "error", err)
		return errors.Join(ErrPlaybackSynthesisFailed, err)
	}
	defer src.Close()

	frames, samples, fs, err := h.pump(ctx, src)
	h.metrics.ObserveRealign(fs.Chunks(), frames, samples, fs.Dropped())
	h.metrics.ObserveSynthesis(engine.Name(), "stream", start, err)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.logger.Info("playback interrupted", "job_id", job.ID, "frames", frames)
		} else {
			h.logger.Error("playback failed", "job_id", job.ID, "frames", frames, "error", err)
		}
		return err
	}

	if fs.Dropped() > 0 {
		h.logger.Warn("stream ended mid-sample", "job_id", job.ID, "dropped_bytes", fs.Dropped())
	}
	h.logger.Info("speech playback complete",
		"job_id", job.ID,
		"frames", frames,
		"samples", samples,
		"duration", time.Since(start),
	)
	return nil
}

// open returns a raw PCM chunk source for job. Engines without streaming
// support are asked for a complete raw file instead.
func (h *Handler) open(ctx context.Context, engine tts.Engine, job *queue.Job) (tts.ChunkStream, error) {
	req := tts.Request{Text: job.Text, Options: job.Options}

	if se, ok := engine.(tts.StreamingEngine); ok {
		return se.Stream(ctx, req)
	}

	req.Options.OutputFormat = "raw"
	req.Options.SampleRate = audio.StreamSampleRate
	res, err := engine.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	r := res.Reader()
	if res.Format == audio.FormatWAV {
		// Some engines ignore the raw request and return a WAV file.
		_, pcm, err := wav.Parse(res.Data)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(pcm)
	}
	return nopCloser{audio.NewReaderSource(r, audio.DefaultChunkSize)}, nil
}

// pump realigns src and writes every frame to the sink.
func (h *Handler) pump(ctx context.Context, src audio.ChunkSource) (frames, samples int, fs *audio.FrameStream, err error) {
	fs = audio.NewFrameStream(src)
	for {
		if err := ctx.Err(); err != nil {
			return frames, samples, fs, err
		}
		f, err := fs.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return frames, samples, fs, errors.Join(ErrPlaybackSynthesisFailed, err)
		}
		if err := h.sink.WriteFrame(ctx, f); err != nil {
			return frames, samples, fs, errors.Join(ErrSinkFailed, err)
		}
		frames++
		samples += len(f.Samples)
	}
	if err := h.sink.Flush(ctx); err != nil {
		return frames, samples, fs, errors.Join(ErrSinkFailed, err)
	}
	return frames, samples, fs, nil
}

type nopCloser struct {
	audio.ChunkSource
}

func (nopCloser) Close() error { return nil }
