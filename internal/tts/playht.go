package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/dgnsrekt/playvoice-go/internal/audio"
	"github.com/dgnsrekt/playvoice-go/internal/voices"
	"github.com/dgnsrekt/playvoice-go/internal/wav"
	"github.com/gorilla/websocket"
)

// PlayHT endpoints.
const (
	DefaultPlayHTURL       = "https://api.play.ht/api/v2/tts/stream"
	DefaultPlayHTWSAuthURL = "https://api.play.ht/api/v4/websocket-auth"
)

// PlayHT voice engines.
const (
	VoiceEngineMiniHTTP = "Play3.0-mini-http"
	VoiceEngineMiniWS   = "Play3.0-mini-ws"
	VoiceEngineMiniGRPC = "Play3.0-mini-grpc"
	VoiceEngineTurbo    = "PlayHT2.0-turbo"
)

// VoiceEngines lists the accepted PlayHT voice engines.
var VoiceEngines = []string{VoiceEngineMiniHTTP, VoiceEngineMiniWS, VoiceEngineMiniGRPC, VoiceEngineTurbo}

// ValidateVoiceEngine reports whether name is a known PlayHT voice engine.
func ValidateVoiceEngine(name string) error {
	if slices.Contains(VoiceEngines, name) {
		return nil
	}
	return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidVoiceEngine, name, strings.Join(VoiceEngines, ", "))
}

// PlayHTConfig holds configuration for the PlayHT engine.
type PlayHTConfig struct {
	APIKey string
	UserID string
	// VoiceEngine selects model and transport (default Play3.0-mini-http).
	VoiceEngine string
	// StreamURL overrides DefaultPlayHTURL.
	StreamURL string
	// WSAuthURL overrides DefaultPlayHTWSAuthURL.
	WSAuthURL string
	Client    *http.Client
	Dialer    *websocket.Dialer
}

// PlayHTEngine implements StreamingEngine against PlayHT. The -ws voice
// engine streams over a websocket; every other engine uses the HTTP stream.
type PlayHTEngine struct {
	config   PlayHTConfig
	catalog  *voices.Catalog
	throttle *Throttle
	logger   *slog.Logger
}

// NewPlayHTEngine creates a PlayHT engine.
func NewPlayHTEngine(cfg PlayHTConfig, catalog *voices.Catalog, throttle *Throttle, logger *slog.Logger) (*PlayHTEngine, error) {
	if cfg.APIKey == "" || cfg.UserID == "" {
		return nil, fmt.Errorf("playht: %w", ErrMissingCredentials)
	}
	if cfg.VoiceEngine == "" {
		cfg.VoiceEngine = VoiceEngineMiniHTTP
	}
	if err := ValidateVoiceEngine(cfg.VoiceEngine); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("playht: %w", voices.ErrEmptyCatalog)
	}
	if cfg.StreamURL == "" {
		cfg.StreamURL = DefaultPlayHTURL
	}
	if cfg.WSAuthURL == "" {
		cfg.WSAuthURL = DefaultPlayHTWSAuthURL
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	return &PlayHTEngine{
		config:   cfg,
		catalog:  catalog,
		throttle: throttle,
		logger:   logger,
	}, nil
}

// Name returns the engine identifier.
func (p *PlayHTEngine) Name() string {
	return "playht"
}

// Catalog returns the voice catalog the engine resolves against.
func (p *PlayHTEngine) Catalog() *voices.Catalog {
	return p.catalog
}

// Transport returns "ws" or "http".
func (p *PlayHTEngine) Transport() string {
	if p.config.VoiceEngine == VoiceEngineMiniWS {
		return "ws"
	}
	return "http"
}

// model returns the vendor model name without the transport suffix.
func (p *PlayHTEngine) model() string {
	for _, suffix := range []string{"-http", "-ws", "-grpc"} {
		if m, ok := strings.CutSuffix(p.config.VoiceEngine, suffix); ok {
			return m
		}
	}
	return p.config.VoiceEngine
}

// Synthesize streams raw PCM and packages it as a WAV file.
func (p *PlayHTEngine) Synthesize(ctx context.Context, req Request) (*AudioResult, error) {
	stream, err := p.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	frames := audio.NewFrameStream(stream)
	pcm, err := audio.Collect(frames)
	if err != nil {
		return nil, fmt.Errorf("%w: playht stream: %w", ErrSynthesisFailed, err)
	}
	if frames.Dropped() > 0 {
		p.logger.Debug("playht stream ended on a partial sample", "dropped_bytes", frames.Dropped())
	}

	return &AudioResult{
		Data:       wav.WrapStream(pcm),
		Format:     "wav",
		SampleRate: audio.StreamSampleRate,
		Channels:   1,
	}, nil
}

// playHTRequest is the PlayHT synthesis body shared by both transports.
type playHTRequest struct {
	Text         string   `json:"text"`
	Voice        string   `json:"voice"`
	OutputFormat string   `json:"output_format"`
	VoiceEngine  string   `json:"voice_engine"`
	SampleRate   int      `json:"sample_rate"`
	Speed        float64  `json:"speed"`
	Language     string   `json:"language,omitempty"`
	Seed         *int     `json:"seed,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Quality      string   `json:"quality,omitempty"`
	RequestID    string   `json:"request_id,omitempty"`
}

// Stream starts synthesis and returns raw 24kHz PCM as it arrives.
func (p *PlayHTEngine) Stream(ctx context.Context, req Request) (ChunkStream, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}
	opts := req.Options.WithDefaults()
	opts.OutputFormat = "raw"
	opts.SampleRate = DefaultSampleRate
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	voice, err := p.catalog.Resolve(opts.Voice)
	if err != nil {
		return nil, err
	}

	body := playHTRequest{
		Text:         req.Text,
		Voice:        voice.ID,
		OutputFormat: opts.OutputFormat,
		SampleRate:   opts.SampleRate,
		Speed:        opts.Speed,
		Seed:         nonZero(opts.Seed),
		Temperature:  nonZero(opts.Temperature),
		Quality:      opts.Quality,
	}
	if opts.Language != LanguageAuto {
		body.Language = opts.Language
	}

	release, err := p.throttle.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("calling playht",
		"voice_engine", p.config.VoiceEngine,
		"transport", p.Transport(),
		"voice", voice.Name,
		"text_length", len(req.Text),
	)

	var stream ChunkStream
	if p.Transport() == "ws" {
		stream, err = p.streamWS(ctx, body, release)
	} else {
		stream, err = p.streamHTTP(ctx, body, release)
	}
	if err != nil {
		release()
		return nil, err
	}
	return stream, nil
}

func (p *PlayHTEngine) authorize(req *http.Request) {
	req.Header.Set("AUTHORIZATION", p.config.APIKey)
	req.Header.Set("X-USER-ID", p.config.UserID)
}

func (p *PlayHTEngine) streamHTTP(ctx context.Context, body playHTRequest, release func()) (ChunkStream, error) {
	body.VoiceEngine = p.model()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal playht payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.StreamURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create playht request: %w", err)
	}
	p.authorize(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/*")

	resp, err := p.config.Client.Do(httpReq)
	if err != nil {
		return nil, &SynthesisError{Provider: "playht", Message: "request failed", Cause: err, Retryable: true}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, responseError("playht", resp)
	}

	return newBodyStream(resp.Body, release), nil
}

// wsAuth is the websocket-auth response.
type wsAuth struct {
	WebsocketURLs map[string]string `json:"websocket_urls"`
	ExpiresAt     string            `json:"expires_at"`
}

// websocketURL exchanges credentials for a per-model websocket URL.
func (p *PlayHTEngine) websocketURL(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.WSAuthURL, nil)
	if err != nil {
		return "", fmt.Errorf("create websocket auth request: %w", err)
	}
	p.authorize(httpReq)

	resp, err := p.config.Client.Do(httpReq)
	if err != nil {
		return "", &SynthesisError{Provider: "playht", Message: "websocket auth failed", Cause: err, Retryable: true}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", responseError("playht", resp)
	}

	var auth wsAuth
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&auth); err != nil {
		return "", fmt.Errorf("%w: decode websocket auth: %w", ErrSynthesisFailed, err)
	}
	url, ok := auth.WebsocketURLs[p.model()]
	if !ok || url == "" {
		return "", &SynthesisError{Provider: "playht", Message: "no websocket url for " + p.model()}
	}
	return url, nil
}
