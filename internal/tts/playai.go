package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dgnsrekt/playvoice-go/internal/voices"
)

// DefaultPlayAIURL is the Play.ai streaming synthesis endpoint.
const DefaultPlayAIURL = "https://api.play.ai/api/v1/tts/stream"

// PlayAIConfig holds configuration for the Play.ai engine.
type PlayAIConfig struct {
	// APIKey is sent as the AUTHORIZATION header.
	APIKey string
	// UserID is sent as the X-USER-ID header.
	UserID string
	// URL overrides DefaultPlayAIURL.
	URL string
	// Client overrides http.DefaultClient.
	Client *http.Client
}

// PlayAIEngine implements StreamingEngine against the Play.ai HTTP API.
type PlayAIEngine struct {
	config   PlayAIConfig
	catalog  *voices.Catalog
	throttle *Throttle
	logger   *slog.Logger
}

// NewPlayAIEngine creates a Play.ai engine. catalog resolves voice
// selections; throttle may be nil.
func NewPlayAIEngine(cfg PlayAIConfig, catalog *voices.Catalog, throttle *Throttle, logger *slog.Logger) (*PlayAIEngine, error) {
	if cfg.APIKey == "" || cfg.UserID == "" {
		return nil, fmt.Errorf("playai: %w", ErrMissingCredentials)
	}
	if catalog == nil {
		return nil, fmt.Errorf("playai: %w", voices.ErrEmptyCatalog)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultPlayAIURL
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}

	return &PlayAIEngine{
		config:   cfg,
		catalog:  catalog,
		throttle: throttle,
		logger:   logger,
	}, nil
}

// Name returns the engine identifier.
func (p *PlayAIEngine) Name() string {
	return "playai"
}

// Catalog returns the voice catalog the engine resolves against.
func (p *PlayAIEngine) Catalog() *voices.Catalog {
	return p.catalog
}

// Synthesize requests a complete audio file in the configured output format.
func (p *PlayAIEngine) Synthesize(ctx context.Context, req Request) (*AudioResult, error) {
	opts, body, release, err := p.open(ctx, req)
	if err != nil {
		return nil, err
	}
	defer release()
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: read playai response: %w", ErrSynthesisFailed, err)
	}

	p.logger.Debug("playai synthesis complete",
		"model", opts.Model,
		"format", opts.OutputFormat,
		"bytes", len(data),
	)

	return &AudioResult{
		Data:       data,
		Format:     opts.OutputFormat,
		SampleRate: opts.SampleRate,
		Channels:   1,
	}, nil
}

// Stream requests raw 24kHz PCM and returns it as it arrives.
func (p *PlayAIEngine) Stream(ctx context.Context, req Request) (ChunkStream, error) {
	req.Options.OutputFormat = "raw"
	req.Options.SampleRate = DefaultSampleRate

	_, body, release, err := p.open(ctx, req)
	if err != nil {
		return nil, err
	}
	return newBodyStream(body, release), nil
}

// open validates req, waits for the throttle, and starts the vendor call.
// On success the caller owns body and release.
func (p *PlayAIEngine) open(ctx context.Context, req Request) (Options, io.ReadCloser, func(), error) {
	if strings.TrimSpace(req.Text) == "" {
		return Options{}, nil, nil, ErrEmptyText
	}

	opts := req.Options.WithDefaults()
	if err := opts.Validate(); err != nil {
		return Options{}, nil, nil, err
	}

	voice, err := p.catalog.Resolve(opts.Voice)
	if err != nil {
		return Options{}, nil, nil, err
	}
	voice2 := ""
	if opts.Model == ModelPlayDialog && opts.Voice2 != "" && opts.Voice2 != "None" {
		v2, err := p.catalog.Resolve(opts.Voice2)
		if err != nil {
			return Options{}, nil, nil, err
		}
		voice2 = v2.ID
	}

	payload, err := json.Marshal(buildPlayAIPayload(req.Text, opts, voice.ID, voice2))
	if err != nil {
		return Options{}, nil, nil, fmt.Errorf("marshal playai payload: %w", err)
	}

	release, err := p.throttle.Acquire(ctx)
	if err != nil {
		return Options{}, nil, nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.URL, bytes.NewReader(payload))
	if err != nil {
		release()
		return Options{}, nil, nil, fmt.Errorf("create playai request: %w", err)
	}
	httpReq.Header.Set("AUTHORIZATION", p.config.APIKey)
	httpReq.Header.Set("X-USER-ID", p.config.UserID)
	httpReq.Header.Set("Content-Type", "application/json")

	p.logger.Debug("calling playai",
		"model", opts.Model,
		"voice", voice.Name,
		"format", opts.OutputFormat,
		"text_length", len(req.Text),
	)

	resp, err := p.config.Client.Do(httpReq)
	if err != nil {
		release()
		return Options{}, nil, nil, &SynthesisError{Provider: "playai", Message: "request failed", Cause: err, Retryable: true}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		release()
		return Options{}, nil, nil, responseError("playai", resp)
	}

	return opts, resp.Body, release, nil
}

// playAIPayload is the Play.ai request body. Optional fields are omitted
// when unset so the vendor applies its own defaults.
type playAIPayload struct {
	Model        string   `json:"model"`
	Text         string   `json:"text"`
	Voice        string   `json:"voice"`
	OutputFormat string   `json:"outputFormat"`
	Speed        float64  `json:"speed"`
	SampleRate   int      `json:"sampleRate"`
	Seed         *int     `json:"seed,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Language     string   `json:"language,omitempty"`

	Voice2                    string `json:"voice2,omitempty"`
	TurnPrefix                string `json:"turnPrefix,omitempty"`
	TurnPrefix2               string `json:"turnPrefix2,omitempty"`
	Prompt                    string `json:"prompt,omitempty"`
	Prompt2                   string `json:"prompt2,omitempty"`
	VoiceConditioningSeconds  int    `json:"voiceConditioningSeconds,omitempty"`
	VoiceConditioningSeconds2 int    `json:"voiceConditioningSeconds2,omitempty"`

	Quality       string   `json:"quality,omitempty"`
	VoiceGuidance *float64 `json:"voiceGuidance,omitempty"`
	StyleGuidance *float64 `json:"styleGuidance,omitempty"`
	TextGuidance  *float64 `json:"textGuidance,omitempty"`
}

func buildPlayAIPayload(text string, opts Options, voiceID, voice2ID string) playAIPayload {
	p := playAIPayload{
		Model:        opts.Model,
		Text:         text,
		Voice:        voiceID,
		OutputFormat: opts.OutputFormat,
		Speed:        opts.Speed,
		SampleRate:   opts.SampleRate,
		Seed:         nonZero(opts.Seed),
		Temperature:  nonZero(opts.Temperature),
	}
	if opts.Language != LanguageAuto {
		p.Language = opts.Language
	}

	switch opts.Model {
	case ModelPlayDialog:
		p.Voice2 = voice2ID
		p.TurnPrefix = opts.TurnPrefix
		p.TurnPrefix2 = opts.TurnPrefix2
		p.Prompt = opts.Prompt
		p.Prompt2 = opts.Prompt2
		if opts.VoiceConditioningSeconds != DefaultConditioningSeconds {
			p.VoiceConditioningSeconds = opts.VoiceConditioningSeconds
		}
		if opts.VoiceConditioningSeconds2 != DefaultConditioningSeconds {
			p.VoiceConditioningSeconds2 = opts.VoiceConditioningSeconds2
		}
	case ModelPlay3Mini:
		p.Quality = opts.Quality
		p.VoiceGuidance = nonZero(opts.VoiceGuidance)
		p.StyleGuidance = nonZero(opts.StyleGuidance)
		p.TextGuidance = nonZero(opts.TextGuidance)
	}

	return p
}
