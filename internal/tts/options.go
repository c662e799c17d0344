package tts

import (
	"fmt"
	"slices"
)

// Play.ai models.
const (
	ModelPlayDialog = "PlayDialog"
	ModelPlay3Mini  = "Play3.0-mini"
)

// Option defaults.
const (
	DefaultOutputFormat        = "mp3"
	DefaultSpeed               = 1.0
	DefaultSampleRate          = 24000
	DefaultLanguage            = "english"
	DefaultConditioningSeconds = 20
	DefaultQuality             = "draft"

	// LanguageAuto lets the vendor detect the language.
	LanguageAuto = "auto"
)

var (
	// Models lists the accepted model names.
	Models = []string{ModelPlayDialog, ModelPlay3Mini}
	// OutputFormats lists the vendor output formats.
	OutputFormats = []string{"mp3", "mulaw", "raw", "wav", "ogg", "flac"}
	// Qualities lists the Play3.0-mini quality presets.
	Qualities = []string{"draft", "low", "medium", "high", "premium"}
	// Languages lists the named synthesis languages; "auto" is also accepted.
	Languages = []string{
		"afrikaans", "albanian", "amharic", "arabic", "bengali",
		"bulgarian", "catalan", "croatian", "czech", "danish", "dutch",
		"english", "french", "galician", "german", "greek", "hebrew",
		"hindi", "hungarian", "indonesian", "italian", "japanese",
		"korean", "malay", "mandarin", "polish", "portuguese", "russian",
		"serbian", "spanish", "swedish", "tagalog", "thai", "turkish",
		"ukrainian", "urdu", "xhosa",
	}
)

// Options configures a synthesis call. Zero values mean "use the default";
// nil pointers and zero guidance/seed/temperature values are left out of
// vendor requests entirely.
type Options struct {
	// Voice is a catalog name, a display label, or a raw s3:// voice id.
	Voice string `json:"voice,omitempty"`
	// Model is PlayDialog (default) or Play3.0-mini.
	Model string `json:"model,omitempty"`
	// OutputFormat is one of OutputFormats (default mp3).
	OutputFormat string `json:"output_format,omitempty"`
	// Speed is the speech rate multiplier, 0.1-5.0 (default 1.0).
	Speed float64 `json:"speed,omitempty"`
	// SampleRate is 8000-48000 Hz (default 24000).
	SampleRate int `json:"sample_rate,omitempty"`
	// Seed makes output reproducible when > 0.
	Seed *int `json:"seed,omitempty"`
	// Temperature is 0-2; 0 keeps the vendor default.
	Temperature *float64 `json:"temperature,omitempty"`
	// Language is one of Languages or "auto" (default english).
	Language string `json:"language,omitempty"`

	// PlayDialog only.
	Voice2                    string `json:"voice2,omitempty"`
	TurnPrefix                string `json:"turn_prefix,omitempty"`
	TurnPrefix2               string `json:"turn_prefix2,omitempty"`
	Prompt                    string `json:"prompt,omitempty"`
	Prompt2                   string `json:"prompt2,omitempty"`
	VoiceConditioningSeconds  int    `json:"voice_conditioning_seconds,omitempty"`
	VoiceConditioningSeconds2 int    `json:"voice_conditioning_seconds2,omitempty"`

	// Play3.0-mini only.
	Quality       string   `json:"quality,omitempty"`
	VoiceGuidance *float64 `json:"voice_guidance,omitempty"`
	StyleGuidance *float64 `json:"style_guidance,omitempty"`
	TextGuidance  *float64 `json:"text_guidance,omitempty"`
}

// DefaultOptions returns options with every default applied.
func DefaultOptions() Options {
	return Options{}.WithDefaults()
}

// WithDefaults returns a copy with zero-valued fields set to their defaults.
func (o Options) WithDefaults() Options {
	if o.Model == "" {
		o.Model = ModelPlayDialog
	}
	if o.OutputFormat == "" {
		o.OutputFormat = DefaultOutputFormat
	}
	if o.Speed == 0 {
		o.Speed = DefaultSpeed
	}
	if o.SampleRate == 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.VoiceConditioningSeconds == 0 {
		o.VoiceConditioningSeconds = DefaultConditioningSeconds
	}
	if o.VoiceConditioningSeconds2 == 0 {
		o.VoiceConditioningSeconds2 = DefaultConditioningSeconds
	}
	if o.Quality == "" {
		o.Quality = DefaultQuality
	}
	return o
}

// Validate checks ranges and enumerations. Call it on defaulted options.
func (o Options) Validate() error {
	if !slices.Contains(Models, o.Model) {
		return fmt.Errorf("%w: model %q", ErrInvalidOptions, o.Model)
	}
	if !slices.Contains(OutputFormats, o.OutputFormat) {
		return fmt.Errorf("%w: output format %q", ErrInvalidOptions, o.OutputFormat)
	}
	if o.Speed < 0.1 || o.Speed > 5.0 {
		return fmt.Errorf("%w: speed %.2f outside 0.1-5.0", ErrInvalidOptions, o.Speed)
	}
	if o.SampleRate < 8000 || o.SampleRate > 48000 {
		return fmt.Errorf("%w: sample rate %d outside 8000-48000", ErrInvalidOptions, o.SampleRate)
	}
	if o.Seed != nil && *o.Seed < 0 {
		return fmt.Errorf("%w: seed must be non-negative", ErrInvalidOptions)
	}
	if err := checkRange("temperature", o.Temperature, 2); err != nil {
		return err
	}
	if o.Language != LanguageAuto && !slices.Contains(Languages, o.Language) {
		return fmt.Errorf("%w: language %q", ErrInvalidOptions, o.Language)
	}
	for _, s := range []int{o.VoiceConditioningSeconds, o.VoiceConditioningSeconds2} {
		if s < 1 || s > 60 {
			return fmt.Errorf("%w: voice conditioning seconds %d outside 1-60", ErrInvalidOptions, s)
		}
	}
	if !slices.Contains(Qualities, o.Quality) {
		return fmt.Errorf("%w: quality %q", ErrInvalidOptions, o.Quality)
	}
	if err := checkRange("voice guidance", o.VoiceGuidance, 6); err != nil {
		return err
	}
	if err := checkRange("style guidance", o.StyleGuidance, 30); err != nil {
		return err
	}
	return checkRange("text guidance", o.TextGuidance, 2)
}

func checkRange(name string, v *float64, max float64) error {
	if v != nil && (*v < 0 || *v > max) {
		return fmt.Errorf("%w: %s %.2f outside 0-%g", ErrInvalidOptions, name, *v, max)
	}
	return nil
}

// nonZero drops unset and zero values so they are omitted from payloads.
func nonZero[T int | float64](v *T) *T {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}
