package tts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, ModelPlayDialog, opts.Model)
	assert.Equal(t, "mp3", opts.OutputFormat)
	assert.Equal(t, 1.0, opts.Speed)
	assert.Equal(t, 24000, opts.SampleRate)
	assert.Equal(t, "english", opts.Language)
	assert.Equal(t, 20, opts.VoiceConditioningSeconds)
	assert.Equal(t, 20, opts.VoiceConditioningSeconds2)
	assert.Equal(t, "draft", opts.Quality)
	assert.Nil(t, opts.Seed)
	assert.Nil(t, opts.Temperature)
	assert.NoError(t, opts.Validate())
}

func TestOptions_WithDefaultsKeepsValues(t *testing.T) {
	opts := Options{Model: ModelPlay3Mini, Speed: 2.5, Language: "auto", Quality: "high"}.WithDefaults()

	assert.Equal(t, ModelPlay3Mini, opts.Model)
	assert.Equal(t, 2.5, opts.Speed)
	assert.Equal(t, "auto", opts.Language)
	assert.Equal(t, "high", opts.Quality)
	assert.NoError(t, opts.Validate())
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"unknown model", func(o *Options) { o.Model = "Play4" }},
		{"unknown format", func(o *Options) { o.OutputFormat = "aac" }},
		{"speed too low", func(o *Options) { o.Speed = 0.05 }},
		{"speed too high", func(o *Options) { o.Speed = 5.5 }},
		{"sample rate too low", func(o *Options) { o.SampleRate = 4000 }},
		{"sample rate too high", func(o *Options) { o.SampleRate = 96000 }},
		{"negative seed", func(o *Options) { o.Seed = ptr(-1) }},
		{"temperature too high", func(o *Options) { o.Temperature = ptr(2.5) }},
		{"unknown language", func(o *Options) { o.Language = "klingon" }},
		{"conditioning too long", func(o *Options) { o.VoiceConditioningSeconds = 61 }},
		{"conditioning2 too long", func(o *Options) { o.VoiceConditioningSeconds2 = 90 }},
		{"unknown quality", func(o *Options) { o.Quality = "ultra" }},
		{"voice guidance", func(o *Options) { o.VoiceGuidance = ptr(6.5) }},
		{"style guidance", func(o *Options) { o.StyleGuidance = ptr(31.0) }},
		{"text guidance", func(o *Options) { o.TextGuidance = ptr(-0.1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions)
		})
	}
}

func TestOptions_ValidateBoundaries(t *testing.T) {
	opts := DefaultOptions()
	opts.Speed = 0.1
	opts.SampleRate = 48000
	opts.Temperature = ptr(2.0)
	opts.VoiceConditioningSeconds = 1
	opts.StyleGuidance = ptr(30.0)
	require.NoError(t, opts.Validate())
}
