package tts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/playvoice-go/internal/audio"
	"github.com/dgnsrekt/playvoice-go/internal/voices"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// capturePlayAI starts a fake Play.ai endpoint that records the last payload
// and answers with body.
func capturePlayAI(t *testing.T, body []byte) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var last atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("AUTHORIZATION"))
		assert.Equal(t, "user", r.Header.Get("X-USER-ID"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		last.Store(payload)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func newTestPlayAI(t *testing.T, url string) *PlayAIEngine {
	t.Helper()
	e, err := NewPlayAIEngine(PlayAIConfig{APIKey: "key", UserID: "user", URL: url}, voices.PlayAI(), nil, testLogger())
	require.NoError(t, err)
	return e
}

func TestNewPlayAIEngine_RequiresCredentials(t *testing.T) {
	_, err := NewPlayAIEngine(PlayAIConfig{APIKey: "key"}, voices.PlayAI(), nil, testLogger())
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewPlayAIEngine(PlayAIConfig{UserID: "user"}, voices.PlayAI(), nil, testLogger())
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestPlayAI_SynthesizeDefaults(t *testing.T) {
	srv, last := capturePlayAI(t, []byte("ID3fake-mp3"))
	e := newTestPlayAI(t, srv.URL)

	res, err := e.Synthesize(context.Background(), Request{Text: "Hello there"})
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3fake-mp3"), res.Data)
	assert.Equal(t, "mp3", res.Format)
	assert.Equal(t, 24000, res.SampleRate)

	payload := last.Load().(map[string]any)
	angelo, _ := voices.PlayAI().Lookup("Angelo")
	assert.Equal(t, "PlayDialog", payload["model"])
	assert.Equal(t, "Hello there", payload["text"])
	assert.Equal(t, angelo.ID, payload["voice"])
	assert.Equal(t, "mp3", payload["outputFormat"])
	assert.Equal(t, 1.0, payload["speed"])
	assert.Equal(t, 24000.0, payload["sampleRate"])
	assert.Equal(t, "english", payload["language"])

	for _, key := range []string{"seed", "temperature", "voice2", "voiceConditioningSeconds", "quality", "textGuidance"} {
		assert.NotContains(t, payload, key)
	}
}

func TestPlayAI_PayloadByModel(t *testing.T) {
	nia, _ := voices.PlayAI().Lookup("Nia")

	dialog := buildPlayAIPayload("hi", Options{
		Voice2:                   "Nia",
		TurnPrefix:               "Host:",
		VoiceConditioningSeconds: 30,
		Quality:                  "premium",
		TextGuidance:             ptr(1.5),
		Seed:                     ptr(0),
		Temperature:              ptr(0.7),
		Language:                 "auto",
	}.WithDefaults(), "v1", nia.ID)

	assert.Equal(t, nia.ID, dialog.Voice2)
	assert.Equal(t, "Host:", dialog.TurnPrefix)
	assert.Equal(t, 30, dialog.VoiceConditioningSeconds)
	assert.Zero(t, dialog.VoiceConditioningSeconds2)
	assert.Empty(t, dialog.Quality)
	assert.Nil(t, dialog.TextGuidance)
	assert.Nil(t, dialog.Seed)
	assert.Equal(t, 0.7, *dialog.Temperature)
	assert.Empty(t, dialog.Language)

	mini := buildPlayAIPayload("hi", Options{
		Model:         ModelPlay3Mini,
		Voice2:        "Nia",
		Prompt:        "whisper",
		Quality:       "premium",
		VoiceGuidance: ptr(0.0),
		TextGuidance:  ptr(1.5),
		Seed:          ptr(42),
	}.WithDefaults(), "v1", "")

	assert.Empty(t, mini.Voice2)
	assert.Empty(t, mini.Prompt)
	assert.Zero(t, mini.VoiceConditioningSeconds)
	assert.Equal(t, "premium", mini.Quality)
	assert.Nil(t, mini.VoiceGuidance)
	assert.Equal(t, 1.5, *mini.TextGuidance)
	assert.Equal(t, 42, *mini.Seed)
}

func TestPlayAI_StreamForcesRawPCM(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4}
	srv, last := capturePlayAI(t, pcm)
	e := newTestPlayAI(t, srv.URL)

	stream, err := e.Stream(context.Background(), Request{
		Text:    "stream me",
		Options: Options{OutputFormat: "mp3", SampleRate: 44100, Voice: "Gideon"},
	})
	require.NoError(t, err)
	defer stream.Close()

	fs := audio.NewFrameStream(stream)
	got, err := audio.Collect(fs)
	require.NoError(t, err)
	assert.Equal(t, pcm[:6], got)
	assert.Equal(t, 1, fs.Dropped())

	payload := last.Load().(map[string]any)
	assert.Equal(t, "raw", payload["outputFormat"])
	assert.Equal(t, 24000.0, payload["sampleRate"])
}

func TestPlayAI_RejectsBadInput(t *testing.T) {
	e := newTestPlayAI(t, "http://127.0.0.1:0")

	_, err := e.Synthesize(context.Background(), Request{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = e.Synthesize(context.Background(), Request{Text: "hi", Options: Options{Speed: 9}})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = e.Synthesize(context.Background(), Request{Text: "hi", Options: Options{Voice: "Nobody"}})
	assert.ErrorIs(t, err, voices.ErrUnknownVoice)
}

func TestPlayAI_VendorErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCause error
		retryable bool
		message   string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error_message":"slow down"}`, ErrRateLimited, true, "slow down"},
		{"unauthorized", http.StatusUnauthorized, `{"message":"bad key"}`, ErrUnauthorized, false, "bad key"},
		{"server error", http.StatusBadGateway, `upstream broke`, nil, true, "upstream broke"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestPlayAI(t, srv.URL).Synthesize(context.Background(), Request{Text: "hi"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSynthesisFailed)
			if tt.wantCause != nil {
				assert.ErrorIs(t, err, tt.wantCause)
			}

			var se *SynthesisError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "playai", se.Provider)
			assert.Equal(t, tt.retryable, se.Retryable)
			assert.Equal(t, tt.message, se.Message)
		})
	}
}

func TestPlayAI_ThrottleSlotReleasedOnClose(t *testing.T) {
	srv, _ := capturePlayAI(t, []byte{0, 0})
	throttle := NewThrottle(0, 1)
	e, err := NewPlayAIEngine(PlayAIConfig{APIKey: "key", UserID: "user", URL: srv.URL}, voices.PlayAI(), throttle, testLogger())
	require.NoError(t, err)

	stream, err := e.Stream(context.Background(), Request{Text: "one"})
	require.NoError(t, err)

	// The only slot is held by the open stream.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Stream(ctx, Request{Text: "two"})
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())

	stream, err = e.Stream(context.Background(), Request{Text: "three"})
	require.NoError(t, err)
	stream.Close()
}
