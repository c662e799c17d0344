package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/playvoice-go/internal/audio"
	"github.com/dgnsrekt/playvoice-go/internal/chat"
	"github.com/dgnsrekt/playvoice-go/internal/config"
	"github.com/dgnsrekt/playvoice-go/internal/logging"
	"github.com/dgnsrekt/playvoice-go/internal/metrics"
	"github.com/dgnsrekt/playvoice-go/internal/queue"
	"github.com/dgnsrekt/playvoice-go/internal/tts"
	"github.com/dgnsrekt/playvoice-go/internal/voices"
	"github.com/dgnsrekt/playvoice-go/internal/wav"
	"github.com/gorilla/websocket"
)

// fakeEngine streams fixed chunks, optionally ending with an error. A
// stalling engine holds the stream open until its context ends.
type fakeEngine struct {
	name   string
	chunks [][]byte
	err    error
	file   []byte
	stall  bool
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Catalog() *voices.Catalog { return voices.PlayAI() }

func (f *fakeEngine) Synthesize(ctx context.Context, req tts.Request) (*tts.AudioResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tts.AudioResult{Data: f.file, Format: "wav", SampleRate: 24000, Channels: 1}, nil
}

func (f *fakeEngine) Stream(ctx context.Context, req tts.Request) (tts.ChunkStream, error) {
	fs := &fakeStream{src: audio.NewSliceSource(f.chunks...), err: f.err}
	if f.stall {
		fs.ctx = ctx
	}
	return fs, nil
}

type fakeStream struct {
	src    *audio.SliceSource
	err    error
	ctx    context.Context
	closed bool
}

func (s *fakeStream) Next() ([]byte, error) {
	c, err := s.src.Next()
	if err == io.EOF && s.ctx != nil {
		<-s.ctx.Done()
		return nil, s.ctx.Err()
	}
	if err == io.EOF && s.err != nil {
		return nil, s.err
	}
	return c, err
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		HTTPPort:             8080,
		BearerToken:          "test-token",
		MaxTextLength:        100,
		StreamTimeLimit:      5 * time.Second,
		MaxConcurrentStreams: 2,
		QueueCapacity:        10,
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

func testEngine() *fakeEngine {
	return &fakeEngine{
		name:   "fake",
		chunks: [][]byte{{0x01}, {0x00, 0x02, 0x00}, {0x03}},
		file:   wav.WrapStream([]byte{1, 0}),
	}
}

func testServices(t *testing.T, engine tts.Engine) Services {
	t.Helper()
	logger := logging.New("error", "text") // quiet logger for tests

	reg := tts.NewRegistry()
	if err := reg.Register(engine); err != nil {
		t.Fatalf("register engine: %v", err)
	}
	store, err := chat.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	return Services{
		Engines:   reg,
		Responder: chat.NewResponder(reg, store, 100, logger),
		Store:     store,
		Queue:     queue.NewQueue(2, 0, logger),
		Metrics:   metrics.New(),
	}
}

func testServer(cfg *config.Config) *Server {
	logger := logging.New("error", "text")
	reg := tts.NewRegistry()
	reg.Register(testEngine())
	return New(cfg, logger, Services{Engines: reg, Queue: queue.NewQueue(cfg.QueueCapacity, 0, logger)})
}

func newTestServer(t *testing.T, engine tts.Engine) *Server {
	t.Helper()
	return New(testConfig(), logging.New("error", "text"), testServices(t, engine))
}

// do sends an authorized request through the full router.
func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer test-token")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v (%s)", err, w.Body.String())
	}
	return resp.Error
}

func TestHealthz(t *testing.T) {
	cfg := testConfig()
	srv := testServer(cfg)

	req := httptest.NewRequest("GET", "/v1/healthz", nil)
	w := httptest.NewRecorder()

	srv.handleHealthz(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", resp.Status)
	}
}

func TestSpeakSuccess(t *testing.T) {
	cfg := testConfig()
	srv := testServer(cfg)

	body := `{"text":"Hello, world!","voice":"Angelo"}`
	req := httptest.NewRequest("POST", "/v1/speak", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer test-token")
	w := httptest.NewRecorder()

	// Manually call withAuth wrapper
	handler := srv.withAuth(srv.handleSpeak)
	handler(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("expected status %d, got %d: %s", http.StatusAccepted, w.Code, w.Body.String())
	}

	var resp SpeakResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.JobID == "" {
		t.Error("expected non-empty job_id")
	}
	if srv.svc.Queue.Len() != 1 {
		t.Errorf("expected 1 queued job, got %d", srv.svc.Queue.Len())
	}
}

func TestSpeakValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		err    string
	}{
		{"invalid json", `{`, http.StatusBadRequest, "invalid JSON body"},
		{"missing text", `{}`, http.StatusBadRequest, "text is required"},
		{"blank text", `{"text":"   "}`, http.StatusBadRequest, "text is required"},
		{"text too long", `{"text":"` + strings.Repeat("a", 101) + `"}`, http.StatusBadRequest, "text exceeds maximum length"},
		{"negative ttl", `{"text":"hi","ttl_ms":-1}`, http.StatusBadRequest, "ttl_ms must be non-negative"},
		{"unknown engine", `{"text":"hi","engine":"nope"}`, http.StatusNotFound, ""},
		{"bad speed", `{"text":"hi","options":{"speed":9}}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(testConfig())
			w := do(srv, "POST", "/v1/speak", tt.body)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if msg := decodeError(t, w); tt.err != "" && msg != tt.err {
				t.Errorf("expected error %q, got %q", tt.err, msg)
			}
		})
	}
}

func TestSpeakQueueErrors(t *testing.T) {
	srv := newTestServer(t, testEngine())

	if w := do(srv, "POST", "/v1/speak", `{"text":"one","dedupe_key":"k"}`); w.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, w.Code)
	}

	w := do(srv, "POST", "/v1/speak", `{"text":"two","dedupe_key":"k"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate: expected status %d, got %d", http.StatusConflict, w.Code)
	}

	do(srv, "POST", "/v1/speak", `{"text":"two"}`)
	w = do(srv, "POST", "/v1/speak", `{"text":"three"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("full queue: expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestSpeakPlaybackDisabled(t *testing.T) {
	svc := testServices(t, testEngine())
	svc.Queue = nil
	srv := New(testConfig(), logging.New("error", "text"), svc)

	w := do(srv, "POST", "/v1/speak", `{"text":"hello"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestEngines(t *testing.T) {
	srv := newTestServer(t, testEngine())

	w := do(srv, "GET", "/v1/engines", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp EnginesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Default != "fake" || len(resp.Engines) != 1 || resp.Engines[0] != "fake" {
		t.Errorf("unexpected engines response: %+v", resp)
	}
}

func TestVoices(t *testing.T) {
	srv := newTestServer(t, testEngine())

	w := do(srv, "GET", "/v1/voices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp VoicesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Engine != "fake" {
		t.Errorf("expected engine 'fake', got %q", resp.Engine)
	}
	if len(resp.Voices) != voices.PlayAI().Len() {
		t.Fatalf("expected %d voices, got %d", voices.PlayAI().Len(), len(resp.Voices))
	}
	if resp.Voices[0].Label == "" || resp.Voices[0].ID == "" {
		t.Errorf("voice entry missing fields: %+v", resp.Voices[0])
	}

	if w := do(srv, "GET", "/v1/voices?engine=missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected status %d for unknown engine, got %d", http.StatusNotFound, w.Code)
	}
}

func TestSynthesizeWAV(t *testing.T) {
	srv := newTestServer(t, testEngine())

	w := do(srv, "POST", "/v1/synthesize", `{"text":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("expected audio/wav, got %q", ct)
	}

	h, pcm, err := wav.Parse(w.Body.Bytes())
	if err != nil {
		t.Fatalf("parse wav: %v", err)
	}
	if h.SampleRate != 24000 || h.Channels != 1 || h.BitsPerSample != 16 {
		t.Errorf("unexpected header: %+v", h)
	}
	// Chunks 01 | 00 02 00 | 03 realign to samples 1, 2; the trailing 03 is dropped.
	want := []byte{0x01, 0x00, 0x02, 0x00}
	if !bytes.Equal(pcm, want) {
		t.Errorf("pcm = %v, want %v", pcm, want)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	upstream := &tts.SynthesisError{Provider: "fake", Code: "500", Message: "boom"}

	tests := []struct {
		name   string
		engine *fakeEngine
		body   string
		status int
	}{
		{"bad format", testEngine(), `{"text":"hi","format":"ogg"}`, http.StatusBadRequest},
		{"missing text", testEngine(), `{"text":""}`, http.StatusBadRequest},
		{"unknown engine", testEngine(), `{"text":"hi","engine":"nope"}`, http.StatusNotFound},
		{"upstream failure", &fakeEngine{name: "fake", chunks: [][]byte{{1, 0}}, err: upstream}, `{"text":"hi"}`, http.StatusBadGateway},
		{"no audio", &fakeEngine{name: "fake", chunks: [][]byte{{1}}}, `{"text":"hi"}`, http.StatusBadRequest},
		{"vendor rate limit", &fakeEngine{name: "fake", err: &tts.SynthesisError{Provider: "fake", Code: "429", Cause: tts.ErrRateLimited}}, `{"text":"hi"}`, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.engine)
			w := do(srv, "POST", "/v1/synthesize", tt.body)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestChatReplyAndDownload(t *testing.T) {
	srv := newTestServer(t, testEngine())

	body := `{"message":{"text":"hello"},"history":[{"role":"user","content":"hi"},{"role":"assistant","content":"yo"}]}`
	w := do(srv, "POST", "/v1/chat", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var reply struct {
		Role    string `json:"role"`
		Content struct {
			Path string `json:"path"`
		} `json:"content"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("failed to unmarshal reply: %v", err)
	}
	if reply.Role != "assistant" {
		t.Errorf("expected role assistant, got %q", reply.Role)
	}
	if reply.Content.Path != "/v1/responses/response_2.wav" {
		t.Fatalf("unexpected reply path %q", reply.Content.Path)
	}

	w = do(srv, "GET", reply.Content.Path, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download: expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !bytes.Equal(w.Body.Bytes(), testEngine().file) {
		t.Error("downloaded reply does not match synthesized audio")
	}
}

func TestChatEmptyMessage(t *testing.T) {
	srv := newTestServer(t, testEngine())

	w := do(srv, "POST", "/v1/chat", `{"message":{"text":""}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var reply struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("failed to unmarshal reply: %v", err)
	}
	if reply.Content != chat.EmptyMessageReply {
		t.Errorf("expected %q, got %q", chat.EmptyMessageReply, reply.Content)
	}
}

func TestChatUnsupportedAttachment(t *testing.T) {
	srv := newTestServer(t, testEngine())

	body := `{"message":{"text":"look","files":[{"name":"notes.txt","data":"aGk="}]}}`
	w := do(srv, "POST", "/v1/chat", body)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected status %d, got %d: %s", http.StatusUnsupportedMediaType, w.Code, w.Body.String())
	}
}

func TestResponseNotFound(t *testing.T) {
	srv := newTestServer(t, testEngine())

	tests := []string{"response_9.wav", "other.wav"}
	for _, name := range tests {
		w := do(srv, "GET", "/v1/responses/"+name, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", name, http.StatusNotFound, w.Code)
		}
	}
}

func TestResponseServesStoredFile(t *testing.T) {
	svc := testServices(t, testEngine())
	srv := New(testConfig(), logging.New("error", "text"), svc)

	if err := os.WriteFile(filepath.Join(svc.Store.Dir(), "response_0.mp3"), []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := do(srv, "GET", "/v1/responses/response_0.mp3", "")
	if w.Code != http.StatusOK || w.Body.String() != "ID3" {
		t.Errorf("unexpected response %d %q", w.Code, w.Body.String())
	}
}

func TestStreamSession(t *testing.T) {
	srv := newTestServer(t, testEngine())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	header := http.Header{"Authorization": {"Bearer test-token"}}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/stream", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(StreamRequest{Text: "hello"}); err != nil {
		t.Fatalf("write request: %v", err)
	}

	var start StreamEvent
	if err := conn.ReadJSON(&start); err != nil {
		t.Fatalf("read start: %v", err)
	}
	if start.Type != "start" || start.SampleRate != 24000 || start.Layout != "mono" || start.SessionID == "" {
		t.Fatalf("unexpected start event: %+v", start)
	}

	var frames [][]byte
	var done StreamEvent
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if kind == websocket.BinaryMessage {
			frames = append(frames, data)
			continue
		}
		if err := json.Unmarshal(data, &done); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		break
	}

	want := [][]byte{{0x01, 0x00}, {0x02, 0x00}}
	if len(frames) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(frames))
	}
	for i := range want {
		if !bytes.Equal(frames[i], want[i]) {
			t.Errorf("frame %d = %v, want %v", i, frames[i], want[i])
		}
	}
	if done.Type != "done" || done.Frames != 2 || done.Samples != 2 || done.DroppedBytes != 1 {
		t.Errorf("unexpected done event: %+v", done)
	}
	if done.SessionID != start.SessionID {
		t.Errorf("session id changed: %q -> %q", start.SessionID, done.SessionID)
	}
}

func TestStreamSessionTimeLimit(t *testing.T) {
	engine := &fakeEngine{name: "fake", chunks: [][]byte{{0x01, 0x00, 0x02}}, stall: true}
	cfg := testConfig()
	cfg.StreamTimeLimit = 50 * time.Millisecond
	srv := New(cfg, logging.New("error", "text"), testServices(t, engine))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	header := http.Header{"Authorization": {"Bearer test-token"}}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/stream", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(StreamRequest{Text: "hello"}); err != nil {
		t.Fatalf("write request: %v", err)
	}

	var start StreamEvent
	if err := conn.ReadJSON(&start); err != nil || start.Type != "start" {
		t.Fatalf("read start: %+v, %v", start, err)
	}

	var frames [][]byte
	var done StreamEvent
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if kind == websocket.BinaryMessage {
			frames = append(frames, data)
			continue
		}
		if err := json.Unmarshal(data, &done); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		break
	}

	if len(frames) != 1 || !bytes.Equal(frames[0], []byte{0x01, 0x00}) {
		t.Errorf("frames = %v, want [[1 0]]", frames)
	}
	if done.Type != "done" || !done.TimeLimited {
		t.Fatalf("expected a time limited done event, got %+v", done)
	}
	if done.Frames != 1 || done.Samples != 1 {
		t.Errorf("done counts = %d frames, %d samples, want 1/1", done.Frames, done.Samples)
	}
	// The byte held for the next sample is reported as lost.
	if done.DroppedBytes != 1 {
		t.Errorf("DroppedBytes = %d, want 1", done.DroppedBytes)
	}
	if done.Error != "" {
		t.Errorf("unexpected error in done event: %q", done.Error)
	}
}

func TestStreamSessionUpstreamError(t *testing.T) {
	engine := &fakeEngine{name: "fake", chunks: [][]byte{{1, 0}}, err: errors.New("connection reset")}
	srv := newTestServer(t, engine)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	header := http.Header{"Authorization": {"Bearer test-token"}}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/stream", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.WriteJSON(StreamRequest{Text: "hello"})

	var last StreamEvent
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if kind == websocket.TextMessage {
			json.Unmarshal(data, &last)
			if last.Type != "start" {
				break
			}
		}
	}
	if last.Type != "error" || last.Error != "connection reset" {
		t.Errorf("expected upstream error event, got %+v", last)
	}
}

func TestStreamRequiresAuth(t *testing.T) {
	srv := newTestServer(t, testEngine())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/stream", nil)
	if err == nil {
		t.Fatal("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 response, got %+v", resp)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testEngine())

	do(srv, "POST", "/v1/synthesize", `{"text":"hello"}`)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	for _, name := range []string{
		"playvoice_http_requests_total",
		"playvoice_realign_dropped_bytes_total",
		"playvoice_synthesis_requests_total",
	} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestOversizedBodies(t *testing.T) {
	body := `{"text":"` + strings.Repeat("a", maxRequestBody) + `"}`

	for _, path := range []string{"/v1/synthesize", "/v1/speak"} {
		t.Run(path, func(t *testing.T) {
			srv := newTestServer(t, testEngine())
			w := do(srv, http.MethodPost, path, body)
			if w.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("expected status 413, got %d", w.Code)
			}
			if msg := decodeError(t, w); msg != "request body too large" {
				t.Errorf("error = %q", msg)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unsupported extension", &chat.Error{Kind: chat.KindUnsupportedFileExtension, Value: "txt"}, http.StatusUnsupportedMediaType},
		{"invalid message", &chat.Error{Kind: chat.KindInvalidMessage}, http.StatusBadRequest},
		{"engine not found", tts.ErrEngineNotFound, http.StatusNotFound},
		{"invalid options", tts.ErrInvalidOptions, http.StatusBadRequest},
		{"unknown voice", voices.ErrUnknownVoice, http.StatusBadRequest},
		{"duplicate job", queue.ErrDuplicateJob, http.StatusConflict},
		{"queue full", queue.ErrQueueFull, http.StatusServiceUnavailable},
		{"rate limited", &tts.SynthesisError{Provider: "playai", Code: "429", Cause: tts.ErrRateLimited}, http.StatusTooManyRequests},
		{"vendor unauthorized", &tts.SynthesisError{Provider: "playht", Code: "401", Cause: tts.ErrUnauthorized}, http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}
