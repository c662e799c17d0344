package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgnsrekt/playvoice-go/internal/audio"
	"github.com/dgnsrekt/playvoice-go/internal/chat"
	"github.com/dgnsrekt/playvoice-go/internal/queue"
	"github.com/dgnsrekt/playvoice-go/internal/tts"
	"github.com/dgnsrekt/playvoice-go/internal/voices"
)

const (
	// maxChatBody bounds chat requests, which may carry one attachment.
	maxChatBody = 16 << 20
	// maxRequestBody bounds the text-only synthesis requests.
	maxRequestBody = 1 << 20
)

// SpeakRequest represents the request body for /v1/speak.
type SpeakRequest struct {
	Text      string      `json:"text"`
	Engine    string      `json:"engine,omitempty"`
	Voice     string      `json:"voice,omitempty"`
	Options   tts.Options `json:"options"`
	Interrupt bool        `json:"interrupt,omitempty"`
	TTLMS     int         `json:"ttl_ms,omitempty"`
	DedupeKey string      `json:"dedupe_key,omitempty"`
}

// SpeakResponse represents the response body for /v1/speak.
type SpeakResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// SynthesizeRequest represents the request body for /v1/synthesize.
type SynthesizeRequest struct {
	Text    string      `json:"text"`
	Engine  string      `json:"engine,omitempty"`
	Format  string      `json:"format,omitempty"`
	Options tts.Options `json:"options"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the response body for /v1/healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// EnginesResponse represents the response body for /v1/engines.
type EnginesResponse struct {
	Engines []string `json:"engines"`
	Default string   `json:"default"`
}

// VoiceInfo is one catalog entry with its display label.
type VoiceInfo struct {
	voices.Voice
	Label string `json:"label"`
}

// VoicesResponse represents the response body for /v1/voices.
type VoicesResponse struct {
	Engine string      `json:"engine"`
	Voices []VoiceInfo `json:"voices"`
}

// cataloged is implemented by engines that resolve voices from a catalog.
type cataloged interface {
	Catalog() *voices.Catalog
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	if kind, ok := chat.KindOf(err); ok {
		if kind == chat.KindUnsupportedFileExtension {
			return http.StatusUnsupportedMediaType
		}
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, tts.ErrEngineNotFound),
		errors.Is(err, chat.ErrInvalidName),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, tts.ErrEmptyText),
		errors.Is(err, tts.ErrInvalidOptions),
		errors.Is(err, tts.ErrStreamingUnsupported),
		errors.Is(err, voices.ErrUnknownVoice),
		errors.Is(err, audio.ErrUnsupportedFormat),
		errors.Is(err, audio.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, queue.ErrDuplicateJob):
		return http.StatusConflict
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, tts.ErrRateLimited):
		// Retrying later can succeed. A vendor credential failure is not the
		// caller's to fix and stays a bad gateway.
		return http.StatusTooManyRequests
	case errors.Is(err, tts.ErrSynthesisFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON body of at most limit bytes into v. It writes the
// error response and returns false when the body is unusable.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, limit int64, route string, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(v)
	if err == nil {
		return true
	}
	s.logger.Warn("failed to decode request", "route", route, "error", err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid JSON body")
	return false
}

// fail logs err and writes it with the mapped status.
func (s *Server) fail(w http.ResponseWriter, route string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "route", route, "status", status, "error", err)
	} else {
		s.logger.Warn("request rejected", "route", route, "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

// handleHealthz handles GET /v1/healthz requests.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleEngines handles GET /v1/engines requests.
func (s *Server) handleEngines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, EnginesResponse{
		Engines: s.svc.Engines.List(),
		Default: s.svc.Engines.DefaultName(),
	})
}

// handleVoices handles GET /v1/voices?engine=<name> requests.
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	engine, err := s.svc.Engines.Resolve(r.URL.Query().Get("engine"))
	if err != nil {
		s.fail(w, "voices", err)
		return
	}
	c, ok := engine.(cataloged)
	if !ok {
		writeJSON(w, http.StatusOK, VoicesResponse{Engine: engine.Name(), Voices: []VoiceInfo{}})
		return
	}

	vs := c.Catalog().Voices()
	resp := VoicesResponse{Engine: engine.Name(), Voices: make([]VoiceInfo, 0, len(vs))}
	for _, v := range vs {
		resp.Voices = append(resp.Voices, VoiceInfo{Voice: v, Label: v.Label()})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChat handles POST /v1/chat requests.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.svc.Responder == nil {
		writeError(w, http.StatusServiceUnavailable, "chat is disabled")
		return
	}

	var req chat.Request
	if !s.decodeBody(w, r, maxChatBody, "chat", &req) {
		return
	}

	reply, err := s.svc.Responder.Respond(r.Context(), req)
	if err != nil {
		s.fail(w, "chat", err)
		return
	}

	// Clients fetch audio through the responses route, never by server path.
	if reply.Content.Path != "" {
		reply.Content.Path = "/v1/responses/" + filepath.Base(reply.Content.Path)
	}
	writeJSON(w, http.StatusOK, reply)
}

// handleResponse handles GET /v1/responses/{name} requests.
func (s *Server) handleResponse(w http.ResponseWriter, r *http.Request) {
	if s.svc.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "chat is disabled")
		return
	}
	path, err := s.svc.Store.Path(r.PathValue("name"))
	if err != nil {
		s.fail(w, "responses", err)
		return
	}
	http.ServeFile(w, r, path)
}

// handleSynthesize handles POST /v1/synthesize requests. The engine is
// streamed, realigned and the frames packaged as a WAV or MP3 file.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req SynthesizeRequest
	if !s.decodeBody(w, r, maxRequestBody, "synthesize", &req) {
		return
	}
	if msg := s.checkText(req.Text); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	format := strings.ToLower(req.Format)
	if format == "" {
		format = audio.FormatWAV
	}
	if format != audio.FormatWAV && format != audio.FormatMP3 {
		writeError(w, http.StatusBadRequest, "format must be wav or mp3")
		return
	}

	engine, err := s.svc.Engines.Streaming(req.Engine)
	if err != nil {
		s.fail(w, "synthesize", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.StreamTimeLimit)
	defer cancel()

	start := time.Now()
	pcm, err := s.realign(ctx, engine, tts.Request{Text: req.Text, Options: req.Options})
	s.observe(engine.Name(), "file", start, err)
	if err != nil {
		s.fail(w, "synthesize", err)
		return
	}

	data, err := s.svc.Converter.Encode(ctx, pcm, audio.StreamSampleRate, 1, format)
	if err != nil {
		s.fail(w, "synthesize", err)
		return
	}

	s.logger.Info("synthesis complete",
		"engine", engine.Name(),
		"format", format,
		"pcm_bytes", len(pcm),
		"duration", time.Since(start),
	)

	w.Header().Set("Content-Type", "audio/"+format)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// realign streams req through engine and returns the realigned PCM.
func (s *Server) realign(ctx context.Context, engine tts.StreamingEngine, req tts.Request) ([]byte, error) {
	stream, err := engine.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	fstream := audio.NewFrameStream(stream)
	var (
		pcm     []byte
		frames  int
		samples int
	)
	for {
		f, err := fstream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.svc.Metrics.ObserveRealign(fstream.Chunks(), frames, samples, fstream.Dropped())
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		frames++
		samples += len(f.Samples)
		pcm = append(pcm, f.Bytes()...)
	}
	s.svc.Metrics.ObserveRealign(fstream.Chunks(), frames, samples, fstream.Dropped())
	if fstream.Dropped() > 0 {
		s.logger.Debug("stream ended mid-sample", "engine", engine.Name(), "dropped_bytes", fstream.Dropped())
	}
	return pcm, nil
}

func (s *Server) observe(engine, mode string, start time.Time, err error) {
	s.svc.Metrics.ObserveSynthesis(engine, mode, start, err)
}

// checkText returns a client error message for unusable text, or "".
func (s *Server) checkText(text string) string {
	if strings.TrimSpace(text) == "" {
		return "text is required"
	}
	if s.cfg.MaxTextLength > 0 && utf8.RuneCountInString(text) > s.cfg.MaxTextLength {
		return "text exceeds maximum length"
	}
	return ""
}

// handleSpeak handles POST /v1/speak requests.
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if !s.decodeBody(w, r, maxRequestBody, "speak", &req) {
		return
	}

	if msg := s.checkText(req.Text); msg != "" {
		s.logger.Warn("speak request rejected", "reason", msg, "length", utf8.RuneCountInString(req.Text))
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	// Validate TTL if provided
	if req.TTLMS < 0 {
		writeError(w, http.StatusBadRequest, "ttl_ms must be non-negative")
		return
	}

	opts := req.Options
	if req.Voice != "" {
		opts.Voice = req.Voice
	}
	if err := opts.WithDefaults().Validate(); err != nil {
		s.fail(w, "speak", err)
		return
	}
	engine, err := s.svc.Engines.Resolve(req.Engine)
	if err != nil {
		s.fail(w, "speak", err)
		return
	}

	if s.svc.Queue == nil {
		writeError(w, http.StatusServiceUnavailable, "voice playback is disabled")
		return
	}

	// Convert TTL from milliseconds to duration
	var ttl time.Duration
	if req.TTLMS > 0 {
		ttl = time.Duration(req.TTLMS) * time.Millisecond
	} else if s.cfg.DefaultTTL > 0 {
		ttl = s.cfg.DefaultTTL
	}

	// Interrupting jobs clear the queue inside Enqueue.
	job := queue.NewJob(req.Text, engine.Name(), opts, req.Interrupt, ttl, req.DedupeKey)
	if err := s.svc.Queue.Enqueue(job); err != nil {
		s.fail(w, "speak", err)
		return
	}

	s.logger.Info("speak request enqueued",
		"job_id", job.ID,
		"text_length", len(req.Text),
		"engine", engine.Name(),
		"voice", opts.Voice,
		"interrupt", req.Interrupt,
		"ttl_ms", req.TTLMS,
		"dedupe_key", req.DedupeKey,
	)

	writeJSON(w, http.StatusAccepted, SpeakResponse{
		JobID:   job.ID,
		Message: "job enqueued",
	})
}
