package api

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgnsrekt/playvoice-go/internal/audio"
	"github.com/dgnsrekt/playvoice-go/internal/chat"
	"github.com/dgnsrekt/playvoice-go/internal/config"
	"github.com/dgnsrekt/playvoice-go/internal/metrics"
	"github.com/dgnsrekt/playvoice-go/internal/queue"
	"github.com/dgnsrekt/playvoice-go/internal/tts"
	"github.com/gorilla/websocket"
)

// Services are the components the API dispatches to. Queue may be nil
// when voice playback is disabled; Metrics may be nil in tests. A nil
// Converter is replaced by one using cfg.FFmpegPath, or ffmpeg from PATH.
type Services struct {
	Engines   *tts.Registry
	Responder *chat.Responder
	Store     *chat.Store
	Converter *audio.Converter
	Queue     *queue.Queue
	Metrics   *metrics.Metrics
}

// Server handles HTTP API requests.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	svc      Services
	upgrader websocket.Upgrader
}

// New creates a new API server.
func New(cfg *config.Config, logger *slog.Logger, svc Services) *Server {
	if svc.Converter == nil {
		svc.Converter = audio.NewConverterWithPath(cmp.Or(cfg.FFmpegPath, "ffmpeg"))
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		svc:    svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16 << 10,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/healthz", s.handleHealthz)
	if svc.Metrics != nil {
		mux.Handle("GET /metrics", svc.Metrics.Handler())
	}
	mux.HandleFunc("GET /v1/voices", s.instrument("voices", s.handleVoices))
	mux.HandleFunc("GET /v1/engines", s.instrument("engines", s.handleEngines))
	mux.HandleFunc("POST /v1/chat", s.instrument("chat", s.withAuth(s.handleChat)))
	mux.HandleFunc("GET /v1/responses/{name}", s.instrument("responses", s.withAuth(s.handleResponse)))
	mux.HandleFunc("POST /v1/synthesize", s.instrument("synthesize", s.withAuth(s.handleSynthesize)))
	mux.HandleFunc("GET /v1/stream", s.instrument("stream", s.withAuth(s.handleStream)))
	mux.HandleFunc("POST /v1/speak", s.instrument("speak", s.withAuth(s.handleSpeak)))

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// Synthesis and streaming sessions run up to the stream limit.
		WriteTimeout: cfg.StreamTimeLimit + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
