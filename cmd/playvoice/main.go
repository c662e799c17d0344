package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/playvoice-go/internal/api"
	"github.com/dgnsrekt/playvoice-go/internal/audio"
	"github.com/dgnsrekt/playvoice-go/internal/chat"
	"github.com/dgnsrekt/playvoice-go/internal/config"
	"github.com/dgnsrekt/playvoice-go/internal/discord"
	"github.com/dgnsrekt/playvoice-go/internal/logging"
	"github.com/dgnsrekt/playvoice-go/internal/metrics"
	"github.com/dgnsrekt/playvoice-go/internal/playback"
	"github.com/dgnsrekt/playvoice-go/internal/queue"
	"github.com/dgnsrekt/playvoice-go/internal/tts"
	"github.com/dgnsrekt/playvoice-go/internal/voices"
	"golang.org/x/sync/errgroup"
)

const version = "0.1.0"

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		// Use stderr before logger is initialized
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting playvoice", "version", version)

	if cfg.AuthDisabled() {
		logger.Warn("HTTP bearer authentication is disabled (BEARER_TOKEN is empty)")
	}

	// Log loaded configuration (without sensitive values)
	logger.Info("configuration loaded",
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
		"http_port", cfg.HTTPPort,
		"playht_voice_engine", cfg.PlayHTVoiceEngine,
		"max_text_length", cfg.MaxTextLength,
		"stream_time_limit", cfg.StreamTimeLimit,
		"vendor_rate_limit", cfg.VendorRateLimit,
		"max_concurrent_streams", cfg.MaxConcurrentStreams,
		"queue_capacity", cfg.QueueCapacity,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("playvoice stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	engines, err := buildEngines(cfg, logger)
	if err != nil {
		return err
	}

	store, err := chat.NewStore(cfg.ResponseDir)
	if err != nil {
		return err
	}
	responder := chat.NewResponder(engines, store, cfg.MaxTextLength, logger)

	voiceManager, err := openDiscord(cfg, logger)
	if err != nil {
		return err
	}
	if voiceManager != nil {
		defer voiceManager.Close()
	}

	speechQueue := buildQueue(cfg, engines, voiceManager, m, logger)
	if speechQueue != nil {
		speechQueue.Start()
		defer speechQueue.Stop()
	}

	server := api.New(cfg, logger, api.Services{
		Engines:   engines,
		Responder: responder,
		Store:     store,
		Converter: buildConverter(cfg, logger),
		Queue:     speechQueue,
		Metrics:   m,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("received shutdown signal")
		}

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildEngines registers every engine with credentials. Play.ai is
// registered first and so becomes the default unless DEFAULT_ENGINE names
// another registered engine.
func buildEngines(cfg *config.Config, logger *slog.Logger) (*tts.Registry, error) {
	playAIVoices, playHTVoices := voices.PlayAI(), voices.PlayHT()
	if cfg.VoicesFile != "" {
		c, err := voices.LoadFile(cfg.VoicesFile)
		if err != nil {
			return nil, err
		}
		playAIVoices, playHTVoices = c, c
		logger.Info("voice catalog loaded", "path", cfg.VoicesFile, "voices", c.Len())
	}

	throttle := tts.NewThrottle(cfg.VendorRateLimit, cfg.MaxConcurrentStreams)
	registry := tts.NewRegistry()

	if cfg.PlayAIEnabled() {
		engine, err := tts.NewPlayAIEngine(tts.PlayAIConfig{
			APIKey: cfg.PlayAIAPIKey,
			UserID: cfg.PlayAIUserID,
			URL:    cfg.PlayAIURL,
		}, playAIVoices, throttle, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(engine); err != nil {
			return nil, err
		}
		logger.Info("Play.ai engine registered", "voices", playAIVoices.Len())
	}

	if cfg.PlayHTEnabled() {
		engine, err := tts.NewPlayHTEngine(tts.PlayHTConfig{
			APIKey:      cfg.PlayHTAPIKey,
			UserID:      cfg.PlayHTUserID,
			VoiceEngine: cfg.PlayHTVoiceEngine,
			StreamURL:   cfg.PlayHTURL,
			WSAuthURL:   cfg.PlayHTWSAuthURL,
		}, playHTVoices, throttle, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(engine); err != nil {
			return nil, err
		}
		logger.Info("PlayHT engine registered",
			"voice_engine", cfg.PlayHTVoiceEngine,
			"transport", engine.Transport(),
		)
	}

	if len(registry.List()) == 0 {
		logger.Warn("no TTS credentials configured, synthesis requests will fail")
		return registry, nil
	}
	if cfg.DefaultEngine != "" {
		if err := registry.SetDefault(cfg.DefaultEngine); err != nil {
			return nil, fmt.Errorf("DEFAULT_ENGINE: %w", err)
		}
	}
	logger.Info("default engine selected", "engine", registry.DefaultName())
	return registry, nil
}

// buildConverter uses FFMPEG_PATH when set and otherwise looks ffmpeg up in
// PATH. Without ffmpeg only WAV encoding works.
func buildConverter(cfg *config.Config, logger *slog.Logger) *audio.Converter {
	if cfg.FFmpegPath != "" {
		return audio.NewConverterWithPath(cfg.FFmpegPath)
	}
	conv, err := audio.NewConverter()
	if err != nil {
		logger.Warn("ffmpeg not found in PATH, mp3 output is unavailable", "error", err)
		return audio.NewConverterWithPath("ffmpeg")
	}
	return conv
}

// openDiscord opens the Discord session when credentials are configured.
func openDiscord(cfg *config.Config, logger *slog.Logger) (*discord.VoiceManager, error) {
	if !cfg.DiscordEnabled() {
		logger.Warn("Discord credentials not configured, voice playback is disabled")
		return nil, nil
	}

	vm, err := discord.NewVoiceManager(cfg.DiscordToken, cfg.GuildID, cfg.DefaultVoiceChannelID, logger)
	if err != nil {
		return nil, err
	}
	if err := vm.Open(); err != nil {
		return nil, errors.Join(errors.New("open Discord session"), err)
	}
	logger.Info("Discord session opened")
	return vm, nil
}

// buildQueue wires the speech queue to the voice channel. It returns nil
// when there is nothing to play audio into.
func buildQueue(cfg *config.Config, engines *tts.Registry, vm *discord.VoiceManager, m *metrics.Metrics, logger *slog.Logger) *queue.Queue {
	if vm == nil {
		return nil
	}

	q := queue.NewQueue(cfg.QueueCapacity, cfg.AutoLeaveIdle, logger)

	handler := playback.NewHandler(engines, vm, m, logger)
	q.SetPlaybackHandler(handler.Handle)

	q.SetResultCallback(func(job *queue.Job, outcome queue.Outcome) {
		m.ObserveJob(string(outcome), q.Len())
	})

	// Leave the channel once nothing has played for a while
	q.SetIdleCallback(func() {
		logger.Info("queue idle, disconnecting from voice channel")
		if err := vm.Disconnect(); err != nil {
			logger.Error("failed to disconnect from voice", "error", err)
		}
	})

	q.SetShutdownCallback(func() {
		if !vm.IsConnected() {
			return
		}
		if err := vm.Disconnect(); err != nil {
			logger.Error("failed to disconnect from voice during shutdown", "error", err)
		} else {
			logger.Info("disconnected from voice channel during shutdown")
		}
	})

	logger.Info("audio pipeline ready")
	return q
}
