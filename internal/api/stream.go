package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dgnsrekt/playvoice-go/internal/audio"
	"github.com/dgnsrekt/playvoice-go/internal/tts"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	streamRequestWait = 10 * time.Second
	streamWriteWait   = 10 * time.Second
	streamReadLimit   = 64 << 10
)

// StreamRequest is the first and only client message of a stream session.
type StreamRequest struct {
	Text    string      `json:"text"`
	Engine  string      `json:"engine,omitempty"`
	Options tts.Options `json:"options"`
}

// StreamEvent is a JSON control message sent on the stream socket. Audio
// travels between the start and done events as binary messages, one
// realigned frame of little-endian int16 samples each.
type StreamEvent struct {
	Type         string `json:"type"`
	SessionID    string `json:"session_id"`
	Engine       string `json:"engine,omitempty"`
	SampleRate   int    `json:"sample_rate,omitempty"`
	Layout       string `json:"layout,omitempty"`
	Frames       int    `json:"frames,omitempty"`
	Samples      int    `json:"samples,omitempty"`
	DroppedBytes int    `json:"dropped_bytes"`
	TimeLimited  bool   `json:"time_limited,omitempty"`
	Error        string `json:"error,omitempty"`
}

// handleStream handles GET /v1/stream websocket sessions.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	session := uuid.NewString()
	logger := s.logger.With("session_id", session)

	conn.SetReadLimit(streamReadLimit)
	conn.SetReadDeadline(time.Now().Add(streamRequestWait))
	var req StreamRequest
	if err := conn.ReadJSON(&req); err != nil {
		logger.Warn("failed to read stream request", "error", err)
		s.sendEvent(conn, StreamEvent{Type: "error", SessionID: session, Error: "invalid stream request"})
		return
	}
	conn.SetReadDeadline(time.Time{})

	if msg := s.checkText(req.Text); msg != "" {
		s.sendEvent(conn, StreamEvent{Type: "error", SessionID: session, Error: msg})
		return
	}
	engine, err := s.svc.Engines.Streaming(req.Engine)
	if err != nil {
		s.sendEvent(conn, StreamEvent{Type: "error", SessionID: session, Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StreamTimeLimit)
	defer cancel()
	go s.watchClient(conn, cancel)

	if m := s.svc.Metrics; m != nil {
		m.ActiveStreams.Inc()
		defer m.ActiveStreams.Dec()
	}

	logger.Info("stream session started", "engine", engine.Name(), "text_length", len(req.Text))
	start := time.Now()

	done, err := s.pumpFrames(ctx, conn, engine, tts.Request{Text: req.Text, Options: req.Options}, session)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		// The session limit ends the stream; it is not a failure.
		done.TimeLimited = true
		err = nil
	}
	s.observe(engine.Name(), "stream", start, err)
	if errors.Is(ctx.Err(), context.Canceled) {
		logger.Info("stream client disconnected", "frames", done.Frames)
		return
	}
	if err != nil {
		logger.Error("stream session failed", "error", err, "frames", done.Frames)
		s.sendEvent(conn, StreamEvent{Type: "error", SessionID: session, Error: err.Error()})
		return
	}

	s.sendEvent(conn, done)
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	logger.Info("stream session complete",
		"frames", done.Frames,
		"samples", done.Samples,
		"dropped_bytes", done.DroppedBytes,
		"time_limited", done.TimeLimited,
		"duration", time.Since(start),
	)
}

// pumpFrames realigns the engine stream and writes one binary message per
// frame. It returns the done event describing the session.
func (s *Server) pumpFrames(ctx context.Context, conn *websocket.Conn, engine tts.StreamingEngine, req tts.Request, session string) (StreamEvent, error) {
	done := StreamEvent{Type: "done", SessionID: session, Engine: engine.Name()}

	stream, err := engine.Stream(ctx, req)
	if err != nil {
		return done, err
	}
	defer stream.Close()

	if err := s.sendEvent(conn, StreamEvent{
		Type:       "start",
		SessionID:  session,
		Engine:     engine.Name(),
		SampleRate: audio.StreamSampleRate,
		Layout:     audio.LayoutMono,
	}); err != nil {
		return done, err
	}

	fstream := audio.NewFrameStream(stream)
	defer func() {
		s.svc.Metrics.ObserveRealign(fstream.Chunks(), done.Frames, done.Samples, fstream.Dropped())
	}()
	for {
		f, err := fstream.Next()
		if errors.Is(err, io.EOF) {
			done.DroppedBytes = fstream.Dropped()
			return done, nil
		}
		if err != nil {
			// An aborted stream loses the byte still held for the next chunk.
			done.DroppedBytes = fstream.Pending()
			return done, err
		}
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, f.Bytes()); err != nil {
			return done, err
		}
		done.Frames++
		done.Samples += len(f.Samples)
	}
}

// watchClient reads until the client goes away so control frames are
// processed, then cancels the session.
func (s *Server) watchClient(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (s *Server) sendEvent(conn *websocket.Conn, ev StreamEvent) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(ev)
}
