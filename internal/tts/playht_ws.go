package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// wsControl is a text frame on the PlayHT websocket.
type wsControl struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

func (p *PlayHTEngine) streamWS(ctx context.Context, body playHTRequest, release func()) (ChunkStream, error) {
	url, err := p.websocketURL(ctx)
	if err != nil {
		return nil, err
	}

	conn, resp, err := p.config.Dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, &SynthesisError{Provider: "playht", Message: "websocket dial failed", Cause: err, Retryable: true}
	}

	body.RequestID = uuid.New().String()
	if err := conn.WriteJSON(body); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: send playht request: %w", ErrSynthesisFailed, err)
	}

	s := &wsStream{
		conn:      conn,
		requestID: body.RequestID,
		release:   release,
	}
	// Unblock a pending read when the caller gives up.
	s.stop = context.AfterFunc(ctx, func() { conn.Close() })
	return s, nil
}

// wsStream reads binary audio frames until the matching end message.
type wsStream struct {
	conn      *websocket.Conn
	requestID string
	release   func()
	stop      func() bool
	done      bool
	once      sync.Once
}

// Next returns the next binary audio payload.
func (s *wsStream) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.done = true
				return nil, io.EOF
			}
			return nil, err
		}

		switch kind {
		case websocket.BinaryMessage:
			return data, nil
		case websocket.TextMessage:
			var msg wsControl
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.Error != "" || msg.Type == "error" {
				text := msg.Error
				if text == "" {
					text = msg.Message
				}
				return nil, &SynthesisError{Provider: "playht", Message: text}
			}
			if msg.Type == "end" && (msg.RequestID == "" || msg.RequestID == s.requestID) {
				s.done = true
				return nil, io.EOF
			}
		}
	}
}

// Close closes the connection and frees the throttle slot.
func (s *wsStream) Close() error {
	var err error
	s.once.Do(func() {
		s.stop()
		err = s.conn.Close()
		s.release()
	})
	return err
}
