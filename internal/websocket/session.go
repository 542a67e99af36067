package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"stflow/internal/infrastructure"
)

const (
	// DefaultWriteWait is the time allowed to write a message to the peer
	DefaultWriteWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// Session is one stream connection. Send must only be called from one
// goroutine; ReadPump runs alongside it.
type Session struct {
	conn      Connection
	id        string
	traceID   string
	writeWait time.Duration
	logger    *slog.Logger

	connectedAt   time.Time
	messagesSent  atomic.Int64
	bytesSent     atomic.Int64
	clientClosing atomic.Bool
}

// NewSession wraps conn. A zero writeWait selects DefaultWriteWait.
func NewSession(conn Connection, traceID string, writeWait time.Duration, logger *slog.Logger) *Session {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if writeWait <= 0 {
		writeWait = DefaultWriteWait
	}

	id := uuid.New().String()
	return &Session{
		conn:      conn,
		id:        id,
		traceID:   traceID,
		writeWait: writeWait,
		logger: logger.With(
			slog.String("component", "websocket.session"),
			slog.String("session_id", id),
			slog.String("remote_addr", conn.RemoteAddr()),
		),
		connectedAt: time.Now(),
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Context attaches the session trace ID to ctx
func (s *Session) Context(ctx context.Context) context.Context {
	if s.traceID == "" {
		return ctx
	}
	return infrastructure.WithTraceID(ctx, s.traceID)
}

// Send encodes v as JSON and writes it as one text frame
func (s *Session) Send(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	s.messagesSent.Add(1)
	s.bytesSent.Add(int64(len(payload)))
	return nil
}

// ReadPump drains incoming frames until the peer goes away, then calls
// onClose. Clients do not send commands on a stream; anything they send is
// discarded.
func (s *Session) ReadPump(onClose func()) {
	defer onClose()

	s.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			s.clientClosing.Store(true)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.DebugContext(s.Context(context.Background()), "stream client read ended",
					slog.String("error", err.Error()))
			}
			return
		}
	}
}

// Close sends a close frame with code and reason, then closes the connection
func (s *Session) Close(code int, reason string) error {
	ctx := s.Context(context.Background())

	if !s.clientClosing.Load() {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
		if err := s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason)); err != nil {
			s.logger.DebugContext(ctx, "close frame not delivered", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "stream session closed",
		slog.Duration("connection_duration", time.Since(s.connectedAt)),
		slog.Int64("messages_sent", s.messagesSent.Load()),
		slog.Int64("bytes_sent", s.bytesSent.Load()))
	return s.conn.Close()
}

// Stats returns the number of messages and bytes sent
func (s *Session) Stats() (messages, bytes int64) {
	return s.messagesSent.Load(), s.bytesSent.Load()
}
