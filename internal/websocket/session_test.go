package websocket

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stflow/internal/infrastructure"
	"stflow/internal/shared/testutil"
)

func TestSession_Send(t *testing.T) {
	conn := NewMockConnection()
	session := NewSession(conn, "trace-send", time.Second, nil)

	before := time.Now()
	require.NoError(t, session.Send(map[string]int{"n": 1}))

	written := conn.Written()
	require.Len(t, written, 1)
	assert.Equal(t, gorilla.TextMessage, written[0].Type)
	assert.JSONEq(t, `{"n":1}`, string(written[0].Data))
	assert.True(t, conn.WriteDeadline.After(before))

	messages, bytes := session.Stats()
	assert.Equal(t, int64(1), messages)
	assert.Equal(t, int64(len(written[0].Data)), bytes)
	assert.NotEmpty(t, session.ID())
}

func TestSession_SendAfterClose(t *testing.T) {
	conn := NewMockConnection()
	session := NewSession(conn, "", 0, nil)
	require.NoError(t, session.Close(gorilla.CloseNormalClosure, "bye"))

	err := session.Send("late")
	assert.ErrorIs(t, err, ErrMockClosed)
	messages, _ := session.Stats()
	assert.Zero(t, messages)
}

func TestSession_Context(t *testing.T) {
	session := NewSession(NewMockConnection(), "trace-ctx", 0, nil)
	assert.Equal(t, "trace-ctx", infrastructure.GetTraceID(session.Context(context.Background())))

	anonymous := NewSession(NewMockConnection(), "", 0, nil)
	ctx := context.Background()
	assert.Equal(t, ctx, anonymous.Context(ctx))
}

func TestSession_Close(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	conn := NewMockConnection()
	session := NewSession(conn, "trace-close", 0, logger)

	require.NoError(t, session.Close(gorilla.CloseNormalClosure, "stream complete"))
	assert.True(t, conn.IsClosed())

	written := conn.Written()
	require.Len(t, written, 1)
	assert.Equal(t, gorilla.CloseMessage, written[0].Type)

	record := testutil.AssertLogged(t, logs, slog.LevelInfo, "stream session closed")
	assert.Equal(t, session.ID(), record.Attrs["session_id"])
	assert.Equal(t, int64(0), record.Attrs["messages_sent"])
}

func TestSession_ReadPump(t *testing.T) {
	conn := NewMockConnection()
	conn.ReadMessages = []MockMessage{
		{Type: gorilla.TextMessage, Data: []byte(`{"ignored":true}`)},
		{Err: &gorilla.CloseError{Code: gorilla.CloseGoingAway}},
	}
	session := NewSession(conn, "", 0, nil)

	closed := make(chan struct{})
	go session.ReadPump(func() { close(closed) })

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("read pump did not return after the client went away")
	}
	assert.Equal(t, int64(maxMessageSize), conn.ReadLimit)

	// the client already closed, so no close frame is written
	require.NoError(t, session.Close(gorilla.CloseNormalClosure, ""))
	assert.Empty(t, conn.Written())
}

func TestSession_ReadPumpErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantLogged bool
	}{
		{"normal closure", &gorilla.CloseError{Code: gorilla.CloseNormalClosure}, false},
		{"going away", &gorilla.CloseError{Code: gorilla.CloseGoingAway}, false},
		{"abnormal closure", &gorilla.CloseError{Code: gorilla.CloseAbnormalClosure}, true},
		{"transport error", errors.New("connection reset by peer"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := NewMockConnection()
			conn.ReadMessages = []MockMessage{{Err: tt.err}}
			logger, logs := testutil.NewTestLogger(t)
			session := NewSession(conn, "", 0, logger)

			closed := make(chan struct{})
			go session.ReadPump(func() { close(closed) })

			select {
			case <-closed:
			case <-time.After(time.Second):
				t.Fatal("read pump did not return after a read error")
			}

			_, logged := logs.Find(slog.LevelDebug, "stream client read ended")
			assert.Equal(t, tt.wantLogged, logged)
		})
	}
}

func TestSession_ReadPumpStopsOnClose(t *testing.T) {
	conn := NewMockConnection()
	session := NewSession(conn, "", 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go session.ReadPump(cancel)

	require.NoError(t, conn.Close())
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("read pump did not observe the closed connection")
	}
}
