package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stflow/internal/dataset"
	apperrors "stflow/internal/errors"
	"stflow/internal/shared/testutil"
)

type wireMessage struct {
	Type    string            `json:"type"`
	TraceID string            `json:"trace_id"`
	Batch   int               `json:"batch"`
	Mode    string            `json:"mode"`
	Start   int               `json:"start"`
	End     int               `json:"end"`
	Samples []json.RawMessage `json:"samples"`
	Batches int               `json:"batches"`
	Count   int               `json:"sample_count"`
	Code    string            `json:"code"`
}

func closenessDataset(t *testing.T, steps int) *dataset.Dataset {
	t.Helper()
	store, err := dataset.NewStore(testutil.RampSeries(steps, 2, 2, 2), testutil.POIGrid(1, 2, 2), false)
	require.NoError(t, err)
	ds, err := dataset.New(store, dataset.Windows{
		Closeness: dataset.WindowSpec{Length: 2, Step: 1},
		Period:    dataset.WindowSpec{Length: 0, Step: 24},
		Trend:     dataset.WindowSpec{Length: 0, Step: 168},
	})
	require.NoError(t, err)
	return ds
}

func decodeWritten(t *testing.T, conn *MockConnection) []wireMessage {
	t.Helper()
	var out []wireMessage
	for _, m := range conn.Written() {
		if m.Type != gorilla.TextMessage {
			continue
		}
		var msg wireMessage
		require.NoError(t, json.Unmarshal(m.Data, &msg))
		out = append(out, msg)
	}
	return out
}

func TestStreamer_Batches(t *testing.T) {
	ds := closenessDataset(t, 10)
	require.Equal(t, 8, ds.Len())

	conn := NewMockConnection()
	logger, logs := testutil.NewTestLogger(t)
	session := NewSession(conn, "trace-1", 0, logger)
	streamer := NewStreamer(session, nil)

	var counted []int
	streamer.OnBatch = func(_ context.Context, n int) { counted = append(counted, n) }

	result, err := streamer.Stream(context.Background(), ds.View(), StreamRequest{Start: 0, End: 8, BatchSize: 3})
	require.NoError(t, err)
	assert.Equal(t, StreamResult{Batches: 3, Samples: 8}, result)
	assert.Equal(t, []int{3, 3, 2}, counted)

	msgs := decodeWritten(t, conn)
	require.Len(t, msgs, 4)
	for i, want := range [][2]int{{0, 3}, {3, 6}, {6, 8}} {
		assert.Equal(t, "batch", msgs[i].Type)
		assert.Equal(t, i, msgs[i].Batch)
		assert.Equal(t, "periodical", msgs[i].Mode)
		assert.Equal(t, "trace-1", msgs[i].TraceID)
		assert.Equal(t, want[0], msgs[i].Start)
		assert.Equal(t, want[1], msgs[i].End)
		assert.Len(t, msgs[i].Samples, want[1]-want[0])
	}
	assert.Equal(t, "done", msgs[3].Type)
	assert.Equal(t, 3, msgs[3].Batches)
	assert.Equal(t, 8, msgs[3].Count)
	assert.Empty(t, msgs[3].Samples)

	// the first sample of the periodical view targets timestep 2
	var first struct {
		YData struct {
			Shape []int     `json:"shape"`
			Data  []float64 `json:"data"`
		} `json:"y_data"`
	}
	require.NoError(t, json.Unmarshal(msgs[0].Samples[0], &first))
	assert.Equal(t, []int{2, 2, 2}, first.YData.Shape)
	assert.Equal(t, 2.0, first.YData.Data[0])

	testutil.AssertLogged(t, logs, slog.LevelInfo, "stream finished")
	sent, _ := session.Stats()
	assert.Equal(t, int64(4), sent)
}

func TestStreamer_LeadTimeMode(t *testing.T) {
	ds := closenessDataset(t, 10)
	require.NoError(t, ds.MergeClosenessPeriodTrend(4))

	conn := NewMockConnection()
	streamer := NewStreamer(NewSession(conn, "", 0, nil), nil)

	result, err := streamer.Stream(context.Background(), ds.View(), StreamRequest{Start: 1, End: 6, BatchSize: 10})
	require.NoError(t, err)
	assert.Equal(t, StreamResult{Batches: 1, Samples: 5}, result)

	msgs := decodeWritten(t, conn)
	require.Len(t, msgs, 2)
	assert.Equal(t, "lead_time", msgs[0].Mode)
	assert.Equal(t, "done", msgs[1].Type)
	assert.Equal(t, 5, msgs[1].Count)

	var sample struct {
		X struct {
			Data []float64 `json:"data"`
		} `json:"x_data"`
		Y struct {
			Data []float64 `json:"data"`
		} `json:"y_data"`
	}
	require.NoError(t, json.Unmarshal(msgs[0].Samples[0], &sample))
	assert.Equal(t, 1.0, sample.X.Data[0])
	assert.Equal(t, 5.0, sample.Y.Data[0])
}

func TestStreamer_InvalidRequests(t *testing.T) {
	ds := closenessDataset(t, 10)

	tests := []struct {
		name    string
		req     StreamRequest
		errType apperrors.ErrorType
	}{
		{"zero batch size", StreamRequest{Start: 0, End: 4, BatchSize: 0}, apperrors.ErrTypeInvalidConfiguration},
		{"reversed range", StreamRequest{Start: 5, End: 2, BatchSize: 1}, apperrors.ErrTypeInvalidConfiguration},
		{"negative start", StreamRequest{Start: -1, End: 2, BatchSize: 1}, apperrors.ErrTypeInvalidConfiguration},
		{"past the end", StreamRequest{Start: 0, End: 9, BatchSize: 1}, apperrors.ErrTypeIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := NewMockConnection()
			_, err := NewStreamer(NewSession(conn, "", 0, nil), nil).Stream(context.Background(), ds.View(), tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.errType), err.Error())

			msgs := decodeWritten(t, conn)
			require.Len(t, msgs, 1)
			assert.Equal(t, "error", msgs[0].Type)
			assert.Equal(t, string(tt.errType), msgs[0].Code)
		})
	}
}

func TestStreamer_EmptyRange(t *testing.T) {
	conn := NewMockConnection()
	result, err := NewStreamer(NewSession(conn, "", 0, nil), nil).
		Stream(context.Background(), closenessDataset(t, 10).View(), StreamRequest{Start: 3, End: 3, BatchSize: 2})
	require.NoError(t, err)
	assert.Zero(t, result.Batches)

	msgs := decodeWritten(t, conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "done", msgs[0].Type)
}

func TestStreamer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := NewMockConnection()
	_, err := NewStreamer(NewSession(conn, "", 0, nil), nil).
		Stream(ctx, closenessDataset(t, 10).View(), StreamRequest{Start: 0, End: 8, BatchSize: 2})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, decodeWritten(t, conn))
}

func TestStreamer_WriteFailure(t *testing.T) {
	conn := NewMockConnection()
	conn.WriteMessageFunc = func(int, []byte) error { return assert.AnError }

	_, err := NewStreamer(NewSession(conn, "", 0, nil), nil).
		Stream(context.Background(), closenessDataset(t, 10).View(), StreamRequest{Start: 0, End: 2, BatchSize: 1})
	assert.ErrorIs(t, err, assert.AnError)
}
