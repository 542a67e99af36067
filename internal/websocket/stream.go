package websocket

import (
	"context"
	"fmt"
	"log/slog"

	"stflow/internal/dataset"
	apperrors "stflow/internal/errors"
	"stflow/pkg/contracts/events"
)

// StreamRequest selects the samples [Start, End) of a view, BatchSize at a time
type StreamRequest struct {
	Start     int
	End       int
	BatchSize int
}

// Validate checks the request against a view of length n
func (r StreamRequest) Validate(n int) error {
	switch {
	case r.BatchSize < 1:
		return apperrors.NewInvalidConfigurationError("batch_size must be at least 1, got %d", r.BatchSize)
	case r.Start < 0 || r.End < r.Start:
		return apperrors.NewInvalidConfigurationError("invalid sample range [%d, %d)", r.Start, r.End)
	case r.End > n:
		return apperrors.NewIndexOutOfRangeError(r.End-1, n)
	}
	return nil
}

// StreamResult summarizes a finished stream
type StreamResult struct {
	Batches int
	Samples int
}

// Streamer writes consecutive sample batches of a view to a session
type Streamer struct {
	session *Session
	logger  *slog.Logger
	// OnBatch is called after each batch is written
	OnBatch func(ctx context.Context, samples int)
}

// NewStreamer creates a streamer on session
func NewStreamer(session *Session, logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = session.logger
	}
	return &Streamer{
		session: session,
		logger:  logger.With(slog.String("component", "websocket.streamer")),
	}
}

// Stream sends req as batch messages followed by a done message. A failure
// after the first write is reported to the client with an error message.
// The stream stops early when ctx is cancelled.
func (st *Streamer) Stream(ctx context.Context, view dataset.View, req StreamRequest) (StreamResult, error) {
	var result StreamResult
	ctx = st.session.Context(ctx)

	if err := req.Validate(view.Len()); err != nil {
		st.sendError(err)
		return result, err
	}

	st.logger.InfoContext(ctx, "stream started",
		slog.String("mode", view.Mode().String()),
		slog.Int("start", req.Start),
		slog.Int("end", req.End),
		slog.Int("batch_size", req.BatchSize))

	for start := req.Start; start < req.End; start += req.BatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := min(start+req.BatchSize, req.End)
		msg := events.BatchMessage{
			BaseMessage: events.NewBase(events.MessageTypeBatch, st.session.traceID),
			Batch:       result.Batches,
			Mode:        view.Mode().String(),
			Start:       start,
			End:         end,
			Samples:     make([]interface{}, 0, end-start),
		}
		for i := start; i < end; i++ {
			sample, err := view.Get(i)
			if err != nil {
				st.sendError(err)
				return result, fmt.Errorf("sample %d: %w", i, err)
			}
			msg.Samples = append(msg.Samples, sample)
		}

		if err := st.session.Send(msg); err != nil {
			return result, fmt.Errorf("batch %d: %w", result.Batches, err)
		}
		result.Batches++
		result.Samples += end - start
		if st.OnBatch != nil {
			st.OnBatch(ctx, end-start)
		}
	}

	done := events.DoneMessage{
		BaseMessage: events.NewBase(events.MessageTypeDone, st.session.traceID),
		Batches:     result.Batches,
		SampleCount: result.Samples,
	}
	if err := st.session.Send(done); err != nil {
		return result, fmt.Errorf("done message: %w", err)
	}

	st.logger.InfoContext(ctx, "stream finished",
		slog.Int("batches", result.Batches),
		slog.Int("samples", result.Samples))
	return result, nil
}

func (st *Streamer) sendError(err error) {
	code := string(apperrors.TypeOf(err))
	if code == "" {
		code = "INTERNAL"
	}
	msg := events.ErrorMessage{
		BaseMessage: events.NewBase(events.MessageTypeError, st.session.traceID),
		Code:        code,
		Message:     err.Error(),
	}
	if sendErr := st.session.Send(msg); sendErr != nil {
		st.logger.Debug("error message not delivered", slog.String("error", sendErr.Error()))
	}
}
