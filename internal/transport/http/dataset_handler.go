package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	gorilla "github.com/gorilla/websocket"

	"stflow/internal/config"
	"stflow/internal/dataset"
	apierrors "stflow/internal/errors"
	"stflow/internal/evaluation"
	"stflow/internal/infrastructure"
	"stflow/internal/middleware"
	"stflow/internal/websocket"
	api "stflow/pkg/contracts/api/v1"
)

// DefaultStreamBatchSize is used when a stream request has no batch_size
const DefaultStreamBatchSize = evaluation.DefaultBatchSize

// DatasetHandlerConfig carries the dependencies of a DatasetHandler
type DatasetHandlerConfig struct {
	Logger         *slog.Logger
	ErrorHandler   *apierrors.ErrorHandler
	Metrics        *infrastructure.HTTPMetrics
	WebSocket      config.WebSocketConfig
	AllowedOrigins []string
	// RequestTimeout bounds every route except the stream. Zero disables it.
	RequestTimeout time.Duration
}

// DatasetHandler serves the samples of one dataset over HTTP and WebSocket
type DatasetHandler struct {
	service        DatasetService
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	validator      *middleware.Validator
	query          *middleware.QueryParamValidator
	metrics        *infrastructure.HTTPMetrics
	upgrader       gorilla.Upgrader
	wsConfig       config.WebSocketConfig
	requestTimeout time.Duration
}

// NewDatasetHandler creates a dataset handler with RFC 7807 error handling
func NewDatasetHandler(service DatasetService, cfg DatasetHandlerConfig) *DatasetHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := cfg.ErrorHandler
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	if cfg.WebSocket.MaxBatchSize < 1 {
		cfg.WebSocket.MaxBatchSize = config.Default().Server.WebSocket.MaxBatchSize
	}

	allowed := cfg.AllowedOrigins
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		validator:    middleware.NewValidator(logger, errorHandler),
		query:        middleware.NewQueryParamValidator(errorHandler),
		metrics:      cfg.Metrics,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowed, origin)
			},
		},
		wsConfig:       cfg.WebSocket,
		requestTimeout: cfg.RequestTimeout,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// the stream outlives any request timeout
	r.Get("/stream", h.Stream)

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		if h.requestTimeout > 0 {
			r.Use(middleware.Timeout(h.requestTimeout, h.errorHandler))
		}

		r.Get("/", h.GetSummary)
		r.Get("/split", h.GetSplit)
		r.Get("/samples/{index}", h.GetSample)
		r.With(middleware.ContentTypeValidator(h.errorHandler, "application/json")).
			Put("/mode", h.PutMode)
	})

	return r
}

// GetSummary handles GET /api/v1/dataset
func (h *DatasetHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Describe())
}

// GetSample handles GET /api/v1/dataset/samples/{index}
func (h *DatasetHandler) GetSample(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("index", err))
		return
	}

	sample, err := h.service.Get(index)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, api.SampleResponse{
		Index:  index,
		Mode:   sample.Mode().String(),
		Sample: sample,
	})
}

// PutMode handles PUT /api/v1/dataset/mode
func (h *DatasetHandler) PutMode(w http.ResponseWriter, r *http.Request) {
	var req api.ModeRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.applyMode(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view := h.service.View()
	h.logger.InfoContext(r.Context(), "dataset mode changed",
		slog.String("mode", view.Mode().String()),
		slog.Int("length", view.Len()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	render.JSON(w, r, api.ModeResponse{Mode: view.Mode().String(), Length: view.Len()})
}

func (h *DatasetHandler) applyMode(req api.ModeRequest) error {
	mode, err := dataset.ParseMode(req.Mode)
	if err != nil {
		return apierrors.InvalidParameter("mode", err)
	}

	switch mode {
	case dataset.ModeSequential:
		return h.service.SetSequentialRepresentation(req.HistoryLength, req.PredictionLength)
	case dataset.ModeLeadTime:
		lead := req.LeadTime
		if lead == 0 {
			lead = dataset.DefaultLeadTime
		}
		return h.service.MergeClosenessPeriodTrend(lead)
	default:
		h.service.UsePeriodicalRepresentation()
		return nil
	}
}

// GetSplit handles GET /api/v1/dataset/split
func (h *DatasetHandler) GetSplit(w http.ResponseWriter, r *http.Request) {
	defaults := evaluation.DefaultConfig()

	validationRatio, ok := h.query.ValidateFloat(w, r, "validation_ratio", 0, 1, defaults.ValidationRatio)
	if !ok {
		return
	}
	testRatio, ok := h.query.ValidateFloat(w, r, "test_ratio", 0, 1, defaults.TestRatio)
	if !ok {
		return
	}

	n := h.service.Len()
	train, validation, test, err := evaluation.SplitRanges(n, validationRatio, testRatio)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, api.SplitResponse{
		Samples:    n,
		Train:      indexRange(train),
		Validation: indexRange(validation),
		Test:       indexRange(test),
	})
}

func indexRange(r evaluation.Range) api.IndexRange {
	return api.IndexRange{Start: r.Start, End: r.End, Len: r.Len()}
}

// Stream handles GET /api/v1/dataset/stream. Query parameters are checked
// before the upgrade so that bad requests get a problem response; the
// samples are read from the view active at that moment.
func (h *DatasetHandler) Stream(w http.ResponseWriter, r *http.Request) {
	view := h.service.View()
	n := view.Len()

	start, ok := h.query.ValidateInt(w, r, "start", 0, n, 0)
	if !ok {
		return
	}
	end, ok := h.query.ValidateInt(w, r, "end", 0, n, n)
	if !ok {
		return
	}
	if end < start {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("end",
			fmt.Errorf("end must not be less than start (%d), got %d", start, end)))
		return
	}
	batchSize, ok := h.query.ValidateInt(w, r, "batch_size", 1, h.wsConfig.MaxBatchSize,
		min(DefaultStreamBatchSize, h.wsConfig.MaxBatchSize))
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", middleware.GetRealIP(r)))
		return
	}

	session := websocket.NewSession(websocket.NewConnectionWrapper(conn),
		middleware.GetRequestID(r.Context()), h.wsConfig.WriteWait, h.logger)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go session.ReadPump(cancel)

	streamer := websocket.NewStreamer(session, h.logger)
	if h.metrics != nil {
		streamer.OnBatch = func(ctx context.Context, _ int) {
			h.metrics.StreamedBatches.Add(ctx, 1)
		}
	}

	req := websocket.StreamRequest{Start: start, End: end, BatchSize: batchSize}
	if _, err := streamer.Stream(ctx, view, req); err != nil {
		h.logger.WarnContext(session.Context(ctx), "stream aborted", slog.String("error", err.Error()))
		if h.metrics != nil {
			h.metrics.RecordSystemError(ctx, string(apierrors.TypeOf(err)), "websocket")
		}
		session.Close(gorilla.CloseInternalServerErr, "stream aborted")
		return
	}
	session.Close(gorilla.CloseNormalClosure, "stream complete")
}
