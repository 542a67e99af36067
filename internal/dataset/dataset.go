package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"stflow/internal/download"
	"stflow/internal/grid"
)

// Fetcher downloads url into dir and returns the local path
type Fetcher interface {
	Fetch(ctx context.Context, url, dir string) (string, error)
}

// Option customizes a Dataset
type Option func(*settings)

type settings struct {
	logger  *slog.Logger
	meter   metric.Meter
	tracer  trace.Tracer
	fetcher Fetcher
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithMeter sets the meter used for dataset instruments
func WithMeter(meter metric.Meter) Option {
	return func(s *settings) { s.meter = meter }
}

// WithTracer sets the tracer used for construction spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *settings) { s.tracer = tracer }
}

// WithFetcher replaces the HTTP downloader used when Options.Download is set
func WithFetcher(f Fetcher) Option {
	return func(s *settings) { s.fetcher = f }
}

func newSettings(opts []Option) *settings {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(instrumentationName)
	}
	return s
}

type viewRef struct {
	View
}

// Dataset turns a flow series into model-ready samples. All arrays are
// built eagerly; after construction only the active view changes, and it is
// replaced as a whole, so Len and Get may be called from many goroutines.
type Dataset struct {
	store    *Store
	windows  Windows
	features *Features
	current  atomic.Pointer[viewRef]

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *instruments
}

// Open downloads the arrays if asked, loads them from opts.Root and builds the dataset
func Open(ctx context.Context, opts Options, options ...Option) (*Dataset, error) {
	s := newSettings(options)
	ctx, span := s.tracer.Start(ctx, "dataset.Open", trace.WithAttributes(attribute.String("root", opts.Root)))
	defer span.End()

	windows := opts.Windows()
	if _, err := windows.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if opts.Download {
		fetcher := s.fetcher
		if fetcher == nil {
			fetcher = download.NewFetcher(nil, s.logger)
		}
		for _, url := range []string{FlowURL, POIURL} {
			if _, err := fetcher.Fetch(ctx, url, opts.Root); err != nil {
				span.SetStatus(codes.Error, err.Error())
				return nil, fmt.Errorf("download dataset: %w", err)
			}
		}
	}

	store, err := LoadStore(ctx, opts.Root, opts.Normalize, s.logger)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return newDataset(ctx, store, windows, s)
}

// New builds a dataset over an already loaded store
func New(store *Store, windows Windows, options ...Option) (*Dataset, error) {
	return newDataset(context.Background(), store, windows, newSettings(options))
}

func newDataset(ctx context.Context, store *Store, windows Windows, s *settings) (*Dataset, error) {
	metrics, err := newInstruments(s.meter)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "dataset.Build")
	defer span.End()

	start := time.Now()
	features, err := Align(store.Flow, store.POI, windows)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	elapsed := time.Since(start)

	d := &Dataset{
		store:    store,
		windows:  windows,
		features: features,
		logger:   s.logger.With(slog.String("component", "dataset")),
		tracer:   s.tracer,
		metrics:  metrics,
	}
	d.current.Store(&viewRef{NewPeriodicalView(features)})
	metrics.recordBuild(ctx, ModePeriodical, elapsed)

	span.SetAttributes(
		attribute.Int("steps", store.Steps()),
		attribute.Int("skip", features.Skip),
		attribute.Int("samples", features.Len()),
	)
	d.logger.InfoContext(ctx, "dataset built",
		slog.Int("steps", store.Steps()),
		slog.Int("skip", features.Skip),
		slog.Int("samples", features.Len()),
		slog.Float64("min_max_diff", store.Scaler.Diff()),
		slog.Duration("duration", elapsed),
	)
	if features.Len() == 0 {
		d.logger.WarnContext(ctx, "skip offset leaves no samples",
			slog.Int("steps", store.Steps()),
			slog.Int("skip", features.Skip))
	}
	return d, nil
}

// MinMaxDifference returns max-min of the raw flow series
func (d *Dataset) MinMaxDifference() float64 {
	return d.store.Scaler.Diff()
}

// Scaler returns the fitted scaler
func (d *Dataset) Scaler() MinMaxScaler {
	return d.store.Scaler
}

// SkipOffset returns the number of leading timesteps excluded from the periodical samples
func (d *Dataset) SkipOffset() int {
	return d.features.Skip
}

// Features returns the periodical arrays. They must not be modified.
func (d *Dataset) Features() *Features {
	return d.features
}

// Full returns the (normalized) flow series. It must not be modified.
func (d *Dataset) Full() *grid.Tensor {
	return d.store.Flow
}

// Store returns the underlying array store
func (d *Dataset) Store() *Store {
	return d.store
}

// Windows returns the window configuration
func (d *Dataset) Windows() Windows {
	return d.windows
}

// View returns the active view
func (d *Dataset) View() View {
	return d.current.Load().View
}

// Mode returns the active mode
func (d *Dataset) Mode() Mode {
	return d.View().Mode()
}

// Len returns the number of samples in the active mode
func (d *Dataset) Len() int {
	return d.View().Len()
}

// Get returns sample index in the active mode
func (d *Dataset) Get(index int) (Sample, error) {
	v := d.View()
	sample, err := v.Get(index)
	if err != nil {
		return nil, err
	}
	d.metrics.recordSample(context.Background(), v.Mode())
	return sample, nil
}

// SetSequentialRepresentation switches to history/prediction pairs cut from
// the full series, with historyLength input frames and predictionLength target frames
func (d *Dataset) SetSequentialRepresentation(historyLength, predictionLength int) error {
	return d.switchTo(ModeSequential, func() (View, error) {
		return NewSequentialView(d.store.Flow, historyLength, predictionLength)
	}, slog.Int("history_length", historyLength), slog.Int("prediction_length", predictionLength))
}

// MergeClosenessPeriodTrend switches to single-frame pairs leadTime steps apart
func (d *Dataset) MergeClosenessPeriodTrend(leadTime int) error {
	return d.switchTo(ModeLeadTime, func() (View, error) {
		return NewLeadTimeView(d.store.Flow, leadTime)
	}, slog.Int("lead_time", leadTime))
}

// UsePeriodicalRepresentation switches back to the closeness/period/trend samples
func (d *Dataset) UsePeriodicalRepresentation() {
	d.switchTo(ModePeriodical, func() (View, error) {
		return NewPeriodicalView(d.features), nil
	})
}

func (d *Dataset) switchTo(mode Mode, build func() (View, error), attrs ...any) error {
	ctx, span := d.tracer.Start(context.Background(), "dataset.SwitchMode",
		trace.WithAttributes(attribute.String("mode", mode.String())))
	defer span.End()

	start := time.Now()
	view, err := build()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		d.logger.WarnContext(ctx, "mode switch rejected", append(attrs, slog.String("mode", mode.String()), slog.String("error", err.Error()))...)
		return err
	}
	elapsed := time.Since(start)

	previous := d.current.Swap(&viewRef{view})
	d.metrics.recordBuild(ctx, mode, elapsed)
	d.metrics.recordSwitch(ctx, mode)

	d.logger.InfoContext(ctx, "sample mode switched", append(attrs,
		slog.String("from", previous.Mode().String()),
		slog.String("to", mode.String()),
		slog.Int("samples", view.Len()),
		slog.Duration("duration", elapsed),
	)...)
	return nil
}
