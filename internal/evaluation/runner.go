package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"stflow/internal/dataset"
	apperrors "stflow/internal/errors"
	"stflow/internal/exporter"
	"stflow/internal/grid"
)

// Config controls an evaluation run
type Config struct {
	ValidationRatio float64
	TestRatio       float64
	BatchSize       int
	Workers         int
	Iterations      int
	Seed            uint64
}

// DefaultConfig is an 80/10/10 split with batches of 32 and five iterations
func DefaultConfig() Config {
	return Config{
		ValidationRatio: 0.1,
		TestRatio:       0.1,
		BatchSize:       DefaultBatchSize,
		Workers:         4,
		Iterations:      5,
		Seed:            1,
	}
}

// Source is what a Runner reads samples and the normalization range from
type Source interface {
	View() dataset.View
	MinMaxDifference() float64
}

// BatchLogHeaders are the columns written to a Runner batch log
var BatchLogHeaders = []string{"iteration", "predictor", "batch", "size", "mse", "mae", "rmse"}

// Runner scores predictors on a dataset
type Runner struct {
	source     Source
	predictors []Predictor
	cfg        Config
	logger     *slog.Logger
	batchLog   *exporter.StreamWriter
}

// NewRunner creates a runner. Predictor names must be unique.
func NewRunner(source Source, predictors []Predictor, cfg Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(predictors) == 0 {
		return nil, apperrors.NewInvalidConfigurationError("no predictors to evaluate")
	}
	seen := make(map[string]bool, len(predictors))
	for _, p := range predictors {
		if seen[p.Name()] {
			return nil, apperrors.NewInvalidConfigurationError("duplicate predictor %q", p.Name())
		}
		seen[p.Name()] = true
	}
	if cfg.Iterations < 1 {
		return nil, apperrors.NewInvalidConfigurationError("iterations must be >= 1, got %d", cfg.Iterations)
	}

	return &Runner{
		source:     source,
		predictors: predictors,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "evaluation")),
	}, nil
}

// SetBatchLog streams per-batch test errors to w
func (r *Runner) SetBatchLog(w *exporter.StreamWriter) {
	r.batchLog = w
}

// Run evaluates every predictor on the validation and test parts for the
// configured number of iterations
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	view := r.source.View()
	indices, err := Split(view.Len(), r.cfg.ValidationRatio, r.cfg.TestRatio)
	if err != nil {
		return nil, err
	}
	if len(indices.Validation) == 0 || len(indices.Test) == 0 {
		return nil, apperrors.NewInvalidConfigurationError(
			"%d samples leave %d validation and %d test samples", view.Len(), len(indices.Validation), len(indices.Test))
	}

	report := &Report{
		RunID:            uuid.NewString(),
		StartedAt:        time.Now().UTC(),
		Samples:          view.Len(),
		TrainSamples:     len(indices.Train),
		ValidSamples:     len(indices.Validation),
		TestSamples:      len(indices.Test),
		MinMaxDifference: r.source.MinMaxDifference(),
	}
	r.logger.InfoContext(ctx, "evaluation started",
		slog.String("run_id", report.RunID),
		slog.Int("samples", report.Samples),
		slog.Int("validation", report.ValidSamples),
		slog.Int("test", report.TestSamples),
		slog.Int("predictors", len(r.predictors)))

	validation := NewSampler(indices.Validation, r.cfg.Seed)
	test := NewSampler(indices.Test, r.cfg.Seed+1)

	for it := 0; it < r.cfg.Iterations; it++ {
		valErrs, err := r.pass(ctx, view, validation.Epoch(), it, nil)
		if err != nil {
			return nil, fmt.Errorf("validation pass %d: %w", it, err)
		}
		testErrs, err := r.pass(ctx, view, test.Epoch(), it, r.batchLog)
		if err != nil {
			return nil, fmt.Errorf("test pass %d: %w", it, err)
		}

		best := 0
		rows := make([]Row, len(r.predictors))
		for i, p := range r.predictors {
			rows[i] = Row{
				Iteration:      it,
				Predictor:      p.Name(),
				ValidationLoss: valErrs[i].MSE,
				Test:           testErrs[i],
				Real:           testErrs[i].Real(report.MinMaxDifference),
			}
			if rows[i].ValidationLoss < rows[best].ValidationLoss {
				best = i
			}
		}
		rows[best].Best = true
		report.Rows = append(report.Rows, rows...)

		r.logger.InfoContext(ctx, "iteration finished",
			slog.Int("iteration", it),
			slog.String("best", rows[best].Predictor),
			slog.Float64("validation_loss", rows[best].ValidationLoss),
			slog.Float64("mse", rows[best].Test.MSE),
			slog.Float64("mae", rows[best].Test.MAE),
			slog.Float64("rmse", rows[best].Test.RMSE),
			slog.Float64("real_mae", rows[best].Real.MAE),
			slog.Float64("real_rmse", rows[best].Real.RMSE))
	}

	summary, err := summarize(r.predictors, report.Rows, report.MinMaxDifference)
	if err != nil {
		return nil, err
	}
	report.Summary = summary
	report.FinishedAt = time.Now().UTC()

	r.logger.InfoContext(ctx, "evaluation finished",
		slog.String("run_id", report.RunID),
		slog.String("best", report.Best().Predictor),
		slog.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

// pass visits order once and returns, per predictor, the mean of the batch errors
func (r *Runner) pass(ctx context.Context, view dataset.View, order []int, iteration int, sink *exporter.StreamWriter) ([]Errors, error) {
	batches := make([][]Errors, len(r.predictors))

	loader := &Loader{View: view, Order: order, BatchSize: r.cfg.BatchSize, Workers: r.cfg.Workers}
	err := loader.Batches(ctx, func(b Batch) error {
		targets, err := b.Targets()
		if err != nil {
			return err
		}
		for i, p := range r.predictors {
			e, err := scoreBatch(p, b, targets)
			if err != nil {
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
			batches[i] = append(batches[i], e)
			if sink != nil {
				if err := sink.WriteRecord([]string{
					exporter.FormatInt(iteration), p.Name(), exporter.FormatInt(b.Number), exporter.FormatInt(len(b.Samples)),
					exporter.FormatFloat(e.MSE), exporter.FormatFloat(e.MAE), exporter.FormatFloat(e.RMSE),
				}); err != nil {
					return fmt.Errorf("write batch log: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Errors, len(r.predictors))
	for i, errs := range batches {
		out[i], err = meanErrors(errs)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scoreBatch(p Predictor, b Batch, targets *grid.Tensor) (Errors, error) {
	preds := make([]*grid.Tensor, len(b.Samples))
	for j, s := range b.Samples {
		pred, err := p.Predict(s)
		if err != nil {
			return Errors{}, err
		}
		preds[j] = pred
	}
	stacked, err := grid.Stack(preds...)
	if err != nil {
		return Errors{}, err
	}
	return ComputeErrors(stacked, targets)
}

func meanErrors(errs []Errors) (Errors, error) {
	mse := make([]float64, len(errs))
	mae := make([]float64, len(errs))
	rmse := make([]float64, len(errs))
	for i, e := range errs {
		mse[i], mae[i], rmse[i] = e.MSE, e.MAE, e.RMSE
	}

	var out Errors
	var err error
	if out.MSE, err = stats.Mean(mse); err != nil {
		return Errors{}, fmt.Errorf("mean mse: %w", err)
	}
	if out.MAE, err = stats.Mean(mae); err != nil {
		return Errors{}, fmt.Errorf("mean mae: %w", err)
	}
	if out.RMSE, err = stats.Mean(rmse); err != nil {
		return Errors{}, fmt.Errorf("mean rmse: %w", err)
	}
	return out, nil
}
