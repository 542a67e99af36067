package evaluation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"stflow/internal/dataset"
	apperrors "stflow/internal/errors"
	"stflow/internal/grid"
)

// DefaultBatchSize matches the batch size of the reference training loop
const DefaultBatchSize = 32

// Batch is a group of periodical samples in visiting order
type Batch struct {
	Number  int
	Indices []int
	Samples []dataset.PeriodicalSample
}

// Targets stacks the y_data of every sample into (B, C, H, W)
func (b Batch) Targets() (*grid.Tensor, error) {
	targets := make([]*grid.Tensor, len(b.Samples))
	for i, s := range b.Samples {
		targets[i] = s.YData
	}
	return grid.Stack(targets...)
}

// Loader fetches samples of a view in batches. Samples inside a batch are
// fetched concurrently by at most Workers goroutines and kept in order.
type Loader struct {
	View      dataset.View
	Order     []int
	BatchSize int
	Workers   int
}

// Batches calls fn for every batch of l.Order in sequence. It stops at the
// first error returned by fn or by the view.
func (l *Loader) Batches(ctx context.Context, fn func(Batch) error) error {
	size := l.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	if l.View.Mode() != dataset.ModePeriodical {
		return apperrors.NewInvalidConfigurationError("loader needs the periodical representation, dataset is in %s mode", l.View.Mode())
	}

	for number, start := 0, 0; start < len(l.Order); number, start = number+1, start+size {
		end := min(start+size, len(l.Order))
		batch, err := l.fetch(ctx, l.Order[start:end])
		if err != nil {
			return err
		}
		batch.Number = number
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) fetch(ctx context.Context, indices []int) (Batch, error) {
	samples := make([]dataset.PeriodicalSample, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	if l.Workers > 0 {
		g.SetLimit(l.Workers)
	}
	for j, index := range indices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sample, err := l.View.Get(index)
			if err != nil {
				return err
			}
			ps, ok := sample.(dataset.PeriodicalSample)
			if !ok {
				return apperrors.NewInvalidConfigurationError("sample %d is a %s sample, want periodical", index, sample.Mode())
			}
			samples[j] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}

	return Batch{Indices: indices, Samples: samples}, nil
}
