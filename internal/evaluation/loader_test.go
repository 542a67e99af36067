package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stflow/internal/errors"
)

func TestLoader_Batches(t *testing.T) {
	ds := rampDataset(t, 40, windows(2, 0, 0))
	order := []int{9, 3, 0, 7, 1, 5, 2, 8, 6, 4}

	loader := &Loader{View: ds.View(), Order: order, BatchSize: 4, Workers: 3}

	var sizes, numbers, seen []int
	err := loader.Batches(context.Background(), func(b Batch) error {
		sizes = append(sizes, len(b.Samples))
		numbers = append(numbers, b.Number)
		for j, s := range b.Samples {
			// the target of sample i on a ramp with skip 2 is i+2
			assert.Equal(t, float64(b.Indices[j]+2), s.YData.At(0, 0, 0))
		}
		seen = append(seen, b.Indices...)

		targets, err := b.Targets()
		require.NoError(t, err)
		assert.Equal(t, []int{len(b.Samples), testChannels, 3, 2}, targets.Shape())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{4, 4, 2}, sizes)
	assert.Equal(t, []int{0, 1, 2}, numbers)
	assert.Equal(t, order, seen)
}

func TestLoader_DefaultBatchSize(t *testing.T) {
	ds := rampDataset(t, 100, windows(2, 0, 0))
	order := make([]int, 70)
	for i := range order {
		order[i] = i
	}

	var sizes []int
	loader := &Loader{View: ds.View(), Order: order}
	require.NoError(t, loader.Batches(context.Background(), func(b Batch) error {
		sizes = append(sizes, len(b.Samples))
		return nil
	}))
	assert.Equal(t, []int{32, 32, 6}, sizes)
}

func TestLoader_Errors(t *testing.T) {
	ds := rampDataset(t, 40, windows(2, 0, 0))
	noop := func(Batch) error { return nil }

	t.Run("index out of range", func(t *testing.T) {
		loader := &Loader{View: ds.View(), Order: []int{0, 500}, BatchSize: 2}
		err := loader.Batches(context.Background(), noop)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIndexOutOfRange))
	})

	t.Run("callback error stops iteration", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		loader := &Loader{View: ds.View(), Order: []int{0, 1, 2, 3}, BatchSize: 1}
		err := loader.Batches(context.Background(), func(Batch) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		loader := &Loader{View: ds.View(), Order: []int{0, 1}, BatchSize: 2}
		assert.ErrorIs(t, loader.Batches(ctx, noop), context.Canceled)
	})

	t.Run("non periodical view", func(t *testing.T) {
		seq := rampDataset(t, 40, windows(2, 0, 0))
		require.NoError(t, seq.SetSequentialRepresentation(3, 1))
		loader := &Loader{View: seq.View(), Order: []int{0}}
		err := loader.Batches(context.Background(), noop)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidConfiguration))
	})
}
