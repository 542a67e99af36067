package dataset

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stflow/internal/errors"
	"stflow/internal/grid"
	"stflow/internal/shared/testutil"
)

func TestNewStore_Normalization(t *testing.T) {
	flow := testutil.FlowSeries(6, 2, 2, 2, func(t, c, y, x int) float64 {
		return float64(10*t + c + y + x)
	})
	poi := testutil.POIGrid(3, 2, 2)

	store, err := NewStore(flow, poi, true)
	require.NoError(t, err)

	assert.Equal(t, 53.0, store.Scaler.Max)
	assert.Equal(t, 0.0, store.Scaler.Min)
	assert.Equal(t, 53.0, store.Scaler.Diff())
	assert.True(t, store.Normalized)
	assert.InDelta(t, 1.0, store.Flow.Max(), 1e-12)
	assert.InDelta(t, -1.0, store.Flow.Min(), 1e-12)

	// the caller's array is left untouched
	assert.Equal(t, 53.0, flow.Max())

	for i, v := range store.Flow.Data() {
		assert.InDelta(t, (2*flow.Data()[i]-53)/53, v, 1e-12)
	}
}

func TestNewStore_DenormalizeRoundTrip(t *testing.T) {
	flow := testutil.FlowSeries(40, 2, 3, 3, func(t, c, y, x int) float64 {
		return float64((t*7+c*3+y*5+x)%17) + 2.5
	})
	store, err := NewStore(flow, testutil.POIGrid(1, 3, 3), true)
	require.NoError(t, err)

	ds, err := New(store, windows(2, 1, 0, 1, 4, 168))
	require.NoError(t, err)

	y := ds.Features().YData
	restored := ds.Scaler().DenormalizeTensor(y)
	original := flow.Slice(ds.SkipOffset(), 40)
	assert.True(t, original.Equal(restored, 1e-9))

	for _, v := range []float64{2.5, 7, 18.5} {
		assert.InDelta(t, v, store.Scaler.Denormalize(store.Scaler.Normalize(v)), 1e-12)
	}
}

func TestNewStore_WithoutNormalization(t *testing.T) {
	flow := testutil.RampSeries(5, 2, 2, 2)
	store, err := NewStore(flow, testutil.POIGrid(1, 2, 2), false)
	require.NoError(t, err)
	assert.False(t, store.Normalized)
	assert.True(t, flow.Equal(store.Flow, 0))
	assert.Equal(t, 4.0, store.Scaler.Diff())
}

func TestNewStore_Malformed(t *testing.T) {
	flow := testutil.RampSeries(5, 2, 3, 4)
	poi := testutil.POIGrid(2, 3, 4)
	flat, err := flow.Reshape(5, 24)
	require.NoError(t, err)

	tests := []struct {
		name      string
		flow      *grid.Tensor
		poi       *grid.Tensor
		normalize bool
	}{
		{"nil arrays", nil, nil, true},
		{"flow rank", flat, poi, true},
		{"poi rank", flow, flow, true},
		{"grid mismatch", flow, testutil.POIGrid(2, 4, 3), true},
		{"empty series", grid.New(0, 2, 3, 4), poi, true},
		{"constant series", grid.New(5, 2, 3, 4), poi, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore(tt.flow, tt.poi, tt.normalize)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMalformedInput), err.Error())
		})
	}

	// a constant series is fine when it is not normalized
	_, err = NewStore(grid.New(5, 2, 3, 4), poi, false)
	assert.NoError(t, err)
}

func TestLoadStore(t *testing.T) {
	root := t.TempDir()
	flow := testutil.RampSeries(12, 2, 3, 2)
	poi := testutil.POIGrid(2, 3, 2)
	testutil.WriteDataset(t, root, filepath.Join("raw", "BikeNYC"), flow, poi)

	logger, logs := testutil.NewTestLogger(t)
	store, err := LoadStore(context.Background(), root, false, logger)
	require.NoError(t, err)

	assert.True(t, flow.Equal(store.Flow, 0))
	assert.True(t, poi.Equal(store.POI, 0))
	assert.Equal(t, 12, store.Steps())

	rec := testutil.AssertLogged(t, logs, slog.LevelInfo, "arrays loaded")
	assert.Equal(t, filepath.Join(root, "raw", "BikeNYC"), rec.Attrs["dir"])
}

func TestLoadStore_Errors(t *testing.T) {
	t.Run("no data directory", func(t *testing.T) {
		_, err := LoadStore(context.Background(), t.TempDir(), true, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataNotFound))
	})

	t.Run("corrupt array", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, FlowFile), []byte("garbage"), 0644))
		require.NoError(t, grid.SaveNPY(filepath.Join(root, POIFile), testutil.POIGrid(1, 2, 2)))

		_, err := LoadStore(context.Background(), root, true, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMalformedInput))
	})

	t.Run("cancelled", func(t *testing.T) {
		root := t.TempDir()
		testutil.WriteDataset(t, root, ".", testutil.RampSeries(4, 1, 2, 2), testutil.POIGrid(1, 2, 2))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := LoadStore(ctx, root, true, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
