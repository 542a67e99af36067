package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stflow/internal/grid"
	"stflow/internal/shared/testutil"
)

func TestAlign_EqualLeadingDimension(t *testing.T) {
	series := testutil.RampSeries(400, 2, 3, 2)
	poi := testutil.POIGrid(3, 3, 2)

	configs := []Windows{
		windows(3, 4, 2, 1, 24, 168),
		windows(3, 4, 0, 1, 24, 168),
		windows(3, 0, 0, 1, 24, 168),
		windows(0, 2, 0, 1, 24, 168),
		windows(0, 0, 1, 1, 24, 168),
	}

	for _, w := range configs {
		f, err := Align(series, poi, w)
		require.NoError(t, err)

		skip, _ := w.SkipOffset()
		n := 400 - skip
		assert.Equal(t, skip, f.Skip)
		for name, arr := range map[string]*grid.Tensor{
			"x_closeness": f.XCloseness, "x_period": f.XPeriod, "x_trend": f.XTrend,
			"t_data": f.TData, "p_data": f.PData, "y_data": f.YData,
		} {
			assert.Equal(t, n, arr.Len(), "%s under %+v", name, w)
		}

		assert.Equal(t, []int{n, w.Closeness.Length * 2, 3, 2}, f.XCloseness.Shape())
		assert.Equal(t, []int{n, TemporalChannels, 3, 2}, f.TData.Shape())
		assert.Equal(t, []int{n, 3, 3, 2}, f.PData.Shape())
		assert.Equal(t, []int{n, 2, 3, 2}, f.YData.Shape())
	}
}

func TestAlign_TargetAndMaskOffsets(t *testing.T) {
	series := testutil.RampSeries(100, 1, 2, 2)
	f, err := Align(series, testutil.POIGrid(1, 2, 2), windows(3, 2, 0, 1, 24, 168))
	require.NoError(t, err)
	require.Equal(t, 48, f.Skip)

	for i := 0; i < f.Len(); i++ {
		assert.Equal(t, float64(48+i), f.YData.At(i, 0, 0, 0))
	}

	mask, err := EncodeTime(0, 100, 24, 2, 2)
	require.NoError(t, err)
	assert.True(t, mask.Slice(48, 100).Equal(f.TData, 0))

	// period lag k of the first target reaches back k days
	assert.Equal(t, 24.0, f.XPeriod.At(0, 0, 0, 0))
	assert.Equal(t, 0.0, f.XPeriod.At(0, 1, 0, 0))
}

func TestAlign_DegenerateSkipBeyondSeries(t *testing.T) {
	series := testutil.RampSeries(200, 2, 21, 12)
	f, err := Align(series, testutil.POIGrid(2, 21, 12), windows(3, 4, 4, 1, 24, 168))
	require.NoError(t, err)

	assert.Equal(t, 672, f.Skip)
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, []int{0, 6, 21, 12}, f.XCloseness.Shape())
	assert.Equal(t, []int{0, 8, 21, 12}, f.XPeriod.Shape())
	assert.Equal(t, []int{0, 8, 21, 12}, f.XTrend.Shape())
	assert.Equal(t, []int{0, TemporalChannels, 21, 12}, f.TData.Shape())
	assert.Equal(t, []int{0, 2, 21, 12}, f.PData.Shape())
	assert.Equal(t, []int{0, 2, 21, 12}, f.YData.Shape())
}

func TestNormalizePOI(t *testing.T) {
	poi, err := grid.FromData([]float64{
		0, 2, 4, 8, // channel 0, max 8
		0, 0, 0, 0, // channel 1, max 0
		5, 1, 3, 2.5, // channel 2, max 5
	}, 3, 2, 2)
	require.NoError(t, err)

	out := NormalizePOI(poi)
	assert.Equal(t, []float64{0, 0.25, 0.5, 1, 0, 0, 0, 0, 1, 0.2, 0.6, 0.5}, out.Data())
	assert.Equal(t, 8.0, poi.At(0, 1, 1), "input must not be modified")

	for c := 0; c < 3; c++ {
		assert.LessOrEqual(t, out.Index(c).Max(), 1.0)
		assert.GreaterOrEqual(t, out.Index(c).Min(), 0.0)
	}
}

func TestBroadcast(t *testing.T) {
	src, err := grid.FromData([]float64{1, 2, 3, 4}, 1, 2, 2)
	require.NoError(t, err)

	out := Broadcast(src, 3)
	assert.Equal(t, []int{3, 1, 2, 2}, out.Shape())
	for i := 0; i < 3; i++ {
		assert.True(t, src.Equal(out.Index(i), 0))
	}

	// samples are independent copies
	out.Index(0).Set(-1, 0, 0, 0)
	assert.Equal(t, 1.0, out.At(1, 0, 0, 0))

	assert.Equal(t, 0, Broadcast(src, 0).Len())
}
