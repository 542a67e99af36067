package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stflow/internal/dataset"
	apperrors "stflow/internal/errors"
)

func TestPredictors_OnRamp(t *testing.T) {
	ds := rampDataset(t, 400, windows(3, 2, 1))
	sample, err := ds.Get(10)
	require.NoError(t, err)
	ps := sample.(dataset.PeriodicalSample)
	target := ps.YData.At(0, 0, 0)

	tests := []struct {
		predictor Predictor
		name      string
		want      float64
	}{
		{LastFrame{Channels: testChannels}, "last_frame", target - 1},
		{ScaleMean{Scale: Closeness, Channels: testChannels}, "closeness_mean", target - 2},
		{ScaleMean{Scale: Period, Channels: testChannels}, "period_mean", target - 36},
		{ScaleMean{Scale: Trend, Channels: testChannels}, "trend_mean", target - 168},
		// lags 1, 2, 3, 24, 48 and 168
		{HistoricalMean{Channels: testChannels}, "historical_mean", target - 246.0/6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.predictor.Name())

			pred, err := tt.predictor.Predict(ps)
			require.NoError(t, err)
			assert.Equal(t, ps.YData.Shape(), pred.Shape())
			assert.InDelta(t, tt.want, pred.Min(), 1e-9)
			assert.InDelta(t, tt.want, pred.Max(), 1e-9)
		})
	}
}

func TestLastFrame_DoesNotAliasSample(t *testing.T) {
	ds := rampDataset(t, 50, windows(2, 0, 0))
	sample, err := ds.Get(0)
	require.NoError(t, err)
	ps := sample.(dataset.PeriodicalSample)

	pred, err := LastFrame{Channels: testChannels}.Predict(ps)
	require.NoError(t, err)
	pred.Set(-5, 0, 0, 0)
	assert.NotEqual(t, -5.0, ps.XCloseness.At(0, 0, 0))
}

func TestPredictors_Errors(t *testing.T) {
	ds := rampDataset(t, 60, windows(0, 2, 0))
	sample, err := ds.Get(0)
	require.NoError(t, err)
	ps := sample.(dataset.PeriodicalSample)

	_, err = LastFrame{Channels: testChannels}.Predict(ps)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidConfiguration))

	_, err = ScaleMean{Scale: Trend, Channels: testChannels}.Predict(ps)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidConfiguration))

	_, err = HistoricalMean{Channels: 0}.Predict(ps)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidConfiguration))

	_, err = HistoricalMean{Channels: 3}.Predict(ps)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMalformedInput))
}

func TestBaselines(t *testing.T) {
	names := func(ps []Predictor) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Name()
		}
		return out
	}

	assert.Equal(t,
		[]string{"last_frame", "closeness_mean", "period_mean", "trend_mean", "historical_mean"},
		names(Baselines(2, windows(3, 4, 4))))
	assert.Equal(t, []string{"period_mean", "historical_mean"}, names(Baselines(2, windows(0, 4, 0))))
}

func TestScaleString(t *testing.T) {
	assert.Equal(t, "closeness", Closeness.String())
	assert.Equal(t, "period", Period.String())
	assert.Equal(t, "trend", Trend.String())
	assert.Equal(t, "Scale(7)", Scale(7).String())
}
