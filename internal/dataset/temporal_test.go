package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	apperrors "stflow/internal/errors"
)

func TestHourAndDay(t *testing.T) {
	tests := []struct {
		i, period         int
		wantHour, wantDay int
	}{
		{0, 24, 0, 0},
		{23, 24, 23, 0},
		{24, 24, 0, 1},
		{167, 24, 23, 6},
		{168, 24, 0, 0},
		{13, 12, 1, 1},
		{100, 12, 4, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.wantHour, HourOfPeriod(tt.i, tt.period), "hour of %d/%d", tt.i, tt.period)
		assert.Equal(t, tt.wantDay, DayOfWeek(tt.i, tt.period), "day of %d/%d", tt.i, tt.period)
	}
}

func TestEncodeTime_OneHotSums(t *testing.T) {
	const height, width = 4, 3
	mask, err := EncodeTime(0, 200, 24, height, width)
	require.NoError(t, err)
	require.Equal(t, []int{200, TemporalChannels, height, width}, mask.Shape())

	for i := 0; i < 200; i++ {
		step := mask.Index(i)
		hours := step.Slice(0, HourChannels).Data()
		days := step.Slice(HourChannels, TemporalChannels).Data()

		assert.Equal(t, float64(height*width), floats.Sum(hours), "hour mask of step %d", i)
		assert.Equal(t, float64(height*width), floats.Sum(days), "day mask of step %d", i)

		hour := step.Index(HourOfPeriod(i, 24))
		assert.Equal(t, 1.0, hour.Min())
		day := step.Index(HourChannels + DayOfWeek(i, 24))
		assert.Equal(t, 1.0, day.Min())
	}
}

func TestEncodeTime_OffsetMatchesFullEncoding(t *testing.T) {
	full, err := EncodeTime(0, 60, 24, 2, 2)
	require.NoError(t, err)
	tail, err := EncodeTime(25, 35, 24, 2, 2)
	require.NoError(t, err)

	assert.True(t, full.Slice(25, 60).Equal(tail, 0))
}

func TestEncodeTime_InvalidPeriod(t *testing.T) {
	for _, period := range []int{0, -3, 25} {
		_, err := EncodeTime(0, 10, period, 2, 2)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidConfiguration), "period %d", period)
	}
}
