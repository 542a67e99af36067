package dataset

import (
	apperrors "stflow/internal/errors"
	"stflow/internal/grid"
)

// Temporal mask layout: 24 hour channels followed by 7 day channels
const (
	HourChannels     = 24
	DayChannels      = 7
	TemporalChannels = HourChannels + DayChannels
)

// HourOfPeriod returns the hour channel active at timestep i
func HourOfPeriod(i, period int) int {
	return i % period
}

// DayOfWeek returns the day channel active at timestep i
func DayOfWeek(i, period int) int {
	return (i / period) % DayChannels
}

// EncodeTime builds one-hot calendar masks for timesteps start..start+count-1.
// The result has shape (count, 31, height, width); for each timestep the hour
// channel and the 24+day channel are all ones and every other channel is zero.
func EncodeTime(start, count, period, height, width int) (*grid.Tensor, error) {
	if period < 1 || period > HourChannels {
		return nil, apperrors.NewInvalidConfigurationError("T_period must be in [1, %d], got %d", HourChannels, period)
	}
	if start < 0 || count < 0 {
		return nil, apperrors.NewInvalidConfigurationError("invalid timestep range start=%d count=%d", start, count)
	}

	out := grid.New(count, TemporalChannels, height, width)
	plane := height * width
	data := out.Data()

	for j := 0; j < count; j++ {
		i := start + j
		base := j * TemporalChannels * plane
		fill(data[base+HourOfPeriod(i, period)*plane:], plane)
		fill(data[base+(HourChannels+DayOfWeek(i, period))*plane:], plane)
	}
	return out, nil
}

func fill(dst []float64, n int) {
	for k := range dst[:n] {
		dst[k] = 1
	}
}
