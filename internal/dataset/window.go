package dataset

import (
	"fmt"

	apperrors "stflow/internal/errors"
	"stflow/internal/grid"
)

// WindowSpec configures one temporal scale: Length lags spaced Step timesteps apart.
// A zero Length disables the scale.
type WindowSpec struct {
	Length int `json:"length"`
	Step   int `json:"step"`
}

// Enabled reports whether the scale contributes any lags
func (w WindowSpec) Enabled() bool {
	return w.Length > 0
}

// Span is the number of timesteps the deepest lag reaches back
func (w WindowSpec) Span() int {
	return w.Length * w.Step
}

// Windows holds the closeness, period and trend scales
type Windows struct {
	Closeness WindowSpec `json:"closeness"`
	Period    WindowSpec `json:"period"`
	Trend     WindowSpec `json:"trend"`
}

// SkipOffset is the number of leading timesteps that cannot be targets.
// The first enabled scale among trend, period and closeness decides it.
func (w Windows) SkipOffset() (int, error) {
	switch {
	case w.Trend.Enabled():
		return w.Trend.Span(), nil
	case w.Period.Enabled():
		return w.Period.Span(), nil
	case w.Closeness.Enabled():
		return w.Closeness.Span(), nil
	default:
		return 0, apperrors.NewInvalidConfigurationError("at least one of len_closeness, len_period, len_trend must be positive")
	}
}

// Validate checks the configuration and returns the skip offset it implies
func (w Windows) Validate() (int, error) {
	scales := []struct {
		name string
		spec WindowSpec
	}{
		{"closeness", w.Closeness},
		{"period", w.Period},
		{"trend", w.Trend},
	}

	for _, s := range scales {
		if s.spec.Length < 0 {
			return 0, apperrors.NewInvalidConfigurationError("len_%s must be >= 0, got %d", s.name, s.spec.Length)
		}
		if s.spec.Step < 1 {
			return 0, apperrors.NewInvalidConfigurationError("T_%s must be >= 1, got %d", s.name, s.spec.Step)
		}
	}
	if w.Period.Step > HourChannels {
		return 0, apperrors.NewInvalidConfigurationError("T_period must be <= %d to index the hour mask, got %d", HourChannels, w.Period.Step)
	}

	skip, err := w.SkipOffset()
	if err != nil {
		return 0, err
	}

	// every lag of the first target must land at t >= 0
	for _, s := range scales {
		if s.spec.Enabled() && s.spec.Span() > skip {
			return 0, apperrors.NewInvalidConfigurationError(
				"%s span %d (len %d x T %d) exceeds skip offset %d", s.name, s.spec.Span(), s.spec.Length, s.spec.Step, skip)
		}
	}
	return skip, nil
}

// BuildWindow stacks spec.Length lagged frames of series for every target
// t in [skip, T). The result has shape (max(0, T-skip), Length*C, H, W);
// channel block k-1 of sample i holds series[skip+i-Step*k], so the most
// recent lag comes first. The output is allocated once and filled lag by lag.
func BuildWindow(series *grid.Tensor, spec WindowSpec, skip int) (*grid.Tensor, error) {
	if series.Rank() != 4 {
		return nil, apperrors.NewMalformedInputError(fmt.Sprintf("series must have rank 4, got shape %v", series.Shape()), nil)
	}
	if spec.Enabled() && spec.Span() > skip {
		return nil, apperrors.NewInvalidConfigurationError("window span %d exceeds skip offset %d", spec.Span(), skip)
	}

	steps, channels, height, width := series.Dim(0), series.Dim(1), series.Dim(2), series.Dim(3)
	n := max(0, steps-skip)
	out := grid.New(n, spec.Length*channels, height, width)
	if n == 0 || !spec.Enabled() {
		return out, nil
	}

	frame := series.FrameSize()
	row := spec.Length * frame
	src, dst := series.Data(), out.Data()

	for k := 1; k <= spec.Length; k++ {
		lag := spec.Step * k
		block := (k - 1) * frame
		for i := 0; i < n; i++ {
			t := skip + i - lag
			copy(dst[i*row+block:i*row+block+frame], src[t*frame:(t+1)*frame])
		}
	}
	return out, nil
}
