package evaluation

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"stflow/internal/dataset"
	apperrors "stflow/internal/errors"
	"stflow/internal/grid"
)

// Predictor forecasts the target frame of a periodical sample
type Predictor interface {
	Name() string
	Predict(dataset.PeriodicalSample) (*grid.Tensor, error)
}

// Scale names one of the three temporal windows
type Scale int

const (
	Closeness Scale = iota
	Period
	Trend
)

func (s Scale) String() string {
	switch s {
	case Closeness:
		return "closeness"
	case Period:
		return "period"
	case Trend:
		return "trend"
	}
	return fmt.Sprintf("Scale(%d)", int(s))
}

func (s Scale) window(sample dataset.PeriodicalSample) *grid.Tensor {
	switch s {
	case Period:
		return sample.XPeriod
	case Trend:
		return sample.XTrend
	}
	return sample.XCloseness
}

// LastFrame repeats the most recent closeness frame
type LastFrame struct {
	Channels int
}

func (LastFrame) Name() string { return "last_frame" }

func (p LastFrame) Predict(sample dataset.PeriodicalSample) (*grid.Tensor, error) {
	lags, err := splitLags(sample.XCloseness, p.Channels)
	if err != nil {
		return nil, err
	}
	if len(lags) == 0 {
		return nil, apperrors.NewInvalidConfigurationError("last_frame needs the closeness window")
	}
	return lags[0].Clone(), nil
}

// ScaleMean averages the lags of one window
type ScaleMean struct {
	Scale    Scale
	Channels int
}

func (p ScaleMean) Name() string { return p.Scale.String() + "_mean" }

func (p ScaleMean) Predict(sample dataset.PeriodicalSample) (*grid.Tensor, error) {
	lags, err := splitLags(p.Scale.window(sample), p.Channels)
	if err != nil {
		return nil, err
	}
	if len(lags) == 0 {
		return nil, apperrors.NewInvalidConfigurationError("%s window is disabled", p.Scale)
	}
	return meanOf(lags), nil
}

// HistoricalMean averages every lag of every enabled window
type HistoricalMean struct {
	Channels int
}

func (HistoricalMean) Name() string { return "historical_mean" }

func (p HistoricalMean) Predict(sample dataset.PeriodicalSample) (*grid.Tensor, error) {
	var lags []*grid.Tensor
	for _, s := range []Scale{Closeness, Period, Trend} {
		scaleLags, err := splitLags(s.window(sample), p.Channels)
		if err != nil {
			return nil, err
		}
		lags = append(lags, scaleLags...)
	}
	if len(lags) == 0 {
		return nil, apperrors.NewInvalidConfigurationError("historical_mean needs at least one window")
	}
	return meanOf(lags), nil
}

// Baselines returns the predictors that can serve a dataset with the given windows
func Baselines(channels int, w dataset.Windows) []Predictor {
	var out []Predictor
	if w.Closeness.Enabled() {
		out = append(out, LastFrame{Channels: channels}, ScaleMean{Scale: Closeness, Channels: channels})
	}
	if w.Period.Enabled() {
		out = append(out, ScaleMean{Scale: Period, Channels: channels})
	}
	if w.Trend.Enabled() {
		out = append(out, ScaleMean{Scale: Trend, Channels: channels})
	}
	return append(out, HistoricalMean{Channels: channels})
}

// splitLags cuts a (L*C, H, W) window into L frames of (C, H, W), lag 1 first
func splitLags(window *grid.Tensor, channels int) ([]*grid.Tensor, error) {
	if channels < 1 {
		return nil, apperrors.NewInvalidConfigurationError("channels must be >= 1, got %d", channels)
	}
	if window.Len()%channels != 0 {
		return nil, apperrors.NewMalformedInputError(
			fmt.Sprintf("window of %d channels is not a multiple of %d", window.Len(), channels), nil)
	}
	lags := make([]*grid.Tensor, window.Len()/channels)
	for k := range lags {
		lags[k] = window.Slice(k*channels, (k+1)*channels)
	}
	return lags, nil
}

func meanOf(frames []*grid.Tensor) *grid.Tensor {
	out := grid.New(frames[0].Shape()...)
	for _, f := range frames {
		floats.Add(out.Data(), f.Data())
	}
	floats.Scale(1/float64(len(frames)), out.Data())
	return out
}
