package dataset

import (
	"fmt"

	apperrors "stflow/internal/errors"
	"stflow/internal/grid"
)

// Features are the co-indexed arrays of the periodical representation.
// Every field has the same leading dimension, max(0, T-Skip).
type Features struct {
	Skip int

	// XCloseness, XPeriod and XTrend have shape (n, L*C, H, W) for their scale's L
	XCloseness *grid.Tensor
	XPeriod    *grid.Tensor
	XTrend     *grid.Tensor
	// TData has shape (n, 31, H, W)
	TData *grid.Tensor
	// PData has shape (n, C_poi, H, W); every sample holds the same normalized POI grid
	PData *grid.Tensor
	// YData has shape (n, C, H, W) and shares storage with the series it was built from
	YData *grid.Tensor
}

// Len returns the number of aligned samples
func (f *Features) Len() int {
	return f.YData.Len()
}

// Align builds the window, mask, POI and target arrays for every target
// timestep in [skip, T)
func Align(series, poi *grid.Tensor, windows Windows) (*Features, error) {
	skip, err := windows.Validate()
	if err != nil {
		return nil, err
	}
	if series.Rank() != 4 || poi.Rank() != 3 {
		return nil, apperrors.NewMalformedInputError(
			fmt.Sprintf("want series (T, C, H, W) and poi (C, H, W), got %v and %v", series.Shape(), poi.Shape()), nil)
	}

	steps, height, width := series.Dim(0), series.Dim(2), series.Dim(3)
	first := min(skip, steps)
	n := steps - first

	f := &Features{Skip: skip}
	if f.XCloseness, err = BuildWindow(series, windows.Closeness, skip); err != nil {
		return nil, fmt.Errorf("closeness window: %w", err)
	}
	if f.XPeriod, err = BuildWindow(series, windows.Period, skip); err != nil {
		return nil, fmt.Errorf("period window: %w", err)
	}
	if f.XTrend, err = BuildWindow(series, windows.Trend, skip); err != nil {
		return nil, fmt.Errorf("trend window: %w", err)
	}
	if f.TData, err = EncodeTime(first, n, windows.Period.Step, height, width); err != nil {
		return nil, err
	}

	f.PData = Broadcast(NormalizePOI(poi), n)
	f.YData = series.Slice(first, steps)
	return f, nil
}

// NormalizePOI returns a copy of poi with each channel divided by its own
// maximum. Channels whose maximum is zero stay zero.
func NormalizePOI(poi *grid.Tensor) *grid.Tensor {
	out := poi.Clone()
	if out.Rank() == 0 {
		return out
	}
	for c := 0; c < out.Len(); c++ {
		channel := out.Index(c)
		if channel.Size() == 0 {
			continue
		}
		peak := channel.Max()
		if peak == 0 {
			continue
		}
		data := channel.Data()
		for i := range data {
			data[i] /= peak
		}
	}
	return out
}

// Broadcast repeats t n times along a new leading axis
func Broadcast(t *grid.Tensor, n int) *grid.Tensor {
	shape := append([]int{n}, t.Shape()...)
	out := grid.New(shape...)
	src, dst := t.Data(), out.Data()
	for i := 0; i < n; i++ {
		copy(dst[i*len(src):(i+1)*len(src)], src)
	}
	return out
}
