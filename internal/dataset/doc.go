// Package dataset builds model-ready samples from a grid flow series.
//
// A flow series is a (T, C, H, W) array of per-cell volumes, one frame per
// timestep, together with a static (C_poi, H, W) point-of-interest grid.
// The periodical representation slices three windows of lagged frames for
// every target timestep t:
//
//	closeness  frames t-1*Tc, t-2*Tc, ... (recent steps)
//	period     frames t-1*Tp, t-2*Tp, ... (same hour on previous days)
//	trend      frames t-1*Tt, t-2*Tt, ... (same hour in previous weeks)
//
// Lags are stacked along the channel axis, most recent first. Targets start
// at the skip offset, which is the span of the first enabled scale among
// trend, period and closeness, so the arrays all hold max(0, T-skip) samples.
// Each sample also carries a 31 channel one-hot calendar mask (hour of
// period, then day of week) and the POI grid normalized per channel.
//
// Two further representations reuse the normalized full series:
// SetSequentialRepresentation serves history/prediction blocks and
// MergeClosenessPeriodTrend serves single frames paired with the frame a
// fixed lead time later. Exactly one representation is active; switching
// swaps an immutable View.
//
// Usage:
//
//	ds, err := dataset.Open(ctx, dataset.DefaultOptions("data/deepstn"), dataset.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	sample, err := ds.Get(0)
//	ps := sample.(dataset.PeriodicalSample)
package dataset
