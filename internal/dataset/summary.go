package dataset

// Summary describes a dataset and its active view
type Summary struct {
	Mode             Mode             `json:"mode"`
	Length           int              `json:"length"`
	Steps            int              `json:"steps"`
	SkipOffset       int              `json:"skip_offset"`
	Windows          Windows          `json:"windows"`
	Normalized       bool             `json:"normalized"`
	Scaler           MinMaxScaler     `json:"scaler"`
	MinMaxDifference float64          `json:"min_max_difference"`
	Shapes           map[string][]int `json:"shapes"`
}

// Describe summarizes the dataset. Shapes lists the full arrays behind the
// periodical view along with the raw series and POI grid.
func (d *Dataset) Describe() Summary {
	f := d.features
	return Summary{
		Mode:             d.Mode(),
		Length:           d.Len(),
		Steps:            d.store.Steps(),
		SkipOffset:       f.Skip,
		Windows:          d.windows,
		Normalized:       d.store.Normalized,
		Scaler:           d.store.Scaler,
		MinMaxDifference: d.MinMaxDifference(),
		Shapes: map[string][]int{
			"flow":        d.store.Flow.Shape(),
			"poi":         d.store.POI.Shape(),
			"x_closeness": f.XCloseness.Shape(),
			"x_period":    f.XPeriod.Shape(),
			"x_trend":     f.XTrend.Shape(),
			"t_data":      f.TData.Shape(),
			"p_data":      f.PData.Shape(),
			"y_data":      f.YData.Shape(),
		},
	}
}
