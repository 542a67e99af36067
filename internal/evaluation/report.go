package evaluation

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"stflow/internal/exporter"
)

// Row is the outcome of one predictor in one iteration
type Row struct {
	Iteration      int     `json:"iteration"`
	Predictor      string  `json:"predictor"`
	ValidationLoss float64 `json:"validation_loss"`
	Test           Errors  `json:"test"`
	Real           Errors  `json:"real"`
	Best           bool    `json:"best"`
}

// Aggregate summarizes one predictor across iterations
type Aggregate struct {
	Predictor          string  `json:"predictor"`
	Iterations         int     `json:"iterations"`
	BestCount          int     `json:"best_count"`
	MeanValidationLoss float64 `json:"mean_validation_loss"`
	MeanMAE            float64 `json:"mean_mae"`
	StdMAE             float64 `json:"std_mae"`
	MeanRMSE           float64 `json:"mean_rmse"`
	StdRMSE            float64 `json:"std_rmse"`
	RealMAE            float64 `json:"real_mae"`
	RealRMSE           float64 `json:"real_rmse"`
}

// Report is the result of a Runner
type Report struct {
	RunID            string      `json:"run_id"`
	StartedAt        time.Time   `json:"started_at"`
	FinishedAt       time.Time   `json:"finished_at"`
	Samples          int         `json:"samples"`
	TrainSamples     int         `json:"train_samples"`
	ValidSamples     int         `json:"validation_samples"`
	TestSamples      int         `json:"test_samples"`
	MinMaxDifference float64     `json:"min_max_difference"`
	Rows             []Row       `json:"rows"`
	Summary          []Aggregate `json:"summary"`
}

// Best returns the aggregate with the lowest mean validation loss
func (r *Report) Best() Aggregate {
	var best Aggregate
	for i, a := range r.Summary {
		if i == 0 || a.MeanValidationLoss < best.MeanValidationLoss {
			best = a
		}
	}
	return best
}

func summarize(predictors []Predictor, rows []Row, minMaxDiff float64) ([]Aggregate, error) {
	out := make([]Aggregate, 0, len(predictors))
	for _, p := range predictors {
		var val, mae, rmse []float64
		agg := Aggregate{Predictor: p.Name()}
		for _, row := range rows {
			if row.Predictor != p.Name() {
				continue
			}
			agg.Iterations++
			if row.Best {
				agg.BestCount++
			}
			val = append(val, row.ValidationLoss)
			mae = append(mae, row.Test.MAE)
			rmse = append(rmse, row.Test.RMSE)
		}

		var err error
		if agg.MeanValidationLoss, err = stats.Mean(val); err != nil {
			return nil, fmt.Errorf("summarize %s: %w", p.Name(), err)
		}
		if agg.MeanMAE, err = stats.Mean(mae); err != nil {
			return nil, fmt.Errorf("summarize %s: %w", p.Name(), err)
		}
		if agg.StdMAE, err = stats.StandardDeviation(mae); err != nil {
			return nil, fmt.Errorf("summarize %s: %w", p.Name(), err)
		}
		if agg.MeanRMSE, err = stats.Mean(rmse); err != nil {
			return nil, fmt.Errorf("summarize %s: %w", p.Name(), err)
		}
		if agg.StdRMSE, err = stats.StandardDeviation(rmse); err != nil {
			return nil, fmt.Errorf("summarize %s: %w", p.Name(), err)
		}
		units := Errors{MAE: agg.MeanMAE, RMSE: agg.MeanRMSE}.Real(minMaxDiff)
		agg.RealMAE, agg.RealRMSE = units.MAE, units.RMSE
		out = append(out, agg)
	}
	return out, nil
}

// RowHeaders are the columns of the per-iteration table
var RowHeaders = []string{
	"run_id", "iteration", "predictor", "validation_loss",
	"mse", "mae", "rmse", "real_mae", "real_rmse", "best",
}

// SummaryHeaders are the columns of the per-predictor table
var SummaryHeaders = []string{
	"predictor", "iterations", "best_count", "mean_validation_loss",
	"mean_mae", "std_mae", "mean_rmse", "std_rmse", "real_mae", "real_rmse",
}

// SaveCSV writes the per-iteration rows to filePath
func (r *Report) SaveCSV(w *exporter.CSVWriter, filePath string) error {
	records := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		records[i] = []string{
			r.RunID,
			exporter.FormatInt(row.Iteration),
			row.Predictor,
			exporter.FormatFloat(row.ValidationLoss),
			exporter.FormatFloat(row.Test.MSE),
			exporter.FormatFloat(row.Test.MAE),
			exporter.FormatFloat(row.Test.RMSE),
			exporter.FormatFloat(row.Real.MAE),
			exporter.FormatFloat(row.Real.RMSE),
			exporter.FormatBool(row.Best),
		}
	}
	return w.WriteSimpleCSV(filePath, RowHeaders, records)
}

// SaveXLSX writes a workbook with a Results sheet, a Summary sheet and a Run sheet
func (r *Report) SaveXLSX(w *exporter.XLSXWriter, filePath string) error {
	results := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		results[i] = []any{
			r.RunID, row.Iteration, row.Predictor, row.ValidationLoss,
			row.Test.MSE, row.Test.MAE, row.Test.RMSE, row.Real.MAE, row.Real.RMSE, row.Best,
		}
	}

	summary := make([][]any, len(r.Summary))
	for i, a := range r.Summary {
		summary[i] = []any{
			a.Predictor, a.Iterations, a.BestCount, a.MeanValidationLoss,
			a.MeanMAE, a.StdMAE, a.MeanRMSE, a.StdRMSE, a.RealMAE, a.RealRMSE,
		}
	}

	run := [][]any{
		{"run_id", r.RunID},
		{"started_at", r.StartedAt.Format(time.RFC3339)},
		{"finished_at", r.FinishedAt.Format(time.RFC3339)},
		{"samples", r.Samples},
		{"train_samples", r.TrainSamples},
		{"validation_samples", r.ValidSamples},
		{"test_samples", r.TestSamples},
		{"min_max_difference", r.MinMaxDifference},
	}

	return w.WriteSheets(filePath,
		exporter.Sheet{Name: "Results", Headers: RowHeaders, Rows: results},
		exporter.Sheet{Name: "Summary", Headers: SummaryHeaders, Rows: summary},
		exporter.Sheet{Name: "Run", Headers: []string{"field", "value"}, Rows: run},
	)
}
