package evaluation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	apperrors "stflow/internal/errors"
	"stflow/internal/grid"
)

// Errors are forecast errors in the unit of the data they were computed on
type Errors struct {
	MSE  float64 `json:"mse"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

// ComputeErrors compares a prediction with the truth element by element
func ComputeErrors(pred, truth *grid.Tensor) (Errors, error) {
	if !grid.SameShape(pred.Shape(), truth.Shape()) {
		return Errors{}, apperrors.NewMalformedInputError(
			fmt.Sprintf("prediction shape %v does not match target shape %v", pred.Shape(), truth.Shape()), nil)
	}
	n := float64(truth.Size())
	if n == 0 {
		return Errors{}, apperrors.NewMalformedInputError("cannot score an empty target", nil)
	}

	diff := make([]float64, truth.Size())
	floats.SubTo(diff, truth.Data(), pred.Data())

	mse := floats.Dot(diff, diff) / n
	return Errors{
		MSE:  mse,
		MAE:  floats.Norm(diff, 1) / n,
		RMSE: math.Sqrt(mse),
	}, nil
}

// Real converts errors on data normalized to [-1, 1] back to flow units.
// minMaxDiff is the max-min of the raw series.
func (e Errors) Real(minMaxDiff float64) Errors {
	half := minMaxDiff / 2
	return Errors{
		MSE:  e.MSE * half * half,
		MAE:  e.MAE * half,
		RMSE: e.RMSE * half,
	}
}
