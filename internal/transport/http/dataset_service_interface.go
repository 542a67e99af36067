package http

import (
	"stflow/internal/dataset"
)

// DatasetService defines the dataset operations the handlers need.
// *dataset.Dataset implements it.
type DatasetService interface {
	Describe() dataset.Summary
	View() dataset.View
	Mode() dataset.Mode
	Len() int
	Get(index int) (dataset.Sample, error)

	SetSequentialRepresentation(historyLength, predictionLength int) error
	MergeClosenessPeriodTrend(leadTime int) error
	UsePeriodicalRepresentation()
}

var _ DatasetService = (*dataset.Dataset)(nil)
