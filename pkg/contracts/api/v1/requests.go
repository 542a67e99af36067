// Package api contains the HTTP contract of the sample server.
// Version v1 represents the current stable API version.
package api

// ModeRequest switches the sample access mode of the served dataset.
// HistoryLength and PredictionLength apply to the sequential mode and
// LeadTime to the lead_time mode; a zero LeadTime selects the default.
type ModeRequest struct {
	Mode             string `json:"mode" validate:"required,oneof=periodical sequential lead_time"`
	HistoryLength    int    `json:"history_length" validate:"required_if=Mode sequential,gte=0"`
	PredictionLength int    `json:"prediction_length" validate:"required_if=Mode sequential,gte=0"`
	LeadTime         int    `json:"lead_time" validate:"gte=0"`
}

// SplitQuery are the query parameters of the split endpoint
type SplitQuery struct {
	ValidationRatio float64 `json:"validation_ratio" query:"validation_ratio" validate:"gte=0,lt=1"`
	TestRatio       float64 `json:"test_ratio" query:"test_ratio" validate:"gte=0,lt=1"`
}

// StreamQuery are the query parameters of the batch stream
type StreamQuery struct {
	Start     int `json:"start" query:"start" validate:"gte=0"`
	End       int `json:"end" query:"end" validate:"gtefield=Start"`
	BatchSize int `json:"batch_size" query:"batch_size" validate:"min=1"`
}
