package api

// IndexRange is the half-open sample range [start, end)
type IndexRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Len   int `json:"len"`
}

// SplitResponse reports the chronological train/validation/test ranges
type SplitResponse struct {
	Samples    int        `json:"samples"`
	Train      IndexRange `json:"train"`
	Validation IndexRange `json:"validation"`
	Test       IndexRange `json:"test"`
}

// SampleResponse wraps one sample of the active mode
type SampleResponse struct {
	Index  int         `json:"index"`
	Mode   string      `json:"mode"`
	Sample interface{} `json:"sample"`
}

// ModeResponse reports the mode now in effect
type ModeResponse struct {
	Mode   string `json:"mode"`
	Length int    `json:"length"`
}

// HealthResponse is served by the health endpoint
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Dataset   map[string]interface{} `json:"dataset"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
}
