// Package events contains the message contract of the sample batch stream.
package events

import (
	"time"
)

// MessageType defines the type of stream message
type MessageType string

const (
	// MessageTypeBatch carries consecutive samples of the active mode
	MessageTypeBatch MessageType = "batch"
	// MessageTypeDone is the last message of a completed stream
	MessageTypeDone MessageType = "done"
	// MessageTypeError ends a stream that failed
	MessageTypeError MessageType = "error"
)

// BaseMessage represents the base structure for all stream messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// BatchMessage holds the samples with indices [Start, End)
type BatchMessage struct {
	BaseMessage
	Batch   int           `json:"batch"`
	Mode    string        `json:"mode"`
	Start   int           `json:"start"`
	End     int           `json:"end"`
	Samples []interface{} `json:"samples"`
}

// DoneMessage reports how much was streamed. The count uses its own key so
// batch and done messages decode into one client struct.
type DoneMessage struct {
	BaseMessage
	Batches     int `json:"batches"`
	SampleCount int `json:"sample_count"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBase stamps a message header with the current time
func NewBase(t MessageType, traceID string) BaseMessage {
	return BaseMessage{Type: t, Timestamp: time.Now().UTC(), TraceID: traceID}
}
