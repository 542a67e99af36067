package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewInvalidConfigurationError("at least one of len_closeness, len_period, len_trend must be positive"),
			wantMessage: "[INVALID_CONFIGURATION] at least one of len_closeness, len_period, len_trend must be positive",
		},
		{
			name:        "error with cause",
			appError:    NewMalformedInputError("flow_data.npy", fmt.Errorf("rank 3, want 4")),
			wantMessage: "[MALFORMED_INPUT] flow_data.npy: rank 3, want 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Context(t *testing.T) {
	err := NewIndexOutOfRangeError(12, 10)
	assert.Equal(t, ErrTypeIndexOutOfRange, err.Type)
	assert.Equal(t, 12, err.Context["index"])
	assert.Equal(t, 10, err.Context["length"])
	assert.Contains(t, err.Error(), "index 12 out of range [0, 10)")

	notFound := NewDataNotFoundError("/data", "flow_data.npy", "poi_data.npy")
	assert.Equal(t, "/data", notFound.Context["root"])
	assert.Contains(t, notFound.Message, "flow_data.npy")
}

func TestTypeOfAndIsType(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := fmt.Errorf("fetch flow_data.npy: %w", NewNetworkError("download failed", cause))

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ""},
		{"plain error", cause, ""},
		{"direct", NewConfigError("bad level", nil), ErrTypeConfig},
		{"wrapped", wrapped, ErrTypeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
			if tt.want != "" {
				assert.True(t, IsType(tt.err, tt.want))
			}
		})
	}

	assert.False(t, IsType(nil, ErrTypeNetwork))
	assert.False(t, IsType(wrapped, ErrTypeStorage))
	require.ErrorIs(t, wrapped, cause)
}
