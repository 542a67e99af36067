package grid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arange(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestFromData(t *testing.T) {
	tests := []struct {
		name    string
		data    []float64
		shape   []int
		wantErr bool
	}{
		{"matching volume", arange(24), []int{2, 3, 4}, false},
		{"too few elements", arange(5), []int{2, 3}, true},
		{"negative dimension", arange(0), []int{-1, 0}, true},
		{"empty leading axis", []float64{}, []int{0, 2, 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor, err := FromData(tt.data, tt.shape...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.shape, tensor.Shape())
			assert.Equal(t, len(tt.data), tensor.Size())
		})
	}
}

func TestTensorIndexing(t *testing.T) {
	tensor, err := FromData(arange(24), 2, 3, 4)
	require.NoError(t, err)

	assert.Equal(t, 3, tensor.Rank())
	assert.Equal(t, 2, tensor.Len())
	assert.Equal(t, 12, tensor.FrameSize())
	assert.Equal(t, 23.0, tensor.At(1, 2, 3))
	assert.Equal(t, 5.0, tensor.At(0, 1, 1))

	sub := tensor.Index(1)
	assert.Equal(t, []int{3, 4}, sub.Shape())
	assert.Equal(t, 12.0, sub.At(0, 0))

	// views share storage with the parent
	sub.Set(-1, 0, 0)
	assert.Equal(t, -1.0, tensor.At(1, 0, 0))

	assert.Panics(t, func() { tensor.Index(2) })
	assert.Panics(t, func() { tensor.At(0, 3, 0) })
}

func TestTensorSlice(t *testing.T) {
	tensor, err := FromData(arange(10), 5, 2)
	require.NoError(t, err)

	view := tensor.Slice(1, 4)
	assert.Equal(t, []int{3, 2}, view.Shape())
	assert.Equal(t, []float64{2, 3, 4, 5, 6, 7}, view.Data())

	empty := tensor.Slice(5, 5)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0, empty.Size())

	assert.Panics(t, func() { tensor.Slice(3, 2) })
	assert.Panics(t, func() { tensor.Slice(0, 6) })
}

func TestTensorCloneAndReshape(t *testing.T) {
	tensor, err := FromData(arange(6), 2, 3)
	require.NoError(t, err)

	clone := tensor.Clone()
	clone.Set(100, 0, 0)
	assert.Equal(t, 0.0, tensor.At(0, 0))

	reshaped, err := tensor.Reshape(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, reshaped.At(1, 1))

	_, err = tensor.Reshape(4, 2)
	assert.Error(t, err)
}

func TestTensorExtremaAndEqual(t *testing.T) {
	tensor, err := FromData([]float64{3, -2, 7, 0}, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 7.0, tensor.Max())
	assert.Equal(t, -2.0, tensor.Min())

	other, err := FromData([]float64{3, -2, 7, 1e-12}, 2, 2)
	require.NoError(t, err)
	assert.True(t, tensor.Equal(other, 1e-9))

	flat, err := tensor.Reshape(4)
	require.NoError(t, err)
	assert.False(t, tensor.Equal(flat, 1e-9))
	assert.False(t, tensor.Equal(nil, 1e-9))
}

func TestTensorJSON(t *testing.T) {
	tensor, err := FromData([]float64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)

	encoded, err := json.Marshal(tensor)
	require.NoError(t, err)
	assert.JSONEq(t, `{"shape":[2,2],"data":[1,2,3,4]}`, string(encoded))

	var decoded Tensor
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.True(t, tensor.Equal(&decoded, 0))

	assert.Error(t, json.Unmarshal([]byte(`{"shape":[3],"data":[1]}`), &decoded))
}

func TestStack(t *testing.T) {
	a, err := FromData(arange(4), 4)
	require.NoError(t, err)
	b, err := FromData([]float64{9, 8, 7, 6}, 4)
	require.NoError(t, err)

	out, err := Stack(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, out.Shape())
	assert.Equal(t, []float64{0, 1, 2, 3, 9, 8, 7, 6}, out.Data())

	out.Set(-1, 0, 0)
	assert.Equal(t, 0.0, a.At(0), "stacked data is copied")

	_, err = Stack()
	assert.Error(t, err)
	_, err = Stack(a, New(2, 2))
	assert.Error(t, err)
}
