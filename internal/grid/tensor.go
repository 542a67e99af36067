package grid

import (
	"fmt"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
)

// Tensor is a dense row-major float64 array of arbitrary rank.
// Views returned by Index and Slice share storage with their parent.
type Tensor struct {
	shape []int
	data  []float64
}

// New allocates a zero-filled tensor with the given shape
func New(shape ...int) *Tensor {
	return &Tensor{
		shape: cloneShape(shape),
		data:  make([]float64, volume(shape)),
	}
}

// FromData wraps data in a tensor of the given shape without copying.
// The number of elements must match the shape volume.
func FromData(data []float64, shape ...int) (*Tensor, error) {
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("negative dimension in shape %v", shape)
		}
	}
	if len(data) != volume(shape) {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)", len(data), shape, volume(shape))
	}
	return &Tensor{shape: cloneShape(shape), data: data}, nil
}

// Shape returns a copy of the tensor shape
func (t *Tensor) Shape() []int {
	return cloneShape(t.shape)
}

// Rank returns the number of dimensions
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Dim returns the size of dimension i
func (t *Tensor) Dim(i int) int {
	return t.shape[i]
}

// Len returns the size of the leading dimension, or 0 for a scalar
func (t *Tensor) Len() int {
	if len(t.shape) == 0 {
		return 0
	}
	return t.shape[0]
}

// Size returns the total number of elements
func (t *Tensor) Size() int {
	return len(t.data)
}

// Data returns the backing slice. Callers must treat it as read-only
// unless they own the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// At returns the element at the given index
func (t *Tensor) At(idx ...int) float64 {
	return t.data[t.offset(idx)]
}

// Set stores v at the given index
func (t *Tensor) Set(v float64, idx ...int) {
	t.data[t.offset(idx)] = v
}

// Index returns the i-th sub-tensor along the leading axis
func (t *Tensor) Index(i int) *Tensor {
	if len(t.shape) == 0 || i < 0 || i >= t.shape[0] {
		panic(fmt.Sprintf("grid: index %d out of range for shape %v", i, t.shape))
	}
	stride := t.stride()
	return &Tensor{
		shape: cloneShape(t.shape[1:]),
		data:  t.data[i*stride : (i+1)*stride : (i+1)*stride],
	}
}

// Slice returns the view [start, end) along the leading axis
func (t *Tensor) Slice(start, end int) *Tensor {
	if len(t.shape) == 0 || start < 0 || end > t.shape[0] || start > end {
		panic(fmt.Sprintf("grid: slice [%d:%d] out of range for shape %v", start, end, t.shape))
	}
	stride := t.stride()
	shape := cloneShape(t.shape)
	shape[0] = end - start
	return &Tensor{
		shape: shape,
		data:  t.data[start*stride : end*stride : end*stride],
	}
}

// FrameSize returns the number of elements in one sub-tensor of the leading axis
func (t *Tensor) FrameSize() int {
	return t.stride()
}

// Clone returns a deep copy
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: cloneShape(t.shape), data: data}
}

// Reshape returns a view with a new shape of the same volume
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	if volume(shape) != len(t.data) {
		return nil, fmt.Errorf("cannot reshape %v into %v", t.shape, shape)
	}
	return &Tensor{shape: cloneShape(shape), data: t.data}, nil
}

// Stack copies equally shaped tensors into a new tensor with a leading
// dimension of len(parts)
func Stack(parts ...*Tensor) (*Tensor, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("nothing to stack")
	}
	inner := parts[0].shape
	out := New(append([]int{len(parts)}, inner...)...)
	for i, p := range parts {
		if !SameShape(p.shape, inner) {
			return nil, fmt.Errorf("cannot stack %v with %v", p.shape, inner)
		}
		copy(out.Index(i).data, p.data)
	}
	return out, nil
}

// Max returns the largest element. It panics on an empty tensor.
func (t *Tensor) Max() float64 {
	return floats.Max(t.data)
}

// Min returns the smallest element. It panics on an empty tensor.
func (t *Tensor) Min() float64 {
	return floats.Min(t.data)
}

// Equal reports whether both tensors have the same shape and elements within tol
func (t *Tensor) Equal(other *Tensor, tol float64) bool {
	if other == nil || !SameShape(t.shape, other.shape) {
		return false
	}
	return floats.EqualApprox(t.data, other.data, tol)
}

// String renders the shape only; tensors can be large
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.shape)
}

type tensorJSON struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// MarshalJSON encodes the tensor as {"shape": [...], "data": [...]}
func (t *Tensor) MarshalJSON() ([]byte, error) {
	return json.Marshal(tensorJSON{Shape: t.shape, Data: t.data})
}

// UnmarshalJSON decodes the representation produced by MarshalJSON
func (t *Tensor) UnmarshalJSON(b []byte) error {
	var raw tensorJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Data == nil {
		raw.Data = []float64{}
	}
	decoded, err := FromData(raw.Data, raw.Shape...)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

// SameShape reports whether two shapes are identical
func SameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (t *Tensor) stride() int {
	if len(t.shape) == 0 {
		return 1
	}
	return volume(t.shape[1:])
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("grid: index %v has wrong rank for shape %v", idx, t.shape))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("grid: index %v out of range for shape %v", idx, t.shape))
		}
		off = off*t.shape[i] + v
	}
	return off
}

func volume(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func cloneShape(shape []int) []int {
	out := make([]int, len(shape))
	copy(out, shape)
	return out
}
