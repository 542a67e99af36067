package grid

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sbinet/npyio"
)

// LoadNPY reads a numpy .npy file into a float64 tensor
func LoadNPY(path string) (*Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open npy file: %w", err)
	}
	defer f.Close()

	t, err := ReadNPY(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// ReadNPY decodes a .npy stream. Integer and float32 payloads are widened to float64.
func ReadNPY(r io.Reader) (*Tensor, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("npy header: %w", err)
	}

	descr := nr.Header.Descr
	if descr.Fortran {
		return nil, fmt.Errorf("fortran-ordered arrays are not supported")
	}

	shape := cloneShape(descr.Shape)
	n := volume(shape)

	// the first byte is the byte order marker; npyio honours it while decoding
	kind := strings.TrimLeft(descr.Type, "<>|=")

	var out []float64
	switch kind {
	case "f8":
		out = make([]float64, n)
		if err := nr.Read(&out); err != nil {
			return nil, fmt.Errorf("npy payload: %w", err)
		}
	case "f4":
		buf := make([]float32, n)
		if err := nr.Read(&buf); err != nil {
			return nil, fmt.Errorf("npy payload: %w", err)
		}
		out = widen(buf)
	case "i8":
		buf := make([]int64, n)
		if err := nr.Read(&buf); err != nil {
			return nil, fmt.Errorf("npy payload: %w", err)
		}
		out = widen(buf)
	case "i4":
		buf := make([]int32, n)
		if err := nr.Read(&buf); err != nil {
			return nil, fmt.Errorf("npy payload: %w", err)
		}
		out = widen(buf)
	case "i2":
		buf := make([]int16, n)
		if err := nr.Read(&buf); err != nil {
			return nil, fmt.Errorf("npy payload: %w", err)
		}
		out = widen(buf)
	case "i1":
		buf := make([]int8, n)
		if err := nr.Read(&buf); err != nil {
			return nil, fmt.Errorf("npy payload: %w", err)
		}
		out = widen(buf)
	case "u8":
		buf := make([]uint64, n)
		if err := nr.Read(&buf); err != nil {
			return nil, fmt.Errorf("npy payload: %w", err)
		}
		out = widen(buf)
	case "u1":
		buf := make([]uint8, n)
		if err := nr.Read(&buf); err != nil {
			return nil, fmt.Errorf("npy payload: %w", err)
		}
		out = widen(buf)
	default:
		return nil, fmt.Errorf("unsupported npy dtype %q", descr.Type)
	}

	return FromData(out, shape...)
}

type number interface {
	~float32 | ~int64 | ~int32 | ~int16 | ~int8 | ~uint64 | ~uint8
}

func widen[T number](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
