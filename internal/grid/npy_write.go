package grid

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const npyAlign = 64

var npyMagic = []byte("\x93NUMPY")

// SaveNPY writes the tensor to path as a little-endian float64 .npy file
func SaveNPY(path string, t *Tensor) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create npy file: %w", err)
	}
	if err := WriteNPY(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteNPY encodes t as a version 1.0 .npy stream with dtype '<f8'.
// npyio's writer only infers shape from Go arrays and matrices, so the
// header is assembled here from the tensor shape.
func WriteNPY(w io.Writer, t *Tensor) error {
	header := npyHeader(t.shape)

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	buf.WriteString(header)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write npy header: %w", err)
	}

	payload := make([]byte, 8*len(t.data))
	for i, v := range t.data {
		binary.LittleEndian.PutUint64(payload[i*8:], math.Float64bits(v))
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write npy payload: %w", err)
	}
	return nil
}

func npyHeader(shape []int) string {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}
	tuple := "(" + strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += ","
	}
	tuple += ")"

	dict := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': %s, }", tuple)

	// magic(6) + version(2) + length(2) + dict + padding + newline
	total := len(npyMagic) + 2 + 2 + len(dict) + 1
	pad := (npyAlign - total%npyAlign) % npyAlign
	return dict + strings.Repeat(" ", pad) + "\n"
}
