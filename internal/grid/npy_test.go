package grid

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNPYHeaderAlignment(t *testing.T) {
	for _, shape := range [][]int{{}, {7}, {4, 2, 21, 12}, {10000, 2}} {
		header := npyHeader(shape)
		assert.Equal(t, 0, (10+len(header))%npyAlign, "shape %v", shape)
		assert.Equal(t, byte('\n'), header[len(header)-1])
	}
	assert.Contains(t, npyHeader([]int{7}), "'shape': (7,)")
	assert.Contains(t, npyHeader([]int{4, 2}), "'shape': (4, 2)")
}

func TestSaveAndLoadNPY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "flow_data.npy")

	tensor, err := FromData(arange(2*2*3*2), 2, 2, 3, 2)
	require.NoError(t, err)
	require.NoError(t, SaveNPY(path, tensor))

	loaded, err := LoadNPY(path)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 3, 2}, loaded.Shape())
	assert.True(t, tensor.Equal(loaded, 0))
}

func TestReadNPYWidensIntegers(t *testing.T) {
	dict := "{'descr': '<i8', 'fortran_order': False, 'shape': (2, 2), }"
	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	header := dict + "\n"
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(header))))
	buf.WriteString(header)
	for _, v := range []int64{4, -1, 0, 9} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}

	tensor, err := ReadNPY(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, tensor.Shape())
	assert.Equal(t, []float64{4, -1, 0, 9}, tensor.Data())
}

func TestReadNPYRejectsGarbage(t *testing.T) {
	_, err := ReadNPY(bytes.NewReader([]byte("not a numpy file")))
	assert.Error(t, err)

	_, err = LoadNPY(filepath.Join(t.TempDir(), "missing.npy"))
	assert.Error(t, err)
}
