package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"stflow/internal/grid"
)

// Fixture file names, matching what the dataset loader searches for
const (
	FlowFile = "flow_data.npy"
	POIFile  = "poi_data.npy"
)

// FlowSeries builds a (steps, channels, height, width) tensor where every
// element of frame t equals fn(t, c, y, x)
func FlowSeries(steps, channels, height, width int, fn func(t, c, y, x int) float64) *grid.Tensor {
	out := grid.New(steps, channels, height, width)
	data := out.Data()
	i := 0
	for t := 0; t < steps; t++ {
		for c := 0; c < channels; c++ {
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					data[i] = fn(t, c, y, x)
					i++
				}
			}
		}
	}
	return out
}

// RampSeries is a series whose frame t is filled with the value t
func RampSeries(steps, channels, height, width int) *grid.Tensor {
	return FlowSeries(steps, channels, height, width, func(t, _, _, _ int) float64 {
		return float64(t)
	})
}

// POIGrid builds a (channels, height, width) tensor where channel c holds (c+1)*(y*width+x)
func POIGrid(channels, height, width int) *grid.Tensor {
	out := grid.New(channels, height, width)
	for c := 0; c < channels; c++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				out.Set(float64((c+1)*(y*width+x)), c, y, x)
			}
		}
	}
	return out
}

// WriteDataset writes flow and poi arrays as .npy files under root/rel and
// returns that directory
func WriteDataset(t *testing.T, root, rel string, flow, poi *grid.Tensor) string {
	t.Helper()

	dir := filepath.Join(root, rel)
	require.NoError(t, grid.SaveNPY(filepath.Join(dir, FlowFile), flow))
	require.NoError(t, grid.SaveNPY(filepath.Join(dir, POIFile), poi))
	return dir
}
