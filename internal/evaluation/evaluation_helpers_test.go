package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stflow/internal/dataset"
	"stflow/internal/shared/testutil"
)

const testChannels = 2

// rampDataset serves unnormalized frames holding their own timestep, so a
// lag k frame of target t is exactly t-k
func rampDataset(t *testing.T, steps int, w dataset.Windows) *dataset.Dataset {
	t.Helper()
	store, err := dataset.NewStore(testutil.RampSeries(steps, testChannels, 3, 2), testutil.POIGrid(1, 3, 2), false)
	require.NoError(t, err)
	ds, err := dataset.New(store, w)
	require.NoError(t, err)
	return ds
}

func windows(lc, lp, lt int) dataset.Windows {
	return dataset.Windows{
		Closeness: dataset.WindowSpec{Length: lc, Step: 1},
		Period:    dataset.WindowSpec{Length: lp, Step: 24},
		Trend:     dataset.WindowSpec{Length: lt, Step: 168},
	}
}
