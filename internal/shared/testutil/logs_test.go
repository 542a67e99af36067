package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogRecorder(t *testing.T) {
	logger, rec := NewTestLogger(t)

	component := logger.With("component", "loader")
	component.Info("arrays loaded", slog.Int("steps", 200))
	logger.Warn("slow build")

	assert.Equal(t, 2, rec.Count())

	r := AssertLogged(t, rec, slog.LevelInfo, "arrays loaded")
	assert.Equal(t, "loader", r.Attrs["component"])
	assert.Equal(t, int64(200), r.Attrs["steps"])

	_, ok := rec.Find(slog.LevelError, "slow build")
	assert.False(t, ok)

	AssertNoErrors(t, rec)
}

func TestFixtures(t *testing.T) {
	ramp := RampSeries(5, 2, 3, 4)
	assert.Equal(t, []int{5, 2, 3, 4}, ramp.Shape())
	assert.Equal(t, 4.0, ramp.At(4, 1, 2, 3))

	poi := POIGrid(2, 3, 4)
	assert.Equal(t, 22.0, poi.At(1, 2, 3))
	assert.Equal(t, 0.0, poi.At(0, 0, 0))
}
