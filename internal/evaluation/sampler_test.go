package evaluation

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampler(t *testing.T) {
	subset := []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	a := NewSampler(subset, 7)
	b := NewSampler(subset, 7)

	first := a.Epoch()
	assert.Equal(t, first, b.Epoch(), "same seed, same order")
	assert.ElementsMatch(t, subset, first)
	assert.Equal(t, 10, a.Len())

	// later epochs reshuffle
	reshuffled := false
	for i := 0; i < 5 && !reshuffled; i++ {
		reshuffled = !slices.Equal(first, a.Epoch())
	}
	assert.True(t, reshuffled)

	subset[0] = 99
	assert.NotContains(t, a.Epoch(), 99, "the sampler owns its copy")
}

func TestSampler_Empty(t *testing.T) {
	s := NewSampler(nil, 1)
	assert.Empty(t, s.Epoch())
}
