package evaluation

import (
	"math/rand/v2"
	"slices"
	"sync"
)

// Sampler visits a fixed subset of indices in a new random order on every
// epoch. Two samplers with the same seed produce the same sequence of orders.
type Sampler struct {
	mu      sync.Mutex
	indices []int
	rng     *rand.Rand
}

// NewSampler creates a sampler over a copy of indices
func NewSampler(indices []int, seed uint64) *Sampler {
	return &Sampler{
		indices: slices.Clone(indices),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Len returns the subset size
func (s *Sampler) Len() int {
	return len(s.indices)
}

// Epoch returns a fresh permutation of the subset
func (s *Sampler) Epoch() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := slices.Clone(s.indices)
	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}
