package uncertainty

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatinHypercubeStratification(t *testing.T) {
	const n = 200
	s := NewSampler(1)

	samples := s.LatinHypercube(n)
	require.Len(t, samples, n)

	// Each of the n equal-width strata must contain exactly one sample.
	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)
	for i, u := range sorted {
		lower := float64(i) / n
		upper := float64(i+1) / n
		assert.GreaterOrEqual(t, u, lower, "sample %d below its stratum", i)
		assert.Less(t, u, upper, "sample %d above its stratum", i)
	}
}

func TestLatinHypercubeBounds(t *testing.T) {
	s := NewSampler(7)
	for _, u := range s.LatinHypercube(1000) {
		assert.Greater(t, u, 0.0)
		assert.Less(t, u, 1.0)
	}
}

func TestSamplerSeedReproducibility(t *testing.T) {
	a := NewSampler(42).LatinHypercube(500)
	b := NewSampler(42).LatinHypercube(500)
	assert.Equal(t, a, b)

	c := NewSampler(43).LatinHypercube(500)
	assert.NotEqual(t, a, c)
}

func TestLatinHypercubeAxesShuffledIndependently(t *testing.T) {
	s := NewSampler(42)
	first := s.LatinHypercube(500)
	second := s.LatinHypercube(500)
	assert.NotEqual(t, first, second)
}
