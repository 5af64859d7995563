package bitstar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEuclideanCostHelperAlgebra(t *testing.T) {
	h := EuclideanCostHelper{}

	require.Equal(t, 0.0, h.IdentityCost())
	require.True(t, math.IsInf(h.InfiniteCost().(float64), 1))
	require.Equal(t, 5.0, h.CombineCosts(2.0, 3.0))
	require.Equal(t, 2.0, h.CombineCosts(2.0, h.IdentityCost()))
	require.True(t, h.IsCostBetterThan(1.0, 2.0))
	require.False(t, h.IsCostBetterThan(2.0, 1.0))
}

func TestAtomicIdGeneratorIsStrictlyIncreasing(t *testing.T) {
	g := NewAtomicIdGenerator()
	last := g.Next()
	for i := 0; i < 100; i++ {
		next := g.Next()
		require.Greater(t, next, last)
		last = next
	}
}
