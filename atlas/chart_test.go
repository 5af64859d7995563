package atlas

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTestChart(t *testing.T, origin *mat.VecDense, rho float64) *AtlasChart {
	t.Helper()
	mf := sphereManifold()
	frame, err := computeChartTangentFrame(mf, origin, 1e-8)
	require.NoError(t, err)
	return newAtlasChart(mf, origin, frame, rho)
}

func TestPsiPsiInverseRoundTrip(t *testing.T) {
	origin := mat.NewVecDense(3, []float64{0, 0, 1})
	c := newTestChart(t, origin, 0.2)

	u := mat.NewVecDense(2, []float64{0.05, -0.02})
	x, err := c.psi(u, DefaultOptions())
	require.NoError(t, err)
	require.InDelta(t, 0, residualNorm(c.mf, x), 1e-7)

	// psi projects radially onto the sphere, so the round trip scales u
	// by 1/sqrt(1+|u|^2), about 0.9986 here.
	uRound := c.psiInverse(x)
	require.InDelta(t, u.AtVec(0), uRound.AtVec(0), 1e-3)
	require.InDelta(t, u.AtVec(1), uRound.AtVec(1), 1e-3)

	uBack := c.psiInverse(origin)
	require.InDelta(t, 0, uBack.AtVec(0), 1e-12)
	require.InDelta(t, 0, uBack.AtVec(1), 1e-12)
}

func TestInPolytopeRespectsRadius(t *testing.T) {
	origin := mat.NewVecDense(3, []float64{0, 0, 1})
	c := newTestChart(t, origin, 0.1)

	inside := mat.NewVecDense(2, []float64{0.01, 0.01})
	require.True(t, c.inPolytope(inside))

	outside := mat.NewVecDense(2, []float64{1, 1})
	require.False(t, c.inPolytope(outside))
}

func TestAddBoundaryBisectsOrigins(t *testing.T) {
	originA := mat.NewVecDense(3, []float64{0, 0, 1})
	cA := newTestChart(t, originA, 0.3)

	originB, err := project(cA.mf, mat.NewVecDense(3, []float64{0.2, 0, 0.98}), 1e-10, 50, 1e-8)
	require.NoError(t, err)
	cB := newTestChart(t, originB, 0.3)

	cA.addBoundary(cB)
	require.Len(t, cA.Neighbors(), 1)
	require.Len(t, cA.halfSpaces, 1)

	// The origin itself must remain inside its own polytope after the
	// boundary is added.
	require.True(t, cA.inPolytope(mat.NewVecDense(2, []float64{0, 0})))
}

func TestEstimateMeasurePositive(t *testing.T) {
	origin := mat.NewVecDense(3, []float64{0, 0, 1})
	c := newTestChart(t, origin, 0.1)

	rng := rand.New(rand.NewSource(1))
	measure := c.estimateMeasure(2000, rng)
	require.Greater(t, measure, 0.0)
	require.InDelta(t, ballVolume(2, 0.1), measure, ballVolume(2, 0.1)*0.2)
}

func TestShrinkRhoInvalidatesMeasure(t *testing.T) {
	origin := mat.NewVecDense(3, []float64{0, 0, 1})
	c := newTestChart(t, origin, 0.1)
	c.estimateMeasure(100, rand.New(rand.NewSource(1)))
	require.True(t, c.measureSet)

	c.shrinkRho(0.5)
	require.False(t, c.measureSet)
	require.InDelta(t, 0.05, c.Rho(), 1e-12)
}
