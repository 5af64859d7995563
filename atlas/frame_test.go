package atlas

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestChartTangentFrameOrthonormal(t *testing.T) {
	mf := sphereManifold()
	x0 := mat.NewVecDense(3, []float64{0, 0, 1})

	frame, err := computeChartTangentFrame(mf, x0, 1e-8)
	require.NoError(t, err)

	n, k := frame.Dims()
	require.Equal(t, 3, n)
	require.Equal(t, 2, k)
	require.Less(t, frame.orthonormalityResidual(), 1e-10)
}

func TestChartTangentFrameSpansNullSpace(t *testing.T) {
	mf := sphereManifold()
	x0 := mat.NewVecDense(3, []float64{0, 0, 1})

	frame, err := computeChartTangentFrame(mf, x0, 1e-8)
	require.NoError(t, err)

	j := mf.J(x0)
	var jb mat.Dense
	jb.Mul(j, frame.basis)
	for i := 0; i < frame.k; i++ {
		require.InDelta(t, 0, jb.At(0, i), 1e-10)
	}
}

func TestToAmbientToTangentRoundTrip(t *testing.T) {
	mf := sphereManifold()
	x0 := mat.NewVecDense(3, []float64{0, 0, 1})
	frame, err := computeChartTangentFrame(mf, x0, 1e-8)
	require.NoError(t, err)

	u := mat.NewVecDense(2, []float64{0.3, -0.1})
	d := frame.ToAmbient(u)
	uBack := frame.ToTangent(d)

	require.InDelta(t, u.AtVec(0), uBack.AtVec(0), 1e-10)
	require.InDelta(t, u.AtVec(1), uBack.AtVec(1), 1e-10)
}
