package atlas

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ChartTangentFrame is an n x k orthonormal basis for the null space
// of J(origin), i.e. the tangent space of the manifold at origin.
// Satisfies BtB = I_k and J(origin)*B = 0 to within projection
// tolerance. SVD is used instead of QR for the same reason the
// calibration code under rimage/calibrate reaches for gonum's SVD
// over a hand-rolled decomposition: it degrades gracefully at rank
// deficiency instead of failing outright.
type ChartTangentFrame struct {
	basis *mat.Dense // n x k
	n, k  int
}

// computeChartTangentFrame builds the tangent frame at x0 for the
// given manifold.
func computeChartTangentFrame(mf Manifold, x0 *mat.VecDense, rankTol float64) (ChartTangentFrame, error) {
	j := mf.J(x0)
	basis, k, err := nullSpaceBasis(j, rankTol)
	if err != nil {
		return ChartTangentFrame{}, err
	}
	if k != mf.K() {
		return ChartTangentFrame{}, errRankDeficient
	}
	return ChartTangentFrame{basis: basis, n: mf.N, k: k}, nil
}

// Dims returns (ambient dimension, tangent dimension).
func (f ChartTangentFrame) Dims() (int, int) { return f.n, f.k }

// ToAmbient maps a tangent-coordinate vector u (length k) to an
// ambient-space displacement B*u (length n).
func (f ChartTangentFrame) ToAmbient(u *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(f.n, nil)
	out.MulVec(f.basis, u)
	return out
}

// ToTangent projects an ambient displacement d (length n) onto the
// tangent frame: Bt*d.
func (f ChartTangentFrame) ToTangent(d *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(f.k, nil)
	out.MulVec(f.basis.T(), d)
	return out
}

// orthonormalityResidual reports max|BtB - I|, used by tests asserting
// tight orthonormality tolerance.
func (f ChartTangentFrame) orthonormalityResidual() float64 {
	var bt mat.Dense
	bt.Mul(f.basis.T(), f.basis)
	maxDiff := 0.0
	for i := 0; i < f.k; i++ {
		for j := 0; j < f.k; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if diff := abs(bt.At(i, j) - want); diff > maxDiff {
				maxDiff = diff
			}
		}
	}
	return maxDiff
}

// principalAngle returns the largest principal angle, in radians,
// between this frame's tangent subspace and other's. Both must share
// the same intrinsic dimension k, which holds whenever both were
// computed against the same Manifold. A result near 0 means the two
// subspaces are nearly coincident; near pi/2 means they are close to
// orthogonal.
func (f ChartTangentFrame) principalAngle(other ChartTangentFrame) (float64, error) {
	if f.k != other.k {
		return 0, errRankDeficient
	}
	if f.k == 0 {
		return 0, nil
	}

	var prod mat.Dense
	prod.Mul(f.basis.T(), other.basis)

	var svd mat.SVD
	if ok := svd.Factorize(&prod, mat.SVDNone); !ok {
		return 0, errProjectionFailed
	}

	minCos := 1.0
	for _, s := range svd.Values(nil) {
		if s < minCos {
			minCos = s
		}
	}
	switch {
	case minCos > 1:
		minCos = 1
	case minCos < -1:
		minCos = -1
	}
	return math.Acos(minCos), nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
