package atlas

import "gonum.org/v1/gonum/mat"

// ConstraintFunc evaluates F: R^n -> R^m, the equality constraint whose
// zero set defines the manifold. Implementations must be pure
// (side-effect free) and safe to call from multiple goroutines with
// distinct inputs.
type ConstraintFunc func(x *mat.VecDense) *mat.VecDense

// JacobianFunc evaluates J: R^n -> R^(m x n), the Jacobian of a
// ConstraintFunc. Same purity requirement as ConstraintFunc.
type JacobianFunc func(x *mat.VecDense) *mat.Dense

// Manifold is the implicit surface F(x) = 0 that an Atlas charts.
type Manifold struct {
	F JacobianConstraint
	J JacobianFunc
	N int // ambient dimension
	M int // number of constraint equations
}

// JacobianConstraint is kept as an alias so callers can spell either
// atlas.ConstraintFunc or atlas.Manifold.F interchangeably.
type JacobianConstraint = ConstraintFunc

// K returns the manifold's intrinsic dimension, n - m.
func (mf Manifold) K() int {
	return mf.N - mf.M
}

// NewManifold validates dimensions and constructs a Manifold.
func NewManifold(n, m int, f ConstraintFunc, j JacobianFunc) (Manifold, error) {
	if n <= 0 || m < 0 || m >= n {
		return Manifold{}, errInvalidManifoldDims
	}
	if f == nil || j == nil {
		return Manifold{}, errNilConstraint
	}
	return Manifold{F: f, J: j, N: n, M: m}, nil
}

// residualNorm returns ||F(x)||.
func residualNorm(mf Manifold, x *mat.VecDense) float64 {
	return mat.Norm(mf.F(x), 2)
}
