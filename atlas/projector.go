package atlas

import "gonum.org/v1/gonum/mat"

// project runs Newton's method x <- x - J(x)+ F(x) until ||F(x)|| <=
// tol or maxIter is reached. It never mutates atlas state: every
// value it touches is copied or freshly allocated.
func project(mf Manifold, guess *mat.VecDense, tol float64, maxIter int, rankTol float64) (*mat.VecDense, error) {
	x := mat.VecDenseCopyOf(guess)

	for iter := 0; iter < maxIter; iter++ {
		residual := mf.F(x)
		if mat.Norm(residual, 2) <= tol {
			return x, nil
		}

		j := mf.J(x)
		jPlus, rank, err := pseudoInverse(j, rankTol)
		if err != nil {
			return nil, err
		}
		_, n := j.Dims()
		if rank < minInt(j.RawMatrix().Rows, n) {
			return nil, errRankDeficient
		}

		var step mat.VecDense
		step.MulVec(jPlus, residual)

		next := mat.NewVecDense(x.Len(), nil)
		next.SubVec(x, &step)
		x = next
	}

	if mat.Norm(mf.F(x), 2) <= tol {
		return x, nil
	}
	return nil, errProjectionFailed
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
