package atlas

import "gonum.org/v1/gonum/mat"

// pseudoInverse computes the Moore-Penrose pseudoinverse of j (m x n)
// via SVD, zeroing singular values below rankTol * sigmaMax. It
// reports rank deficiency so callers can fail projection
// deterministically instead of looping.
func pseudoInverse(j *mat.Dense, rankTol float64) (*mat.Dense, int, error) {
	var svd mat.SVD
	ok := svd.Factorize(j, mat.SVDFull)
	if !ok {
		return nil, 0, errRankDeficient
	}

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	m, n := j.Dims()
	rank := 0
	sigmaMax := 0.0
	for _, s := range values {
		if s > sigmaMax {
			sigmaMax = s
		}
	}
	threshold := rankTol * sigmaMax
	if sigmaMax == 0 {
		threshold = rankTol
	}

	// sigmaPlus is n x m: the transpose pseudoinverse diagonal.
	sigmaPlus := mat.NewDense(n, m, nil)
	for i, s := range values {
		if s > threshold {
			sigmaPlus.Set(i, i, 1/s)
			rank++
		}
	}

	var tmp mat.Dense
	tmp.Mul(&v, sigmaPlus)
	var pinv mat.Dense
	pinv.Mul(&tmp, u.T())
	return &pinv, rank, nil
}

// nullSpaceBasis returns an n x k orthonormal basis for the null
// space of j (m x n), k = n - rank(j): the tangent directions along
// which F stays (locally) constant.
func nullSpaceBasis(j *mat.Dense, tol float64) (*mat.Dense, int, error) {
	var svd mat.SVD
	ok := svd.Factorize(j, mat.SVDFull)
	if !ok {
		return nil, 0, errRankDeficient
	}

	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	_, n := j.Dims()
	sigmaMax := 0.0
	for _, s := range values {
		if s > sigmaMax {
			sigmaMax = s
		}
	}
	threshold := tol * sigmaMax
	if sigmaMax == 0 {
		threshold = tol
	}

	rank := 0
	for _, s := range values {
		if s > threshold {
			rank++
		}
	}
	k := n - rank
	if k <= 0 {
		return mat.NewDense(n, 0, nil), 0, nil
	}

	basis := mat.NewDense(n, k, nil)
	for col := 0; col < k; col++ {
		for row := 0; row < n; row++ {
			basis.Set(row, col, v.At(row, rank+col))
		}
	}
	return basis, k, nil
}
