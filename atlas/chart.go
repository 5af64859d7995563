package atlas

import (
	"math"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// halfSpace is a single tangent-space constraint a.u <= b.
type halfSpace struct {
	a          *mat.VecDense
	b          float64
	neighborID uuid.UUID
}

// AtlasChart is a local Euclidean coordinate patch of the manifold.
// Charts are never destroyed; their polytope and neighbor set only
// grow or have rho shrink.
//
// Interior mutability: sampling and traversal mutate a chart's
// polytope/neighbors/measure even when the caller perceives the query
// as read-only. The mutex reifies that instead of silently casting
// away immutability.
type AtlasChart struct {
	mu sync.Mutex

	id     uuid.UUID
	mf     Manifold
	origin *mat.VecDense
	frame  ChartTangentFrame

	rho             float64
	halfSpaces      []halfSpace
	neighbors       map[uuid.UUID]*AtlasChart
	measure         float64
	measureVariance float64
	measureSet      bool
}

func newAtlasChart(mf Manifold, origin *mat.VecDense, frame ChartTangentFrame, rho float64) *AtlasChart {
	return &AtlasChart{
		id:        uuid.New(),
		mf:        mf,
		origin:    mat.VecDenseCopyOf(origin),
		frame:     frame,
		rho:       rho,
		neighbors: make(map[uuid.UUID]*AtlasChart),
	}
}

// ID returns the chart's stable identifier.
func (c *AtlasChart) ID() uuid.UUID { return c.id }

// Rho returns the chart's current (possibly shrunk) radius.
func (c *AtlasChart) Rho() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rho
}

// shrinkRho reduces rho after an angular-validity violation is
// detected at runtime and invalidates the cached measure, since the
// polytope's ball constraint just got smaller.
func (c *AtlasChart) shrinkRho(factor float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rho *= factor
	c.measureSet = false
}

// psi maps tangent coordinate u to the ambient point on the manifold,
// Newton-projecting origin + B*u back onto F = 0, then enforces
// angular validity before handing the result back.
func (c *AtlasChart) psi(u *mat.VecDense, opt Options) (*mat.VecDense, error) {
	disp := c.frame.ToAmbient(u)
	guess := mat.NewVecDense(c.mf.N, nil)
	guess.AddVec(c.origin, disp)
	x, err := project(c.mf, guess, opt.ProjectionTolerance, opt.ProjectionMaxIterations, opt.RankTolerance)
	if err != nil {
		return nil, err
	}
	if err := c.checkAngularValidity(x, opt); err != nil {
		return nil, err
	}
	return x, nil
}

// checkAngularValidity recomputes the tangent frame at x and compares
// it against this chart's own frame. A chart is only a valid linear
// approximation of the manifold out to the angle where the true
// tangent space has rotated no more than alpha away from the chart's
// origin frame; past that, the chart's polytope is claiming territory
// its linearization doesn't actually cover, so rho shrinks to pull the
// boundary back in.
func (c *AtlasChart) checkAngularValidity(x *mat.VecDense, opt Options) error {
	frameAtX, err := computeChartTangentFrame(c.mf, x, opt.RankTolerance)
	if err != nil {
		return err
	}
	angle, err := c.frame.principalAngle(frameAtX)
	if err != nil {
		return err
	}
	if angle > opt.Alpha {
		c.shrinkRho(0.5)
		return errAngularValidity
	}
	return nil
}

// psiInverse returns the tangent coordinate of x relative to origin.
// No projection: u = Bt(x - origin).
func (c *AtlasChart) psiInverse(x *mat.VecDense) *mat.VecDense {
	d := mat.NewVecDense(c.mf.N, nil)
	d.SubVec(x, c.origin)
	return c.frame.ToTangent(d)
}

// inPolytope tests the ball bound and every half-space.
func (c *AtlasChart) inPolytope(u *mat.VecDense) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mat.Norm(u, 2) > c.rho {
		return false
	}
	for _, hs := range c.halfSpaces {
		if mat.Dot(hs.a, u) > hs.b {
			return false
		}
	}
	return true
}

// addBoundary inserts the perpendicular-bisector half-space separating
// this chart's origin from neighbor's origin, expressed in this
// chart's tangent frame, and records the neighbor link.
func (c *AtlasChart) addBoundary(neighbor *AtlasChart) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.neighbors[neighbor.id]; ok {
		return
	}
	uNeighbor := c.psiInverse(neighbor.origin)
	norm := mat.Norm(uNeighbor, 2)
	if norm < 1e-12 {
		// Degenerate: neighbor origin coincides with this chart's
		// origin in tangent coordinates. Record the link without a
		// meaningful half-space rather than dividing by zero.
		c.neighbors[neighbor.id] = neighbor
		c.measureSet = false
		return
	}
	a := mat.VecDenseCopyOf(uNeighbor)
	a.ScaleVec(1/norm, a)
	b := norm / 2

	c.halfSpaces = append(c.halfSpaces, halfSpace{a: a, b: b, neighborID: neighbor.id})
	c.neighbors[neighbor.id] = neighbor
	c.measureSet = false
}

// Neighbors returns a snapshot of this chart's neighbor set.
func (c *AtlasChart) Neighbors() []*AtlasChart {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*AtlasChart, 0, len(c.neighbors))
	for _, n := range c.neighbors {
		out = append(out, n)
	}
	return out
}

// ballVolume returns the volume of a k-ball of radius rho.
func ballVolume(k int, rho float64) float64 {
	kf := float64(k)
	return math.Pow(math.Pi, kf/2) / math.Gamma(kf/2+1) * math.Pow(rho, kf)
}

// estimateMeasure recomputes the Monte-Carlo validity-region volume
// estimate by uniformly sampling the bounding ball of radius rho and
// counting the fraction that lands inside the polytope. The
// inside/outside indicators are handed to gonum/stat for the
// mean/variance bookkeeping rather than hand-rolled accumulation, so
// the variance of the estimator is available for free alongside the
// estimate itself.
func (c *AtlasChart) estimateMeasure(nSamples int, rng *rand.Rand) float64 {
	c.mu.Lock()
	rho := c.rho
	halfSpaces := c.halfSpaces
	k := c.frame.k
	c.mu.Unlock()

	if nSamples <= 0 {
		nSamples = 1
	}
	indicators := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		u := sampleBall(rng, k, rho)
		inside := true
		for _, hs := range halfSpaces {
			if mat.Dot(hs.a, u) > hs.b {
				inside = false
				break
			}
		}
		if inside {
			indicators[i] = 1
		}
	}
	_, variance := stat.MeanVariance(indicators, nil)
	fraction := floats.Sum(indicators) / float64(nSamples)
	volume := ballVolume(k, rho)
	estimate := volume * fraction

	c.mu.Lock()
	c.measure = estimate
	c.measureVariance = volume * volume * variance / float64(nSamples)
	c.measureSet = true
	c.mu.Unlock()
	return estimate
}

// measureOrZero returns the cached measure, or 0 if it has never been
// computed (the chart is then effectively unsampled until the atlas
// requests an estimate).
func (c *AtlasChart) measureOrZero() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.measureSet {
		return 0
	}
	return c.measure
}

// measureVarianceOrZero returns the variance of the cached Monte-Carlo
// measure estimate (standard error^2 of the mean, scaled by volume^2),
// or 0 if no estimate has been computed yet.
func (c *AtlasChart) measureVarianceOrZero() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.measureSet {
		return 0
	}
	return c.measureVariance
}

// sampleBall draws a uniformly random point in the k-dimensional ball
// of radius rho via the standard normalize-then-rescale method.
func sampleBall(rng *rand.Rand, k int, rho float64) *mat.VecDense {
	if k == 0 {
		return mat.NewVecDense(0, nil)
	}
	raw := make([]float64, k)
	sumSq := 0.0
	for i := range raw {
		raw[i] = rng.NormFloat64()
		sumSq += raw[i] * raw[i]
	}
	norm := math.Sqrt(sumSq)
	// radius^(1/k) * uniform gives the correct density for a uniform
	// fill of the ball rather than a surface-only sample.
	r := rho * math.Pow(rng.Float64(), 1/float64(k))
	v := mat.NewVecDense(k, nil)
	for i := range raw {
		v.SetVec(i, raw[i]/norm*r)
	}
	return v
}
