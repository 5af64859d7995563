package atlas

import (
	"math"
	"math/rand"
	"sync"

	"github.com/atlasmp/core/logging"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

// AtlasStateSpace owns the chart collection and every allocated
// ManifoldState. It is the only component permitted to create charts
// or mint/retire states; everything else (sampler, motion validator,
// planner) goes through it.
//
// Chart creation and sampling mutate state that a caller may perceive
// as belonging to a read-only query. That mutation is intentional
// (see newChart) and is guarded by mu rather than hidden.
type AtlasStateSpace struct {
	mf     Manifold
	opts   Options
	logger logging.Logger

	mu     sync.Mutex
	charts []*AtlasChart
	rng    *rand.Rand
	trace  *interpolationTrace
	si     *SpaceInformation
}

// NewAtlasStateSpace validates opts and constructs an empty atlas over
// mf. seed fixes the internal RNG so that, within one planning call,
// chart creation order is reproducible. logger is never nil internally;
// a nil logger passed in falls back to logging.NewBlankLogger so
// callers that don't care about atlas-internal logging don't have to
// construct a discard logger by hand.
func NewAtlasStateSpace(mf Manifold, opts Options, seed int64, logger logging.Logger) (*AtlasStateSpace, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewBlankLogger("atlas")
	}
	return &AtlasStateSpace{
		mf:     mf,
		opts:   opts,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// ChartCount returns the number of charts created so far.
func (as *AtlasStateSpace) ChartCount() int {
	as.mu.Lock()
	defer as.mu.Unlock()
	return len(as.charts)
}

// allocState mints a fresh, empty state owned by this atlas.
func (as *AtlasStateSpace) allocState() *ManifoldState {
	return &ManifoldState{owner: as}
}

// AllocState mints a fresh, empty state owned by this atlas. Exported
// for callers outside this package (samplers, planners); internally
// equivalent to allocState.
func (as *AtlasStateSpace) AllocState() *ManifoldState { return as.allocState() }

// FreeState is the exported form of freeState.
func (as *AtlasStateSpace) FreeState(s *ManifoldState) error { return as.freeState(s) }

// CopyState is the exported form of copyState.
func (as *AtlasStateSpace) CopyState(dst, src *ManifoldState) error { return as.copyState(dst, src) }

// NewState allocates a state and immediately writes ambient x into it
// without resolving chart ownership; callers that need ownership
// resolved should go through sampleUniform or wrap x via owningChart
// themselves. Used by planners seeding a start/goal state whose chart
// is already known.
func (as *AtlasStateSpace) NewState(x *mat.VecDense, chart *AtlasChart) *ManifoldState {
	s := as.allocState()
	s.ambient = mat.VecDenseCopyOf(x)
	s.chart = chart
	return s
}

// freeState retires s. Freeing a state not owned by this atlas, or
// freeing it twice, is a programming error rather than a silent
// no-op, since both indicate a caller contract violation.
func (as *AtlasStateSpace) freeState(s *ManifoldState) error {
	if s.owner != as {
		return errStateOwnedElsewhere
	}
	if s.freed {
		return errDoubleFree
	}
	s.freed = true
	s.ambient = nil
	s.chart = nil
	return nil
}

// copyState makes dst an independent copy of src; subsequent freeing
// of either has no effect on the other.
func (as *AtlasStateSpace) copyState(dst, src *ManifoldState) error {
	if dst.owner != as || src.owner != as {
		return errStateOwnedElsewhere
	}
	if src.freed {
		return newProgrammingError("atlas: cannot copy from a freed state")
	}
	dst.ambient = mat.VecDenseCopyOf(src.ambient)
	dst.chart = src.chart
	dst.freed = false
	return nil
}

// newChart allocates a chart at x, which must already satisfy F(x) ≈
// 0. It links bisector half-spaces against every existing chart whose
// origin lies within NeighborLinkRadiusFactor*ρ of x and seeds the
// weighted sampling distribution with a Monte-Carlo measure estimate.
// This is a const-logical operation: callers may invoke it from
// otherwise read-only sampling and traversal paths.
func (as *AtlasStateSpace) newChart(x *mat.VecDense) (*AtlasChart, error) {
	if residualNorm(as.mf, x) > as.opts.ProjectionTolerance {
		return nil, errOriginNotOnManifold
	}
	frame, err := computeChartTangentFrame(as.mf, x, as.opts.RankTolerance)
	if err != nil {
		return nil, err
	}
	chart := newAtlasChart(as.mf, x, frame, as.opts.Rho)

	as.mu.Lock()
	linkRadius := as.opts.NeighborLinkRadiusFactor * as.opts.Rho
	for _, existing := range as.charts {
		if ambientDistance(existing.origin, x) <= linkRadius {
			chart.addBoundary(existing)
			existing.addBoundary(chart)
		}
	}
	as.charts = append(as.charts, chart)
	as.mu.Unlock()

	nSamples := monteCarloSampleCount(as.opts.MonteCarloThoroughness, frame.k)
	chart.estimateMeasure(nSamples, as.rng)
	as.logger.Debugf("atlas: new chart %s, rho=%.4g, measure=%.4g", chart.id, chart.Rho(), chart.measureOrZero())
	return chart, nil
}

func monteCarloSampleCount(thoroughness float64, k int) int {
	n := int(math.Pow(thoroughness*10, float64(k)))
	if n < 32 {
		n = 32
	}
	if n > 20000 {
		n = 20000
	}
	return n
}

func ambientDistance(a, b *mat.VecDense) float64 {
	d := mat.NewVecDense(a.Len(), nil)
	d.SubVec(a, b)
	return mat.Norm(d, 2)
}

// owningChart returns the chart whose polytope contains x, preferring
// hint, then (among remaining candidates) the chart whose origin is
// closest to x in ambient distance. Returns nil if no known chart
// contains x.
func (as *AtlasStateSpace) owningChart(x *mat.VecDense, hint *AtlasChart) *AtlasChart {
	if hint != nil {
		if hint.inPolytope(hint.psiInverse(x)) {
			return hint
		}
	}

	as.mu.Lock()
	candidates := make([]*AtlasChart, 0, len(as.charts))
	for _, c := range as.charts {
		if c == hint {
			continue
		}
		candidates = append(candidates, c)
	}
	as.mu.Unlock()

	var best *AtlasChart
	bestDist := math.Inf(1)
	for _, c := range candidates {
		if !c.inPolytope(c.psiInverse(x)) {
			continue
		}
		d := ambientDistance(c.origin, x)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// OwningChart is the exported form of owningChart, letting a planner
// resolve the chart that owns a known-on-manifold ambient point x when
// seeding a start or goal state.
func (as *AtlasStateSpace) OwningChart(x *mat.VecDense, hint *AtlasChart) *AtlasChart {
	return as.owningChart(x, hint)
}

// NewChart is the exported form of newChart.
func (as *AtlasStateSpace) NewChart(x *mat.VecDense) (*AtlasChart, error) {
	return as.newChart(x)
}

// ResolveState builds a ManifoldState for ambient point x, reusing an
// existing chart if one already owns x or creating a new one
// otherwise. x must already satisfy F(x) ≈ 0.
func (as *AtlasStateSpace) ResolveState(x *mat.VecDense) (*ManifoldState, error) {
	chart := as.owningChart(x, nil)
	if chart == nil {
		var err error
		chart, err = as.newChart(x)
		if err != nil {
			return nil, err
		}
	}
	return as.NewState(x, chart), nil
}

// sampleChart picks a chart with probability proportional to its
// current measure. Falls back to a uniform pick over all charts if
// every chart's measure is still unestimated (weight 0).
func (as *AtlasStateSpace) sampleChart() *AtlasChart {
	as.mu.Lock()
	charts := append([]*AtlasChart(nil), as.charts...)
	as.mu.Unlock()

	if len(charts) == 0 {
		return nil
	}

	total := 0.0
	weights := make([]float64, len(charts))
	for i, c := range charts {
		weights[i] = c.measureOrZero()
		total += weights[i]
	}
	if total <= 0 {
		return charts[as.rng.Intn(len(charts))]
	}
	r := as.rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if r <= cum {
			return charts[i]
		}
	}
	return charts[len(charts)-1]
}

// sampleSizeFor blends ρ against the exploration knob: 0 samples
// strictly inside ρ, values approaching 1 push the rejection ball out
// toward the frontier to encourage new chart creation.
func sampleSizeFor(rho, exploration float64) float64 {
	return rho * (1 + exploration)
}

// sampleUniform draws a uniformly random on-manifold state, resolving
// it against a known chart or minting a new one, and writes the
// result into out.
func (as *AtlasStateSpace) sampleUniform(out *ManifoldState) error {
	var retryErrs error
	for attempt := 0; attempt < as.opts.SampleRetryBudget; attempt++ {
		c := as.sampleChart()
		if c == nil {
			return multierr.Append(retryErrs, errRetryBudgetExceeded)
		}
		rhoS := sampleSizeFor(c.Rho(), as.opts.Exploration)
		_, k := c.frame.Dims()
		u := sampleBall(as.rng, k, rhoS)
		if !c.halfSpacesOnly(u) {
			continue
		}
		x, err := c.psi(u, as.opts)
		if err != nil {
			retryErrs = multierr.Append(retryErrs, err)
			continue
		}
		chart := as.owningChart(x, c)
		if chart == nil {
			chart, err = as.newChart(x)
			if err != nil {
				retryErrs = multierr.Append(retryErrs, err)
				continue
			}
		}
		out.ambient = x
		out.chart = chart
		out.freed = false
		return nil
	}
	as.logger.Warnf("atlas: sampleUniform exhausted retry budget %d: %v", as.opts.SampleRetryBudget, retryErrs)
	return multierr.Append(retryErrs, errRetryBudgetExceeded)
}

// sampleUniformNear draws u within radius d of near's tangent
// coordinate in near's own chart, then resolves it the same way as
// sampleUniform.
func (as *AtlasStateSpace) sampleUniformNear(out, near *ManifoldState, d float64) error {
	c := near.chart
	uNear := c.psiInverse(near.ambient)
	_, k := c.frame.Dims()

	var retryErrs error
	for attempt := 0; attempt < as.opts.SampleRetryBudget; attempt++ {
		offset := sampleBall(as.rng, k, d)
		u := mat.NewVecDense(k, nil)
		u.AddVec(uNear, offset)
		if !c.halfSpacesOnly(u) {
			continue
		}
		x, err := c.psi(u, as.opts)
		if err != nil {
			retryErrs = multierr.Append(retryErrs, err)
			continue
		}
		chart := as.owningChart(x, c)
		if chart == nil {
			chart, err = as.newChart(x)
			if err != nil {
				retryErrs = multierr.Append(retryErrs, err)
				continue
			}
		}
		out.ambient = x
		out.chart = chart
		out.freed = false
		return nil
	}
	as.logger.Warnf("atlas: sampleUniformNear exhausted retry budget %d: %v", as.opts.SampleRetryBudget, retryErrs)
	return multierr.Append(retryErrs, errRetryBudgetExceeded)
}

// dichotomicSearchMaxIter bounds the bisection loop in dichotomicSearch.
const dichotomicSearchMaxIter = 30

// boundaryTolFactor scales delta into the tangent-space tolerance
// dichotomicSearch bisects down to before accepting a boundary point.
const boundaryTolFactor = 1e-3

// dichotomicSearch binary-subdivides the tangent-space segment between
// xInside (known to satisfy c.inPolytope) and xOutside (known not to)
// to locate the polytope boundary crossing to within tol.
func (as *AtlasStateSpace) dichotomicSearch(c *AtlasChart, xInside, xOutside *mat.VecDense, tol float64, maxIter int) *mat.VecDense {
	uInside := c.psiInverse(xInside)
	uOutside := c.psiInverse(xOutside)

	for i := 0; i < maxIter; i++ {
		if ambientDistance(uInside, uOutside) <= tol {
			break
		}
		mid := mat.NewVecDense(uInside.Len(), nil)
		mid.AddVec(uInside, uOutside)
		mid.ScaleVec(0.5, mid)
		if c.inPolytope(mid) {
			uInside = mid
		} else {
			uOutside = mid
		}
	}
	x, err := c.psi(uInside, as.opts)
	if err != nil {
		return xInside
	}
	return x
}

// SampleChart is the exported form of sampleChart: it draws a chart
// with probability proportional to its current measure, for planners
// that bias their own sampling by chart coverage.
func (as *AtlasStateSpace) SampleChart() *AtlasChart {
	return as.sampleChart()
}

// FollowResult is the structured outcome of a geodesic traversal.
type FollowResult struct {
	Reason    StopReason
	Travelled float64
	DStraight float64
	LastChart *AtlasChart
	LastValid *mat.VecDense
}

// followManifold is the heart of the atlas: it walks from 'from'
// toward 'to' in fixed tangent-space steps of length δ, re-projecting
// onto the manifold at every step and handing off between charts at
// polytope boundaries. validFn is skipped entirely when interpolate is
// true. When stateList is non-nil, a copy of every visited state
// (including the first) is appended to it.
func (as *AtlasStateSpace) followManifold(
	from, to *ManifoldState,
	interpolate bool,
	stateList *[]*ManifoldState,
	validFn func(*ManifoldState) bool,
) (FollowResult, error) {
	delta := as.opts.Delta
	c := from.chart
	x := mat.VecDenseCopyOf(from.ambient)

	dStraight := ambientDistance(from.ambient, to.ambient)
	if stateList != nil {
		*stateList = append(*stateList, as.snapshot(x, c))
	}
	if dStraight <= delta*1e-6 {
		return FollowResult{Reason: StopReached, Travelled: 0, DStraight: dStraight, LastChart: c, LastValid: x}, nil
	}

	travelled := 0.0
	for {
		prevX, prevChart := x, c

		diff := mat.NewVecDense(x.Len(), nil)
		diff.SubVec(to.ambient, x)
		uDir := c.frame.ToTangent(diff)
		dirNorm := mat.Norm(uDir, 2)
		if dirNorm < 1e-15 {
			return FollowResult{Reason: StopReached, Travelled: travelled, DStraight: dStraight, LastChart: c, LastValid: x}, nil
		}
		uDir.ScaleVec(delta/dirNorm, uDir)

		uX := c.psiInverse(x)
		uNewTarget := mat.NewVecDense(uX.Len(), nil)
		uNewTarget.AddVec(uX, uDir)

		xNew, err := c.psi(uNewTarget, as.opts)
		if err != nil {
			if err == errAngularValidity {
				as.logger.Debugf("atlas: chart %s shrunk rho to %.4g on angular-validity violation", c.id, c.Rho())
				return FollowResult{Reason: StopChartInvalid, Travelled: travelled, DStraight: dStraight, LastChart: prevChart, LastValid: prevX}, nil
			}
			return FollowResult{Reason: StopProjectionFailed, Travelled: travelled, DStraight: dStraight, LastChart: prevChart, LastValid: prevX}, nil
		}

		stepDist := ambientDistance(xNew, x)
		if stepDist > 2*delta {
			c.shrinkRho(0.5)
			as.logger.Debugf("atlas: chart %s shrunk rho to %.4g on step-distance violation", c.id, c.Rho())
			return FollowResult{Reason: StopChartInvalid, Travelled: travelled, DStraight: dStraight, LastChart: prevChart, LastValid: prevX}, nil
		}

		uNewInC := c.psiInverse(xNew)
		if !c.inPolytope(uNewInC) {
			// The step crossed c's polytope boundary: pin down the
			// crossing precisely instead of handing off at xNew, whose
			// true position relative to the boundary is only known to
			// within one full step of slop.
			boundary := as.dichotomicSearch(c, x, xNew, as.opts.Delta*boundaryTolFactor, dichotomicSearchMaxIter)
			if stateList != nil {
				*stateList = append(*stateList, as.snapshot(boundary, c))
			}

			neighbor := as.owningChart(xNew, c)
			if neighbor == nil {
				neighbor, err = as.newChart(xNew)
				if err != nil {
					return FollowResult{Reason: StopProjectionFailed, Travelled: travelled, DStraight: dStraight, LastChart: prevChart, LastValid: prevX}, nil
				}
			}
			c = neighbor
		}

		if !interpolate && validFn != nil {
			candidate := as.snapshot(xNew, c)
			if !validFn(candidate) {
				return FollowResult{Reason: StopCollision, Travelled: travelled, DStraight: dStraight, LastChart: prevChart, LastValid: prevX}, nil
			}
		}

		travelled += stepDist
		if travelled > as.opts.Lambda*dStraight {
			return FollowResult{Reason: StopTooFar, Travelled: travelled, DStraight: dStraight, LastChart: c, LastValid: xNew}, nil
		}

		if stateList != nil {
			*stateList = append(*stateList, as.snapshot(xNew, c))
		}

		if ambientDistance(xNew, to.ambient) <= delta {
			return FollowResult{Reason: StopReached, Travelled: travelled, DStraight: dStraight, LastChart: c, LastValid: xNew}, nil
		}

		x = xNew
	}
}

// FollowManifold is the exported form of followManifold, for planners
// that drive traversal directly rather than through an
// AtlasMotionValidator.
func (as *AtlasStateSpace) FollowManifold(
	from, to *ManifoldState,
	interpolate bool,
	stateList *[]*ManifoldState,
	validFn func(*ManifoldState) bool,
) (FollowResult, error) {
	return as.followManifold(from, to, interpolate, stateList, validFn)
}

// snapshot wraps an ambient point + chart as a freshly allocated,
// atlas-owned state, used to build traversal traces and validity
// callback arguments.
func (as *AtlasStateSpace) snapshot(x *mat.VecDense, c *AtlasChart) *ManifoldState {
	return &ManifoldState{
		ambient: mat.VecDenseCopyOf(x),
		chart:   c,
		owner:   as,
	}
}

// halfSpacesOnly tests only the polytope's half-space constraints,
// skipping the ball bound; used by the exploration-scaled rejection
// sampler, which intentionally samples beyond ρ.
func (c *AtlasChart) halfSpacesOnly(u *mat.VecDense) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, hs := range c.halfSpaces {
		if mat.Dot(hs.a, u) > hs.b {
			return false
		}
	}
	return true
}
