package atlas

import "gonum.org/v1/gonum/mat"

// interpolationTrace is the stored outcome of the most recent
// interpolating traversal: the visited states plus their cumulative
// arc lengths, keyed by the endpoints that produced them. Traversal is
// asymmetric, so the key is the ordered (from, to) pair.
type interpolationTrace struct {
	from, to   *mat.VecDense
	states     []*ManifoldState
	cumulative []float64
}

func newInterpolationTrace(from, to *mat.VecDense, states []*ManifoldState) *interpolationTrace {
	cumulative := make([]float64, len(states))
	for i := 1; i < len(states); i++ {
		cumulative[i] = cumulative[i-1] + ambientDistance(states[i].ambient, states[i-1].ambient)
	}
	return &interpolationTrace{
		from:       mat.VecDenseCopyOf(from),
		to:         mat.VecDenseCopyOf(to),
		states:     states,
		cumulative: cumulative,
	}
}

func (tr *interpolationTrace) matches(from, to *mat.VecDense) bool {
	return mat.Equal(tr.from, from) && mat.Equal(tr.to, to)
}

// at returns the trace state whose cumulative arc length first reaches
// fraction t of the total.
func (tr *interpolationTrace) at(t float64) *ManifoldState {
	total := tr.cumulative[len(tr.cumulative)-1]
	if total <= 0 || t <= 0 {
		return tr.states[0]
	}
	target := t * total
	for i, d := range tr.cumulative {
		if d >= target {
			return tr.states[i]
		}
	}
	return tr.states[len(tr.states)-1]
}

// Interpolate writes into out the state a fraction t of the way along
// the manifold geodesic from 'from' to 'to', t clamped to [0, 1]. The
// trace of the last interpolating traversal is cached and re-served
// when the endpoints match; otherwise the traversal is recomputed. If
// the underlying traversal stops early (chart-invalid, too-far), the
// interpolation is taken over the partial trace that was produced.
func (as *AtlasStateSpace) Interpolate(from, to *ManifoldState, t float64, out *ManifoldState) error {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	as.mu.Lock()
	tr := as.trace
	as.mu.Unlock()

	if tr == nil || !tr.matches(from.ambient, to.ambient) {
		var states []*ManifoldState
		if _, err := as.followManifold(from, to, true, &states, nil); err != nil {
			return err
		}
		tr = newInterpolationTrace(from.ambient, to.ambient, states)
		as.mu.Lock()
		as.trace = tr
		as.mu.Unlock()
	}

	pick := tr.at(t)
	out.ambient = mat.VecDenseCopyOf(pick.ambient)
	out.chart = pick.chart
	out.freed = false
	return nil
}

// HasSymmetricInterpolate reports false: traversal from A to B may
// visit different points than from B to A, since chart handoffs and
// projection depend on the walk direction.
func (as *AtlasStateSpace) HasSymmetricInterpolate() bool { return false }

// SpaceInformation ties an atlas to the validity checker the
// surrounding framework resolved for it. The core needs only enough of
// it to confirm the pairing; everything else about space information
// lives in the framework.
type SpaceInformation struct {
	space   *AtlasStateSpace
	isValid func(*ManifoldState) bool
}

// NewSpaceInformation pairs as with the framework's validity checker.
// isValid may be nil, in which case every state is treated as valid.
func NewSpaceInformation(as *AtlasStateSpace, isValid func(*ManifoldState) bool) *SpaceInformation {
	return &SpaceInformation{space: as, isValid: isValid}
}

// StateSpace returns the atlas this space information was built over.
func (si *SpaceInformation) StateSpace() *AtlasStateSpace { return si.space }

// IsValid reports whether the framework's validity checker accepts s.
func (si *SpaceInformation) IsValid(s *ManifoldState) bool {
	if si.isValid == nil {
		return true
	}
	return si.isValid(s)
}

// SetSpaceInformation records si on the atlas. si must have been
// constructed from this atlas; anything else is a caller contract
// violation.
func (as *AtlasStateSpace) SetSpaceInformation(si *SpaceInformation) error {
	if si == nil || si.space != as {
		return errForeignSpaceInformation
	}
	as.mu.Lock()
	as.si = si
	as.mu.Unlock()
	return nil
}

// SpaceInformation returns the space information recorded by
// SetSpaceInformation, or nil if none has been set.
func (as *AtlasStateSpace) SpaceInformation() *SpaceInformation {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.si
}
