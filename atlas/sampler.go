package atlas

// AtlasStateSampler draws states respecting the atlas's manifold
// geometry rather than a naive ambient-space box.
type AtlasStateSampler struct {
	as *AtlasStateSpace
}

// NewAtlasStateSampler builds a sampler bound to as.
func NewAtlasStateSampler(as *AtlasStateSpace) *AtlasStateSampler {
	return &AtlasStateSampler{as: as}
}

// SampleUniform writes a uniformly random on-manifold state into out.
func (s *AtlasStateSampler) SampleUniform(out *ManifoldState) error {
	return s.as.sampleUniform(out)
}

// SampleUniformNear writes a state within radius d of near (in near's
// chart's tangent coordinates) into out.
func (s *AtlasStateSampler) SampleUniformNear(out, near *ManifoldState, d float64) error {
	return s.as.sampleUniformNear(out, near, d)
}

// AllocDefaultStateSampler returns the sampler the framework should
// use for this atlas: one that draws by chart measure and projects
// onto the manifold, rather than sampling an ambient box.
func (as *AtlasStateSpace) AllocDefaultStateSampler() *AtlasStateSampler {
	return NewAtlasStateSampler(as)
}

// AtlasMotionValidator checks whether the manifold-respecting geodesic
// between two states is collision-free, using the atlas's
// followManifold rather than a straight-line ambient interpolation.
type AtlasMotionValidator struct {
	as      *AtlasStateSpace
	isValid func(*ManifoldState) bool
}

// NewAtlasMotionValidator builds a validator bound to as; isValid is
// the externally supplied collision/constraint predicate.
func NewAtlasMotionValidator(as *AtlasStateSpace, isValid func(*ManifoldState) bool) *AtlasMotionValidator {
	return &AtlasMotionValidator{as: as, isValid: isValid}
}

// CheckMotion reports whether the geodesic from s1 to s2 is
// collision-free over its entire length.
func (v *AtlasMotionValidator) CheckMotion(s1, s2 *ManifoldState) bool {
	result, err := v.as.followManifold(s1, s2, false, nil, v.isValid)
	if err != nil {
		return false
	}
	return result.Reason == StopReached
}

// CheckMotionLastValid behaves like CheckMotion but also reports the
// last valid state visited and the interpolation fraction t =
// travelled/dStraight at which it occurred, clamped to [0, 1]; this
// holds for collision, chart-invalid and projection-failed stops. When
// traversal ends because the λ distance budget was exceeded, t is
// reported as 1 and the last visited state as valid, since that
// failure was not a collision.
func (v *AtlasMotionValidator) CheckMotionLastValid(s1, s2 *ManifoldState) (lastValid *ManifoldState, t float64, ok bool) {
	result, err := v.as.followManifold(s1, s2, false, nil, v.isValid)
	if err != nil || result.LastValid == nil {
		return nil, 0, false
	}

	last := &ManifoldState{ambient: result.LastValid, chart: result.LastChart, owner: v.as}

	switch result.Reason {
	case StopReached:
		return last, 1, true
	case StopCollision, StopProjectionFailed, StopChartInvalid:
		frac := 0.0
		if result.DStraight > 0 {
			frac = result.Travelled / result.DStraight
		}
		if frac > 1 {
			frac = 1
		}
		if frac < 0 {
			frac = 0
		}
		return last, frac, false
	case StopTooFar:
		return last, 1, false
	default:
		return last, 0, false
	}
}
