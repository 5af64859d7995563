package planning

// ValidityChecker is the richer interface a core consumer implements;
// its three optional capabilities form the small algebraic variant the
// design calls for: static-only, static plus time-indexed dynamic
// obstacles, and multi-robot pairwise checks. A single-robot static
// planner only ever calls IsValid; IsValidAtTime and AreStatesValid are
// meaningful only once a caller opts into the dynamic or multi-robot
// variants.
type ValidityChecker interface {
	// IsValid reports whether state is free of static obstacles.
	IsValid(state Waypoint) bool
	// IsValidAtTime additionally consults the time-indexed
	// dynamic-obstacle map at time t.
	IsValidAtTime(state Waypoint, t float64) bool
	// AreStatesValid reports whether state, occupied at time t, is
	// clear of every higher-priority sibling path.
	AreStatesValid(state Waypoint, t float64) bool
}

// StaticValidityChecker wraps a plain isValid predicate with no time
// or multi-robot awareness; IsValidAtTime and AreStatesValid degrade to
// IsValid.
type StaticValidityChecker struct {
	IsValidFunc func(state Waypoint) bool
}

var _ ValidityChecker = (*StaticValidityChecker)(nil)

// IsValid reports whether state is free of static obstacles.
func (c *StaticValidityChecker) IsValid(state Waypoint) bool { return c.IsValidFunc(state) }

// IsValidAtTime ignores t and reports static validity.
func (c *StaticValidityChecker) IsValidAtTime(state Waypoint, _ float64) bool {
	return c.IsValidFunc(state)
}

// AreStatesValid always reports true: a static checker has no
// siblings to compare against.
func (c *StaticValidityChecker) AreStatesValid(Waypoint, float64) bool { return true }

// DynamicObstacleSet reports whether state is blocked by the obstacle
// configuration active at a single time bucket.
type DynamicObstacleSet func(state Waypoint) bool

// DynamicValidityChecker layers a time-indexed dynamic-obstacle map
// over a static isValid predicate. Obstacle sets are keyed by
// round(t * ScalingFactor), per the time-bucketing convention every
// validity-checker variant in this package shares.
type DynamicValidityChecker struct {
	IsValidFunc     func(state Waypoint) bool
	ScalingFactor   float64
	ObstaclesByTime map[int]DynamicObstacleSet
}

var _ ValidityChecker = (*DynamicValidityChecker)(nil)

// IsValid ignores the dynamic-obstacle layer and reports only static
// validity.
func (c *DynamicValidityChecker) IsValid(state Waypoint) bool { return c.IsValidFunc(state) }

// IsValidAtTime reports false if state is statically invalid, or if
// the obstacle set active at time t rejects it.
func (c *DynamicValidityChecker) IsValidAtTime(state Waypoint, t float64) bool {
	if !c.IsValidFunc(state) {
		return false
	}
	key := timeKey(t, c.ScalingFactor)
	if obstacles, ok := c.ObstaclesByTime[key]; ok {
		return !obstacles(state)
	}
	return true
}

// AreStatesValid has no sibling paths to compare against.
func (c *DynamicValidityChecker) AreStatesValid(Waypoint, float64) bool { return true }

// PrioritizedValidityChecker is the multi-robot variant: it consumes
// the already-planned paths of higher-priority siblings and treats
// each sibling's occupancy at time t as a moving obstacle, in addition
// to the wrapped static/dynamic checker. collisionRadius is the
// ambient-distance threshold below which two states are considered to
// collide; the core has no collision-geometry evaluator of its own,
// per the surrounding framework's scope.
type PrioritizedValidityChecker struct {
	Inner           ValidityChecker
	Siblings        []SiblingPath
	CollisionRadius float64
}

var _ ValidityChecker = (*PrioritizedValidityChecker)(nil)

// IsValid delegates to Inner.
func (c *PrioritizedValidityChecker) IsValid(state Waypoint) bool {
	return c.Inner.IsValid(state)
}

// IsValidAtTime delegates to Inner.
func (c *PrioritizedValidityChecker) IsValidAtTime(state Waypoint, t float64) bool {
	return c.Inner.IsValidAtTime(state, t)
}

// AreStatesValid reports false as soon as state is within
// CollisionRadius of any sibling's occupancy at time t.
func (c *PrioritizedValidityChecker) AreStatesValid(state Waypoint, t float64) bool {
	for _, sibling := range c.Siblings {
		other, ok := sibling.AtTime(t)
		if !ok {
			continue
		}
		if ambientDistance(state, other) < c.CollisionRadius {
			return false
		}
	}
	return true
}

// Check runs the full variant-aware validity test: static/dynamic
// validity at t, then the multi-robot sibling check.
func Check(c ValidityChecker, state Waypoint, t float64) bool {
	return c.IsValidAtTime(state, t) && c.AreStatesValid(state, t)
}
