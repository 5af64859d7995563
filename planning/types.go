// Package planning provides the planner-facing shims that consume the
// atlas state space and the BIT* graph core: validity-checker
// variants, path smoothing, and the solve-status entry point.
package planning

import (
	"math"

	"github.com/atlasmp/core/atlas"
)

// Waypoint is a single state along a planned path.
type Waypoint = *atlas.ManifoldState

// SiblingPath is an already-planned path belonging to a
// higher-priority robot in a prioritized multi-robot plan. ScalingFactor
// converts a continuous time t into the waypoint index via
// round(t * ScalingFactor), matching the dynamic-obstacle time-bucketing
// convention used by PrioritizedValidityChecker.
type SiblingPath struct {
	Waypoints     []Waypoint
	ScalingFactor float64
}

// AtTime returns the sibling's state at time t, or false if t falls
// outside the path's recorded span.
func (p SiblingPath) AtTime(t float64) (Waypoint, bool) {
	idx := timeKey(t, p.ScalingFactor)
	if idx < 0 || idx >= len(p.Waypoints) {
		return nil, false
	}
	return p.Waypoints[idx], true
}

// timeKey buckets a continuous time into a discrete dynamic-obstacle
// map key.
func timeKey(t, scalingFactor float64) int {
	return int(math.Round(t * scalingFactor))
}

func ambientDistance(a, b Waypoint) float64 {
	av, bv := a.Ambient(), b.Ambient()
	sumSq := 0.0
	for i := 0; i < av.Len(); i++ {
		d := av.AtVec(i) - bv.AtVec(i)
		sumSq += d * d
	}
	return math.Sqrt(sumSq)
}
