package planning

import (
	"context"
	"math/rand"
	"time"

	"github.com/atlasmp/core/atlas"
	"github.com/atlasmp/core/bitstar"
	"github.com/atlasmp/core/logging"
	"github.com/benbjohnson/clock"
)

// Clock is the time source Solve measures its budget against.
// Production callers leave SolveOptions.Clock nil to get a real
// clock.Clock; tests inject a clock.Mock for deterministic deadline
// behavior without sleeping.
type Clock = clock.Clock

// Status is the outcome of a Solve call.
type Status int

const (
	// StatusFailure means no solution was found and the search space
	// was exhausted (or an unrecoverable error occurred).
	StatusFailure Status = iota
	// StatusExact means a solution was found and the batch loop ran to
	// completion (no further samples were scheduled) without being cut
	// short by the time budget.
	StatusExact
	// StatusApproximate means a solution was found but the time budget
	// expired before the batch loop could run to completion, so a
	// better solution might exist.
	StatusApproximate
	// StatusTimeout means no solution was found before the time budget
	// expired.
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusFailure:
		return "FAILURE"
	case StatusExact:
		return "EXACT"
	case StatusApproximate:
		return "APPROXIMATE"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// SolveOptions tunes the batch-informed search loop.
type SolveOptions struct {
	// BatchSize is the number of new samples drawn per batch.
	BatchSize int
	// MaxBatches bounds total batches; 0 means unbounded (budget is the
	// only stop condition).
	MaxBatches int
	// GoalThreshold is the ambient distance within which a freshly
	// connected vertex immediately attempts the goal edge, instead of
	// waiting for a nearest-neighbor draw to surface the goal. 0
	// disables the shortcut.
	GoalThreshold float64
	// SmoothIterations caps the ShortcutSmooth pass run over the
	// extracted path before it is returned. 0 skips smoothing.
	SmoothIterations int
	// Rand drives ShortcutSmooth's shortcut index selection. Nil means
	// a fixed-seed source, keeping Solve deterministic by default.
	Rand *rand.Rand
	// CostFromDistance turns a raw ambient-space edge distance into a
	// bitstar.Cost compatible with the supplied CostHelper. The
	// reference CostHelper (bitstar.EuclideanCostHelper) is float64 and
	// additive, so CostFromDistance is usually just
	// func(d float64) bitstar.Cost { return d }.
	CostFromDistance func(d float64) bitstar.Cost
	// Clock is the time source the budget is measured against. Nil
	// means clock.New() (wall-clock time).
	Clock Clock
}

// Solve runs a batch-informed search from start to goal over as, using
// validator to check candidate edges, until either the goal is
// connected and the batch loop exhausts itself (EXACT), the time
// budget expires with a solution already found (APPROXIMATE), the
// budget expires with no solution (TIMEOUT), or the search space is
// exhausted with no solution (FAILURE).
func Solve(
	ctx context.Context,
	budget time.Duration,
	as *atlas.AtlasStateSpace,
	validator *atlas.AtlasMotionValidator,
	start, goal Waypoint,
	costHelper bitstar.CostHelper,
	idGen bitstar.IdGenerator,
	opts SolveOptions,
	logger logging.Logger,
) (Status, []Waypoint, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	if opts.CostFromDistance == nil {
		opts.CostFromDistance = func(d float64) bitstar.Cost { return d }
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(0))
	}
	deadline := clk.Now().Add(budget)

	root := bitstar.NewRootVertex(idGen.Next(), start, costHelper)
	goalVertex := bitstar.NewDisconnectedVertex(idGen.Next(), goal, costHelper)

	vertices := []*bitstar.BITstarVertex{root}
	unconnected := []*bitstar.BITstarVertex{goalVertex}

	dist := func(a, b *bitstar.BITstarVertex) float64 {
		return ambientDistance(a.State(), b.State())
	}

	// queue drives best-first expansion order: the cheapest-to-reach
	// tree vertex is always expanded next, the same open-set discipline
	// as a Dijkstra/A* frontier.
	queue := bitstar.NewVertexQueue(costHelper)
	queue.Push(root, root.Cost())

	logger.Debugf("solve: starting batch search, budget=%s batchSize=%d", budget, opts.BatchSize)

	batch := 0
	for {
		if clk.Now().After(deadline) || ctx.Err() != nil {
			return finish(ctx, goalVertex, false, validator, opts, logger)
		}

		if queue.Len() == 0 {
			if opts.MaxBatches > 0 && batch >= opts.MaxBatches {
				return finish(ctx, goalVertex, true, validator, opts, logger)
			}
			drew := drawBatch(as, opts.BatchSize, idGen, costHelper)
			if len(drew) == 0 && len(unconnected) == 0 {
				// Nothing left to try: the search space is exhausted.
				return finish(ctx, goalVertex, true, validator, opts, logger)
			}
			batch++
			unconnected = append(unconnected, drew...)

			// A fresh sample batch means every live tree vertex may have
			// new, cheaper edges available to it, so it goes back into
			// the frontier for re-expansion against both the unconnected
			// pool and the rest of the tree.
			for _, v := range vertices {
				if v.IsPruned() {
					continue
				}
				if err := v.ResetExpansion(); err != nil {
					continue
				}
				queue.Push(v, v.Cost())
			}
			logger.Debugf("solve: batch %d drew %d samples, tree size %d, unconnected %d", batch, len(drew), len(vertices), len(unconnected))
			continue
		}

		if clk.Now().After(deadline) || ctx.Err() != nil {
			return finish(ctx, goalVertex, false, validator, opts, logger)
		}

		v := queue.Pop()
		if v.IsPruned() {
			continue
		}

		if !v.HasBeenExpandedToSamples() {
			if connected, idx := tryConnectNearest(v, unconnected, dist, costHelper, validator, opts); connected != nil {
				unconnected = removeIndices(unconnected, []int{idx})
				vertices = append(vertices, connected)
				connected.ClearNew()
				queue.Push(connected, connected.Cost())
				logger.Debugf("solve: connected vertex %d onto %d at cost %v", connected.ID(), v.ID(), connected.Cost())

				// A vertex landing close to the goal tries the goal edge
				// right away rather than waiting for the nearest-neighbor
				// draw to surface it.
				if connected != goalVertex && opts.GoalThreshold > 0 && !goalVertex.HasParent() &&
					ambientDistance(connected.State(), goalVertex.State()) <= opts.GoalThreshold {
					if tryGoalEdge(connected, goalVertex, dist, costHelper, validator, opts) {
						unconnected = removeVertex(unconnected, goalVertex)
						vertices = append(vertices, goalVertex)
						queue.Push(goalVertex, goalVertex.Cost())
						logger.Debugf("solve: goal connected onto %d at cost %v", connected.ID(), goalVertex.Cost())
					}
				}
			}
			v.SetExpandedToSamples()
		}

		if !v.HasBeenExpandedToVertices() {
			if rewired := tryRewireNearest(v, vertices, dist, costHelper, validator, opts); rewired != nil {
				queue.Push(rewired, rewired.Cost())
				logger.Debugf("solve: rewired vertex %d onto %d at cost %v", rewired.ID(), v.ID(), rewired.Cost())
			}
			v.SetExpandedToVertices()
		}

		v.ClearNew()
	}
}

// tryConnectNearest attempts to connect v to its nearest still-
// unconnected sample. Returns the connected vertex and its index into
// unconnected on success, or (nil, -1) if no candidate exists, the
// candidate edge is already no better than the sample's current
// (infinite) cost, or the motion is invalid.
func tryConnectNearest(
	v *bitstar.BITstarVertex,
	unconnected []*bitstar.BITstarVertex,
	dist bitstar.DistanceFunc,
	costHelper bitstar.CostHelper,
	validator *atlas.AtlasMotionValidator,
	opts SolveOptions,
) (*bitstar.BITstarVertex, int) {
	u := bitstar.NearestNeighbor(v, unconnected, dist)
	if u == nil {
		return nil, -1
	}
	edgeCost := opts.CostFromDistance(dist(v, u))
	candidate := costHelper.CombineCosts(v.Cost(), edgeCost)
	if !costHelper.IsCostBetterThan(candidate, u.Cost()) {
		return nil, -1
	}
	if !validator.CheckMotion(v.State(), u.State()) {
		return nil, -1
	}
	if err := u.AddParent(v, edgeCost, true); err != nil {
		return nil, -1
	}
	if err := v.AddChild(u, false); err != nil {
		return nil, -1
	}
	for i, cand := range unconnected {
		if cand == u {
			return u, i
		}
	}
	return u, -1
}

// tryRewireNearest offers v as a cheaper parent to v's nearest other
// non-root tree vertex that is not already v's child or v's ancestor,
// BIT*'s rewiring step. Returns the rewired vertex, or nil if that
// edge is not an improvement or the motion is invalid.
func tryRewireNearest(
	v *bitstar.BITstarVertex,
	vertices []*bitstar.BITstarVertex,
	dist bitstar.DistanceFunc,
	costHelper bitstar.CostHelper,
	validator *atlas.AtlasMotionValidator,
	opts SolveOptions,
) *bitstar.BITstarVertex {
	candidates := make([]*bitstar.BITstarVertex, 0, len(vertices))
	for _, w := range vertices {
		if w == v || w.IsRoot() || w.IsPruned() || w.Parent() == v {
			continue
		}
		if isAncestor(w, v) {
			continue // rewiring would introduce a cycle
		}
		candidates = append(candidates, w)
	}
	if len(candidates) == 0 {
		return nil
	}

	w := bitstar.NearestNeighbor(v, candidates, dist)
	edgeCost := opts.CostFromDistance(dist(v, w))
	candidate := costHelper.CombineCosts(v.Cost(), edgeCost)
	if !costHelper.IsCostBetterThan(candidate, w.Cost()) {
		return nil
	}
	if !validator.CheckMotion(v.State(), w.State()) {
		return nil
	}

	oldParent := w.Parent()
	if err := oldParent.RemoveChild(w, false); err != nil {
		return nil
	}
	if err := w.RemoveParent(false); err != nil {
		return nil
	}
	if err := w.AddParent(v, edgeCost, true); err != nil {
		return nil
	}
	if err := v.AddChild(w, false); err != nil {
		return nil
	}
	return w
}

// isAncestor reports whether candidate appears in v's parent chain,
// i.e. whether making candidate a child of v (directly or indirectly)
// would close a cycle.
func isAncestor(candidate, v *bitstar.BITstarVertex) bool {
	for p := v; p != nil; p = p.Parent() {
		if p == candidate {
			return true
		}
	}
	return false
}

func drawBatch(as *atlas.AtlasStateSpace, n int, idGen bitstar.IdGenerator, helper bitstar.CostHelper) []*bitstar.BITstarVertex {
	sampler := atlas.NewAtlasStateSampler(as)
	out := make([]*bitstar.BITstarVertex, 0, n)
	for i := 0; i < n; i++ {
		s := as.AllocState()
		if err := sampler.SampleUniform(s); err != nil {
			as.FreeState(s)
			continue
		}
		out = append(out, bitstar.NewDisconnectedVertex(idGen.Next(), s, helper))
	}
	return out
}

func removeIndices(items []*bitstar.BITstarVertex, indices []int) []*bitstar.BITstarVertex {
	if len(indices) == 0 {
		return items
	}
	remove := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		remove[idx] = struct{}{}
	}
	out := make([]*bitstar.BITstarVertex, 0, len(items)-len(indices))
	for i, item := range items {
		if _, skip := remove[i]; skip {
			continue
		}
		out = append(out, item)
	}
	return out
}

// tryGoalEdge attempts the direct edge from v to the goal. Unlike
// tryConnectNearest it has a fixed target; the same cost-improvement
// and motion-validity gates apply.
func tryGoalEdge(
	v, goalVertex *bitstar.BITstarVertex,
	dist bitstar.DistanceFunc,
	costHelper bitstar.CostHelper,
	validator *atlas.AtlasMotionValidator,
	opts SolveOptions,
) bool {
	edgeCost := opts.CostFromDistance(dist(v, goalVertex))
	candidate := costHelper.CombineCosts(v.Cost(), edgeCost)
	if !costHelper.IsCostBetterThan(candidate, goalVertex.Cost()) {
		return false
	}
	if !validator.CheckMotion(v.State(), goalVertex.State()) {
		return false
	}
	if err := goalVertex.AddParent(v, edgeCost, true); err != nil {
		return false
	}
	if err := v.AddChild(goalVertex, false); err != nil {
		return false
	}
	return true
}

func removeVertex(items []*bitstar.BITstarVertex, target *bitstar.BITstarVertex) []*bitstar.BITstarVertex {
	for i, item := range items {
		if item == target {
			return removeIndices(items, []int{i})
		}
	}
	return items
}

func finish(
	ctx context.Context,
	goalVertex *bitstar.BITstarVertex,
	exhausted bool,
	validator *atlas.AtlasMotionValidator,
	opts SolveOptions,
	logger logging.Logger,
) (Status, []Waypoint, error) {
	if !goalVertex.HasParent() {
		if exhausted {
			logger.Infof("solve: search space exhausted with no solution")
			return StatusFailure, nil, nil
		}
		logger.Infof("solve: time budget expired with no solution")
		return StatusTimeout, nil, nil
	}

	path := extractPath(goalVertex)
	if opts.SmoothIterations > 0 {
		smoothed := ShortcutSmooth(ctx, path, validator, opts.Rand, opts.SmoothIterations)
		logger.Debugf("solve: smoothing reduced path from %d to %d waypoints", len(path), len(smoothed))
		path = smoothed
	}
	if exhausted {
		logger.Infof("solve: exact solution found, %d waypoints", len(path))
		return StatusExact, path, nil
	}
	logger.Infof("solve: approximate solution found, %d waypoints", len(path))
	return StatusApproximate, path, nil
}

func extractPath(goalVertex *bitstar.BITstarVertex) []Waypoint {
	var reversed []Waypoint
	for v := goalVertex; v != nil; v = v.Parent() {
		reversed = append(reversed, v.State())
	}
	path := make([]Waypoint, len(reversed))
	for i, w := range reversed {
		path[len(reversed)-1-i] = w
	}
	return path
}
