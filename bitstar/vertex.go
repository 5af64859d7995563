package bitstar

import "github.com/atlasmp/core/atlas"

// BITstarVertex is a node in the BIT* search graph: an owned manifold
// state plus the parent/child bookkeeping and lazily-but-eagerly
// propagated cost-to-come that the batch-informed expansion loop
// relies on to trust a vertex's Cost() without re-deriving it.
//
// Exactly one of {IsRoot(), HasParent(), disconnected} holds at any
// time. Children are held by plain (logically non-owning) pointers;
// the planner is responsible for the vertex's actual lifetime via its
// own strong references keyed by id.
type BITstarVertex struct {
	id     VertexID
	state  *atlas.ManifoldState
	helper CostHelper

	isRoot   bool
	parent   *BITstarVertex
	edgeCost Cost
	children []*BITstarVertex

	cost  Cost
	depth int

	isNew                     bool
	hasBeenExpandedToSamples  bool
	hasBeenExpandedToVertices bool
	isPruned                  bool
}

// NewRootVertex constructs the root of the search tree: identity
// cost, depth 0, no parent, never prunable away from that status.
func NewRootVertex(id VertexID, state *atlas.ManifoldState, helper CostHelper) *BITstarVertex {
	return &BITstarVertex{
		id:     id,
		state:  state,
		helper: helper,
		isRoot: true,
		cost:   helper.IdentityCost(),
		depth:  0,
		isNew:  true,
	}
}

// NewDisconnectedVertex constructs a vertex with no parent yet: cost
// is infinite and depth is unusable until addParent connects it.
func NewDisconnectedVertex(id VertexID, state *atlas.ManifoldState, helper CostHelper) *BITstarVertex {
	return &BITstarVertex{
		id:     id,
		state:  state,
		helper: helper,
		cost:   helper.InfiniteCost(),
		isNew:  true,
	}
}

// ID returns the vertex's immutable id.
func (v *BITstarVertex) ID() VertexID { return v.id }

// State returns the vertex's owned manifold state.
func (v *BITstarVertex) State() *atlas.ManifoldState { return v.state }

// IsRoot reports whether this vertex is the search tree's root.
func (v *BITstarVertex) IsRoot() bool { return v.isRoot }

// HasParent reports whether this vertex currently has a parent.
func (v *BITstarVertex) HasParent() bool { return v.parent != nil }

// Parent returns the current parent, or nil if root or disconnected.
func (v *BITstarVertex) Parent() *BITstarVertex { return v.parent }

// Cost returns the vertex's current cost-to-come. Panics with a
// ProgrammingError if called on a pruned vertex.
func (v *BITstarVertex) Cost() Cost {
	if v.isPruned {
		panic(errVertexPruned)
	}
	return v.cost
}

// Depth returns the vertex's current depth; unusable when the vertex
// is disconnected. Panics with a ProgrammingError if called on a
// pruned vertex.
func (v *BITstarVertex) Depth() int {
	if v.isPruned {
		panic(errVertexPruned)
	}
	return v.depth
}

// IsPruned reports whether the vertex has been marked pruned. Safe to
// call on a pruned vertex; every other method is not.
func (v *BITstarVertex) IsPruned() bool { return v.isPruned }

// MarkPruned makes the vertex inert: every public method other than
// IsPruned/MarkUnpruned becomes a programming error until
// MarkUnpruned is called.
func (v *BITstarVertex) MarkPruned() { v.isPruned = true }

// MarkUnpruned reverses MarkPruned.
func (v *BITstarVertex) MarkUnpruned() { v.isPruned = false }

// IsNew reports whether the vertex has not yet been consumed by batch
// expansion.
func (v *BITstarVertex) IsNew() bool { return v.isNew }

// ClearNew marks the vertex as having been seen by batch expansion.
func (v *BITstarVertex) ClearNew() { v.isNew = false }

// HasBeenExpandedToSamples reports whether this vertex's outgoing
// edges to the unconnected sample set have already been enumerated.
func (v *BITstarVertex) HasBeenExpandedToSamples() bool { return v.hasBeenExpandedToSamples }

// SetExpandedToSamples marks HasBeenExpandedToSamples true.
func (v *BITstarVertex) SetExpandedToSamples() { v.hasBeenExpandedToSamples = true }

// HasBeenExpandedToVertices reports whether this vertex's outgoing
// edges to other tree vertices have already been enumerated.
func (v *BITstarVertex) HasBeenExpandedToVertices() bool { return v.hasBeenExpandedToVertices }

// SetExpandedToVertices marks HasBeenExpandedToVertices true.
func (v *BITstarVertex) SetExpandedToVertices() { v.hasBeenExpandedToVertices = true }

// ResetExpansion clears both expansion flags and marks the vertex new
// again, so a fresh batch of samples can be weighed against it. Mirrors
// BIT*'s practice of folding the whole tree back into the "old" vertex
// set whenever a new sample batch arrives. Returns a ProgrammingError
// if called on a pruned vertex.
func (v *BITstarVertex) ResetExpansion() error {
	if err := v.checkLive(); err != nil {
		return err
	}
	v.hasBeenExpandedToSamples = false
	v.hasBeenExpandedToVertices = false
	v.isNew = true
	return nil
}

// Children returns a snapshot of the vertex's child back-references.
// Panics with a ProgrammingError if called on a pruned vertex.
func (v *BITstarVertex) Children() []*BITstarVertex {
	if v.isPruned {
		panic(errVertexPruned)
	}
	out := make([]*BITstarVertex, len(v.children))
	copy(out, v.children)
	return out
}

func (v *BITstarVertex) checkLive() error {
	if v.isPruned {
		return errVertexPruned
	}
	return nil
}

// AddParent connects v to newParent via an edge of cost edgeCost.
// Requires v to currently have no parent and not be root. If cascade
// is true, every live child's cost and depth is recomputed afterward
// in a depth-first traversal rooted at v.
func (v *BITstarVertex) AddParent(newParent *BITstarVertex, edgeCost Cost, cascade bool) error {
	if err := v.checkLive(); err != nil {
		return err
	}
	if v.isRoot {
		return errIsRoot
	}
	if v.parent != nil {
		return errAlreadyHasParent
	}
	v.parent = newParent
	v.edgeCost = edgeCost
	return v.updateCostAndDepth(cascade)
}

// RemoveParent disconnects v from its current parent, resetting cost
// to infinite and depth to 0. Requires v to currently have a parent
// and not be root.
func (v *BITstarVertex) RemoveParent(cascade bool) error {
	if err := v.checkLive(); err != nil {
		return err
	}
	if v.isRoot {
		return errIsRoot
	}
	if v.parent == nil {
		return errNoParent
	}
	v.parent = nil
	v.edgeCost = nil
	return v.updateCostAndDepth(cascade)
}

// AddChild appends a back-reference to child. If cascade is true, it
// also triggers child's own cost/depth recomputation (used when
// AddChild is called independently of the corresponding AddParent).
// Both v and child must be unpruned.
func (v *BITstarVertex) AddChild(child *BITstarVertex, cascade bool) error {
	if err := v.checkLive(); err != nil {
		return err
	}
	if err := child.checkLive(); err != nil {
		return err
	}
	v.children = append(v.children, child)
	if cascade {
		return child.updateCostAndDepth(true)
	}
	return nil
}

// RemoveChild removes child from v's children by id via a
// swap-and-pop. Not finding child is a programming error. If cascade
// is true, child's own cost/depth is recomputed after removal.
func (v *BITstarVertex) RemoveChild(child *BITstarVertex, cascade bool) error {
	if err := v.checkLive(); err != nil {
		return err
	}
	idx := -1
	for i, c := range v.children {
		if c.id == child.id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errChildNotFound
	}
	last := len(v.children) - 1
	v.children[idx] = v.children[last]
	v.children = v.children[:last]

	if cascade {
		return child.updateCostAndDepth(true)
	}
	return nil
}

// updateCostAndDepth is the single canonical cost propagator; every
// mutator that changes parentage routes through it. When cascade is
// true it recurses depth-first so that no caller can observe a child
// before its parent has been updated.
func (v *BITstarVertex) updateCostAndDepth(cascade bool) error {
	switch {
	case v.isRoot:
		v.cost = v.helper.IdentityCost()
		v.depth = 0
	case v.parent != nil:
		v.cost = v.helper.CombineCosts(v.parent.cost, v.edgeCost)
		v.depth = v.parent.depth + 1
	default:
		v.cost = v.helper.InfiniteCost()
		v.depth = 0
	}

	if !cascade {
		return nil
	}
	for _, child := range v.children {
		if child.parent != v {
			return errStaleChildRef
		}
		if err := child.updateCostAndDepth(true); err != nil {
			return err
		}
	}
	return nil
}
