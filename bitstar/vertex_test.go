package bitstar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootVertexIdentityCost(t *testing.T) {
	helper := EuclideanCostHelper{}
	root := NewRootVertex(1, nil, helper)

	require.True(t, root.IsRoot())
	require.False(t, root.HasParent())
	require.Equal(t, 0.0, root.Cost())
	require.Equal(t, 0, root.Depth())
}

func TestAddParentSetsCostAndDepth(t *testing.T) {
	helper := EuclideanCostHelper{}
	root := NewRootVertex(1, nil, helper)
	a := NewDisconnectedVertex(2, nil, helper)

	require.NoError(t, a.AddParent(root, 3.0, true))
	require.NoError(t, root.AddChild(a, false))

	require.Equal(t, 3.0, a.Cost())
	require.Equal(t, 1, a.Depth())
}

func TestCascadeThroughGrandchild(t *testing.T) {
	// root -> a (edge 3) -> b (edge 4), then reparent a onto a fresh
	// root r' with edge 1: both a's and b's costs must follow.
	helper := EuclideanCostHelper{}
	root := NewRootVertex(1, nil, helper)
	a := NewDisconnectedVertex(2, nil, helper)
	b := NewDisconnectedVertex(3, nil, helper)

	require.NoError(t, a.AddParent(root, 3.0, true))
	require.NoError(t, root.AddChild(a, false))
	require.NoError(t, b.AddParent(a, 4.0, true))
	require.NoError(t, a.AddChild(b, false))

	require.Equal(t, 3.0, a.Cost())
	require.Equal(t, 7.0, b.Cost())
	require.Equal(t, 2, b.Depth())

	rPrime := NewRootVertex(4, nil, helper)
	require.NoError(t, root.RemoveChild(a, false))
	require.NoError(t, a.RemoveParent(false))
	require.NoError(t, a.AddParent(rPrime, 1.0, true))
	require.NoError(t, rPrime.AddChild(a, false))

	require.Equal(t, 1.0, a.Cost())
	require.Equal(t, 5.0, b.Cost())
}

func TestRemoveParentMakesCostInfiniteAndCascades(t *testing.T) {
	helper := EuclideanCostHelper{}
	root := NewRootVertex(1, nil, helper)
	a := NewDisconnectedVertex(2, nil, helper)
	b := NewDisconnectedVertex(3, nil, helper)

	require.NoError(t, a.AddParent(root, 3.0, true))
	require.NoError(t, root.AddChild(a, false))
	require.NoError(t, b.AddParent(a, 4.0, true))
	require.NoError(t, a.AddChild(b, false))

	require.NoError(t, a.RemoveParent(true))
	require.True(t, a.Cost().(float64) > 1e300)
	require.True(t, b.Cost().(float64) > 1e300)
}

func TestAddChildThenRemoveChildRestoresSize(t *testing.T) {
	helper := EuclideanCostHelper{}
	root := NewRootVertex(1, nil, helper)
	a := NewDisconnectedVertex(2, nil, helper)

	require.NoError(t, root.AddChild(a, false))
	require.Len(t, root.Children(), 1)

	require.NoError(t, root.RemoveChild(a, false))
	require.Len(t, root.Children(), 0)
}

func TestAddParentPreconditions(t *testing.T) {
	helper := EuclideanCostHelper{}
	root := NewRootVertex(1, nil, helper)
	other := NewRootVertex(2, nil, helper)
	a := NewDisconnectedVertex(3, nil, helper)

	require.Error(t, root.AddParent(other, 1.0, false))

	require.NoError(t, a.AddParent(root, 1.0, false))
	require.Error(t, a.AddParent(other, 1.0, false))
}

func TestRemoveChildNotFoundIsProgrammingError(t *testing.T) {
	helper := EuclideanCostHelper{}
	root := NewRootVertex(1, nil, helper)
	a := NewDisconnectedVertex(2, nil, helper)

	err := root.RemoveChild(a, false)
	require.Error(t, err)
	require.True(t, IsProgrammingError(err))
}

func TestPrunedVertexRejectsEverythingButFlagOps(t *testing.T) {
	helper := EuclideanCostHelper{}
	root := NewRootVertex(1, nil, helper)
	a := NewDisconnectedVertex(2, nil, helper)

	a.MarkPruned()
	require.True(t, a.IsPruned())
	require.Error(t, a.AddParent(root, 1.0, false))
	require.Error(t, root.AddChild(a, false))

	a.MarkUnpruned()
	require.False(t, a.IsPruned())
	require.NoError(t, a.AddParent(root, 1.0, false))
}

func TestPrunedVertexRejectsCostAndChildrenReads(t *testing.T) {
	helper := EuclideanCostHelper{}
	root := NewRootVertex(1, nil, helper)
	a := NewDisconnectedVertex(2, nil, helper)
	require.NoError(t, a.AddParent(root, 1.0, true))

	a.MarkPruned()
	require.Panics(t, func() { a.Cost() })
	require.Panics(t, func() { a.Depth() })
	require.Panics(t, func() { a.Children() })

	a.MarkUnpruned()
	require.NotPanics(t, func() { a.Cost() })
	require.NotPanics(t, func() { a.Depth() })
	require.NotPanics(t, func() { a.Children() })
}

func TestDepthOrderingAlongAncestry(t *testing.T) {
	helper := EuclideanCostHelper{}
	root := NewRootVertex(1, nil, helper)
	a := NewDisconnectedVertex(2, nil, helper)
	b := NewDisconnectedVertex(3, nil, helper)

	require.NoError(t, a.AddParent(root, 1.0, false))
	require.NoError(t, b.AddParent(a, 1.0, false))

	require.Less(t, root.Depth(), a.Depth())
	require.Less(t, a.Depth(), b.Depth())
}
