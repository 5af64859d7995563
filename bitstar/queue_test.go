package bitstar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVertexQueuePopsInCostOrder(t *testing.T) {
	helper := EuclideanCostHelper{}
	q := NewVertexQueue(helper)

	v1 := NewDisconnectedVertex(1, nil, helper)
	v2 := NewDisconnectedVertex(2, nil, helper)
	v3 := NewDisconnectedVertex(3, nil, helper)

	q.Push(v2, 5.0)
	q.Push(v1, 1.0)
	q.Push(v3, 3.0)

	require.Equal(t, 3, q.Len())
	require.Equal(t, v1, q.Pop())
	require.Equal(t, v3, q.Pop())
	require.Equal(t, v2, q.Pop())
	require.Equal(t, 0, q.Len())
}

func TestVertexQueuePeekDoesNotRemove(t *testing.T) {
	helper := EuclideanCostHelper{}
	q := NewVertexQueue(helper)
	v := NewDisconnectedVertex(1, nil, helper)
	q.Push(v, 2.0)

	top, ok := q.Peek()
	require.True(t, ok)
	require.Equal(t, v, top)
	require.Equal(t, 1, q.Len())
}

func TestVertexQueuePeekEmpty(t *testing.T) {
	helper := EuclideanCostHelper{}
	q := NewVertexQueue(helper)
	_, ok := q.Peek()
	require.False(t, ok)
}
