package bitstar

import "container/heap"

// queueItem is a single entry in an expansion queue: a vertex ranked
// by a cost key supplied by the caller (a vertex's own cost, or an
// edge's candidate cost, depending on which queue it backs).
type queueItem struct {
	vertex *BITstarVertex
	key    Cost
	index  int
}

// vertexQueueHeap is a container/heap.Interface over queueItems,
// ordered by helper.IsCostBetterThan, the same pattern used by a
// standard Dijkstra/A* open set: the best-key element always pops
// first.
type vertexQueueHeap struct {
	items  []*queueItem
	helper CostHelper
}

func (h vertexQueueHeap) Len() int { return len(h.items) }

func (h vertexQueueHeap) Less(i, j int) bool {
	return h.helper.IsCostBetterThan(h.items[i].key, h.items[j].key)
}

func (h vertexQueueHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *vertexQueueHeap) Push(x interface{}) {
	item := x.(*queueItem)
	item.index = len(h.items)
	h.items = append(h.items, item)
}

func (h *vertexQueueHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	return item
}

// VertexQueue is a best-first priority queue over vertices, ordered by
// a caller-supplied key via CostHelper. planning.Solve uses one as its
// vertex expansion queue, keyed by each vertex's cost-to-come; there is
// no separate edge queue.
type VertexQueue struct {
	h *vertexQueueHeap
}

// NewVertexQueue constructs an empty queue ordered by helper.
func NewVertexQueue(helper CostHelper) *VertexQueue {
	h := &vertexQueueHeap{helper: helper}
	heap.Init(h)
	return &VertexQueue{h: h}
}

// Len returns the number of queued vertices.
func (q *VertexQueue) Len() int { return q.h.Len() }

// Push inserts vertex with the given ranking key.
func (q *VertexQueue) Push(vertex *BITstarVertex, key Cost) {
	heap.Push(q.h, &queueItem{vertex: vertex, key: key})
}

// Pop removes and returns the vertex with the best (per CostHelper)
// key. Panics if the queue is empty; callers must check Len() first.
func (q *VertexQueue) Pop() *BITstarVertex {
	item := heap.Pop(q.h).(*queueItem)
	return item.vertex
}

// Peek returns the best vertex without removing it, and whether the
// queue was non-empty.
func (q *VertexQueue) Peek() (*BITstarVertex, bool) {
	if q.h.Len() == 0 {
		return nil, false
	}
	return q.h.items[0].vertex, true
}
