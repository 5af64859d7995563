package bitstar

import "go.uber.org/atomic"

// VertexID is a strictly increasing, unique vertex identifier.
type VertexID uint64

// IdGenerator yields a strictly increasing stream of unique vertex
// ids. Implementations must be safe for concurrent use iff vertices
// are created from more than one goroutine.
type IdGenerator interface {
	Next() VertexID
}

// AtomicIdGenerator is the reference IdGenerator: a single
// atomically-incremented counter, safe for concurrent callers even
// though the core's own scheduling model is single-threaded.
type AtomicIdGenerator struct {
	counter atomic.Uint64
}

var _ IdGenerator = (*AtomicIdGenerator)(nil)

// NewAtomicIdGenerator returns a generator whose first Next() call
// yields id 1 (0 is reserved to mean "no id").
func NewAtomicIdGenerator() *AtomicIdGenerator {
	return &AtomicIdGenerator{}
}

// Next returns the next unique id.
func (g *AtomicIdGenerator) Next() VertexID {
	return VertexID(g.counter.Add(1))
}
