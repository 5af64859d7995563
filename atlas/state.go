package atlas

import "gonum.org/v1/gonum/mat"

// ManifoldState is a point on the manifold together with the chart
// that currently owns it. States are allocated and freed by the
// AtlasStateSpace that produced them; a state is inert after freeState
// and must never be read or copied from again.
type ManifoldState struct {
	ambient *mat.VecDense
	chart   *AtlasChart
	owner   *AtlasStateSpace
	freed   bool
}

// Ambient returns the underlying ambient-space point. Panics with a
// ProgrammingError if called on a freed state.
func (s *ManifoldState) Ambient() *mat.VecDense {
	if s.freed {
		panic(errDoubleFree)
	}
	return s.ambient
}

// Chart returns the chart that currently owns this state.
func (s *ManifoldState) Chart() *AtlasChart {
	if s.freed {
		panic(errDoubleFree)
	}
	return s.chart
}
