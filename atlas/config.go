package atlas

import (
	"math"

	"github.com/pkg/errors"
)

// Options holds the tunable atlas construction and sampling
// parameters. All fields have the reference defaults; callers
// typically start from DefaultOptions() and override only what they
// need.
type Options struct {
	// Delta is the geodesic step and collision-checking granularity (δ).
	Delta float64
	// Epsilon is the max chart-to-manifold distance inside the
	// validity region (ε). Stored for completeness; ρ is the knob the
	// atlas actually tunes at runtime to keep within it.
	Epsilon float64
	// Rho is the max chart radius (ρ); may shrink at runtime.
	Rho float64
	// Alpha is the max chart/manifold angle (α), radians.
	Alpha float64
	// Exploration blends "sample inside ρ" (0) vs "sample on the
	// frontier at ρs > ρ" (1), encouraging new-chart creation.
	Exploration float64
	// Lambda is the traversal distance budget multiplier (λ).
	Lambda float64
	// ProjectionTolerance is the Newton halt criterion on ||F(x)||.
	ProjectionTolerance float64
	// ProjectionMaxIterations caps the Newton iteration count.
	ProjectionMaxIterations int
	// MonteCarloThoroughness scales samples as t^k for the chart
	// measure estimate.
	MonteCarloThoroughness float64
	// RankTolerance is the smallest singular value the Jacobian
	// pseudoinverse will treat as non-zero before declaring the
	// Jacobian rank-deficient.
	RankTolerance float64
	// SampleRetryBudget bounds the rejection loop in sampleUniform.
	SampleRetryBudget int
	// NeighborLinkRadiusFactor is the multiplier on ρ used by newChart
	// to decide which existing charts receive a bisector half-space.
	// 2ρ is the reference default.
	NeighborLinkRadiusFactor float64
}

// DefaultOptions returns the reference parameter defaults.
func DefaultOptions() Options {
	return Options{
		Delta:                    0.02,
		Epsilon:                  0.1,
		Rho:                      0.1,
		Alpha:                    math.Pi / 16,
		Exploration:              0.5,
		Lambda:                   2.0,
		ProjectionTolerance:      1e-8,
		ProjectionMaxIterations:  200,
		MonteCarloThoroughness:   3.5,
		RankTolerance:            1e-8,
		SampleRetryBudget:        100,
		NeighborLinkRadiusFactor: 2.0,
	}
}

// Validate rejects any parameter outside its documented range.
func (o Options) Validate() error {
	switch {
	case o.Delta <= 0:
		return errors.New("atlas: delta must be > 0")
	case o.Epsilon <= 0:
		return errors.New("atlas: epsilon must be > 0")
	case o.Rho <= 0:
		return errors.New("atlas: rho must be > 0")
	case o.Alpha <= 0 || o.Alpha >= math.Pi/2:
		return errors.New("atlas: alpha must be in (0, pi/2)")
	case o.Exploration < 0 || o.Exploration >= 1:
		return errors.New("atlas: exploration must be in [0, 1)")
	case o.Lambda <= 1:
		return errors.New("atlas: lambda must be > 1")
	case o.ProjectionTolerance <= 0:
		return errors.New("atlas: projection tolerance must be > 0")
	case o.ProjectionMaxIterations < 1:
		return errors.New("atlas: projection max iterations must be >= 1")
	case o.MonteCarloThoroughness <= 0:
		return errors.New("atlas: monte carlo thoroughness must be > 0")
	case o.NeighborLinkRadiusFactor <= 1:
		return errors.New("atlas: neighbor link radius factor must be > 1")
	default:
		return nil
	}
}
