package atlas

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpolateEndpoints(t *testing.T) {
	as := newTestAtlas(t)
	start := seedState(t, as, []float64{0, 0, 1})
	goal := seedState(t, as, []float64{0, 1, 0})

	out := as.allocState()
	require.NoError(t, as.Interpolate(start, goal, 0, out))
	require.InDelta(t, 0, ambientDistance(out.ambient, start.ambient), 1e-9)

	require.NoError(t, as.Interpolate(start, goal, 1, out))
	require.InDelta(t, 0, ambientDistance(out.ambient, goal.ambient), as.opts.Delta+1e-9)
}

func TestInterpolateMidpointStaysOnManifold(t *testing.T) {
	as := newTestAtlas(t)
	start := seedState(t, as, []float64{0, 0, 1})
	goal := seedState(t, as, []float64{0, 1, 0})

	out := as.allocState()
	require.NoError(t, as.Interpolate(start, goal, 0.5, out))
	require.InDelta(t, 0, residualNorm(as.mf, out.ambient), 1e-6)

	// The midpoint of the great-circle arc between the poles sits at
	// 45 degrees; allow a step of slop either way.
	require.InDelta(t, out.ambient.AtVec(1), out.ambient.AtVec(2), 3*as.opts.Delta)
}

func TestInterpolateReusesCachedTrace(t *testing.T) {
	as := newTestAtlas(t)
	start := seedState(t, as, []float64{0, 0, 1})
	goal := seedState(t, as, []float64{0, 1, 0})

	out := as.allocState()
	require.NoError(t, as.Interpolate(start, goal, 0.25, out))
	first := as.trace
	require.NotNil(t, first)

	require.NoError(t, as.Interpolate(start, goal, 0.75, out))
	require.Same(t, first, as.trace)

	// Swapping the endpoints must recompute: traversal is asymmetric.
	require.NoError(t, as.Interpolate(goal, start, 0.5, out))
	require.NotSame(t, first, as.trace)
}

func TestHasSymmetricInterpolate(t *testing.T) {
	as := newTestAtlas(t)
	require.False(t, as.HasSymmetricInterpolate())
}

func TestSetSpaceInformationRejectsForeignAtlas(t *testing.T) {
	asA := newTestAtlas(t)
	asB := newTestAtlas(t)

	si := NewSpaceInformation(asA, nil)
	require.NoError(t, asA.SetSpaceInformation(si))
	require.Same(t, si, asA.SpaceInformation())

	err := asB.SetSpaceInformation(si)
	require.Error(t, err)
	require.True(t, IsProgrammingError(err))

	require.Error(t, asA.SetSpaceInformation(nil))
}

func TestAllocDefaultStateSampler(t *testing.T) {
	as := newTestAtlas(t)
	seedState(t, as, []float64{0, 0, 1})

	sampler := as.AllocDefaultStateSampler()
	out := as.AllocState()
	require.NoError(t, sampler.SampleUniform(out))
	require.InDelta(t, 0, residualNorm(as.mf, out.ambient), as.opts.ProjectionTolerance*10)
}

func TestSampleChartPrefersLargerMeasure(t *testing.T) {
	as := newTestAtlas(t)
	seedState(t, as, []float64{0, 0, 1})

	// Grow the atlas a little so there is more than one chart to draw.
	for i := 0; i < 50; i++ {
		out := as.allocState()
		_ = as.sampleUniform(out)
	}
	if as.ChartCount() < 2 {
		t.Skip("sampling did not grow a second chart with this seed")
	}

	counts := make(map[*AtlasChart]int)
	for i := 0; i < 2000; i++ {
		counts[as.SampleChart()]++
	}

	// Draw frequency should track measure ordering for the extremes.
	var largest, smallest *AtlasChart
	for _, c := range as.charts {
		if c.measureOrZero() <= 0 {
			continue
		}
		if largest == nil || c.measureOrZero() > largest.measureOrZero() {
			largest = c
		}
		if smallest == nil || c.measureOrZero() < smallest.measureOrZero() {
			smallest = c
		}
	}
	require.NotNil(t, largest)
	if largest != smallest {
		require.GreaterOrEqual(t, counts[largest], counts[smallest])
	}
}
