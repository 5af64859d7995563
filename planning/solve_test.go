package planning

import (
	"context"
	"testing"
	"time"

	"github.com/atlasmp/core/atlas"
	"github.com/atlasmp/core/bitstar"
	"github.com/atlasmp/core/logging"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func TestSolveFindsPathOnSphere(t *testing.T) {
	as := testAtlas(t)
	start := testState(t, as, []float64{0, 0, 1})
	goal := testState(t, as, []float64{0, 1, 0})

	alwaysValid := func(*atlas.ManifoldState) bool { return true }
	validator := atlas.NewAtlasMotionValidator(as, alwaysValid)

	status, path, err := Solve(
		context.Background(),
		2*time.Second,
		as,
		validator,
		start,
		goal,
		bitstar.EuclideanCostHelper{},
		bitstar.NewAtomicIdGenerator(),
		SolveOptions{
			BatchSize:        50,
			MaxBatches:       20,
			GoalThreshold:    0.05,
			SmoothIterations: 100,
			CostFromDistance: func(d float64) bitstar.Cost { return d },
		},
		logging.NewTestLogger(),
	)

	require.NoError(t, err)
	require.Contains(t, []Status{StatusExact, StatusApproximate}, status)
	require.NotEmpty(t, path)
	require.Equal(t, start, path[0])
}

func TestSolveReportsTimeoutWithNoBudget(t *testing.T) {
	as := testAtlas(t)
	start := testState(t, as, []float64{0, 0, 1})
	goal := testState(t, as, []float64{0, 1, 0})

	alwaysInvalid := func(*atlas.ManifoldState) bool { return false }
	validator := atlas.NewAtlasMotionValidator(as, alwaysInvalid)

	status, path, err := Solve(
		context.Background(),
		10*time.Millisecond,
		as,
		validator,
		start,
		goal,
		bitstar.EuclideanCostHelper{},
		bitstar.NewAtomicIdGenerator(),
		SolveOptions{
			BatchSize:        10,
			CostFromDistance: func(d float64) bitstar.Cost { return d },
		},
		logging.NewTestLogger(),
	)

	require.NoError(t, err)
	require.Contains(t, []Status{StatusTimeout, StatusFailure}, status)
	require.Nil(t, path)
}

func TestSolveRespectsInjectedMockClockDeadline(t *testing.T) {
	as := testAtlas(t)
	start := testState(t, as, []float64{0, 0, 1})
	goal := testState(t, as, []float64{0, 1, 0})

	alwaysInvalid := func(*atlas.ManifoldState) bool { return false }
	validator := atlas.NewAtlasMotionValidator(as, alwaysInvalid)

	mock := clock.NewMock()
	done := make(chan struct{})
	var status Status
	go func() {
		status, _, _ = Solve(
			context.Background(),
			time.Second,
			as,
			validator,
			start,
			goal,
			bitstar.EuclideanCostHelper{},
			bitstar.NewAtomicIdGenerator(),
			SolveOptions{
				BatchSize:        5,
				CostFromDistance: func(d float64) bitstar.Cost { return d },
				Clock:            mock,
			},
			logging.NewTestLogger(),
		)
		close(done)
	}()

	// Solve reads the mock clock to fix its deadline on its own
	// goroutine, so a single Add could land before that read and never
	// be exceeded. Keep advancing the clock until Solve returns.
	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
			mock.Add(2 * time.Second)
		}
	}
	require.Contains(t, []Status{StatusTimeout, StatusFailure}, status)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "EXACT", StatusExact.String())
	require.Equal(t, "APPROXIMATE", StatusApproximate.String())
	require.Equal(t, "TIMEOUT", StatusTimeout.String())
	require.Equal(t, "FAILURE", StatusFailure.String())
}
