package planning

import (
	"testing"

	"github.com/atlasmp/core/atlas"
	"github.com/atlasmp/core/logging"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testAtlas(t *testing.T) *atlas.AtlasStateSpace {
	t.Helper()
	f := func(x *mat.VecDense) *mat.VecDense {
		norm := mat.Norm(x, 2)
		out := mat.NewVecDense(1, nil)
		out.SetVec(0, norm-1)
		return out
	}
	j := func(x *mat.VecDense) *mat.Dense {
		norm := mat.Norm(x, 2)
		out := mat.NewDense(1, 3, nil)
		for i := 0; i < 3; i++ {
			out.Set(0, i, x.AtVec(i)/norm)
		}
		return out
	}
	mf, err := atlas.NewManifold(3, 1, f, j)
	require.NoError(t, err)
	as, err := atlas.NewAtlasStateSpace(mf, atlas.DefaultOptions(), 7, logging.NewTestLogger())
	require.NoError(t, err)
	return as
}

func testState(t *testing.T, as *atlas.AtlasStateSpace, ambient []float64) Waypoint {
	t.Helper()
	s, err := as.ResolveState(mat.NewVecDense(3, ambient))
	require.NoError(t, err)
	return s
}

func TestStaticValidityChecker(t *testing.T) {
	as := testAtlas(t)
	s := testState(t, as, []float64{0, 0, 1})

	checker := &StaticValidityChecker{IsValidFunc: func(Waypoint) bool { return true }}
	require.True(t, Check(checker, s, 0))

	blocked := &StaticValidityChecker{IsValidFunc: func(Waypoint) bool { return false }}
	require.False(t, Check(blocked, s, 0))
}

func TestDynamicValidityCheckerTimeBucket(t *testing.T) {
	as := testAtlas(t)
	s := testState(t, as, []float64{0, 0, 1})

	checker := &DynamicValidityChecker{
		IsValidFunc:   func(Waypoint) bool { return true },
		ScalingFactor: 10,
		ObstaclesByTime: map[int]DynamicObstacleSet{
			4: func(Waypoint) bool { return true }, // blocks
		},
	}

	// round(0.37 * 10) == 4, so this must be blocked.
	require.False(t, Check(checker, s, 0.37))
	// A different time bucket has no obstacle registered.
	require.True(t, Check(checker, s, 0.1))
}

func TestPrioritizedValidityCheckerBlocksNearSibling(t *testing.T) {
	as := testAtlas(t)
	s := testState(t, as, []float64{0, 0, 1})
	near := testState(t, as, []float64{0, 0, 1})

	inner := &StaticValidityChecker{IsValidFunc: func(Waypoint) bool { return true }}
	checker := &PrioritizedValidityChecker{
		Inner: inner,
		Siblings: []SiblingPath{
			{Waypoints: []Waypoint{near}, ScalingFactor: 1},
		},
		CollisionRadius: 0.5,
	}

	require.False(t, Check(checker, s, 0))
}

func TestPrioritizedValidityCheckerAllowsFarSibling(t *testing.T) {
	as := testAtlas(t)
	s := testState(t, as, []float64{0, 0, 1})
	far := testState(t, as, []float64{0, 1, 0})

	inner := &StaticValidityChecker{IsValidFunc: func(Waypoint) bool { return true }}
	checker := &PrioritizedValidityChecker{
		Inner: inner,
		Siblings: []SiblingPath{
			{Waypoints: []Waypoint{far}, ScalingFactor: 1},
		},
		CollisionRadius: 0.1,
	}

	require.True(t, Check(checker, s, 0))
}
