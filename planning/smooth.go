package planning

import (
	"context"
	"math"
	"math/rand"

	"github.com/atlasmp/core/atlas"
)

// ShortcutSmooth repeatedly picks two non-adjacent waypoints at random
// and, if the manifold-respecting geodesic between them is
// collision-free, splices out everything in between. This is the same
// randomized shortcutting idea RRT-family smoothers use, adapted to
// check motions via AtlasMotionValidator.CheckMotion (which walks the
// manifold) instead of a straight-line joint-space interpolation.
func ShortcutSmooth(
	ctx context.Context,
	path []Waypoint,
	validator *atlas.AtlasMotionValidator,
	rng *rand.Rand,
	maxIterations int,
) []Waypoint {
	if len(path) < 4 {
		return path
	}

	toIter := int(math.Min(float64(len(path)*len(path)), float64(maxIterations)))

	for iter := 0; iter < toIter; iter++ {
		select {
		case <-ctx.Done():
			return path
		default:
		}
		if len(path) <= 3 {
			break
		}

		i := rng.Intn(len(path) - 2)
		j := i + 2 + rng.Intn(len(path)-i-2)

		if !validator.CheckMotion(path[i], path[j]) {
			continue
		}

		newPath := make([]Waypoint, 0, len(path)-(j-i)+1)
		newPath = append(newPath, path[:i+1]...)
		newPath = append(newPath, path[j:]...)
		path = newPath
	}
	return path
}
