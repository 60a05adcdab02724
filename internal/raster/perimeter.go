package raster

import "math"

const (
	// jumpThreshold is the nearest-neighbor distance (in pixels) above which
	// path stitching starts a new segment instead of bridging unrelated blobs.
	jumpThreshold = 50.0

	// minSegmentPoints is how long the current path must already be before a
	// jump is allowed to break it.
	minSegmentPoints = 10

	// preSimplifyDistance drops edge points closer than this (in pixels) to
	// an already-kept point, bounding the input of the simplification step.
	preSimplifyDistance = 2.0

	// simplifyTolerance is the Douglas-Peucker perpendicular tolerance.
	simplifyTolerance = 1.0

	// simplifyTrigger is the path length above which Douglas-Peucker runs.
	simplifyTrigger = 500
)

// Point is a pixel coordinate, origin at the image's top-left corner.
type Point struct {
	X float64
	Y float64
}

// ExtractPerimeter traces the outline of the colored region as an ordered,
// closed pixel path. The second return is false when the raster has no edge
// pixels; callers then fall back to rectangle hit-testing.
//
// The ordering step is a planar nearest-neighbor heuristic, not a true
// contour trace: it can mis-order points on concave or multi-blob shapes,
// but downstream zone shapes were authored against exactly this behavior.
func ExtractPerimeter(img *Image) ([]Point, bool) {
	edges := edgePixels(img)
	if len(edges) == 0 {
		return nil, false
	}

	path := stitchPath(edges)
	path = preSimplify(path)

	if len(path) > simplifyTrigger {
		path = douglasPeucker(path, simplifyTolerance)
	}

	// Fewer than 3 distinct points cannot form a ring
	if len(path) < 3 {
		return nil, false
	}

	// Close the ring
	if path[0] != path[len(path)-1] {
		path = append(path, path[0])
	}

	return path, true
}

// edgePixels returns every colored pixel that lies on the image border or
// has at least one transparent 4-connected neighbor.
func edgePixels(img *Image) []Point {
	var edges []Point

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if !img.Colored(x, y) {
				continue
			}

			if x == 0 || x == img.Width-1 || y == 0 || y == img.Height-1 {
				edges = append(edges, Point{X: float64(x), Y: float64(y)})
				continue
			}

			if !img.Colored(x, y-1) || !img.Colored(x+1, y) ||
				!img.Colored(x, y+1) || !img.Colored(x-1, y) {
				edges = append(edges, Point{X: float64(x), Y: float64(y)})
			}
		}
	}

	return edges
}

// stitchPath orders an unordered edge-pixel set by repeatedly stepping to
// the nearest unvisited point. When the nearest remaining point is further
// than jumpThreshold and the path is already long enough, the walk restarts
// on a fresh point rather than stitching disconnected blobs together.
func stitchPath(points []Point) []Point {
	if len(points) == 0 {
		return nil
	}

	remaining := make([]Point, len(points))
	copy(remaining, points)

	path := make([]Point, 0, len(points))
	current := remaining[0]
	remaining = remaining[1:]
	path = append(path, current)

	for len(remaining) > 0 {
		nearestIdx := 0
		nearestDist := math.Inf(1)
		for i, p := range remaining {
			d := distance(current, p)
			if d < nearestDist {
				nearestDist = d
				nearestIdx = i
			}
		}

		if nearestDist > jumpThreshold && len(path) > minSegmentPoints {
			// Too far: start a new disjoint segment
			current = remaining[0]
			remaining = remaining[1:]
		} else {
			current = remaining[nearestIdx]
			remaining = append(remaining[:nearestIdx], remaining[nearestIdx+1:]...)
		}
		path = append(path, current)
	}

	return path
}

// preSimplify discards points closer than preSimplifyDistance to any
// already-kept point.
func preSimplify(path []Point) []Point {
	kept := make([]Point, 0, len(path))

	for _, p := range path {
		tooClose := false
		for _, k := range kept {
			if distance(p, k) < preSimplifyDistance {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, p)
		}
	}

	return kept
}

// douglasPeucker reduces the number of vertices by recursively splitting at
// the point of maximum perpendicular deviation and keeping only endpoints
// when the deviation is within epsilon.
func douglasPeucker(path []Point, epsilon float64) []Point {
	if len(path) <= 2 {
		return path
	}

	dmax := 0.0
	index := 0
	end := len(path) - 1

	for i := 1; i < end; i++ {
		d := perpendicularDistance(path[i], path[0], path[end])
		if d > dmax {
			dmax = d
			index = i
		}
	}

	if dmax > epsilon {
		left := douglasPeucker(path[:index+1], epsilon)
		right := douglasPeucker(path[index:], epsilon)

		result := make([]Point, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	return []Point{path[0], path[end]}
}

// perpendicularDistance calculates the perpendicular distance from point p
// to the line through a and b.
func perpendicularDistance(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		return distance(p, a)
	}

	num := math.Abs(dy*p.X - dx*p.Y + b.X*a.Y - b.Y*a.X)
	den := math.Sqrt(dx*dx + dy*dy)
	return num / den
}

func distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
