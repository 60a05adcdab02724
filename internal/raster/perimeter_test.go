package raster

import (
	"math"
	"testing"
)

func TestExtractPerimeterSquare(t *testing.T) {
	img := testImage(40, 40, 10, 10, 30, 30)

	path, ok := ExtractPerimeter(img)
	if !ok {
		t.Fatal("Expected a perimeter for a solid square")
	}
	if len(path) < 4 {
		t.Fatalf("Expected at least 4 points, got %d", len(path))
	}

	// The path must be a closed ring
	if path[0] != path[len(path)-1] {
		t.Errorf("Expected closed ring: first=%+v last=%+v", path[0], path[len(path)-1])
	}

	// Every vertex must lie on the square's edge band
	for _, p := range path {
		onX := p.X == 10 || p.X == 29
		onY := p.Y == 10 || p.Y == 29
		if !onX && !onY {
			t.Errorf("Point %+v is not on the square's outline", p)
		}
	}
}

func TestExtractPerimeterEmpty(t *testing.T) {
	img := testImage(20, 20, 0, 0, 0, 0)

	if _, ok := ExtractPerimeter(img); ok {
		t.Error("Fully transparent image should have no perimeter")
	}
}

func TestExtractPerimeterTooFewPoints(t *testing.T) {
	// Specks too small to form a ring report no perimeter, so callers take
	// the rectangle fallback instead of caching a degenerate polygon
	single := testImage(10, 10, 4, 4, 5, 5)
	if path, ok := ExtractPerimeter(single); ok {
		t.Errorf("Single pixel should have no perimeter, got %v", path)
	}

	pair := testImage(10, 10, 4, 4, 6, 5)
	if path, ok := ExtractPerimeter(pair); ok {
		t.Errorf("Two pixels should have no perimeter, got %v", path)
	}
}

func TestEdgePixelsInteriorExcluded(t *testing.T) {
	img := testImage(20, 20, 5, 5, 15, 15)

	edges := edgePixels(img)

	// A 10x10 block has a 36-pixel outline
	if len(edges) != 36 {
		t.Errorf("Expected 36 edge pixels, got %d", len(edges))
	}
	for _, p := range edges {
		onX := p.X == 5 || p.X == 14
		onY := p.Y == 5 || p.Y == 14
		if !onX && !onY {
			t.Errorf("Interior pixel %+v reported as edge", p)
		}
	}
}

func TestEdgePixelsImageBorder(t *testing.T) {
	// Content touching the image border counts as edge even with colored neighbors
	img := testImage(10, 10, 0, 0, 10, 10)

	edges := edgePixels(img)
	if len(edges) != 36 {
		t.Errorf("Expected 36 border pixels, got %d", len(edges))
	}
}

func TestStitchPathOrdersNeighbors(t *testing.T) {
	// Shuffled points along a horizontal line
	points := []Point{{X: 0}, {X: 30}, {X: 10}, {X: 40}, {X: 20}}

	path := stitchPath(points)
	if len(path) != len(points) {
		t.Fatalf("Expected %d points, got %d", len(points), len(path))
	}

	// Starting from the first point, each hop goes to the nearest neighbor
	for i := 1; i < len(path); i++ {
		if path[i].X != float64(i*10) {
			t.Errorf("Expected x=%d at position %d, got %f", i*10, i, path[i].X)
			break
		}
	}
}

func TestPreSimplifyDropsClosePoints(t *testing.T) {
	// Points 1px apart collapse onto every other point
	path := make([]Point, 10)
	for i := range path {
		path[i] = Point{X: float64(i)}
	}

	kept := preSimplify(path)
	if len(kept) != 5 {
		t.Errorf("Expected 5 kept points, got %d", len(kept))
	}
}

func TestDouglasPeuckerCollinear(t *testing.T) {
	// Collinear points collapse to the two endpoints
	path := make([]Point, 600)
	for i := range path {
		path[i] = Point{X: float64(i), Y: float64(i)}
	}

	simplified := douglasPeucker(path, simplifyTolerance)
	if len(simplified) != 2 {
		t.Errorf("Expected 2 points, got %d", len(simplified))
	}
	if simplified[0] != path[0] || simplified[1] != path[len(path)-1] {
		t.Errorf("Endpoints not preserved: %+v", simplified)
	}
}

func TestDouglasPeuckerKeepsCorners(t *testing.T) {
	// An L-shaped path keeps its corner
	path := []Point{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}, {X: 10, Y: 10}}

	simplified := douglasPeucker(path, simplifyTolerance)
	if len(simplified) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(simplified))
	}
	if simplified[1] != (Point{X: 10, Y: 0}) {
		t.Errorf("Corner not preserved: %+v", simplified[1])
	}
}

func TestPerpendicularDistance(t *testing.T) {
	d := perpendicularDistance(Point{X: 5, Y: 5}, Point{X: 0, Y: 0}, Point{X: 10, Y: 0})
	if math.Abs(d-5) > 1e-9 {
		t.Errorf("Expected distance 5, got %f", d)
	}

	// Degenerate segment falls back to point distance
	d = perpendicularDistance(Point{X: 3, Y: 4}, Point{X: 0, Y: 0}, Point{X: 0, Y: 0})
	if math.Abs(d-5) > 1e-9 {
		t.Errorf("Expected distance 5, got %f", d)
	}
}
