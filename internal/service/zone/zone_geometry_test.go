package zone

import (
	"math"
	"testing"

	"floodmap/internal/model"
	"floodmap/internal/raster"
)

func TestEnsurePerimeter(t *testing.T) {
	// 6x6 opaque block centered in a 10x10 raster over [[0,0],[10,10]]
	loader := &fakeLoader{images: map[string]*raster.Image{
		"block.png": rasterWithContent(10, 10, 2, 2, 8, 8),
	}}
	s := newTestService(t, loader)
	z, err := s.CreateZone("block", "block.png", model.Bounds{South: 0, West: 0, North: 10, East: 10}, 0.6)
	if err != nil {
		t.Fatalf("CreateZone: %v", err)
	}

	ring, err := s.EnsurePerimeter(z)
	if err != nil {
		t.Fatalf("EnsurePerimeter: %v", err)
	}
	if len(ring) < 4 {
		t.Fatalf("Expected a ring with at least 4 points, got %d", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Error("Perimeter ring is not closed")
	}

	// Every vertex lies inside the zone's bounds, in the block's geo band
	for _, p := range ring {
		lng, lat := p[0], p[1]
		if lng < 2 || lng > 7 || lat < 3 || lat > 8 {
			t.Errorf("Perimeter point (%f, %f) outside the content band", lat, lng)
		}
	}

	// The ring is cached; a second call returns the same geometry
	again, err := s.EnsurePerimeter(z)
	if err != nil {
		t.Fatalf("EnsurePerimeter (cached): %v", err)
	}
	if len(again) != len(ring) {
		t.Errorf("Cached perimeter differs: %d vs %d points", len(again), len(ring))
	}
}

func TestPointInPerimeter(t *testing.T) {
	loader := &fakeLoader{images: map[string]*raster.Image{
		"block.png": rasterWithContent(10, 10, 2, 2, 8, 8),
	}}
	s := newTestService(t, loader)
	z, err := s.CreateZone("block", "block.png", model.Bounds{South: 0, West: 0, North: 10, East: 10}, 0.6)
	if err != nil {
		t.Fatalf("CreateZone: %v", err)
	}
	if _, err := s.EnsurePerimeter(z); err != nil {
		t.Fatalf("EnsurePerimeter: %v", err)
	}

	if !s.PointInPerimeter(z, 5, 5) {
		t.Error("Center of the block should be inside the perimeter")
	}
	if s.PointInPerimeter(z, 0.5, 0.5) {
		t.Error("Transparent corner should be outside the perimeter")
	}
}

func TestPointInPerimeterFallback(t *testing.T) {
	// Without a perimeter the test degrades to rectangle containment
	s := newTestService(t, nil)
	z, err := s.CreateZone("plain", "plain.png", model.Bounds{South: 0, West: 0, North: 10, East: 10}, 0.6)
	if err != nil {
		t.Fatalf("CreateZone: %v", err)
	}

	if !s.PointInPerimeter(z, 0.5, 0.5) {
		t.Error("Rectangle fallback should contain an in-bounds point")
	}
	if s.PointInPerimeter(z, 11, 5) {
		t.Error("Rectangle fallback should reject an out-of-bounds point")
	}
}

func TestAdjustZoneToContent(t *testing.T) {
	loader := &fakeLoader{images: map[string]*raster.Image{
		"block.png": rasterWithContent(10, 10, 2, 2, 8, 8),
	}}
	s := newTestService(t, loader)
	z, err := s.CreateZone("block", "block.png", model.Bounds{South: 0, West: 0, North: 10, East: 10}, 0.6)
	if err != nil {
		t.Fatalf("CreateZone: %v", err)
	}
	if _, err := s.EnsurePerimeter(z); err != nil {
		t.Fatalf("EnsurePerimeter: %v", err)
	}

	adjusted, err := s.AdjustZoneToContent(z.ID)
	if err != nil {
		t.Fatalf("AdjustZoneToContent: %v", err)
	}

	want := model.Bounds{South: 2, West: 2, North: 8, East: 8}
	got := adjusted.Bounds
	if math.Abs(got.South-want.South) > 1e-9 || math.Abs(got.West-want.West) > 1e-9 ||
		math.Abs(got.North-want.North) > 1e-9 || math.Abs(got.East-want.East) > 1e-9 {
		t.Errorf("Expected bounds %+v, got %+v", want, got)
	}
	if adjusted.BaseSize == nil || math.Abs(adjusted.BaseSize.LatSpan-6) > 1e-9 {
		t.Errorf("Base size should follow the adjusted bounds, got %+v", adjusted.BaseSize)
	}
	if len(adjusted.Perimeter) != 0 {
		t.Error("Perimeter should be invalidated by the bounds change")
	}
}

func TestAdjustZoneToContentNoLoader(t *testing.T) {
	s := newTestService(t, nil)
	z, err := s.CreateZone("plain", "plain.png", model.Bounds{South: 0, West: 0, North: 10, East: 10}, 0.6)
	if err != nil {
		t.Fatalf("CreateZone: %v", err)
	}

	if _, err := s.AdjustZoneToContent(z.ID); err == nil {
		t.Error("Expected an error without a raster loader")
	}
	if !z.PixelDegraded {
		t.Error("Zone should be marked pixel-degraded")
	}
}

func TestSuggestAspectBoundsService(t *testing.T) {
	// 2:1 raster over square bounds should produce a widening suggestion
	loader := &fakeLoader{images: map[string]*raster.Image{
		"wide.png": rasterWithContent(20, 10, 0, 0, 20, 10),
	}}
	s := newTestService(t, loader)
	z, err := s.CreateZone("wide", "wide.png", model.Bounds{South: 0, West: 0, North: 10, East: 10}, 0.6)
	if err != nil {
		t.Fatalf("CreateZone: %v", err)
	}

	suggested, mismatch, err := s.SuggestAspectBounds(z.ID)
	if err != nil {
		t.Fatalf("SuggestAspectBounds: %v", err)
	}
	if !mismatch {
		t.Fatal("Expected an aspect mismatch")
	}
	size := suggested.Span()
	if math.Abs(size.LngSpan-20) > 1e-9 || math.Abs(size.LatSpan-10) > 1e-9 {
		t.Errorf("Expected a 20x10 degree suggestion, got %+v", size)
	}
}
