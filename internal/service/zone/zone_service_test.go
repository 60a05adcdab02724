package zone

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"floodmap/internal/model"
	"floodmap/internal/raster"
)

// fakeLoader serves in-memory rasters keyed by image path.
type fakeLoader struct {
	images map[string]*raster.Image
}

func (f *fakeLoader) Load(imagePath string) (*raster.Image, error) {
	img, ok := f.images[imagePath]
	if !ok {
		return nil, fmt.Errorf("no raster at %s", imagePath)
	}
	return img, nil
}

// rasterWithContent builds a w x h raster opaque in the given pixel rectangle
// (x1, y1 exclusive) and transparent elsewhere.
func rasterWithContent(w, h, x0, y0, x1, y1 int) *raster.Image {
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			src.SetNRGBA(x, y, color.NRGBA{B: 255, A: 255})
		}
	}
	return raster.FromImage(src)
}

func newTestService(t *testing.T, loader raster.Loader) *ZoneService {
	t.Helper()
	return NewZoneService(loader)
}

// twoOverlappingZones creates zone A on the bottom and zone B stacked on top,
// overlapping in the [[5,5],[10,10]] region.
func twoOverlappingZones(t *testing.T, s *ZoneService) (*model.Zone, *model.Zone) {
	t.Helper()
	a, err := s.CreateZone("alpha", "alpha.png", model.Bounds{South: 0, West: 0, North: 10, East: 10}, 0.6)
	if err != nil {
		t.Fatalf("CreateZone alpha: %v", err)
	}
	b, err := s.CreateZone("bravo", "bravo.png", model.Bounds{South: 5, West: 5, North: 15, East: 15}, 0.6)
	if err != nil {
		t.Fatalf("CreateZone bravo: %v", err)
	}
	return a, b
}

func TestGetZoneAtPointTopmostWins(t *testing.T) {
	s := newTestService(t, nil)
	_, b := twoOverlappingZones(t, s)

	z, ok := s.GetZoneAtPoint(7, 7, false)
	if !ok {
		t.Fatal("Expected a hit in the overlap region")
	}
	if z.ID != b.ID {
		t.Errorf("Expected topmost zone %d, got %d", b.ID, z.ID)
	}
}

func TestGetZoneAtPointMiss(t *testing.T) {
	s := newTestService(t, nil)
	twoOverlappingZones(t, s)

	if _, ok := s.GetZoneAtPoint(50, 50, false); ok {
		t.Error("Expected no hit far outside all zones")
	}
}

func TestGetZoneAtPointSkipsInactive(t *testing.T) {
	s := newTestService(t, nil)
	a, b := twoOverlappingZones(t, s)

	if err := s.SetZoneActive(b.ID, false); err != nil {
		t.Fatalf("SetZoneActive: %v", err)
	}

	z, ok := s.GetZoneAtPoint(7, 7, false)
	if !ok {
		t.Fatal("Expected the lower zone to be hit")
	}
	if z.ID != a.ID {
		t.Errorf("Expected zone %d, got %d", a.ID, z.ID)
	}
}

func TestGetZoneAtPointPixelFallthrough(t *testing.T) {
	// bravo's raster is opaque only in its right half, so clicks landing in
	// the transparent left half fall through to alpha underneath.
	loader := &fakeLoader{images: map[string]*raster.Image{
		"bravo.png": rasterWithContent(10, 10, 5, 0, 10, 10),
	}}
	s := newTestService(t, loader)
	a, b := twoOverlappingZones(t, s)

	if _, err := s.EnsureContentBounds(b); err != nil {
		t.Fatalf("EnsureContentBounds: %v", err)
	}

	// (7, 7) is in bravo's transparent half: the click falls through
	z, ok := s.GetZoneAtPoint(7, 7, true)
	if !ok {
		t.Fatal("Expected the lower zone to be hit")
	}
	if z.ID != a.ID {
		t.Errorf("Expected fallthrough to zone %d, got %d", a.ID, z.ID)
	}

	// (7, 12) is in bravo's opaque half and outside alpha entirely
	z, ok = s.GetZoneAtPoint(7, 12, true)
	if !ok {
		t.Fatal("Expected bravo's opaque half to be hit")
	}
	if z.ID != b.ID {
		t.Errorf("Expected zone %d, got %d", b.ID, z.ID)
	}
}

func TestGetZoneAtPointCoarseWithoutContentBounds(t *testing.T) {
	// checkPixels without cached content bounds degrades to rectangle testing
	s := newTestService(t, nil)
	_, b := twoOverlappingZones(t, s)

	z, ok := s.GetZoneAtPoint(7, 7, true)
	if !ok {
		t.Fatal("Expected a coarse hit")
	}
	if z.ID != b.ID {
		t.Errorf("Expected topmost zone %d, got %d", b.ID, z.ID)
	}
}

func TestGetZoneAtPointDegradedRaster(t *testing.T) {
	// A zone whose raster cannot be decoded still answers rectangle queries
	loader := &fakeLoader{images: map[string]*raster.Image{}}
	s := newTestService(t, loader)
	_, b := twoOverlappingZones(t, s)

	if _, err := s.EnsureContentBounds(b); !errors.Is(err, model.ErrRasterUnavailable) {
		t.Fatalf("Expected ErrRasterUnavailable, got %v", err)
	}
	if !b.PixelDegraded {
		t.Error("Expected zone to be marked pixel-degraded")
	}

	z, ok := s.GetZoneAtPoint(7, 7, true)
	if !ok || z.ID != b.ID {
		t.Errorf("Degraded zone should answer with rectangle hit-testing, got %v %v", z, ok)
	}
}

func TestCreateZoneRejectsDegenerateBounds(t *testing.T) {
	s := newTestService(t, nil)

	_, err := s.CreateZone("bad", "bad.png", model.Bounds{South: 10, West: 0, North: 10, East: 5}, 0.6)
	if !errors.Is(err, model.ErrDegenerateBounds) {
		t.Errorf("Expected ErrDegenerateBounds, got %v", err)
	}
}

func TestDeleteZone(t *testing.T) {
	s := newTestService(t, nil)
	a, b := twoOverlappingZones(t, s)

	if err := s.DeleteZone(b.ID); err != nil {
		t.Fatalf("DeleteZone: %v", err)
	}
	if _, ok := s.GetZoneByID(b.ID); ok {
		t.Error("Deleted zone still retrievable")
	}

	z, ok := s.GetZoneAtPoint(7, 7, false)
	if !ok || z.ID != a.ID {
		t.Errorf("Expected remaining zone %d to be hit, got %v %v", a.ID, z, ok)
	}

	if err := s.DeleteZone(b.ID); !errors.Is(err, model.ErrZoneNotFound) {
		t.Errorf("Expected ErrZoneNotFound on double delete, got %v", err)
	}
}

func TestGetAllZonesStackingOrder(t *testing.T) {
	s := newTestService(t, nil)
	a, b := twoOverlappingZones(t, s)

	zones := s.GetAllZones()
	if len(zones) != 2 {
		t.Fatalf("Expected 2 zones, got %d", len(zones))
	}
	if zones[0].ID != a.ID || zones[1].ID != b.ID {
		t.Errorf("Expected stacking order [%d, %d], got [%d, %d]", a.ID, b.ID, zones[0].ID, zones[1].ID)
	}
}

func TestGetZonesInBounds(t *testing.T) {
	s := newTestService(t, nil)
	a, _ := twoOverlappingZones(t, s)

	zones := s.GetZonesInBounds(0, 0, 4, 4)
	if len(zones) != 1 || zones[0].ID != a.ID {
		t.Errorf("Expected only zone %d, got %d zones", a.ID, len(zones))
	}

	zones = s.GetZonesInBounds(0, 0, 20, 20)
	if len(zones) != 2 {
		t.Errorf("Expected both zones, got %d", len(zones))
	}
}

func TestNearestZone(t *testing.T) {
	s := newTestService(t, nil)
	a, b := twoOverlappingZones(t, s)

	z, dist, ok := s.NearestZone(0, 0)
	if !ok {
		t.Fatal("Expected a nearest zone")
	}
	if z.ID != a.ID {
		t.Errorf("Expected zone %d (center closer to origin), got %d", a.ID, z.ID)
	}
	if dist <= 0 {
		t.Errorf("Expected a positive distance, got %f", dist)
	}

	if err := s.SetZoneActive(a.ID, false); err != nil {
		t.Fatalf("SetZoneActive: %v", err)
	}
	z, _, ok = s.NearestZone(0, 0)
	if !ok || z.ID != b.ID {
		t.Errorf("Expected zone %d after hiding the nearer one, got %v %v", b.ID, z, ok)
	}
}

func TestUpdateZoneDropsDerivedState(t *testing.T) {
	loader := &fakeLoader{images: map[string]*raster.Image{
		"bravo.png": rasterWithContent(10, 10, 0, 0, 10, 10),
	}}
	s := newTestService(t, loader)
	_, b := twoOverlappingZones(t, s)

	if _, err := s.EnsureContentBounds(b); err != nil {
		t.Fatalf("EnsureContentBounds: %v", err)
	}
	if b.ContentBounds == nil {
		t.Fatal("Expected cached content bounds")
	}

	updated, err := s.UpdateZone(b.ID, "bravo", "bravo.png", model.Bounds{South: 6, West: 6, North: 16, East: 16}, 0.5, 15)
	if err != nil {
		t.Fatalf("UpdateZone: %v", err)
	}
	if updated.ContentBounds != nil {
		t.Error("Update should drop cached content bounds")
	}
	if updated.BaseSize == nil || updated.BaseSize.LatSpan != 10 {
		t.Errorf("Base size should be rebuilt from the new bounds, got %+v", updated.BaseSize)
	}
}
