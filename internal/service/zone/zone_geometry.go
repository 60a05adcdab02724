package zone

import (
	"fmt"
	"log"

	"floodmap/internal/geo"
	"floodmap/internal/model"
	"floodmap/internal/raster"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// loadRaster fetches and caches the zone's raster dimensions. A decode
// failure marks the zone pixel-degraded: rectangle hit-testing still works,
// pixel-accurate operations do not.
func (s *ZoneService) loadRaster(z *model.Zone) (*raster.Image, error) {
	if s.loader == nil {
		z.PixelDegraded = true
		return nil, fmt.Errorf("zone %d: no raster loader wired: %w", z.ID, model.ErrRasterUnavailable)
	}

	img, err := s.loader.Load(z.ImagePath)
	if err != nil {
		z.PixelDegraded = true
		log.Printf("zone %d (%s): raster degraded, rectangle hit-testing only: %v", z.ID, z.Name, err)
		return nil, fmt.Errorf("zone %d: %w: %v", z.ID, model.ErrRasterUnavailable, err)
	}

	z.PixelDegraded = false
	z.ImageWidth = img.Width
	z.ImageHeight = img.Height
	return img, nil
}

// EnsureContentBounds computes and caches the normalized rectangle of the
// raster's colored pixels. A raster with no content above the alpha
// threshold caches the full-image rectangle, which accepts every point and
// is equivalent to plain bounds hit-testing.
func (s *ZoneService) EnsureContentBounds(z *model.Zone) (model.NormalizedRect, error) {
	if z.ContentBounds != nil {
		return *z.ContentBounds, nil
	}

	img, err := s.loadRaster(z)
	if err != nil {
		return model.NormalizedRect{}, err
	}

	rect, ok := raster.DetectContentBounds(img)
	if !ok {
		log.Printf("zone %d (%s): no colored pixels, falling back to full-image bounds", z.ID, z.Name)
		rect = model.NormalizedRect{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	}

	z.ContentBounds = &rect
	return rect, nil
}

// EnsurePerimeter computes and caches the zone's geographic outline from its
// raster. A nil ring with nil error means the raster had no edge pixels;
// callers fall back to the bounding rectangle as hit-test geometry.
func (s *ZoneService) EnsurePerimeter(z *model.Zone) (orb.Ring, error) {
	if len(z.Perimeter) > 0 {
		return z.Perimeter, nil
	}

	if err := z.Bounds.Validate(); err != nil {
		return nil, fmt.Errorf("zone %d: %w", z.ID, err)
	}

	img, err := s.loadRaster(z)
	if err != nil {
		return nil, err
	}

	path, ok := raster.ExtractPerimeter(img)
	if !ok {
		log.Printf("zone %d (%s): no perimeter detected, using bounding rectangle", z.ID, z.Name)
		return nil, nil
	}

	ring := make(orb.Ring, 0, len(path))
	for _, p := range path {
		gp := geo.PixelToGeo(p.X, p.Y, img.Width, img.Height, z.Bounds)
		ring = append(ring, orb.Point{gp.Lng, gp.Lat})
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}

	z.Perimeter = ring
	log.Printf("zone %d (%s): perimeter with %d points, area %g deg²",
		z.ID, z.Name, len(ring), planar.Area(orb.Polygon{ring}))

	return ring, nil
}

// PointInPerimeter tests a point against the cached perimeter polygon. When
// no perimeter is available it falls back to rectangle containment.
func (s *ZoneService) PointInPerimeter(z *model.Zone, lat, lng float64) bool {
	if len(z.Perimeter) < 4 {
		return z.Bounds.Contains(lat, lng)
	}
	return planar.RingContains(z.Perimeter, orb.Point{lng, lat})
}

// AdjustZoneToContent shrinks the zone's committed bounds to cover only the
// colored pixel area, removing transparent padding from the geographic
// envelope. The adjusted bounds become the new base.
func (s *ZoneService) AdjustZoneToContent(id int) (*model.Zone, error) {
	z, ok := s.storage.Get(id)
	if !ok {
		return nil, fmt.Errorf("adjust zone %d: %w", id, model.ErrZoneNotFound)
	}

	content, err := s.EnsureContentBounds(z)
	if err != nil {
		return nil, err
	}

	adjusted := geo.AdjustBoundsToContent(content, z.Bounds)
	if err := adjusted.Validate(); err != nil {
		return nil, fmt.Errorf("adjust zone %d: %w", id, err)
	}

	z.Bounds = adjusted
	z.BaseSize = nil
	z.EnsureBaseSize()
	z.Perimeter = nil // stale against the new bounds
	s.MarkDirty(z)

	log.Printf("zone %d (%s): bounds adjusted to content [[%f, %f], [%f, %f]]",
		z.ID, z.Name, adjusted.South, adjusted.West, adjusted.North, adjusted.East)

	return z, nil
}

// SuggestAspectBounds reports corrected bounds when the zone raster's aspect
// ratio diverges from its geographic bounds enough to skew the overlay.
func (s *ZoneService) SuggestAspectBounds(id int) (model.Bounds, bool, error) {
	z, ok := s.storage.Get(id)
	if !ok {
		return model.Bounds{}, false, fmt.Errorf("analyze zone %d: %w", id, model.ErrZoneNotFound)
	}

	if z.ImageWidth == 0 || z.ImageHeight == 0 {
		if _, err := s.loadRaster(z); err != nil {
			return model.Bounds{}, false, err
		}
	}

	suggested, mismatch := geo.SuggestAspectBounds(z.ImageWidth, z.ImageHeight, z.Bounds)
	return suggested, mismatch, nil
}
