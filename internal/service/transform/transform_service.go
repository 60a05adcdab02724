// Package transform applies live, reversible edits to zone geometry. Scale
// and rotation previews only ever touch a zone's Preview state; the
// committed bounds and base size change exclusively through Commit.
package transform

import (
	"fmt"
	"log"
	"sync"

	"floodmap/internal/model"
	"floodmap/internal/service/zone"
	"floodmap/internal/util"
)

// TransformService edits zones held by the zone service. Overlapping
// requests for the same zone are last-writer-wins; every call is
// synchronous.
type TransformService struct {
	zones *zone.ZoneService
}

var (
	transformServiceInstance *TransformService
	transformServiceOnce     sync.Once
)

// GetTransformService returns the singleton instance of the TransformService.
func GetTransformService() *TransformService {
	transformServiceOnce.Do(func() {
		transformServiceInstance = NewTransformService(zone.GetZoneService())
	})
	return transformServiceInstance
}

// NewTransformService creates a service bound to a specific zone store.
func NewTransformService(zones *zone.ZoneService) *TransformService {
	return &TransformService{zones: zones}
}

// SetAnchor fixes the control point scale and commit operations center on.
func (s *TransformService) SetAnchor(id int, lat, lng float64) error {
	z, ok := s.zones.GetZoneByID(id)
	if !ok {
		return fmt.Errorf("anchor zone %d: %w", id, model.ErrZoneNotFound)
	}
	z.Anchor = &model.GeoPoint{Lat: lat, Lng: lng}
	return nil
}

// PreviewScale resizes the zone's displayed rectangle to percent of its base
// size, centered on the anchor. The committed bounds and base size are
// untouched; accumulated preview rotation is preserved.
func (s *TransformService) PreviewScale(id int, percent float64) (*model.Preview, error) {
	z, ok := s.zones.GetZoneByID(id)
	if !ok {
		return nil, fmt.Errorf("scale zone %d: %w", id, model.ErrZoneNotFound)
	}

	// A non-positive factor would collapse or invert the display rectangle
	if percent <= 0 {
		return nil, fmt.Errorf("scale zone %d to %.1f%%: %w", id, percent, model.ErrDegenerateBounds)
	}
	if !z.EnsureBaseSize() {
		return nil, fmt.Errorf("scale zone %d: %w", id, model.ErrMissingBaseSize)
	}
	if z.Anchor == nil {
		return nil, fmt.Errorf("scale zone %d: %w", id, model.ErrMissingAnchor)
	}

	factor := percent / 100.0
	scaled := model.Size{
		LatSpan: z.BaseSize.LatSpan * factor,
		LngSpan: z.BaseSize.LngSpan * factor,
	}

	p := s.ensurePreview(z)
	p.Scale = factor
	p.Display = model.CenteredBounds(*z.Anchor, scaled)

	return p, nil
}

// PreviewRotate rotates the zone's visual about its display center. Rotation
// never alters the displayed rectangle, the anchor, or any persisted
// geometry; it composes freely with scale previews.
func (s *TransformService) PreviewRotate(id int, degrees float64) (*model.Preview, error) {
	z, ok := s.zones.GetZoneByID(id)
	if !ok {
		return nil, fmt.Errorf("rotate zone %d: %w", id, model.ErrZoneNotFound)
	}

	p := s.ensurePreview(z)
	p.Rotation = degrees
	return p, nil
}

// Discard abandons the zone's live preview, returning it to its base state.
func (s *TransformService) Discard(id int) error {
	z, ok := s.zones.GetZoneByID(id)
	if !ok {
		return fmt.Errorf("discard zone %d: %w", id, model.ErrZoneNotFound)
	}
	z.Preview = nil
	return nil
}

// Commit folds the zone's live preview into new base geometry: bounds are
// recomputed from the current scale factor and anchor exactly as
// PreviewScale computes the display rectangle, the base size is replaced,
// rotation is persisted, and the live scale resets to 100%. Further scale
// edits are relative to the newly committed base.
func (s *TransformService) Commit(id int) (model.Bounds, error) {
	z, ok := s.zones.GetZoneByID(id)
	if !ok {
		return model.Bounds{}, fmt.Errorf("commit zone %d: %w", id, model.ErrZoneNotFound)
	}
	if z.Preview == nil {
		return model.Bounds{}, fmt.Errorf("commit zone %d: %w", id, model.ErrNoPreview)
	}
	if !z.EnsureBaseSize() {
		return model.Bounds{}, fmt.Errorf("commit zone %d: %w", id, model.ErrMissingBaseSize)
	}

	anchor := z.Bounds.Center()
	if z.Anchor != nil {
		anchor = *z.Anchor
	}

	newSize := model.Size{
		LatSpan: z.BaseSize.LatSpan * z.Preview.Scale,
		LngSpan: z.BaseSize.LngSpan * z.Preview.Scale,
	}
	newBounds := model.CenteredBounds(anchor, newSize)
	if err := newBounds.Validate(); err != nil {
		return model.Bounds{}, fmt.Errorf("commit zone %d: %w", id, err)
	}

	// Bounds and base size replace together; rotation persists alongside
	z.Bounds = newBounds
	z.BaseSize = &newSize
	z.Rotation = z.Preview.Rotation
	z.Perimeter = nil // stale against the new base
	z.Preview = nil
	s.zones.MarkDirty(z)

	log.Printf("commit %s: zone %d (%s) new bounds [[%f, %f], [%f, %f]], rotation %.1f",
		util.ShortUUID(), z.ID, z.Name,
		newBounds.South, newBounds.West, newBounds.North, newBounds.East, z.Rotation)

	return newBounds, nil
}

// Translate shifts the zone's committed bounds by the given deltas. Cached
// geometry anchored to the old position moves with it.
func (s *TransformService) Translate(id int, dLat, dLng float64) (model.Bounds, error) {
	z, ok := s.zones.GetZoneByID(id)
	if !ok {
		return model.Bounds{}, fmt.Errorf("translate zone %d: %w", id, model.ErrZoneNotFound)
	}

	z.Bounds = model.Bounds{
		South: z.Bounds.South + dLat,
		West:  z.Bounds.West + dLng,
		North: z.Bounds.North + dLat,
		East:  z.Bounds.East + dLng,
	}
	if z.Anchor != nil {
		z.Anchor = &model.GeoPoint{Lat: z.Anchor.Lat + dLat, Lng: z.Anchor.Lng + dLng}
	}
	for i := range z.Perimeter {
		z.Perimeter[i][0] += dLng
		z.Perimeter[i][1] += dLat
	}
	if z.Preview != nil {
		z.Preview.Display = model.Bounds{
			South: z.Preview.Display.South + dLat,
			West:  z.Preview.Display.West + dLng,
			North: z.Preview.Display.North + dLat,
			East:  z.Preview.Display.East + dLng,
		}
	}
	s.zones.MarkDirty(z)

	return z.Bounds, nil
}

// PreviewScaleAll applies the same scale preview to every active zone. Each
// zone keeps its own anchor; zones missing an anchor or base size are
// skipped and reported, siblings continue.
func (s *TransformService) PreviewScaleAll(percent float64) map[int]error {
	failures := make(map[int]error)
	for _, z := range s.zones.ActiveZones() {
		if _, err := s.PreviewScale(z.ID, percent); err != nil {
			log.Printf("batch scale: %v", err)
			failures[z.ID] = err
		}
	}
	return failures
}

// PreviewRotateAll applies the same rotation preview to every active zone.
// Anchors are left untouched: a group rotation must not drift them.
func (s *TransformService) PreviewRotateAll(degrees float64) map[int]error {
	failures := make(map[int]error)
	for _, z := range s.zones.ActiveZones() {
		if _, err := s.PreviewRotate(z.ID, degrees); err != nil {
			log.Printf("batch rotate: %v", err)
			failures[z.ID] = err
		}
	}
	return failures
}

// CommitAll commits every active zone holding a live preview. Commits are
// atomic per zone and independent across zones: one failure never rolls
// back or blocks the others.
func (s *TransformService) CommitAll() map[int]error {
	failures := make(map[int]error)
	for _, z := range s.zones.ActiveZones() {
		if z.Preview == nil {
			continue
		}
		if _, err := s.Commit(z.ID); err != nil {
			log.Printf("batch commit: %v", err)
			failures[z.ID] = err
		}
	}
	return failures
}

// TranslateAll shifts every active zone by the same deltas.
func (s *TransformService) TranslateAll(dLat, dLng float64) map[int]error {
	failures := make(map[int]error)
	for _, z := range s.zones.ActiveZones() {
		if _, err := s.Translate(z.ID, dLat, dLng); err != nil {
			log.Printf("batch translate: %v", err)
			failures[z.ID] = err
		}
	}
	return failures
}

// ensurePreview lazily creates the zone's preview state seeded from its
// committed geometry.
func (s *TransformService) ensurePreview(z *model.Zone) *model.Preview {
	if z.Preview == nil {
		z.Preview = &model.Preview{
			Scale:    1.0,
			Rotation: z.Rotation,
			Display:  z.Bounds,
		}
	}
	return z.Preview
}
