package zone

import (
	"fmt"
	"log"
	"time"

	"floodmap/internal/model"
	pg "floodmap/internal/postgres"
)

// CreateZone registers a new zone overlay. The id is assigned here and is
// immutable afterwards. The new zone stacks on top of existing ones.
func (s *ZoneService) CreateZone(name, imagePath string, bounds model.Bounds, opacity float64) (*model.Zone, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	s.orderMutex.Lock()
	defer s.orderMutex.Unlock()

	maxID := 0
	s.storage.ForEach(func(id int, _ *model.Zone) bool {
		if id > maxID {
			maxID = id
		}
		return true
	})

	now := time.Now()
	z := &model.Zone{
		ID:        maxID + 1,
		Name:      name,
		ImagePath: imagePath,
		Opacity:   opacity,
		Bounds:    bounds,
		CreatedAt: now,
		UpdatedAt: now,
	}
	z.EnsureBaseSize()

	s.storage.Set(z.ID, z)
	s.stacking = append(s.stacking, z.ID)
	s.active[z.ID] = true
	s.rebuildSpatialIndex()

	log.Printf("Created zone %d (%s) with bounds [[%f, %f], [%f, %f]]",
		z.ID, z.Name, bounds.South, bounds.West, bounds.North, bounds.East)

	return z, nil
}

// UpdateZone replaces a zone's persisted fields. Derived caches are dropped
// so they are recomputed against the new record.
func (s *ZoneService) UpdateZone(id int, name, imagePath string, bounds model.Bounds, opacity, rotation float64) (*model.Zone, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	z, ok := s.storage.Get(id)
	if !ok {
		return nil, fmt.Errorf("update zone %d: %w", id, model.ErrZoneNotFound)
	}

	z.Name = name
	z.ImagePath = imagePath
	z.Opacity = opacity
	z.Rotation = rotation
	z.Bounds = bounds
	z.DropCaches()
	z.EnsureBaseSize()
	s.MarkDirty(z)

	return z, nil
}

// DeleteZone removes the zone and drops every cache held for its id.
func (s *ZoneService) DeleteZone(id int) error {
	z, ok := s.storage.Get(id)
	if !ok {
		return fmt.Errorf("delete zone %d: %w", id, model.ErrZoneNotFound)
	}

	s.orderMutex.Lock()
	for i, sid := range s.stacking {
		if sid == id {
			s.stacking = append(s.stacking[:i], s.stacking[i+1:]...)
			break
		}
	}
	delete(s.active, id)
	s.orderMutex.Unlock()

	z.DropCaches()
	s.storage.Delete(id)
	s.rebuildSpatialIndex()

	if db := pg.GetDB(); db != nil {
		if err := db.Delete(&model.ZonePG{}, id).Error; err != nil {
			return fmt.Errorf("delete zone %d from PostgreSQL: %w", id, err)
		}
	}

	log.Printf("Deleted zone %d (%s)", id, z.Name)
	return nil
}

// GetZoneByID returns a zone from the in-memory store.
func (s *ZoneService) GetZoneByID(id int) (*model.Zone, bool) {
	return s.storage.Get(id)
}

// GetAllZones returns every zone in stacking order, bottom first.
func (s *ZoneService) GetAllZones() []*model.Zone {
	s.orderMutex.RLock()
	defer s.orderMutex.RUnlock()

	zones := make([]*model.Zone, 0, len(s.stacking))
	for _, id := range s.stacking {
		if z, ok := s.storage.Get(id); ok {
			zones = append(zones, z)
		}
	}
	return zones
}

// SetZoneActive toggles a zone's visibility for point queries and batch
// transforms. Visibility is session state, never persisted.
func (s *ZoneService) SetZoneActive(id int, active bool) error {
	if _, ok := s.storage.Get(id); !ok {
		return fmt.Errorf("toggle zone %d: %w", id, model.ErrZoneNotFound)
	}

	s.orderMutex.Lock()
	s.active[id] = active
	s.orderMutex.Unlock()
	return nil
}

// ActiveZones returns the visible zones in stacking order, bottom first.
func (s *ZoneService) ActiveZones() []*model.Zone {
	s.orderMutex.RLock()
	defer s.orderMutex.RUnlock()

	zones := make([]*model.Zone, 0, len(s.stacking))
	for _, id := range s.stacking {
		if !s.active[id] {
			continue
		}
		if z, ok := s.storage.Get(id); ok {
			zones = append(zones, z)
		}
	}
	return zones
}
