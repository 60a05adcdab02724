package zone

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"floodmap/internal/model"
	pg "floodmap/internal/postgres"
	"floodmap/internal/raster"
	"floodmap/internal/service/storage"
	"floodmap/internal/util"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// ZoneSpatial represents a zone with its spatial information for R-tree indexing
type ZoneSpatial struct {
	ID          int
	BoundingBox orb.Bound
	Zone        *model.Zone
}

// Bounds implements the rtreego.Spatial interface
// Returns the bounding rectangle of the zone for R-tree indexing
func (z *ZoneSpatial) Bounds() rtreego.Rect {
	minX, minY := z.BoundingBox.Min[0], z.BoundingBox.Min[1]
	maxX, maxY := z.BoundingBox.Max[0], z.BoundingBox.Max[1]

	rect, _ := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)

	return rect
}

// ZoneService manages zone records, their derived raster geometry, and
// point/area queries over the currently active zones.
type ZoneService struct {
	storage      storage.Storage[int, *model.Zone]
	loader       raster.Loader
	spatialIndex *rtreego.Rtree
	indexMutex   sync.RWMutex

	// stacking is display order: zones later in the slice render on top.
	// active holds the visibility toggles supplied by the UI session.
	stacking   []int
	active     map[int]bool
	orderMutex sync.RWMutex

	initialized bool
	initMutex   sync.RWMutex
}

var (
	zoneServiceInstance *ZoneService
	zoneServiceOnce     sync.Once
)

// GetZoneService returns the singleton instance of the ZoneService
func GetZoneService() *ZoneService {
	zoneServiceOnce.Do(func() {
		zoneServiceInstance = NewZoneService(nil)
	})
	return zoneServiceInstance
}

// NewZoneService creates a standalone service instance. The loader may be
// nil, in which case every pixel-level operation degrades to rectangle
// hit-testing until SetRasterLoader is called.
func NewZoneService(loader raster.Loader) *ZoneService {
	return &ZoneService{
		storage:      storage.NewMemoryStorage[int, *model.Zone](),
		loader:       loader,
		spatialIndex: rtreego.NewTree(2, 25, 50), // 2D index with min 25, max 50 entries per node
		active:       make(map[int]bool),
	}
}

// SetRasterLoader wires the external asset store used to sample zone rasters.
func (s *ZoneService) SetRasterLoader(loader raster.Loader) {
	s.loader = loader
}

// InitService initializes the service by loading data from PostgreSQL and Redis
func (s *ZoneService) InitService(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		log.Println("ZoneService already initialized, skipping")
		return nil
	}

	log.Println("Initializing ZoneService...")
	startTime := time.Now()

	// Step 1: Load full data from PostgreSQL
	zones, err := s.loadAllZonesFromPG()
	if err != nil {
		return fmt.Errorf("failed to load zones from PostgreSQL: %w", err)
	}
	log.Printf("Loaded %d zones from PostgreSQL in %v", len(zones), time.Since(startTime))

	// Step 2: Seed defaults when the database is empty
	if len(zones) == 0 {
		zones = defaultZones()
		if err := s.persistSeedZones(zones); err != nil {
			log.Printf("WARNING: could not persist seed zones: %v", err)
		}
		log.Printf("Initialized %d default flood zones", len(zones))
	}

	// Step 3: Merge newer updates from Redis
	redisZones, err := s.loadAllZonesFromRedis(ctx)
	if err != nil {
		log.Printf("WARNING: could not load zone updates from Redis: %v", err)
	} else {
		merged := 0
		for _, z := range zones {
			if r, ok := redisZones[z.ID]; ok && r.UpdatedAt.After(z.UpdatedAt) {
				z.ApplyRedis(r)
				merged++
			}
		}
		log.Printf("Merged %d newer zones from Redis", merged)
	}

	// Step 4: Load into memory, stack in id order, everything visible
	for _, z := range zones {
		z.EnsureBaseSize()
		s.storage.Set(z.ID, z)
		s.stacking = append(s.stacking, z.ID)
		s.active[z.ID] = true
	}
	s.storage.ClearDirty(s.stacking)

	// Step 5: Build spatial index
	s.rebuildSpatialIndex()

	log.Printf("Initialization complete: %d zones in memory, took %v",
		s.storage.Count(), time.Since(startTime))

	s.initialized = true
	return nil
}

// rebuildSpatialIndex rebuilds the spatial index for efficient searching.
// Indexed rectangles are the committed base bounds; previews only narrow
// hits, never widen them, so the index stays valid during edits.
func (s *ZoneService) rebuildSpatialIndex() {
	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	s.spatialIndex = rtreego.NewTree(2, 25, 50)

	s.storage.ForEach(func(id int, z *model.Zone) bool {
		if z.Bounds.Validate() != nil {
			log.Printf("zone %d has degenerate bounds, not indexed", id)
			return true
		}
		s.spatialIndex.Insert(&ZoneSpatial{
			ID:          id,
			BoundingBox: z.Bounds.ToOrb(),
			Zone:        z,
		})
		return true
	})
}

// GetZoneAtPoint returns the topmost active zone containing the point.
// Zones are tested in reverse stacking order so overlapping zones resolve
// to the visually topmost one. With checkPixels set, a zone whose cached
// content bounds exclude the point is skipped: clicks landing in the
// transparent padding of its raster fall through to lower zones.
func (s *ZoneService) GetZoneAtPoint(lat, lng float64, checkPixels bool) (*model.Zone, bool) {
	candidates := s.candidatesAtPoint(lat, lng)
	if len(candidates) == 0 {
		return nil, false
	}

	s.orderMutex.RLock()
	defer s.orderMutex.RUnlock()

	for i := len(s.stacking) - 1; i >= 0; i-- {
		id := s.stacking[i]
		if !s.active[id] {
			continue
		}
		z, ok := candidates[id]
		if !ok {
			continue
		}

		if !z.Bounds.Contains(lat, lng) {
			continue
		}

		// Coarse mode: no pixel test requested, or none possible yet
		if !checkPixels || z.PixelDegraded || z.ContentBounds == nil {
			return z, true
		}

		nx, ny := normalizedInDisplay(lat, lng, z)
		if z.ContentBounds.Contains(nx, ny) {
			return z, true
		}
	}

	return nil, false
}

// candidatesAtPoint narrows the active set with the R-tree before the exact
// per-zone tests run.
func (s *ZoneService) candidatesAtPoint(lat, lng float64) map[int]*model.Zone {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	searchRect, err := rtreego.NewRect(
		rtreego.Point{lng, lat},
		[]float64{0.0001, 0.0001}, // Small radius for point search
	)
	if err != nil {
		log.Printf("invalid search rect: %v", err)
		return nil
	}

	results := s.spatialIndex.SearchIntersect(searchRect)
	if len(results) == 0 {
		return nil
	}

	candidates := make(map[int]*model.Zone, len(results))
	for _, item := range results {
		zs := item.(*ZoneSpatial)
		candidates[zs.ID] = zs.Zone
	}
	return candidates
}

// normalizedInDisplay converts a geographic point to its normalized (0..1)
// position within the zone's current displayed bounds, Y inverted to match
// image fractions.
func normalizedInDisplay(lat, lng float64, z *model.Zone) (nx, ny float64) {
	d := z.DisplayBounds()
	nx = (lng - d.West) / (d.East - d.West)
	ny = (d.North - lat) / (d.North - d.South)
	return nx, ny
}

// GetZonesInBounds returns all zones whose base bounds intersect the given rectangle
func (s *ZoneService) GetZonesInBounds(minLat, minLng, maxLat, maxLng float64) []*model.Zone {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	searchRect, err := rtreego.NewRect(
		rtreego.Point{minLng, minLat},
		[]float64{maxLng - minLng, maxLat - minLat},
	)
	if err != nil {
		log.Printf("invalid search rect: %v", err)
		return nil
	}

	results := s.spatialIndex.SearchIntersect(searchRect)
	if len(results) == 0 {
		return nil
	}

	zones := make([]*model.Zone, 0, len(results))
	for _, item := range results {
		zones = append(zones, item.(*ZoneSpatial).Zone)
	}
	return zones
}

// NearestZone returns the active zone whose displayed center is closest to
// the point, along with the great-circle distance in meters.
func (s *ZoneService) NearestZone(lat, lng float64) (*model.Zone, float64, bool) {
	s.orderMutex.RLock()
	defer s.orderMutex.RUnlock()

	var nearest *model.Zone
	nearestDist := 0.0

	for _, id := range s.stacking {
		if !s.active[id] {
			continue
		}
		z, ok := s.storage.Get(id)
		if !ok {
			continue
		}
		c := z.DisplayBounds().Center()
		d := util.HaversineDistance(lat, lng, c.Lat, c.Lng)
		if nearest == nil || d < nearestDist {
			nearest = z
			nearestDist = d
		}
	}

	if nearest == nil {
		return nil, 0, false
	}
	return nearest, nearestDist, true
}

// MarkDirty re-stores the zone so the persistence workers pick it up, and
// refreshes the spatial index when its committed bounds changed.
func (s *ZoneService) MarkDirty(z *model.Zone) {
	z.UpdatedAt = time.Now()
	s.storage.Set(z.ID, z)
	s.rebuildSpatialIndex()
}

// loadAllZonesFromPG loads all zones from PostgreSQL
func (s *ZoneService) loadAllZonesFromPG() ([]*model.Zone, error) {
	db := pg.GetDB()
	if db == nil {
		// No database wired (tests, offline tools): start empty
		return nil, nil
	}

	var pgZones []*model.ZonePG
	result := db.Find(&pgZones)
	if result.Error != nil {
		return nil, result.Error
	}

	zones := make([]*model.Zone, len(pgZones))
	for i, pgZone := range pgZones {
		zones[i] = model.ZoneFromPG(pgZone)
	}

	return zones, nil
}
