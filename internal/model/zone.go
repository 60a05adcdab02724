package model

import (
	"encoding/json"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/gorm"
)

// Preview is a live, uncommitted visual transform of a zone. It carries its
// own display rectangle so the committed Bounds stay untouched until an
// explicit commit folds the preview in. Rotation is visual only and never
// alters the display rectangle.
type Preview struct {
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	Display  Bounds  `json:"display"`
}

// ZonePG model for PostgreSQL storage
type ZonePG struct {
	ID        int     `gorm:"primaryKey"`
	Name      string  `gorm:"size:255;not null"`
	ImagePath string  `gorm:"size:512;not null"`
	Opacity   float64 `gorm:"not null"`
	Rotation  float64 `gorm:"not null"`

	South float64 `gorm:"not null"`
	West  float64 `gorm:"not null"`
	North float64 `gorm:"not null"`
	East  float64 `gorm:"not null"`

	// Perimeter polygon as a GeoJSON string, empty until computed
	Perimeter string `gorm:"type:text"`

	UpdatedAt time.Time      `gorm:"column:updated_at"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// TableName overrides the table name
func (ZonePG) TableName() string {
	return "zones"
}

// ZoneRedis is the compact model written to the dirty cache between
// PostgreSQL flushes.
type ZoneRedis struct {
	ID        int       `json:"id"`
	Bounds    Bounds    `json:"bounds"`
	Opacity   float64   `json:"opacity"`
	Rotation  float64   `json:"rotation"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Zone in-memory model. Bounds is the committed base rectangle; everything
// below the cache marker is derived per session and never persisted.
type Zone struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	ImagePath string  `json:"image_path"`
	Opacity   float64 `json:"opacity"`
	Rotation  float64 `json:"rotation"`
	Bounds    Bounds  `json:"bounds"`

	UpdatedAt time.Time      `json:"updated_at"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-"`

	// Cached data, computed once per session
	BaseSize      *Size           `json:"-"` // recomputed only on commit
	ContentBounds *NormalizedRect `json:"-"` // colored-pixel rectangle of the raster
	Perimeter     orb.Ring        `json:"-"` // closed outline of the colored region
	Anchor        *GeoPoint       `json:"-"` // control point for scale/commit
	PixelDegraded bool            `json:"-"` // raster undecodable, rectangle hit-testing only
	ImageWidth    int             `json:"-"` // raster dimensions, cached on first load
	ImageHeight   int             `json:"-"`

	Preview *Preview `json:"-"`
}

// DisplayBounds returns the rectangle a renderer should use right now: the
// live preview rectangle when one exists, otherwise the committed bounds.
func (z *Zone) DisplayBounds() Bounds {
	if z.Preview != nil {
		return z.Preview.Display
	}
	return z.Bounds
}

// DisplayRotation returns the live preview rotation when one exists,
// otherwise the persisted rotation.
func (z *Zone) DisplayRotation() float64 {
	if z.Preview != nil {
		return z.Preview.Rotation
	}
	return z.Rotation
}

// EnsureBaseSize caches the base size from the committed bounds. Returns
// false when the bounds are degenerate and no size can be derived.
func (z *Zone) EnsureBaseSize() bool {
	if z.BaseSize != nil {
		return true
	}
	if z.Bounds.Validate() != nil {
		return false
	}
	size := z.Bounds.Span()
	z.BaseSize = &size
	return true
}

// DropCaches clears all derived state, forcing recomputation on next use.
func (z *Zone) DropCaches() {
	z.BaseSize = nil
	z.ContentBounds = nil
	z.Perimeter = nil
	z.Anchor = nil
	z.PixelDegraded = false
	z.ImageWidth = 0
	z.ImageHeight = 0
	z.Preview = nil
}

// PerimeterGeoJSON encodes the cached perimeter as a GeoJSON Polygon string.
// Returns "" when no perimeter has been computed.
func (z *Zone) PerimeterGeoJSON() string {
	if len(z.Perimeter) == 0 {
		return ""
	}
	g := geojson.NewGeometry(orb.Polygon{z.Perimeter})
	data, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	return string(data)
}

// ZoneFromPG creates a Zone from ZonePG
func ZoneFromPG(pg *ZonePG) *Zone {
	z := &Zone{
		ID:        pg.ID,
		Name:      pg.Name,
		ImagePath: pg.ImagePath,
		Opacity:   pg.Opacity,
		Rotation:  pg.Rotation,
		Bounds: Bounds{
			South: pg.South,
			West:  pg.West,
			North: pg.North,
			East:  pg.East,
		},
		UpdatedAt: pg.UpdatedAt,
		CreatedAt: pg.CreatedAt,
		DeletedAt: pg.DeletedAt,
	}

	if pg.Perimeter != "" {
		var g geojson.Geometry
		if err := json.Unmarshal([]byte(pg.Perimeter), &g); err == nil {
			if poly, ok := g.Geometry().(orb.Polygon); ok && len(poly) > 0 {
				z.Perimeter = poly[0]
			}
		}
	}

	return z
}

// ToPG converts the in-memory zone to its PostgreSQL model.
func (z *Zone) ToPG() *ZonePG {
	return &ZonePG{
		ID:        z.ID,
		Name:      z.Name,
		ImagePath: z.ImagePath,
		Opacity:   z.Opacity,
		Rotation:  z.Rotation,
		South:     z.Bounds.South,
		West:      z.Bounds.West,
		North:     z.Bounds.North,
		East:      z.Bounds.East,
		Perimeter: z.PerimeterGeoJSON(),
		UpdatedAt: z.UpdatedAt,
		CreatedAt: z.CreatedAt,
		DeletedAt: z.DeletedAt,
	}
}

// ToRedis converts the in-memory zone to its Redis model.
func (z *Zone) ToRedis() *ZoneRedis {
	return &ZoneRedis{
		ID:        z.ID,
		Bounds:    z.Bounds,
		Opacity:   z.Opacity,
		Rotation:  z.Rotation,
		UpdatedAt: z.UpdatedAt,
	}
}

// ApplyRedis overrides the persisted fields with newer values from the cache.
func (z *Zone) ApplyRedis(r *ZoneRedis) {
	z.Bounds = r.Bounds
	z.Opacity = r.Opacity
	z.Rotation = r.Rotation
	z.UpdatedAt = r.UpdatedAt
}
