package model

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// Bounds is a geographic rectangle. South/West form the minimum corner,
// North/East the maximum. The JSON form is [[south, west], [north, east]],
// matching the stored zone records.
type Bounds struct {
	South float64
	West  float64
	North float64
	East  float64
}

// Size is the geographic extent of a zone's bounds in degrees.
type Size struct {
	LatSpan float64 `json:"lat_span"`
	LngSpan float64 `json:"lng_span"`
}

// GeoPoint is a geographic coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NormalizedRect is a rectangle in image-fraction coordinates (0..1),
// origin at the top-left of the raster.
type NormalizedRect struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Contains reports whether the normalized position (x, y) falls inside the rectangle.
func (r NormalizedRect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Validate checks the south < north and west < east invariant. Degenerate
// rectangles must be rejected before they reach coordinate conversion.
func (b Bounds) Validate() error {
	if b.South >= b.North || b.West >= b.East {
		return fmt.Errorf("%w: [[%f, %f], [%f, %f]]", ErrDegenerateBounds, b.South, b.West, b.North, b.East)
	}
	return nil
}

// Center returns the geographic center of the rectangle.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.South + b.North) / 2,
		Lng: (b.West + b.East) / 2,
	}
}

// Span returns the lat/lng extent of the rectangle.
func (b Bounds) Span() Size {
	return Size{
		LatSpan: b.North - b.South,
		LngSpan: b.East - b.West,
	}
}

// Contains reports whether the point lies within the rectangle.
func (b Bounds) Contains(lat, lng float64) bool {
	return b.ToOrb().Contains(orb.Point{lng, lat})
}

// ToOrb converts to an orb.Bound (x = lng, y = lat).
func (b Bounds) ToOrb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// BoundsFromOrb converts an orb.Bound back to Bounds.
func BoundsFromOrb(ob orb.Bound) Bounds {
	return Bounds{
		South: ob.Min[1],
		West:  ob.Min[0],
		North: ob.Max[1],
		East:  ob.Max[0],
	}
}

// CenteredBounds builds a rectangle of the given size centered on a point.
func CenteredBounds(center GeoPoint, size Size) Bounds {
	return Bounds{
		South: center.Lat - size.LatSpan/2,
		West:  center.Lng - size.LngSpan/2,
		North: center.Lat + size.LatSpan/2,
		East:  center.Lng + size.LngSpan/2,
	}
}

// MarshalJSON encodes bounds as [[south, west], [north, east]].
func (b Bounds) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][2]float64{{b.South, b.West}, {b.North, b.East}})
}

// UnmarshalJSON decodes the [[south, west], [north, east]] form.
func (b *Bounds) UnmarshalJSON(data []byte) error {
	var corners [2][2]float64
	if err := json.Unmarshal(data, &corners); err != nil {
		return err
	}
	b.South = corners[0][0]
	b.West = corners[0][1]
	b.North = corners[1][0]
	b.East = corners[1][1]
	return nil
}
