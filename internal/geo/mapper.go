// Package geo converts between raster pixel coordinates and geographic
// coordinates. Pixel space has its origin at the top-left with Y growing
// downward; latitude grows upward, so row 0 maps to the northern edge.
package geo

import "floodmap/internal/model"

// PixelToGeo maps a pixel coordinate onto the geographic rectangle covered
// by an image of the given dimensions. It is total for non-degenerate
// bounds; validate bounds upstream with Bounds.Validate.
func PixelToGeo(x, y float64, width, height int, b model.Bounds) model.GeoPoint {
	return model.GeoPoint{
		Lng: b.West + (b.East-b.West)*(x/float64(width)),
		Lat: b.North - (b.North-b.South)*(y/float64(height)),
	}
}

// GeoToPixel is the exact inverse of PixelToGeo up to floating-point
// rounding.
func GeoToPixel(lat, lng float64, width, height int, b model.Bounds) (x, y float64) {
	x = (lng - b.West) / (b.East - b.West) * float64(width)
	y = (b.North - lat) / (b.North - b.South) * float64(height)
	return x, y
}

// NormalizedInBounds maps a geographic point to its normalized (0..1)
// position within the rectangle, Y inverted to match image fractions.
func NormalizedInBounds(lat, lng float64, b model.Bounds) (nx, ny float64) {
	nx = (lng - b.West) / (b.East - b.West)
	ny = (b.North - lat) / (b.North - b.South)
	return nx, ny
}
