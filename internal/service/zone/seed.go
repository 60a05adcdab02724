package zone

import (
	"time"

	"floodmap/internal/model"
)

// Default bounds for the Corpus Christi area. The zone rasters are
// 2550x1815 (aspect ratio 1.405), so the longitude range is stretched to
// 0.2 * 1.405 = 0.281 degrees around -97.4 to match the image aspect.
var defaultBounds = model.Bounds{
	South: 27.7,
	West:  -97.540496,
	North: 27.9,
	East:  -97.259504,
}

const defaultOpacity = 0.6

// defaultZones returns the built-in hazard zone set used when the database
// is empty. Names are the raster color labels driving default styling.
func defaultZones() []*model.Zone {
	names := []string{"green", "orange", "pink", "purple", "yellow"}

	zones := make([]*model.Zone, 0, len(names))
	now := time.Now()
	for i, name := range names {
		zones = append(zones, &model.Zone{
			ID:        i + 1,
			Name:      name,
			ImagePath: "mapzone/" + name + "zone.png",
			Bounds:    defaultBounds,
			Opacity:   defaultOpacity,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return zones
}
