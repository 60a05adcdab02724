package geo

import "floodmap/internal/model"

// aspectMismatchLimit is the image-vs-geographic aspect ratio difference
// above which a zone will render visibly skewed.
const aspectMismatchLimit = 0.1

// AdjustBoundsToContent shrinks a zone's geographic bounds so they cover
// only the colored pixel area of its raster, excluding transparent padding.
func AdjustBoundsToContent(content model.NormalizedRect, b model.Bounds) model.Bounds {
	latSpan := b.North - b.South
	lngSpan := b.East - b.West

	return model.Bounds{
		West: b.West + lngSpan*content.MinX,
		East: b.West + lngSpan*content.MaxX,
		// Y axis is flipped: image y=0 is the northern edge
		North: b.North - latSpan*content.MinY,
		South: b.North - latSpan*content.MaxY,
	}
}

// SuggestAspectBounds checks whether the raster's aspect ratio matches the
// geographic bounds' aspect ratio and, when they diverge enough to skew the
// overlay, returns corrected bounds that keep the center fixed. The second
// return is false when the current bounds are already a good fit.
func SuggestAspectBounds(imgWidth, imgHeight int, b model.Bounds) (model.Bounds, bool) {
	if imgWidth <= 0 || imgHeight <= 0 || b.Validate() != nil {
		return b, false
	}

	imageAspect := float64(imgWidth) / float64(imgHeight)
	size := b.Span()
	geoAspect := size.LngSpan / size.LatSpan

	diff := imageAspect - geoAspect
	if diff < 0 {
		diff = -diff
	}
	if diff <= aspectMismatchLimit {
		return b, false
	}

	center := b.Center()
	if imageAspect > geoAspect {
		// Image is wider: keep the latitude range, widen longitude
		size.LngSpan = size.LatSpan * imageAspect
	} else {
		// Image is taller: keep the longitude range, stretch latitude
		size.LatSpan = size.LngSpan / imageAspect
	}

	return model.CenteredBounds(center, size), true
}
