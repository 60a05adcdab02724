package raster

import "floodmap/internal/model"

// AlphaThreshold is the minimum alpha for a pixel to count as content.
const AlphaThreshold = 10

// DetectContentBounds scans the pixel buffer once and returns the tight
// rectangle, normalized to image fractions (0..1), enclosing every pixel
// with alpha >= AlphaThreshold. The max edges include the last colored pixel
// (max+1 over the image size). The second return is false when no pixel
// meets the threshold; callers fall back to full-image bounds.
func DetectContentBounds(img *Image) (model.NormalizedRect, bool) {
	minX, minY := img.Width, img.Height
	maxX, maxY := 0, 0
	found := false

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if !img.Colored(x, y) {
				continue
			}
			found = true
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if !found {
		return model.NormalizedRect{}, false
	}

	return model.NormalizedRect{
		MinX: float64(minX) / float64(img.Width),
		MinY: float64(minY) / float64(img.Height),
		MaxX: float64(maxX+1) / float64(img.Width),
		MaxY: float64(maxY+1) / float64(img.Height),
	}, true
}
