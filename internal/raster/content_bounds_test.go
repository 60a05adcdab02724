package raster

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// testImage builds a raster with an opaque rectangle from (x0, y0) up to but
// not including (x1, y1), everything else fully transparent.
func testImage(w, h, x0, y0, x1, y1 int) *Image {
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	return FromImage(src)
}

func TestDetectContentBoundsSquare(t *testing.T) {
	img := testImage(100, 100, 25, 25, 75, 75)

	rect, ok := DetectContentBounds(img)
	if !ok {
		t.Fatal("Expected content to be found")
	}

	want := [4]float64{0.25, 0.25, 0.75, 0.75}
	got := [4]float64{rect.MinX, rect.MinY, rect.MaxX, rect.MaxY}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("Expected rect %v, got %v", want, got)
			break
		}
	}
}

func TestDetectContentBoundsFullImage(t *testing.T) {
	img := testImage(10, 10, 0, 0, 10, 10)

	rect, ok := DetectContentBounds(img)
	if !ok {
		t.Fatal("Expected content to be found")
	}
	if rect.MinX != 0 || rect.MinY != 0 || rect.MaxX != 1 || rect.MaxY != 1 {
		t.Errorf("Expected full-image rect, got %+v", rect)
	}
}

func TestDetectContentBoundsEmpty(t *testing.T) {
	img := testImage(50, 50, 0, 0, 0, 0)

	if _, ok := DetectContentBounds(img); ok {
		t.Error("Fully transparent image should report no content")
	}
}

func TestDetectContentBoundsAlphaThreshold(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	// Below-threshold fringe pixel and one real content pixel
	src.SetNRGBA(1, 1, color.NRGBA{R: 255, A: AlphaThreshold - 1})
	src.SetNRGBA(5, 5, color.NRGBA{R: 255, A: AlphaThreshold})
	img := FromImage(src)

	rect, ok := DetectContentBounds(img)
	if !ok {
		t.Fatal("Expected content to be found")
	}
	if rect.MinX != 0.5 || rect.MinY != 0.5 {
		t.Errorf("Fringe pixel below threshold should be ignored, got %+v", rect)
	}
}

func TestAlphaAtOutOfRange(t *testing.T) {
	img := testImage(10, 10, 0, 0, 10, 10)

	if img.AlphaAt(-1, 5) != 0 || img.AlphaAt(5, -1) != 0 ||
		img.AlphaAt(10, 5) != 0 || img.AlphaAt(5, 10) != 0 {
		t.Error("Out-of-range pixels should read as transparent")
	}
}
