package raster

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/webp"
)

// Image is a fully decoded raster held as a flat RGBA buffer, four bytes per
// pixel, row-major from the top-left. All geometry operations assume the
// buffer is fully materialized before they run.
type Image struct {
	Width  int
	Height int
	pix    []uint8
}

// FromImage copies a decoded image into a flat pixel buffer.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	m := &Image{
		Width:  w,
		Height: h,
		pix:    make([]uint8, w*h*4),
	}

	switch img := src.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w*4]
			copy(m.pix[y*w*4:], row)
		}
	case *image.RGBA:
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w*4]
			copy(m.pix[y*w*4:], row)
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, a := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := (y*w + x) * 4
				m.pix[i] = uint8(r >> 8)
				m.pix[i+1] = uint8(g >> 8)
				m.pix[i+2] = uint8(bl >> 8)
				m.pix[i+3] = uint8(a >> 8)
			}
		}
	}

	return m
}

// AlphaAt returns the alpha value of the pixel at (x, y). Out-of-range
// coordinates report zero (fully transparent).
func (m *Image) AlphaAt(x, y int) uint8 {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return 0
	}
	return m.pix[(y*m.Width+x)*4+3]
}

// Colored reports whether the pixel at (x, y) counts as content. The
// threshold absorbs anti-aliasing fringes without eroding genuine content.
func (m *Image) Colored(x, y int) bool {
	return m.AlphaAt(x, y) >= AlphaThreshold
}

// Loader fetches a zone's raster by its opaque image path. The asset store
// owning the files is an external collaborator.
type Loader interface {
	Load(imagePath string) (*Image, error)
}

// FSLoader loads rasters from a directory on the local filesystem.
type FSLoader struct {
	BaseDir string
}

// NewFSLoader creates a loader rooted at the given asset directory.
func NewFSLoader(baseDir string) *FSLoader {
	return &FSLoader{BaseDir: baseDir}
}

// Load decodes the raster at the given path. PNG, JPEG and WebP are
// supported; the zone rasters are normally RGBA PNGs.
func (l *FSLoader) Load(imagePath string) (*Image, error) {
	full := filepath.Join(l.BaseDir, strings.TrimPrefix(imagePath, "/"))

	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", imagePath, err)
	}
	defer f.Close()

	img, err := decode(f, full)
	if err != nil {
		return nil, fmt.Errorf("decode raster %s: %w", imagePath, err)
	}

	return FromImage(img), nil
}

func decode(r io.Reader, path string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Decode(r)
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".webp":
		return webp.Decode(r)
	default:
		img, _, err := image.Decode(r)
		return img, err
	}
}
