// Package raster provides the read-only boundary maps that rays are cast
// against. Dark pixels mark the track edge.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
)

// ErrUnsupportedFormat is returned when a track file has an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported raster format")

// Raster is a read-only pixel grid. Callers only query coordinates inside
// [0, Width()) x [0, Height()).
type Raster interface {
	Width() int
	Height() int
	RGB(x, y int) (r, g, b uint8)
}

// Luminance returns the integer mean of the three color channels.
func Luminance(r, g, b uint8) int {
	return (int(r) + int(g) + int(b)) / 3
}

// InBounds reports whether (x, y) lies inside the raster.
func InBounds(r Raster, x, y int) bool {
	return x >= 0 && y >= 0 && x < r.Width() && y < r.Height()
}

// Image adapts an image.Image to Raster. Coordinates are relative to the
// image bounds' minimum point.
type Image struct {
	img    image.Image
	bounds image.Rectangle
}

// FromImage wraps img.
func FromImage(img image.Image) *Image {
	return &Image{img: img, bounds: img.Bounds()}
}

func (i *Image) Width() int  { return i.bounds.Dx() }
func (i *Image) Height() int { return i.bounds.Dy() }

// RGB returns the 8-bit color channels at (x, y), ignoring alpha.
func (i *Image) RGB(x, y int) (uint8, uint8, uint8) {
	c := color.RGBAModel.Convert(i.img.At(i.bounds.Min.X+x, i.bounds.Min.Y+y)).(color.RGBA)
	return c.R, c.G, c.B
}

// Load decodes a track image from disk. PNG, JPEG and BMP are supported.
func Load(path string) (*Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".bmp":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode track image %q: %w", path, err)
	}
	return FromImage(img), nil
}
