package meshrender

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// AttributeImage is a rectangular buffer of interpolated vertex attributes,
// one fixed-width float32 vector per pixel. It is the output of Render and
// RenderClipSpace; for color attributes it converts directly to an
// image.RGBA.
type AttributeImage struct {
	width    int
	height   int
	channels int
	pix      []float32
}

// NewAttributeImage creates a zero-filled attribute image.
func NewAttributeImage(width, height, channels int) *AttributeImage {
	return &AttributeImage{
		width:    width,
		height:   height,
		channels: channels,
		pix:      make([]float32, width*height*channels),
	}
}

// Width returns the image width in pixels.
func (im *AttributeImage) Width() int { return im.width }

// Height returns the image height in pixels.
func (im *AttributeImage) Height() int { return im.height }

// Channels returns the attribute vector width.
func (im *AttributeImage) Channels() int { return im.channels }

// Pix returns the raw pixel data in row-major order, channels innermost.
func (im *AttributeImage) Pix() []float32 { return im.pix }

// At returns the attribute vector at (x, y) as a slice aliasing the
// underlying buffer. It returns nil outside the image bounds.
func (im *AttributeImage) At(x, y int) []float32 {
	if x < 0 || x >= im.width || y < 0 || y >= im.height {
		return nil
	}
	i := (y*im.width + x) * im.channels
	return im.pix[i : i+im.channels]
}

// RGBA converts the attribute image to an 8-bit RGBA image, clamping each
// channel to [0, 1]. Single-channel images render as grayscale; images with
// fewer than four channels get full alpha; channels past the fourth are
// ignored.
func (im *AttributeImage) RGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, im.width, im.height))
	for y := 0; y < im.height; y++ {
		for x := 0; x < im.width; x++ {
			px := im.At(x, y)
			var c color.RGBA
			switch {
			case im.channels == 1:
				v := to8(px[0])
				c = color.RGBA{v, v, v, 255}
			case im.channels == 2:
				c = color.RGBA{to8(px[0]), to8(px[1]), 0, 255}
			case im.channels == 3:
				c = color.RGBA{to8(px[0]), to8(px[1]), to8(px[2]), 255}
			default:
				c = color.RGBA{to8(px[0]), to8(px[1]), to8(px[2]), to8(px[3])}
			}
			dst.SetRGBA(x, y, c)
		}
	}
	return dst
}

// SavePNG writes the image to a PNG file.
func (im *AttributeImage) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("meshrender: create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, im.RGBA()); err != nil {
		return fmt.Errorf("meshrender: encode %s: %w", path, err)
	}
	return nil
}

func to8(v float32) uint8 {
	return uint8(clampf(v, 0, 1)*255 + 0.5)
}
