// Package texture decodes embedded texture images into RGBA pixels and
// generates the procedural textures used by post-processing.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math/rand"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/Faultbox/retroscene/pkg/meshz"
)

// Decode decodes image bytes in the given encoding to RGBA.
func Decode(data []byte, encoding meshz.TextureEncoding) (*image.RGBA, error) {
	var (
		img image.Image
		err error
	)
	switch encoding {
	case meshz.EncodingPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case meshz.EncodingBMP:
		img, err = bmp.Decode(bytes.NewReader(data))
	case meshz.EncodingTGA:
		return DecodeTGA(data)
	default:
		return nil, fmt.Errorf("texture: unsupported encoding %s", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", encoding, err)
	}
	return ImageToRGBA(img), nil
}

// ImageToRGBA converts any image to *image.RGBA with its origin at (0, 0).
// An image that already qualifies is returned as is.
func ImageToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// Fit downscales img so that neither side exceeds maxSize, keeping the
// aspect ratio. Smaller images are returned unchanged.
func Fit(img *image.RGBA, maxSize int) *image.RGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}
	if w >= h {
		h = max(1, h*maxSize/w)
		w = maxSize
	} else {
		w = max(1, w*maxSize/h)
		h = maxSize
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// NewNoise returns a size x size opaque image of uniform random RGB values,
// used as the displacement map of the glitch effect.
func NewNoise(size int, rng *rand.Rand) *image.RGBA {
	size = max(size, 1)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}
