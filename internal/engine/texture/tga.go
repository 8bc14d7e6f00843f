package texture

import (
	"errors"
	"fmt"
	"image"
)

// TGA image types handled by DecodeTGA.
const (
	TGATypeUncompressed = 2
	TGATypeRLE          = 10
)

const tgaHeaderSize = 18

// ErrTGATruncated is returned when TGA pixel data ends early.
var ErrTGATruncated = errors.New("texture: TGA data truncated")

// DecodeTGA decodes an uncompressed or RLE true-color TGA image with 24 or
// 32 bits per pixel.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, ErrTGATruncated
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("texture: color-mapped TGA not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("texture: unsupported TGA type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("texture: unsupported TGA bit depth %d", bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("texture: empty TGA image %dx%d", width, height)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, ErrTGATruncated
	}

	r := &tgaReader{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		src:         data[offset:],
		width:       width,
		height:      height,
		stride:      bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	var err error
	if imageType == TGATypeUncompressed {
		err = r.readRaw()
	} else {
		err = r.readRLE()
	}
	if err != nil {
		return nil, err
	}
	return r.img, nil
}

// tgaReader writes BGR(A) source pixels into an RGBA image in scan order,
// flipping rows for bottom-up files.
type tgaReader struct {
	img         *image.RGBA
	src         []byte
	pos         int
	pixel       int
	width       int
	height      int
	stride      int
	topToBottom bool
}

func (r *tgaReader) next() ([4]byte, bool) {
	if r.pos+r.stride > len(r.src) {
		return [4]byte{}, false
	}
	p := r.src[r.pos:]
	c := [4]byte{p[2], p[1], p[0], 255}
	if r.stride == 4 {
		c[3] = p[3]
	}
	r.pos += r.stride
	return c, true
}

func (r *tgaReader) put(c [4]byte) {
	x := r.pixel % r.width
	y := r.pixel / r.width
	if !r.topToBottom {
		y = r.height - 1 - y
	}
	copy(r.img.Pix[r.img.PixOffset(x, y):], c[:])
	r.pixel++
}

func (r *tgaReader) readRaw() error {
	if len(r.src) < r.width*r.height*r.stride {
		return ErrTGATruncated
	}
	for r.pixel < r.width*r.height {
		c, _ := r.next()
		r.put(c)
	}
	return nil
}

// readRLE decodes run-length packets. A stream that ends early leaves the
// remaining pixels transparent.
func (r *tgaReader) readRLE() error {
	total := r.width * r.height
	for r.pixel < total && r.pos < len(r.src) {
		packet := r.src[r.pos]
		r.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			c, ok := r.next()
			if !ok {
				return nil
			}
			for i := 0; i < count && r.pixel < total; i++ {
				r.put(c)
			}
			continue
		}

		for i := 0; i < count && r.pixel < total; i++ {
			c, ok := r.next()
			if !ok {
				return nil
			}
			r.put(c)
		}
	}
	return nil
}
