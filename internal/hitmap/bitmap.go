// Package hitmap answers "is this pixel of the sprite opaque?" in constant
// time. A Bitmap packs one bit per source pixel; it is computed once per
// distinct source image and shared by every sprite cut from that image.
package hitmap

import (
	"image"

	"golang.org/x/image/draw"
)

// DefaultThreshold treats any pixel that is not fully opaque as transparent.
const DefaultThreshold uint8 = 255

// Bitmap is a bit-packed opacity mask. Bit i of the mask, i = y*Width + x,
// lives in Words[i/32] at position i%32.
type Bitmap struct {
	Width  int      `msgpack:"w"`
	Height int      `msgpack:"h"`
	Words  []uint32 `msgpack:"bits"`
}

// New returns an all-transparent bitmap.
func New(width, height int) *Bitmap {
	return &Bitmap{
		Width:  width,
		Height: height,
		Words:  make([]uint32, wordCount(width, height)),
	}
}

func wordCount(width, height int) int {
	return (width*height + 31) / 32
}

// Build rasterizes img and marks every pixel with alpha >= threshold as opaque.
func Build(img image.Image, threshold uint8) *Bitmap {
	b := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(rgba, image.Point{}, img, b, draw.Src, nil)
	return fromNRGBA(rgba, threshold)
}

// BuildScaled rasterizes img at scale (e.g. 0.5 to turn a 2x asset into
// logical pixels) with nearest-neighbour sampling, so opacity edges stay hard.
func BuildScaled(img image.Image, scale float64, threshold uint8) *Bitmap {
	if scale <= 0 || scale == 1 {
		return Build(img, threshold)
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))
	rgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(rgba, rgba.Bounds(), img, b, draw.Src, nil)
	return fromNRGBA(rgba, threshold)
}

func fromNRGBA(img *image.NRGBA, threshold uint8) *Bitmap {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	bm := New(w, h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			if row[x*4+3] >= threshold {
				bm.set(y*w + x)
			}
		}
	}
	return bm
}

func (b *Bitmap) set(i int) {
	b.Words[i/32] |= 1 << (i % 32)
}

// At reports whether pixel (x, y) is opaque. Pixels outside the bitmap are transparent.
func (b *Bitmap) At(x, y int) bool {
	if b == nil || x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return false
	}
	i := y*b.Width + x
	return b.Words[i/32]&(1<<(i%32)) != 0
}

// Set marks pixel (x, y) opaque or transparent.
func (b *Bitmap) Set(x, y int, opaque bool) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := y*b.Width + x
	if opaque {
		b.set(i)
	} else {
		b.Words[i/32] &^= 1 << (i % 32)
	}
}

// Opaque counts opaque pixels.
func (b *Bitmap) Opaque() int {
	n := 0
	for _, w := range b.Words {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}
