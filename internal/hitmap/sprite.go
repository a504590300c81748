package hitmap

import (
	"image"
	"math"

	"isoclient/internal/geometry"
)

// Sprite is a frame of a shared Bitmap placed at an anchor.
//
// Frame is in logical pixels of the source; Resolution is the source's
// device-pixel-ratio, so a 2x texture has Resolution 2 and a bitmap twice
// the logical size.
type Sprite struct {
	Bitmap     *Bitmap
	Frame      image.Rectangle
	Anchor     geometry.Point
	Resolution float64
}

// Bounds is the sprite's box in its local space (origin at the anchor).
func (s Sprite) Bounds() geometry.Rect {
	w, h := float64(s.Frame.Dx()), float64(s.Frame.Dy())
	return geometry.RectFromSize(-w*s.Anchor.X, -h*s.Anchor.Y, w, h)
}

// Contains reports whether the local point falls on an opaque pixel.
func (s Sprite) Contains(local geometry.Point) bool {
	if s.Bitmap == nil || !s.Bounds().Contains(local) {
		return false
	}
	res := s.Resolution
	if res <= 0 {
		res = 1
	}
	w, h := float64(s.Frame.Dx()), float64(s.Frame.Dy())
	tx := int(math.Floor((local.X + w*s.Anchor.X + float64(s.Frame.Min.X)) * res))
	ty := int(math.Floor((local.Y + h*s.Anchor.Y + float64(s.Frame.Min.Y)) * res))
	return s.Bitmap.At(tx, ty)
}
