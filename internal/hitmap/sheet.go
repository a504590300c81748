package hitmap

import (
	"image"

	"isoclient/internal/geometry"
)

// Sheet cuts a grid-aligned tileset image into sprites. Sprite ids are
// 1-based like Tiled gids; id 0 means "no tile".
type Sheet struct {
	Bitmap     *Bitmap
	Columns    int
	TileWidth  int
	TileHeight int
	Count      int
	Resolution float64
	Anchor     geometry.Point
}

// Frame returns the source rectangle of a sprite id.
func (s *Sheet) Frame(spriteID int) (image.Rectangle, bool) {
	if s == nil || s.Columns <= 0 || spriteID < 1 || (s.Count > 0 && spriteID > s.Count) {
		return image.Rectangle{}, false
	}
	i := spriteID - 1
	x := (i % s.Columns) * s.TileWidth
	y := (i / s.Columns) * s.TileHeight
	return image.Rect(x, y, x+s.TileWidth, y+s.TileHeight), true
}

// Sprite returns the hit-testable sprite for an id.
func (s *Sheet) Sprite(spriteID int) (Sprite, bool) {
	frame, ok := s.Frame(spriteID)
	if !ok {
		return Sprite{}, false
	}
	return Sprite{
		Bitmap:     s.Bitmap,
		Frame:      frame,
		Anchor:     s.Anchor,
		Resolution: s.Resolution,
	}, true
}

// Contains tests a point in the sprite's local space. Unknown ids and a
// sheet without a bitmap never contain anything.
func (s *Sheet) Contains(spriteID int, local geometry.Point) bool {
	sprite, ok := s.Sprite(spriteID)
	if !ok {
		return false
	}
	return sprite.Contains(local)
}
