// Package world holds the immutable tile records of a loaded map and the
// loaders that produce them.
package world

import (
	"fmt"

	"isoclient/internal/geometry"
)

// Tile is one placed sprite of a map layer. Tiles never change after load.
type Tile struct {
	Index    int            // position in World.Tiles, used as the last pick tie-break
	Cell     geometry.Cell  // cartesian column/row
	Position geometry.Point // world position of the sprite's top-left corner
	Layer    int
	SpriteID int // 1-based tileset id, 0 never appears
	Walkable bool
	Type     string // tile-type key from the registry, empty if unregistered
}

// DepthLayer is the isometric draw-order key. Tiles further down the
// screen and on higher layers draw later.
func (t Tile) DepthLayer() int {
	return t.Cell.X + t.Cell.Y + 2*t.Layer
}

// Below returns the cell that a tile on the next layer must occupy to be
// stacked directly on top of t.
func (t Tile) Below() geometry.Cell {
	return geometry.Cell{X: t.Cell.X - 1, Y: t.Cell.Y - 1}
}

func (t Tile) String() string {
	return fmt.Sprintf("tile#%d[%s L%d sprite=%d]", t.Index, t.Cell, t.Layer, t.SpriteID)
}
