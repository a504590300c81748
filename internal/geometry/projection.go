package geometry

import "isoclient/internal/mathutil"

// Projection converts between cartesian tile coordinates and isometric world
// coordinates for a tile of TileWidth x TileHeight pixels.
//
// A tile's diamond is TileWidth wide and TileHeight/2 tall. Ratio scales the
// tile size, which lets a finer grid (e.g. the pathfinding grid with
// Ratio = 1/scale) share the same projection. WithOffset shifts x left by half
// a (scaled) tile so the result is the top-left corner of the tile's sprite
// rather than the top vertex of its diamond.
type Projection struct {
	TileWidth  float64
	TileHeight float64
	Ratio      float64
	WithOffset bool
}

// NewProjection returns the sprite-placement projection for a tile size:
// ratio 1, offset enabled.
func NewProjection(tileWidth, tileHeight float64) Projection {
	return Projection{
		TileWidth:  tileWidth,
		TileHeight: tileHeight,
		Ratio:      1,
		WithOffset: true,
	}
}

// WithRatio returns a copy of p using the given ratio.
func (p Projection) WithRatio(ratio float64) Projection {
	p.Ratio = ratio
	return p
}

// WithoutOffset returns a copy of p that maps to and from diamond vertices.
func (p Projection) WithoutOffset() Projection {
	p.WithOffset = false
	return p
}

func (p Projection) ratio() float64 {
	if p.Ratio == 0 {
		return 1
	}
	return p.Ratio
}

// HalfWidth is half the scaled tile width.
func (p Projection) HalfWidth() float64 {
	return p.TileWidth * p.ratio() / 2
}

// QuarterHeight is a quarter of the scaled tile height, i.e. half the diamond height.
func (p Projection) QuarterHeight() float64 {
	return p.TileHeight * p.ratio() / 4
}

func (p Projection) offset() float64 {
	if !p.WithOffset {
		return 0
	}
	return p.HalfWidth()
}

// ToIsometric converts a tile cell to its world position.
func (p Projection) ToIsometric(c Cell) Point {
	return p.ToIsometricPoint(c.Point())
}

// ToIsometricPoint converts fractional tile coordinates to world space.
// Passing (col+0.5, row+0.5) yields the center of the cell's diamond when
// the offset is disabled.
func (p Projection) ToIsometricPoint(t Point) Point {
	halfW, quarterH := p.HalfWidth(), p.QuarterHeight()
	return Point{
		X: (t.X-t.Y)*halfW - p.offset(),
		Y: (t.X + t.Y) * quarterH,
	}
}

// ToCartesian converts a world point to the tile cell containing it. It is
// the exact inverse of ToIsometric for integer cells.
func (p Projection) ToCartesian(w Point) Cell {
	halfW, quarterH := p.HalfWidth(), p.QuarterHeight()
	diff := (w.X + p.offset()) / halfW // col - row
	sum := w.Y / quarterH              // col + row
	return Cell{
		X: mathutil.FloorStable((sum + diff) / 2),
		Y: mathutil.FloorStable((sum - diff) / 2),
	}
}
