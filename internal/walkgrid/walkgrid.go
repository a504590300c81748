// Package walkgrid derives the boolean walkability grid the path search
// runs on. The grid may be finer than the tile grid: every tile spans
// Scale x Scale grid cells.
package walkgrid

import (
	"context"
	"fmt"
	"strings"

	"isoclient/internal/geometry"
	"isoclient/internal/threading/core"
	"isoclient/internal/tileindex"
)

// Grid is a row-major walkability grid. Cells outside the grid are never
// walkable.
type Grid struct {
	Width  int
	Height int
	cells  []bool
}

// New returns a fully blocked grid.
func New(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{Width: width, Height: height, cells: make([]bool, width*height)}
}

// Walkable reports whether (x, y) can be stepped on.
func (g *Grid) Walkable(x, y int) bool {
	if g == nil || x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return false
	}
	return g.cells[y*g.Width+x]
}

// Size returns the grid dimensions.
func (g *Grid) Size() (int, int) {
	if g == nil {
		return 0, 0
	}
	return g.Width, g.Height
}

// WalkableCell is Walkable for a cell value.
func (g *Grid) WalkableCell(c geometry.Cell) bool {
	return g.Walkable(c.X, c.Y)
}

// SetWalkable updates one cell. Out-of-range writes are ignored.
func (g *Grid) SetWalkable(x, y int, walkable bool) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return
	}
	g.cells[y*g.Width+x] = walkable
}

// Count returns the number of walkable cells.
func (g *Grid) Count() int {
	n := 0
	for _, c := range g.cells {
		if c {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	out := New(g.Width, g.Height)
	copy(out.cells, g.cells)
	return out
}

// String renders the grid with '.' for walkable and '#' for blocked cells.
func (g *Grid) String() string {
	var b strings.Builder
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Walkable(x, y) {
				b.WriteByte('.')
			} else {
				b.WriteByte('#')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Params sizes a grid build.
type Params struct {
	Width  int // map width in tiles
	Height int // map height in tiles
	Scale  int // grid cells per tile along each axis
	Layer  int // only tiles on this layer count
}

// Projection returns the projection that maps grid cells of a grid built
// with scale onto world points placed by proj.
func Projection(proj geometry.Projection, scale int) geometry.Projection {
	if scale < 1 {
		scale = 1
	}
	return proj.WithRatio(1 / float64(scale)).WithoutOffset()
}

// CellCenter returns the world point at the center of a grid cell.
func CellCenter(gridProj geometry.Projection, c geometry.Cell) geometry.Point {
	return gridProj.ToIsometricPoint(geometry.Pt(float64(c.X)+0.5, float64(c.Y)+0.5))
}

// Build samples the center of every grid cell and marks it walkable when
// the walkable tile under it is on p.Layer, is flagged walkable and has
// nothing stacked on top. Rows are sampled in parallel on pool when it is
// non-nil; idx is only read.
func Build(ctx context.Context, pool *core.WorkerPool, idx *tileindex.Index, proj geometry.Projection, p Params) (*Grid, error) {
	if p.Scale < 1 {
		return nil, fmt.Errorf("invalid grid scale %d", p.Scale)
	}
	g := New(p.Width*p.Scale, p.Height*p.Scale)
	gridProj := Projection(proj, p.Scale)

	row := func(y int) {
		for x := 0; x < g.Width; x++ {
			point := CellCenter(gridProj, geometry.Cell{X: x, Y: y})
			tile, ok := idx.WalkableTileAt(point, p.Layer, tileindex.WalkOptions{OnlyCurrentLayer: true})
			g.cells[y*g.Width+x] = ok && tile.Walkable && !idx.HasTileAbove(tile)
		}
	}

	if pool == nil {
		for y := 0; y < g.Height; y++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			row(y)
		}
		return g, nil
	}

	if err := pool.ParallelForWithContext(ctx, 0, g.Height, row); err != nil {
		return nil, fmt.Errorf("walk grid build interrupted: %w", err)
	}
	return g, nil
}
