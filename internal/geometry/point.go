// Package geometry holds the coordinate types shared by the engine and the
// cartesian <-> isometric projection between tile space and world space.
//
// Three spaces use these types: screen (pixels from the viewport origin),
// world (pixels from the map origin) and tile (integer grid cells).
// Conversions between them are always explicit.
package geometry

import (
	"fmt"
	"math"

	"isoclient/internal/mathutil"
)

// Point is a position in screen or world space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Cell is an integer cartesian grid position (column, row).
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Len returns the Euclidean length of p as a vector.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Floor truncates both components toward negative infinity.
func (p Point) Floor() Point {
	return Point{X: math.Floor(p.X), Y: math.Floor(p.Y)}
}

// RoundTo rounds both components to the nearest multiple of step.
func (p Point) RoundTo(step float64) Point {
	return Point{X: mathutil.RoundTo(p.X, step), Y: mathutil.RoundTo(p.Y, step)}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return b.Sub(a).Len()
}

func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

// Point converts the cell to fractional tile coordinates.
func (c Cell) Point() Point {
	return Point{X: float64(c.X), Y: float64(c.Y)}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Chebyshev returns the king-move distance between two cells.
func Chebyshev(a, b Cell) int {
	return max(mathutil.IntAbs(a.X-b.X), mathutil.IntAbs(a.Y-b.Y))
}
