// Package pathfind searches walk grids with A* and turns grid routes into
// world-space waypoints.
package pathfind

import (
	"errors"
	"math"

	"isoclient/internal/geometry"
)

// ErrUnreachable is returned when no path connects start and goal.
var ErrUnreachable = errors.New("destination unreachable")

// Grid is the walkability source searched by Find.
type Grid interface {
	Walkable(x, y int) bool
	Size() (width, height int)
}

type step struct {
	dx, dy int
	cost   float64
}

// Orthogonal moves come first so they win ties against diagonals.
var steps = [...]step{
	{0, -1, 1}, {1, 0, 1}, {0, 1, 1}, {-1, 0, 1},
	{1, -1, math.Sqrt2}, {1, 1, math.Sqrt2}, {-1, 1, math.Sqrt2}, {-1, -1, math.Sqrt2},
}

// octile is the exact cost of an unobstructed 8-way walk.
func octile(a, b geometry.Cell) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	return math.Max(dx, dy) + (math.Sqrt2-1)*math.Min(dx, dy)
}

type scratch struct {
	gScore   []float64
	cameFrom []int
	closed   []bool
	width    int
	heap     nodeHeap
	seq      int
}

func (s *scratch) prepare(width, height int) {
	size := width * height
	if cap(s.gScore) < size {
		s.gScore = make([]float64, size)
		s.cameFrom = make([]int, size)
		s.closed = make([]bool, size)
	} else {
		s.gScore = s.gScore[:size]
		s.cameFrom = s.cameFrom[:size]
		s.closed = s.closed[:size]
	}
	for i := 0; i < size; i++ {
		s.gScore[i] = math.Inf(1)
		s.cameFrom[i] = -1
		s.closed[i] = false
	}
	s.width = width
	s.seq = 0
	s.heap.reset()
}

func (s *scratch) push(idx int, g, f float64) {
	s.heap.push(openNode{idx: idx, g: g, f: f, seq: s.seq})
	s.seq++
}

func (s *scratch) index(c geometry.Cell) int {
	return c.Y*s.width + c.X
}

func (s *scratch) cell(idx int) geometry.Cell {
	return geometry.Cell{X: idx % s.width, Y: idx / s.width}
}

// Finder runs A* searches, reusing its buffers between calls. A Finder is
// not safe for concurrent use.
type Finder struct {
	s scratch
}

// Find returns the cells from start (exclusive) to goal (inclusive).
// Moves go in 8 directions; a diagonal is only taken when both orthogonal
// cells beside it are walkable. An empty path with a nil error means start
// and goal are the same cell.
func (f *Finder) Find(from, to geometry.Cell, grid Grid) ([]geometry.Cell, error) {
	if from == to {
		return []geometry.Cell{}, nil
	}
	width, height := grid.Size()
	inside := func(c geometry.Cell) bool {
		return c.X >= 0 && c.Y >= 0 && c.X < width && c.Y < height
	}
	if !inside(from) || !grid.Walkable(to.X, to.Y) {
		return nil, ErrUnreachable
	}

	s := &f.s
	s.prepare(width, height)

	start := s.index(from)
	goal := s.index(to)
	s.gScore[start] = 0
	s.push(start, 0, octile(from, to))

	for s.heap.len() > 0 {
		current, _ := s.heap.pop()
		if s.closed[current.idx] || current.g > s.gScore[current.idx] {
			continue
		}
		if current.idx == goal {
			return s.path(goal), nil
		}
		s.closed[current.idx] = true

		at := s.cell(current.idx)
		for _, st := range steps {
			next := geometry.Cell{X: at.X + st.dx, Y: at.Y + st.dy}
			if !inside(next) || !grid.Walkable(next.X, next.Y) {
				continue
			}
			if st.dx != 0 && st.dy != 0 &&
				(!grid.Walkable(at.X+st.dx, at.Y) || !grid.Walkable(at.X, at.Y+st.dy)) {
				continue
			}
			nidx := s.index(next)
			if s.closed[nidx] {
				continue
			}
			g := current.g + st.cost
			if g < s.gScore[nidx] {
				s.gScore[nidx] = g
				s.cameFrom[nidx] = current.idx
				s.push(nidx, g, g+octile(next, to))
			}
		}
	}
	return nil, ErrUnreachable
}

func (s *scratch) path(goal int) []geometry.Cell {
	var path []geometry.Cell
	for current := goal; s.cameFrom[current] >= 0; current = s.cameFrom[current] {
		path = append(path, s.cell(current))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Find runs a one-off search. See Finder.Find.
func Find(from, to geometry.Cell, grid Grid) ([]geometry.Cell, error) {
	var f Finder
	return f.Find(from, to, grid)
}
