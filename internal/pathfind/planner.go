package pathfind

import (
	"fmt"

	"isoclient/internal/geometry"
	"isoclient/internal/walkgrid"
)

// Planner routes between world points over a walk grid that shares the
// map's isometric projection at a finer ratio.
type Planner struct {
	grid     Grid
	gridProj geometry.Projection
	finder   Finder
}

// NewPlanner returns a planner for a grid built from tiles placed with
// proj at scale grid cells per tile.
func NewPlanner(grid Grid, proj geometry.Projection, scale int) *Planner {
	return &Planner{
		grid:     grid,
		gridProj: walkgrid.Projection(proj, scale),
	}
}

// SetGrid swaps the searched grid, e.g. after the occupant changed layer.
func (p *Planner) SetGrid(grid Grid) {
	p.grid = grid
}

// Grid returns the searched grid.
func (p *Planner) Grid() Grid {
	return p.grid
}

// CellAt returns the grid cell containing a world point.
func (p *Planner) CellAt(w geometry.Point) geometry.Cell {
	return p.gridProj.ToCartesian(w)
}

// Center returns the world point at the center of a grid cell.
func (p *Planner) Center(c geometry.Cell) geometry.Point {
	return walkgrid.CellCenter(p.gridProj, c)
}

// Route returns world waypoints from one point to another. Intermediate
// waypoints are grid cell centers; the last waypoint is exactly to. The
// route is empty only when from and to are the same point.
func (p *Planner) Route(from, to geometry.Point) ([]geometry.Point, error) {
	if from == to {
		return []geometry.Point{}, nil
	}
	start, goal := p.CellAt(from), p.CellAt(to)
	cells, err := p.finder.Find(start, goal, p.grid)
	if err != nil {
		return nil, fmt.Errorf("route %s -> %s: %w", start, goal, err)
	}
	if len(cells) == 0 {
		return []geometry.Point{to}, nil
	}

	waypoints := make([]geometry.Point, len(cells))
	for i, c := range cells {
		waypoints[i] = p.Center(c)
	}
	waypoints[len(waypoints)-1] = to
	return waypoints, nil
}
