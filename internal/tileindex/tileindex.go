// Package tileindex finds the tiles under a world point. Tiles are bucketed
// by cell so a lookup only inspects the neighbourhood of the point, and
// each candidate is confirmed against its sprite's opacity.
package tileindex

import (
	"sort"

	"isoclient/internal/geometry"
	"isoclient/internal/world"
)

// DefaultRadius covers the neighbouring cells an isometric sprite overlaps.
const DefaultRadius = 1

// SpriteTester reports whether a point, relative to a sprite's top-left
// corner, lands on an opaque pixel of that sprite.
type SpriteTester interface {
	Contains(spriteID int, local geometry.Point) bool
}

// SpriteTesterFunc adapts a function to SpriteTester.
type SpriteTesterFunc func(spriteID int, local geometry.Point) bool

func (f SpriteTesterFunc) Contains(spriteID int, local geometry.Point) bool {
	return f(spriteID, local)
}

type layerCell struct {
	layer int
	cell  geometry.Cell
}

// Index is a read-only lookup structure over a fixed tile list. It is safe
// for concurrent readers.
type Index struct {
	tiles    []world.Tile
	lookup   geometry.Projection
	radius   int
	byCell   map[geometry.Cell][]int
	byLayer  map[layerCell]int
	opaque   SpriteTester
	walkable SpriteTester
}

// Options configures an Index.
type Options struct {
	Radius   int          // Chebyshev search radius, DefaultRadius when <= 0
	Opaque   SpriteTester // diffuse sprite hit test
	Walkable SpriteTester // walkable overlay hit test, falls back to Opaque
}

// New indexes tiles placed with proj.
func New(tiles []world.Tile, proj geometry.Projection, opts Options) *Index {
	idx := &Index{
		tiles:    tiles,
		lookup:   proj.WithoutOffset(),
		radius:   opts.Radius,
		byCell:   make(map[geometry.Cell][]int),
		byLayer:  make(map[layerCell]int, len(tiles)),
		opaque:   opts.Opaque,
		walkable: opts.Walkable,
	}
	if idx.radius <= 0 {
		idx.radius = DefaultRadius
	}
	if idx.walkable == nil {
		idx.walkable = idx.opaque
	}
	for i, t := range tiles {
		idx.byCell[t.Cell] = append(idx.byCell[t.Cell], i)
		idx.byLayer[layerCell{t.Layer, t.Cell}] = i
	}
	return idx
}

// Len returns the number of indexed tiles.
func (idx *Index) Len() int {
	return len(idx.tiles)
}

// Tile returns the tile at index i.
func (idx *Index) Tile(i int) world.Tile {
	return idx.tiles[i]
}

// Tiles returns the indexed tiles. Callers must not modify the slice.
func (idx *Index) Tiles() []world.Tile {
	return idx.tiles
}

// CellAt converts a world point to the cell whose diamond contains it.
func (idx *Index) CellAt(p geometry.Point) geometry.Cell {
	return idx.lookup.ToCartesian(p)
}

// Candidates returns the indices of tiles within the search radius of the
// cell under p, in no particular order.
func (idx *Index) Candidates(p geometry.Point) []int {
	center := idx.CellAt(p)
	var out []int
	for dy := -idx.radius; dy <= idx.radius; dy++ {
		for dx := -idx.radius; dx <= idx.radius; dx++ {
			out = append(out, idx.byCell[center.Add(geometry.Cell{X: dx, Y: dy})]...)
		}
	}
	return out
}

// TilesAt returns the indices of tiles whose sprite is opaque at p, the
// visually topmost first: higher layer, then higher depth layer, then the
// later tile. The result is empty when nothing is hit.
func (idx *Index) TilesAt(p geometry.Point) []int {
	hits := idx.filter(idx.Candidates(p), p, idx.opaque)
	sort.Slice(hits, func(a, b int) bool {
		ta, tb := idx.tiles[hits[a]], idx.tiles[hits[b]]
		if ta.Layer != tb.Layer {
			return ta.Layer > tb.Layer
		}
		if da, db := ta.DepthLayer(), tb.DepthLayer(); da != db {
			return da > db
		}
		return ta.Index > tb.Index
	})
	return hits
}

// TileAt returns the topmost tile under p.
func (idx *Index) TileAt(p geometry.Point) (world.Tile, bool) {
	hits := idx.TilesAt(p)
	if len(hits) == 0 {
		return world.Tile{}, false
	}
	return idx.tiles[hits[0]], true
}

// At returns the tile on layer at cell.
func (idx *Index) At(layer int, cell geometry.Cell) (world.Tile, bool) {
	i, ok := idx.byLayer[layerCell{layer, cell}]
	if !ok {
		return world.Tile{}, false
	}
	return idx.tiles[i], true
}

// HasTileAbove reports whether another tile is stacked directly on t.
func (idx *Index) HasTileAbove(t world.Tile) bool {
	_, ok := idx.byLayer[layerCell{t.Layer + 1, t.Below()}]
	return ok
}

func (idx *Index) filter(candidates []int, p geometry.Point, tester SpriteTester) []int {
	if tester == nil {
		return nil
	}
	hits := candidates[:0]
	for _, i := range candidates {
		t := idx.tiles[i]
		if tester.Contains(t.SpriteID, p.Sub(t.Position)) {
			hits = append(hits, i)
		}
	}
	return hits
}
