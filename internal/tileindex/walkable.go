package tileindex

import (
	"isoclient/internal/geometry"
	"isoclient/internal/world"
)

// WalkOptions narrows a walkable pick.
type WalkOptions struct {
	// OnlyTopTile considers only the topmost tile under the point.
	OnlyTopTile bool
	// OnlyCurrentLayer ignores tiles that are not on the caller's layer.
	OnlyCurrentLayer bool
	// Skip excludes tiles by index, e.g. tiles currently drawn see-through
	// above the occupant.
	Skip func(index int) bool
}

// WalkableTileAt returns the tile a character standing at p would stand
// on. Tiles are probed topmost first against their walkable overlay; the
// topmost tile is accepted on a hit, lower tiles only when nothing is
// stacked on top of them.
func (idx *Index) WalkableTileAt(p geometry.Point, layer int, opts WalkOptions) (world.Tile, bool) {
	hits := idx.TilesAt(p)
	if opts.OnlyTopTile && len(hits) > 1 {
		hits = hits[:1]
	}

	for i, ti := range hits {
		t := idx.tiles[ti]
		if opts.OnlyCurrentLayer && t.Layer != layer {
			continue
		}
		if opts.Skip != nil && opts.Skip(ti) {
			continue
		}
		if idx.walkable == nil || !idx.walkable.Contains(t.SpriteID, p.Sub(t.Position)) {
			continue
		}
		if i == 0 || !idx.HasTileAbove(t) {
			return t, true
		}
	}
	return world.Tile{}, false
}

// TileUnder returns the tile a character on layer is standing on at p:
// the topmost walkable tile at most one layer above it.
func (idx *Index) TileUnder(p geometry.Point, layer int) (world.Tile, bool) {
	for _, ti := range idx.TilesAt(p) {
		t := idx.tiles[ti]
		if t.Walkable && t.Layer-layer <= 1 {
			return t, true
		}
	}
	return world.Tile{}, false
}
