package tileindex

import (
	"testing"

	"isoclient/internal/geometry"
	"isoclient/internal/world"
)

const (
	walkSprite  = 1 // opaque, walkable overlay everywhere
	solidSprite = 2 // opaque, no walkable overlay
)

var proj = geometry.NewProjection(32, 32)

func square(spriteID int, local geometry.Point) bool {
	return local.X >= 0 && local.X < 32 && local.Y >= 0 && local.Y < 32
}

var (
	opaque   = SpriteTesterFunc(square)
	walkable = SpriteTesterFunc(func(id int, local geometry.Point) bool {
		return id == walkSprite && square(id, local)
	})
)

func place(tiles []world.Tile, layer, col, row, sprite int) []world.Tile {
	cell := geometry.Cell{X: col, Y: row}
	return append(tiles, world.Tile{
		Index:    len(tiles),
		Cell:     cell,
		Position: proj.ToIsometric(cell),
		Layer:    layer,
		SpriteID: sprite,
		Walkable: sprite == walkSprite,
	})
}

// p sits on the sprites of (0,0) and (1,0) on layer 0 and of (-1,-1) on layer 1.
var p = geometry.Pt(4, 10)

func TestTilesAtOrdersTopmostFirst(t *testing.T) {
	var tiles []world.Tile
	tiles = place(tiles, 0, 0, 0, walkSprite)  // 0
	tiles = place(tiles, 0, 1, 0, solidSprite) // 1
	tiles = place(tiles, 1, -1, -1, walkSprite) // 2
	tiles = place(tiles, 0, 5, 5, walkSprite)  // 3, far away
	idx := New(tiles, proj, Options{Opaque: opaque, Walkable: walkable})

	got := idx.TilesAt(p)
	want := []int{2, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected tile %d, got %d", i, want[i], got[i])
		}
	}

	top, ok := idx.TileAt(p)
	if !ok || top.Index != 2 {
		t.Errorf("Expected topmost tile 2, got %v ok=%v", top, ok)
	}
}

func TestTilesAtTieBreaksOnInsertionOrder(t *testing.T) {
	var tiles []world.Tile
	tiles = place(tiles, 0, 0, 0, walkSprite)
	tiles = place(tiles, 0, 0, 0, solidSprite)
	idx := New(tiles, proj, Options{Opaque: opaque})

	got := idx.TilesAt(p)
	if len(got) != 2 || got[0] != 1 {
		t.Errorf("Expected the later tile first on equal keys, got %v", got)
	}
}

func TestTilesAtEmptyWhenNothingHit(t *testing.T) {
	var tiles []world.Tile
	tiles = place(tiles, 0, 0, 0, walkSprite)
	idx := New(tiles, proj, Options{Opaque: opaque})

	if got := idx.TilesAt(geometry.Pt(500, 500)); len(got) != 0 {
		t.Errorf("Expected no tiles far from the map, got %v", got)
	}
	if _, ok := idx.TileAt(geometry.Pt(500, 500)); ok {
		t.Errorf("Expected no topmost tile far from the map")
	}

	blind := New(tiles, proj, Options{})
	if got := blind.TilesAt(p); len(got) != 0 {
		t.Errorf("Without a hit tester nothing can be picked, got %v", got)
	}
}

func TestCandidatesStayWithinRadius(t *testing.T) {
	var tiles []world.Tile
	for row := 0; row < 6; row++ {
		for col := 0; col < 6; col++ {
			tiles = place(tiles, 0, col, row, walkSprite)
		}
	}
	idx := New(tiles, proj, Options{Opaque: opaque})

	center := proj.ToIsometric(geometry.Cell{X: 3, Y: 3}).Add(geometry.Pt(16, 8))
	if cell := idx.CellAt(center); cell != (geometry.Cell{X: 3, Y: 3}) {
		t.Fatalf("Expected diamond center to resolve to (3,3), got %v", cell)
	}

	candidates := idx.Candidates(center)
	if len(candidates) != 9 {
		t.Errorf("Expected 3x3 candidates, got %d", len(candidates))
	}
	for _, i := range candidates {
		if d := geometry.Chebyshev(tiles[i].Cell, geometry.Cell{X: 3, Y: 3}); d > DefaultRadius {
			t.Errorf("Candidate %v is %d cells away", tiles[i].Cell, d)
		}
	}
}

func TestHasTileAbove(t *testing.T) {
	var tiles []world.Tile
	tiles = place(tiles, 0, 2, 2, walkSprite)
	tiles = place(tiles, 1, 1, 1, walkSprite)
	tiles = place(tiles, 0, 3, 3, walkSprite)
	idx := New(tiles, proj, Options{Opaque: opaque})

	if !idx.HasTileAbove(tiles[0]) {
		t.Errorf("Expected (2,2) to be covered by the layer 1 tile at (1,1)")
	}
	if idx.HasTileAbove(tiles[2]) || idx.HasTileAbove(tiles[1]) {
		t.Errorf("Expected uncovered tiles to report nothing above")
	}
	if tile, ok := idx.At(1, geometry.Cell{X: 1, Y: 1}); !ok || tile.Index != 1 {
		t.Errorf("Expected layer lookup to find tile 1")
	}
}

func TestWalkableTileAt(t *testing.T) {
	build := func(upperSprite int) *Index {
		var tiles []world.Tile
		tiles = place(tiles, 0, 0, 0, walkSprite)
		tiles = place(tiles, 0, 1, 0, solidSprite)
		tiles = place(tiles, 1, -1, -1, upperSprite)
		return New(tiles, proj, Options{Opaque: opaque, Walkable: walkable})
	}

	tests := []struct {
		name   string
		upper  int
		layer  int
		opts   WalkOptions
		want   int
		wantOK bool
	}{
		{"topmost walkable tile wins", walkSprite, 0, WalkOptions{}, 2, true},
		{"covered ground is rejected", solidSprite, 0, WalkOptions{}, 0, false},
		{"current layer skips upper tile", walkSprite, 0, WalkOptions{OnlyCurrentLayer: true}, 0, false},
		{"current layer finds upper tile", walkSprite, 1, WalkOptions{OnlyCurrentLayer: true}, 2, true},
		{"skipped upper tile", walkSprite, 0, WalkOptions{Skip: func(i int) bool { return i == 2 }}, 0, false},
		{"only top tile", solidSprite, 0, WalkOptions{OnlyTopTile: true}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile, ok := build(tt.upper).WalkableTileAt(p, tt.layer, tt.opts)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v (%v)", tt.wantOK, ok, tile)
			}
			if ok && tile.Index != tt.want {
				t.Errorf("Expected tile %d, got %d", tt.want, tile.Index)
			}
		})
	}
}

func TestWalkableTileAtUncoveredLowerTile(t *testing.T) {
	var tiles []world.Tile
	tiles = place(tiles, 0, 0, 0, walkSprite)
	tiles = place(tiles, 0, 1, 0, solidSprite)
	idx := New(tiles, proj, Options{Opaque: opaque, Walkable: walkable})

	tile, ok := idx.WalkableTileAt(p, 0, WalkOptions{})
	if !ok || tile.Index != 0 {
		t.Errorf("Expected uncovered ground tile 0 below the solid tile, got %v ok=%v", tile, ok)
	}
}

func TestTileUnder(t *testing.T) {
	var tiles []world.Tile
	tiles = place(tiles, 0, 0, 0, walkSprite)    // 0
	tiles = place(tiles, 0, 1, 0, solidSprite)   // 1
	tiles = place(tiles, 2, -1, -1, walkSprite)  // 2, two layers up
	idx := New(tiles, proj, Options{Opaque: opaque, Walkable: walkable})

	tile, ok := idx.TileUnder(p, 0)
	if !ok || tile.Index != 0 {
		t.Errorf("Expected ground tile 0 from layer 0, got %v ok=%v", tile, ok)
	}

	tile, ok = idx.TileUnder(p, 1)
	if !ok || tile.Index != 2 {
		t.Errorf("Expected the layer 2 tile to be reachable from layer 1, got %v ok=%v", tile, ok)
	}
}
