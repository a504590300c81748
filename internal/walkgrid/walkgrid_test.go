package walkgrid

import (
	"context"
	"math"
	"testing"

	"isoclient/internal/geometry"
	"isoclient/internal/threading/core"
	"isoclient/internal/tileindex"
	"isoclient/internal/world"
)

var proj = geometry.NewProjection(32, 32)

// topFace hits the upper diamond of a 32x32 isometric tile sprite.
var topFace = tileindex.SpriteTesterFunc(func(_ int, local geometry.Point) bool {
	return math.Abs(local.X-16)/16+math.Abs(local.Y-8)/8 < 1
})

type tileSpec struct {
	layer, col, row int
	walkable        bool
}

func buildIndex(specs ...tileSpec) *tileindex.Index {
	tiles := make([]world.Tile, 0, len(specs))
	for i, s := range specs {
		cell := geometry.Cell{X: s.col, Y: s.row}
		tiles = append(tiles, world.Tile{
			Index:    i,
			Cell:     cell,
			Position: proj.ToIsometric(cell),
			Layer:    s.layer,
			SpriteID: 1,
			Walkable: s.walkable,
		})
	}
	return tileindex.New(tiles, proj, tileindex.Options{Opaque: topFace})
}

func ground(walkable ...bool) []tileSpec {
	specs := []tileSpec{}
	for i, w := range walkable {
		specs = append(specs, tileSpec{0, i % 2, i / 2, w})
	}
	return specs
}

func mustBuild(t *testing.T, pool *core.WorkerPool, idx *tileindex.Index, layer int) *Grid {
	t.Helper()
	g, err := Build(context.Background(), pool, idx, proj, Params{Width: 2, Height: 2, Scale: 3, Layer: layer})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

func TestBuildOpenMap(t *testing.T) {
	g := mustBuild(t, nil, buildIndex(ground(true, true, true, true)...), 0)

	if g.Width != 6 || g.Height != 6 {
		t.Fatalf("Expected 6x6 grid, got %dx%d", g.Width, g.Height)
	}
	if g.Count() != 36 {
		t.Errorf("Expected every sub-cell walkable, got\n%s", g)
	}
}

func TestBuildBlocksUnwalkableAndMissingTiles(t *testing.T) {
	specs := ground(true, false, true)
	g := mustBuild(t, nil, buildIndex(specs...), 0)

	if g.Count() != 18 {
		t.Errorf("Expected two walkable tiles worth of cells, got\n%s", g)
	}
	for y := 0; y < 3; y++ {
		for x := 3; x < 6; x++ {
			if g.Walkable(x, y) {
				t.Errorf("Cell (%d,%d) belongs to an unwalkable tile", x, y)
			}
		}
	}
	if g.Walkable(4, 4) {
		t.Errorf("Cell (4,4) has no tile and must be blocked")
	}
}

func TestBuildRestrictsToLayer(t *testing.T) {
	idx := buildIndex(ground(true, true, true, true)...)
	if g := mustBuild(t, nil, idx, 1); g.Count() != 0 {
		t.Errorf("Expected no walkable cells on an empty layer, got\n%s", g)
	}
}

func TestBuildBlocksCoveredTiles(t *testing.T) {
	specs := append(ground(true, true, true, true), tileSpec{1, 0, 0, true})
	g := mustBuild(t, nil, buildIndex(specs...), 0)

	if g.Count() != 27 {
		t.Errorf("Expected the covered tile's cells blocked, got\n%s", g)
	}
	if g.Walkable(4, 4) {
		t.Errorf("Tile (1,1) is under a layer 1 tile and must be blocked")
	}
}

func TestBuildParallelMatchesSequential(t *testing.T) {
	pool := core.NewWorkerPool(4)
	pool.Start()
	defer pool.Stop()

	idx := buildIndex(append(ground(true, false, true, true), tileSpec{1, 0, 0, true})...)
	seq := mustBuild(t, nil, idx, 0)
	par := mustBuild(t, pool, idx, 0)

	if seq.String() != par.String() {
		t.Errorf("Parallel build differs:\n%s\nvs\n%s", seq, par)
	}
}

func TestBuildRejectsBadScaleAndCancel(t *testing.T) {
	idx := buildIndex(ground(true)...)
	if _, err := Build(context.Background(), nil, idx, proj, Params{Width: 1, Height: 1}); err == nil {
		t.Errorf("Expected an error for scale 0")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, nil, idx, proj, Params{Width: 1, Height: 1, Scale: 3}); err == nil {
		t.Errorf("Expected an error for a cancelled build")
	}
}

func TestGridBounds(t *testing.T) {
	g := New(2, 2)
	g.SetWalkable(1, 1, true)
	g.SetWalkable(5, 5, true)

	if !g.Walkable(1, 1) || g.Count() != 1 {
		t.Errorf("Expected exactly (1,1) walkable")
	}
	for _, c := range []geometry.Cell{{X: -1, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 2}} {
		if g.WalkableCell(c) {
			t.Errorf("Out-of-range cell %v must be blocked", c)
		}
	}

	clone := g.Clone()
	clone.SetWalkable(0, 0, true)
	if g.Walkable(0, 0) {
		t.Errorf("Clone must not share cells")
	}

	var missing *Grid
	if missing.Walkable(0, 0) {
		t.Errorf("Nil grid must be blocked")
	}
}
