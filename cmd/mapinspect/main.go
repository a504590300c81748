// Command mapinspect loads a map the way the client does and prints its
// tile legend and the walk grid of every layer, for checking walkable
// flags and stacking without starting a window.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"isoclient/internal/config"
	"isoclient/internal/hitmap"
	"isoclient/internal/logger"
	"isoclient/internal/tileindex"
	"isoclient/internal/walkgrid"
	"isoclient/internal/world"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "client configuration")
	showGrid := flag.Bool("grid", false, "print every walk grid cell")
	flag.Parse()

	ensureRuntimeCWD(*cfgPath)

	cfg := config.MustLoadConfig(*cfgPath)
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	types, err := world.LoadTileTypes(cfg.Assets.TileTypes)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to load tile types")
		types = world.NewTileTypes()
	}
	w, err := world.Load(cfg.Assets.MapFile, cfg.Assets.TilesetFile, types)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load map")
	}

	cache := hitmap.NewCache(cfg.GetAlphaThreshold())
	sheet := w.Tileset.Sheet(cache.Get(cfg.Assets.TilesetImage, cfg.Assets.TilesetImage), cfg.GetDevicePixelRatio())
	idx := tileindex.New(w.Tiles, w.Projection, tileindex.Options{Radius: cfg.Picking.SearchRadius, Opaque: sheet})

	out := os.Stdout
	for _, line := range legendLines(w, types) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	for layer := 0; layer < max(w.Layers, 1); layer++ {
		g, err := walkgrid.Build(context.Background(), nil, idx, w.Projection, walkgrid.Params{
			Width:  w.Width,
			Height: w.Height,
			Scale:  cfg.World.PathGridScale,
			Layer:  layer,
		})
		if err != nil {
			logger.Log.WithError(err).WithField("layer", layer).Fatal("Failed to build walk grid")
		}
		printLayer(out, w, layer, g, *showGrid)
	}
}

// legendLines lists every sprite id of the tileset with its tile type.
func legendLines(w *world.World, types *world.TileTypes) []string {
	counts := make(map[int]int)
	for _, t := range w.Tiles {
		counts[t.SpriteID]++
	}
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	lines := []string{
		"Sprites (id -> type/name, walkable, count)",
		"------------------------------------------",
	}
	for _, id := range ids {
		key, tt, ok := types.Lookup(id)
		name := "untyped"
		if ok {
			name = fmt.Sprintf("%s (%s)", key, tt.Name)
		}
		walkable := "tileset"
		if ok && tt.Walkable != nil {
			walkable = fmt.Sprintf("%v", *tt.Walkable)
		}
		lines = append(lines, fmt.Sprintf("%3d -> %s, walkable: %s, %d tiles", id, name, walkable, counts[id]))
	}
	return lines
}

func printLayer(out io.Writer, w *world.World, layer int, g *walkgrid.Grid, showGrid bool) {
	tiles := 0
	for _, t := range w.Tiles {
		if t.Layer == layer {
			tiles++
		}
	}
	fmt.Fprintf(out, "Layer %d: %d tiles, %dx%d grid, %d walkable cells\n", layer, tiles, g.Width, g.Height, g.Count())
	if showGrid {
		fmt.Fprintln(out, strings.TrimRight(g.String(), "\n"))
	}
}

// ensureRuntimeCWD moves to the executable's directory when the config is
// not reachable from the current one.
func ensureRuntimeCWD(cfgPath string) {
	if _, err := os.Stat(cfgPath); err == nil {
		return
	}
	exe, err := os.Executable()
	if err != nil {
		return
	}
	_ = os.Chdir(filepath.Dir(exe))
}
