package world

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"isoclient/internal/geometry"
	"isoclient/internal/logger"
)

// World is a loaded map: its tiles in layer order plus the projection
// used to place them.
type World struct {
	Width      int // in tiles
	Height     int
	Layers     int
	Projection geometry.Projection
	Tileset    *Tileset
	Tiles      []Tile
}

// Load reads a Tiled map and its tileset and builds the tile list.
func Load(mapFile, tilesetFile string, types *TileTypes) (*World, error) {
	m, err := LoadMap(mapFile)
	if err != nil {
		return nil, err
	}
	ts, err := LoadTileset(tilesetFile)
	if err != nil {
		return nil, err
	}
	w, err := New(m, ts, types)
	if err != nil {
		return nil, fmt.Errorf("failed to build world from %s: %w", mapFile, err)
	}

	logger.WithComponent("world").WithFields(logrus.Fields{
		"map":    mapFile,
		"width":  w.Width,
		"height": w.Height,
		"layers": w.Layers,
		"tiles":  len(w.Tiles),
	}).Info("Loaded world")
	return w, nil
}

// New builds tiles from a parsed map. The projection uses the tileset's
// tile size since that is the size of every sprite drawn.
func New(m *Map, ts *Tileset, types *TileTypes) (*World, error) {
	if m == nil || ts == nil {
		return nil, fmt.Errorf("map and tileset are required")
	}

	w := &World{
		Width:      m.Width,
		Height:     m.Height,
		Projection: geometry.NewProjection(float64(ts.TileWidth), float64(ts.TileHeight)),
		Tileset:    ts,
	}

	offset := m.gidOffset()
	for layer, l := range m.TileLayers() {
		if l.Width <= 0 || len(l.Data) == 0 {
			continue
		}
		w.Layers = layer + 1
		for i, gid := range l.Data {
			id := gid&gidMask - offset
			if gid == 0 || id <= 0 {
				continue
			}
			cell := geometry.Cell{X: i % l.Width, Y: i / l.Width}

			flagged := false
			if meta, ok := ts.Meta(id); ok {
				flagged, _ = meta.Bool("walkable")
			}
			key, _, _ := types.Lookup(id)

			w.Tiles = append(w.Tiles, Tile{
				Index:    len(w.Tiles),
				Cell:     cell,
				Position: w.Projection.ToIsometric(cell),
				Layer:    layer,
				SpriteID: id,
				Walkable: types.Walkable(id, flagged),
				Type:     key,
			})
		}
	}
	return w, nil
}

// TileSize returns the sprite size of every tile.
func (w *World) TileSize() (float64, float64) {
	return w.Projection.TileWidth, w.Projection.TileHeight
}

// CheckTileSize rejects a configured tile size that differs from the
// tileset's. A zero dimension accepts whatever the tileset uses.
func (w *World) CheckTileSize(width, height float64) error {
	tw, th := w.TileSize()
	if (width != 0 && width != tw) || (height != 0 && height != th) {
		return fmt.Errorf("configured tile size %vx%v does not match tileset %vx%v", width, height, tw, th)
	}
	return nil
}
