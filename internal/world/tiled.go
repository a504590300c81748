package world

import (
	"encoding/json"
	"fmt"
	"os"

	"isoclient/internal/hitmap"
)

// Tiled stores the flip flags in the top bits of a gid.
const gidMask = 0x1FFFFFFF

// Map is the subset of a Tiled JSON map the client reads.
type Map struct {
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	TileWidth   int          `json:"tilewidth"`
	TileHeight  int          `json:"tileheight"`
	Orientation string       `json:"orientation"`
	Layers      []MapLayer   `json:"layers"`
	Tilesets    []MapTileset `json:"tilesets"`
}

// MapLayer is a Tiled layer. Only "tilelayer" layers carry tiles.
type MapLayer struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Data    []int  `json:"data"`
	Visible bool   `json:"visible"`
}

// MapTileset references an external tileset.
type MapTileset struct {
	FirstGID int    `json:"firstgid"`
	Source   string `json:"source"`
}

// Tileset is a Tiled JSON tileset.
type Tileset struct {
	Name        string        `json:"name"`
	Image       string        `json:"image"`
	ImageWidth  int           `json:"imagewidth"`
	ImageHeight int           `json:"imageheight"`
	TileWidth   int           `json:"tilewidth"`
	TileHeight  int           `json:"tileheight"`
	Columns     int           `json:"columns"`
	TileCount   int           `json:"tilecount"`
	Tiles       []TilesetTile `json:"tiles"`
}

// TilesetTile carries per-tile metadata. ID is 0-based, so it describes
// sprite id ID+1.
type TilesetTile struct {
	ID         int        `json:"id"`
	Properties []Property `json:"properties"`
}

// Property is a typed Tiled custom property.
type Property struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Bool returns a bool property and whether it was present with that type.
func (t TilesetTile) Bool(name string) (bool, bool) {
	for _, p := range t.Properties {
		if p.Name != name {
			continue
		}
		v, ok := p.Value.(bool)
		return v, ok
	}
	return false, false
}

// TileLayers returns the tile layers in file order; their position in the
// result is the layer number of their tiles.
func (m *Map) TileLayers() []MapLayer {
	layers := make([]MapLayer, 0, len(m.Layers))
	for _, l := range m.Layers {
		if l.Type == "tilelayer" {
			layers = append(layers, l)
		}
	}
	return layers
}

// gidOffset converts map gids into tileset sprite ids.
func (m *Map) gidOffset() int {
	if len(m.Tilesets) == 0 || m.Tilesets[0].FirstGID <= 0 {
		return 0
	}
	return m.Tilesets[0].FirstGID - 1
}

// Meta returns the metadata of a 1-based sprite id.
func (ts *Tileset) Meta(spriteID int) (TilesetTile, bool) {
	if ts == nil {
		return TilesetTile{}, false
	}
	for _, t := range ts.Tiles {
		if t.ID+1 == spriteID {
			return t, true
		}
	}
	return TilesetTile{}, false
}

// Sheet lays the tileset's frames over bm for hit testing.
func (ts *Tileset) Sheet(bm *hitmap.Bitmap, resolution float64) *hitmap.Sheet {
	return &hitmap.Sheet{
		Bitmap:     bm,
		Columns:    ts.Columns,
		TileWidth:  ts.TileWidth,
		TileHeight: ts.TileHeight,
		Count:      ts.TileCount,
		Resolution: resolution,
	}
}

// LoadMap reads a Tiled JSON map.
func LoadMap(filename string) (*Map, error) {
	var m Map
	if err := readJSON(filename, &m); err != nil {
		return nil, err
	}
	for i, l := range m.Layers {
		if l.Type == "tilelayer" && len(l.Data) != l.Width*l.Height {
			return nil, fmt.Errorf("layer %d (%s): %d tiles for %dx%d", i, l.Name, len(l.Data), l.Width, l.Height)
		}
	}
	return &m, nil
}

// LoadTileset reads a Tiled JSON tileset.
func LoadTileset(filename string) (*Tileset, error) {
	var ts Tileset
	if err := readJSON(filename, &ts); err != nil {
		return nil, err
	}
	if ts.TileWidth <= 0 || ts.TileHeight <= 0 {
		return nil, fmt.Errorf("tileset %s has no tile size", filename)
	}
	if ts.Columns <= 0 && ts.ImageWidth > 0 {
		ts.Columns = ts.ImageWidth / ts.TileWidth
	}
	return &ts, nil
}

func readJSON(filename string, v any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return nil
}
