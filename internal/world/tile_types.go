package world

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// TileType describes a family of tileset sprites. A nil Walkable leaves
// the tileset's own "walkable" property in charge.
type TileType struct {
	Name     string `yaml:"name"`
	Sprites  []int  `yaml:"sprites"`
	Walkable *bool  `yaml:"walkable"`
}

type tileTypesFile struct {
	Tiles map[string]TileType `yaml:"tiles"`
}

// TileTypes maps sprite ids to named tile types loaded from YAML.
type TileTypes struct {
	types    map[string]*TileType
	bySprite map[int]string
}

// NewTileTypes returns an empty registry.
func NewTileTypes() *TileTypes {
	return &TileTypes{
		types:    make(map[string]*TileType),
		bySprite: make(map[int]string),
	}
}

// LoadTileTypes reads a tile-type registry from a YAML file.
func LoadTileTypes(filename string) (*TileTypes, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read tile types file: %w", err)
	}
	return ParseTileTypes(data)
}

// ParseTileTypes builds a registry from YAML. A sprite id claimed by two
// types is an error.
func ParseTileTypes(data []byte) (*TileTypes, error) {
	var file tileTypesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tile types: %w", err)
	}

	tt := NewTileTypes()
	for _, key := range sortedKeys(file.Tiles) {
		if err := tt.Add(key, file.Tiles[key]); err != nil {
			return nil, err
		}
	}
	return tt, nil
}

// Add registers a tile type under key.
func (tt *TileTypes) Add(key string, t TileType) error {
	if _, exists := tt.types[key]; exists {
		return fmt.Errorf("duplicate tile type %q", key)
	}
	for _, id := range t.Sprites {
		if id < 1 {
			return fmt.Errorf("tile type %q: invalid sprite id %d", key, id)
		}
		if other, taken := tt.bySprite[id]; taken {
			return fmt.Errorf("sprite %d claimed by both %q and %q", id, other, key)
		}
	}

	copied := t
	tt.types[key] = &copied
	for _, id := range t.Sprites {
		tt.bySprite[id] = key
	}
	return nil
}

// Lookup returns the type key and data for a sprite id.
func (tt *TileTypes) Lookup(spriteID int) (string, *TileType, bool) {
	if tt == nil {
		return "", nil, false
	}
	key, ok := tt.bySprite[spriteID]
	if !ok {
		return "", nil, false
	}
	return key, tt.types[key], true
}

// Walkable resolves the walkable flag of a sprite, falling back to the
// tileset property when no registered type overrides it.
func (tt *TileTypes) Walkable(spriteID int, fallback bool) bool {
	_, t, ok := tt.Lookup(spriteID)
	if !ok || t.Walkable == nil {
		return fallback
	}
	return *t.Walkable
}

// Keys returns every registered type key in sorted order.
func (tt *TileTypes) Keys() []string {
	if tt == nil {
		return nil
	}
	keys := make([]string, 0, len(tt.types))
	for key := range tt.types {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(m map[string]TileType) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
