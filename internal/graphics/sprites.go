package graphics

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"isoclient/internal/hitmap"
)

// SpriteSheet slices a tileset image into per-id sub images. Frame math is
// shared with the hit maps so a sprite is drawn exactly where it is picked.
type SpriteSheet struct {
	image   *ebiten.Image
	layout  hitmap.Sheet
	sprites map[int]*ebiten.Image // sub images cached by sprite id
	missing *ebiten.Image
}

// NewSpriteSheet wraps an already decoded sheet image.
func NewSpriteSheet(img *ebiten.Image, layout hitmap.Sheet) *SpriteSheet {
	return &SpriteSheet{
		image:   img,
		layout:  layout,
		sprites: make(map[int]*ebiten.Image),
	}
}

// LoadSpriteSheet decodes the sheet image at path.
func LoadSpriteSheet(path string, layout hitmap.Sheet) (*SpriteSheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sprite sheet %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sprite sheet %s: %w", path, err)
	}
	return NewSpriteSheet(ebiten.NewImageFromImage(img), layout), nil
}

// Sprite returns the sub image of a sprite id, or a placeholder when the id
// is outside the sheet.
func (s *SpriteSheet) Sprite(spriteID int) *ebiten.Image {
	if sprite, exists := s.sprites[spriteID]; exists {
		return sprite
	}

	frame, ok := s.layout.Frame(spriteID)
	if !ok || s.image == nil || !frame.In(s.image.Bounds()) {
		return s.placeholder()
	}

	sprite := s.image.SubImage(frame).(*ebiten.Image)
	s.sprites[spriteID] = sprite
	return sprite
}

// Layout returns the frame geometry of the sheet.
func (s *SpriteSheet) Layout() hitmap.Sheet {
	return s.layout
}

// placeholder is a magenta tile so missing art is obvious on screen.
func (s *SpriteSheet) placeholder() *ebiten.Image {
	if s.missing == nil {
		w, h := max(s.layout.TileWidth, 1), max(s.layout.TileHeight, 1)
		s.missing = ebiten.NewImage(w, h)
		s.missing.Fill(color.RGBA{255, 0, 255, 255})
	}
	return s.missing
}

// NewMarker creates a filled square used for entities without art.
func NewMarker(size int, c color.Color) *ebiten.Image {
	img := ebiten.NewImage(size, size)
	img.Fill(c)
	return img
}
