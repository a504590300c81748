package game

import (
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"isoclient/internal/engine"
	"isoclient/internal/geometry"
	"isoclient/internal/graphics"
	"isoclient/internal/motion"
	"isoclient/internal/occlusion"
	"isoclient/internal/walkgrid"
)

const markerSize = 8

var (
	localColor  = color.RGBA{240, 200, 40, 255}
	remoteColor = color.RGBA{60, 160, 240, 255}
	gridColor   = color.RGBA{80, 220, 80, 160}
)

// drawItem is one step of the painter's pass: a tile bucket, or an entity
// when Entity is set.
type drawItem struct {
	Key    occlusion.BucketKey
	Entity *motion.Entity
}

func keyLess(a, b occlusion.BucketKey) bool {
	if a.DepthLayer != b.DepthLayer {
		return a.DepthLayer < b.DepthLayer
	}
	return a.Layer < b.Layer
}

// interleave merges entities into the bucket sequence. An entity is drawn
// right after the bucket sharing its key, or where that bucket would be.
func interleave(keys []occlusion.BucketKey, entities []*motion.Entity, depth func(*motion.Entity) int) []drawItem {
	type keyed struct {
		key occlusion.BucketKey
		e   *motion.Entity
	}
	ents := make([]keyed, len(entities))
	for i, e := range entities {
		ents[i] = keyed{key: occlusion.BucketKey{Layer: e.Layer, DepthLayer: depth(e)}, e: e}
	}
	sort.SliceStable(ents, func(i, j int) bool {
		return keyLess(ents[i].key, ents[j].key)
	})

	out := make([]drawItem, 0, len(keys)+len(ents))
	k, n := 0, 0
	for k < len(keys) || n < len(ents) {
		if n == len(ents) || (k < len(keys) && !keyLess(ents[n].key, keys[k])) {
			out = append(out, drawItem{Key: keys[k]})
			k++
			continue
		}
		out = append(out, drawItem{Key: ents[n].key, Entity: ents[n].e})
		n++
	}
	return out
}

// Renderer paints the session: opaque tiles and entities in depth order,
// then the see-through group on top.
type Renderer struct {
	session *engine.Session
	sheet   *graphics.SpriteSheet
	camera  *Camera
	alpha   float32

	above   *ebiten.Image
	markers map[bool]*ebiten.Image
}

// NewRenderer creates a renderer drawing the above-occupant group at alpha.
func NewRenderer(session *engine.Session, sheet *graphics.SpriteSheet, camera *Camera, alpha float64) *Renderer {
	return &Renderer{
		session: session,
		sheet:   sheet,
		camera:  camera,
		alpha:   float32(alpha),
		markers: make(map[bool]*ebiten.Image),
	}
}

// Draw renders one frame.
func (r *Renderer) Draw(screen *ebiten.Image) {
	occ := r.session.Occlusion()
	order := interleave(occ.Keys(), r.session.Entities(), r.session.DepthLayer)

	for _, item := range order {
		if item.Entity != nil {
			r.drawEntity(screen, item.Entity)
			continue
		}
		for _, i := range occ.Bucket(item.Key) {
			if !occ.IsAbove(i) {
				r.drawTile(screen, i)
			}
		}
	}

	above := occ.Above()
	if len(above) == 0 {
		return
	}
	r.ensureAbove(screen)
	r.above.Clear()
	for _, i := range above {
		r.drawTile(r.above, i)
	}
	op := &ebiten.DrawImageOptions{}
	op.ColorScale.ScaleAlpha(r.alpha)
	screen.DrawImage(r.above, op)
}

func (r *Renderer) ensureAbove(screen *ebiten.Image) {
	b := screen.Bounds()
	if r.above != nil && r.above.Bounds().Eq(b) {
		return
	}
	if r.above != nil {
		r.above.Deallocate()
	}
	r.above = ebiten.NewImage(b.Dx(), b.Dy())
}

func (r *Renderer) drawTile(dst *ebiten.Image, i int) {
	tile := r.session.Index().Tile(i)
	x, y := r.camera.WorldToScreen(tile.Position)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(x, y)
	dst.DrawImage(r.sheet.Sprite(tile.SpriteID), op)
}

func (r *Renderer) drawEntity(dst *ebiten.Image, e *motion.Entity) {
	marker, ok := r.markers[e.Local]
	if !ok {
		c := remoteColor
		if e.Local {
			c = localColor
		}
		marker = graphics.NewMarker(markerSize, c)
		r.markers[e.Local] = marker
	}
	x, y := r.camera.WorldToScreen(e.Position)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(x-markerSize/2, y-markerSize)
	dst.DrawImage(marker, op)
}

// DrawGrid marks every walkable cell of g at its world-space center.
func (r *Renderer) DrawGrid(screen *ebiten.Image, g *walkgrid.Grid, gridProj geometry.Projection) {
	if g == nil {
		return
	}
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if !g.Walkable(x, y) {
				continue
			}
			sx, sy := r.camera.WorldToScreen(walkgrid.CellCenter(gridProj, geometry.Cell{X: x, Y: y}))
			vector.DrawFilledRect(screen, float32(sx)-1, float32(sy)-1, 2, 2, gridColor, false)
		}
	}
}
