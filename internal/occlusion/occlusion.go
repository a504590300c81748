// Package occlusion decides which tiles are drawn normally and which are
// drawn see-through because they stand between the camera and the
// occupant. Tiles live in an arena of (layer, depth layer) buckets; a
// recompute only rewrites each tile's membership.
package occlusion

import (
	"math"
	"sort"
	"time"

	"isoclient/internal/geometry"
	"isoclient/internal/world"
)

// Membership is the render set a tile belongs to.
type Membership uint8

const (
	Behind Membership = iota // drawn opaque, under entities of later buckets
	Above                    // drawn in the translucent group over the occupant
)

func (m Membership) String() string {
	if m == Above {
		return "above"
	}
	return "behind"
}

// BucketKey identifies a draw-order bucket.
type BucketKey struct {
	Layer      int
	DepthLayer int
}

// Occupant is the entity occlusion is computed for.
type Occupant struct {
	Position   geometry.Point
	Layer      int
	DepthLayer int
}

// Config tunes classification.
type Config struct {
	Interval   time.Duration // minimum time between recomputes
	Window     float64       // half-size in pixels of the box around the occupant
	TileWidth  float64
	TileHeight float64
}

// Layer holds bucket membership for a fixed tile list. It is owned by the
// simulation loop and not safe for concurrent use.
type Layer struct {
	cfg        Config
	tiles      []world.Tile
	keys       []BucketKey
	buckets    map[BucketKey][]int
	membership []Membership
	behind     []int
	above      []int
	last       time.Time
	computed   bool
}

// New buckets tiles. Every tile starts Behind.
func New(tiles []world.Tile, cfg Config) *Layer {
	l := &Layer{
		cfg:        cfg,
		tiles:      tiles,
		buckets:    make(map[BucketKey][]int),
		membership: make([]Membership, len(tiles)),
	}
	for i, t := range tiles {
		key := BucketKey{Layer: t.Layer, DepthLayer: t.DepthLayer()}
		if _, ok := l.buckets[key]; !ok {
			l.keys = append(l.keys, key)
		}
		l.buckets[key] = append(l.buckets[key], i)
	}
	sort.Slice(l.keys, func(a, b int) bool {
		ka, kb := l.keys[a], l.keys[b]
		if ka.DepthLayer != kb.DepthLayer {
			return ka.DepthLayer < kb.DepthLayer
		}
		return ka.Layer < kb.Layer
	})
	l.collect()
	return l
}

// Update recomputes membership when the refresh interval has elapsed since
// the last recompute and reports whether it did. The first call always
// recomputes.
func (l *Layer) Update(now time.Time, occ *Occupant) bool {
	if l.computed && now.Sub(l.last) < l.cfg.Interval {
		return false
	}
	l.Recompute(occ)
	l.last = now
	return true
}

// Invalidate forces the next Update to recompute.
func (l *Layer) Invalidate() {
	l.computed = false
}

// Recompute classifies every tile against occ. A nil occupant puts every
// tile Behind.
func (l *Layer) Recompute(occ *Occupant) {
	for i, t := range l.tiles {
		l.membership[i] = l.classify(t, occ)
	}
	l.computed = true
	l.collect()
}

func (l *Layer) classify(t world.Tile, occ *Occupant) Membership {
	if occ == nil {
		return Behind
	}
	if t.Layer <= occ.Layer || t.DepthLayer() < occ.DepthLayer {
		return Behind
	}
	anchor := t.Position.Add(geometry.Pt(l.cfg.TileWidth/2, 2*l.cfg.TileHeight))
	if math.Abs(anchor.X-occ.Position.X) < l.cfg.Window && math.Abs(anchor.Y-occ.Position.Y) < l.cfg.Window {
		return Above
	}
	return Behind
}

func (l *Layer) collect() {
	l.behind = l.behind[:0]
	l.above = l.above[:0]
	for _, key := range l.keys {
		for _, i := range l.buckets[key] {
			if l.membership[i] == Above {
				l.above = append(l.above, i)
			} else {
				l.behind = append(l.behind, i)
			}
		}
	}
}

// Membership returns the render set of tile i.
func (l *Layer) Membership(i int) Membership {
	if i < 0 || i >= len(l.membership) {
		return Behind
	}
	return l.membership[i]
}

// IsAbove reports whether tile i is currently drawn over the occupant.
func (l *Layer) IsAbove(i int) bool {
	return l.Membership(i) == Above
}

// Behind returns the opaque tiles in draw order. The slice is reused by
// the next recompute.
func (l *Layer) Behind() []int {
	return l.behind
}

// Above returns the see-through tiles in draw order. The slice is reused
// by the next recompute.
func (l *Layer) Above() []int {
	return l.above
}

// Keys returns the bucket keys in draw order.
func (l *Layer) Keys() []BucketKey {
	return l.keys
}

// Bucket returns the tiles of a bucket.
func (l *Layer) Bucket(key BucketKey) []int {
	return l.buckets[key]
}
