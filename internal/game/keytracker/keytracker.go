// Package keytracker turns ebiten's level-triggered key state into
// edge-triggered toggles.
package keytracker

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Tracker remembers the previous state of every key it was asked about.
type Tracker struct {
	prev map[ebiten.Key]bool
}

// JustPressed reports whether key went down since the previous call for it.
func (t *Tracker) JustPressed(key ebiten.Key) bool {
	return t.Observe(key, ebiten.IsKeyPressed(key))
}

// Observe records pressed as key's current state and reports a rising edge.
func (t *Tracker) Observe(key ebiten.Key, pressed bool) bool {
	if t.prev == nil {
		t.prev = make(map[ebiten.Key]bool)
	}
	justPressed := pressed && !t.prev[key]
	t.prev[key] = pressed
	return justPressed
}
