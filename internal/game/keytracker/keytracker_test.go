package keytracker

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestObserveRisingEdge(t *testing.T) {
	var tr Tracker

	steps := []struct {
		key     ebiten.Key
		pressed bool
		want    bool
	}{
		{ebiten.KeyF3, false, false},
		{ebiten.KeyF3, true, true},
		{ebiten.KeyF3, true, false},
		{ebiten.KeyG, true, true},
		{ebiten.KeyF3, false, false},
		{ebiten.KeyF3, true, true},
	}
	for i, s := range steps {
		if got := tr.Observe(s.key, s.pressed); got != s.want {
			t.Errorf("step %d: Observe(%v, %v) = %v, want %v", i, s.key, s.pressed, got, s.want)
		}
	}
}
