package motion

import (
	"testing"

	"isoclient/internal/geometry"
)

func TestTickWalksAndArrives(t *testing.T) {
	c := &Controller{Speed: 2, ReconcileThreshold: 20, SnapPrecision: 1}
	e := NewEntity("p1", geometry.Pt(0, 0), 0)
	c.SetPath(e, []geometry.Point{geometry.Pt(10, 0)})

	c.Tick(e, 1)
	if e.Position != geometry.Pt(2, 0) {
		t.Errorf("Expected (2,0) after one tick, got %v", e.Position)
	}
	if e.Heading != East {
		t.Errorf("Expected heading E, got %v", e.Heading)
	}
	if e.Animation != Walking {
		t.Errorf("Expected walking, got %v", e.Animation)
	}

	for i := 0; i < 4; i++ {
		c.Tick(e, 1)
	}
	if e.Position != geometry.Pt(10, 0) {
		t.Errorf("Expected exact arrival at (10,0), got %v", e.Position)
	}
	if e.Animation != Idle || e.Moving() {
		t.Errorf("Expected idle with an empty queue, got %v queue=%v", e.Animation, e.Queue)
	}
}

func TestTickIdleIsNoOp(t *testing.T) {
	c := &Controller{Speed: 64, SnapPrecision: 1}
	e := NewEntity("p1", geometry.Pt(3.5, 7.25), 1)
	e.Heading = NorthWest

	if c.Tick(e, 0.5) {
		t.Errorf("Idle entity must not move")
	}
	if e.Position != geometry.Pt(3.5, 7.25) || e.Heading != NorthWest || e.Animation != Idle {
		t.Errorf("Idle entity changed: %+v", e)
	}
}

func TestTickDiagonalSpeedIsNormalized(t *testing.T) {
	c := &Controller{Speed: 10, SnapPrecision: 1}
	e := NewEntity("p1", geometry.Pt(0, 0), 0)
	c.SetPath(e, []geometry.Point{geometry.Pt(100, 100)})

	c.Tick(e, 1)
	if d := e.Position.Len(); d < 9.999 || d > 10.001 {
		t.Errorf("Expected to travel 10px diagonally, travelled %v", d)
	}
	if e.Heading != SouthEast {
		t.Errorf("Expected heading SE with y growing down, got %v", e.Heading)
	}
}

func TestTickFollowsQueue(t *testing.T) {
	c := &Controller{Speed: 5, SnapPrecision: 1}
	e := NewEntity("p1", geometry.Pt(0, 0), 0)
	c.SetPath(e, []geometry.Point{geometry.Pt(0, -5), geometry.Pt(0, -10)})

	c.Tick(e, 1)
	if e.Position != geometry.Pt(0, -5) || len(e.Queue) != 1 || e.Animation != Walking {
		t.Errorf("Expected first waypoint reached and still walking, got %+v", e)
	}
	if e.Heading != North {
		t.Errorf("Expected heading N, got %v", e.Heading)
	}

	c.Tick(e, 1)
	if e.Position != geometry.Pt(0, -10) || e.Moving() {
		t.Errorf("Expected final waypoint reached, got %+v", e)
	}
}

func TestArrivalSnapsToPrecision(t *testing.T) {
	c := &Controller{Speed: 64, SnapPrecision: 1}
	e := NewEntity("p1", geometry.Pt(0, 0), 0)
	c.SetPath(e, []geometry.Point{geometry.Pt(5.4, 2.6)})

	c.Tick(e, 1)
	if e.Position != geometry.Pt(5, 3) {
		t.Errorf("Expected arrival rounded to (5,3), got %v", e.Position)
	}
}

func TestHeadingOf(t *testing.T) {
	tests := []struct {
		v    geometry.Point
		want Heading
	}{
		{geometry.Pt(1, 0), East},
		{geometry.Pt(-1, 0), West},
		{geometry.Pt(0, -1), North},
		{geometry.Pt(0, 1), South},
		{geometry.Pt(1, -1), NorthEast},
		{geometry.Pt(-1, -1), NorthWest},
		{geometry.Pt(-1, 1), SouthWest},
		{geometry.Pt(1, 1), SouthEast},
		{geometry.Pt(10, 1), East},
	}
	for _, tt := range tests {
		if got := HeadingOf(tt.v); got != tt.want {
			t.Errorf("HeadingOf(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestReconcile(t *testing.T) {
	c := &Controller{Speed: 64, ReconcileThreshold: 20, SnapPrecision: 1}

	t.Run("small drift is kept", func(t *testing.T) {
		e := NewEntity("remote", geometry.Pt(100, 100), 0)
		if c.Reconcile(e, Authoritative{Position: geometry.Pt(100, 101)}) {
			t.Errorf("Did not expect a snap for 1px")
		}
		if e.Position != geometry.Pt(100, 100) {
			t.Errorf("Position changed to %v", e.Position)
		}
	})

	t.Run("large drift snaps", func(t *testing.T) {
		e := NewEntity("remote", geometry.Pt(100, 100), 0)
		if !c.Reconcile(e, Authoritative{Position: geometry.Pt(150, 100)}) {
			t.Errorf("Expected a snap for 50px")
		}
		if e.Position != geometry.Pt(150, 100) {
			t.Errorf("Expected (150,100), got %v", e.Position)
		}
	})

	t.Run("destination replaces queue", func(t *testing.T) {
		e := NewEntity("remote", geometry.Pt(0, 0), 0)
		c.SetPath(e, []geometry.Point{geometry.Pt(5, 5), geometry.Pt(9, 9)})
		dest := geometry.Pt(40, 0)
		c.Reconcile(e, Authoritative{Position: geometry.Pt(0, 0), Destination: &dest})
		if len(e.Queue) != 1 || e.Queue[0] != dest || e.Animation != Walking {
			t.Errorf("Expected queue [%v], got %v", dest, e.Queue)
		}
	})

	t.Run("missing destination stops", func(t *testing.T) {
		e := NewEntity("remote", geometry.Pt(0, 0), 0)
		c.SetPath(e, []geometry.Point{geometry.Pt(5, 5)})
		c.Reconcile(e, Authoritative{Position: geometry.Pt(1, 1)})
		if e.Moving() || e.Animation != Idle {
			t.Errorf("Expected the server stop to clear the queue, got %v", e.Queue)
		}
	})

	t.Run("local entity is ignored", func(t *testing.T) {
		e := NewEntity("me", geometry.Pt(0, 0), 0)
		e.Local = true
		c.SetPath(e, []geometry.Point{geometry.Pt(5, 5)})
		if c.Reconcile(e, Authoritative{Position: geometry.Pt(500, 500)}) {
			t.Errorf("Local entity must never be snapped")
		}
		if e.Position != geometry.Pt(0, 0) || !e.Moving() {
			t.Errorf("Local entity changed: %+v", e)
		}
	})
}

func TestSetPathCopiesWaypoints(t *testing.T) {
	c := &Controller{Speed: 1}
	e := NewEntity("p1", geometry.Pt(0, 0), 0)
	waypoints := []geometry.Point{geometry.Pt(1, 1)}
	c.SetPath(e, waypoints)
	waypoints[0] = geometry.Pt(9, 9)

	if e.Queue[0] != geometry.Pt(1, 1) {
		t.Errorf("Queue must not alias the caller's slice")
	}
}

func TestDepthLayer(t *testing.T) {
	e := NewEntity("p1", geometry.Pt(0, 17), 1)
	if got := e.DepthLayer(8); got != 4 {
		t.Errorf("Expected floor(17/8 + 2) = 4, got %d", got)
	}
}
