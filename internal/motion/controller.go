package motion

import (
	"isoclient/internal/geometry"
)

// Authoritative is the server's view of an entity. A nil Destination
// means the server has the entity standing still.
type Authoritative struct {
	Position    geometry.Point
	Destination *geometry.Point
}

// Controller owns every write to entity position and queue.
type Controller struct {
	Speed              float64 // pixels per second
	ReconcileThreshold float64 // pixels of drift tolerated before snapping
	SnapPrecision      float64 // arrival rounding step
}

// Tick advances e by dt seconds and reports whether it moved. An idle
// entity is left untouched.
func (c *Controller) Tick(e *Entity, dt float64) bool {
	if len(e.Queue) == 0 || dt <= 0 {
		return false
	}

	target := e.Queue[0]
	delta := target.Sub(e.Position)
	d := delta.Len()
	step := c.Speed * dt

	if d > 0 {
		e.Heading = HeadingOf(delta)
	}

	if d <= step {
		e.Position = target.RoundTo(c.SnapPrecision)
		e.Queue = e.Queue[1:]
		if len(e.Queue) == 0 {
			e.Queue = nil
			e.Animation = Idle
		} else {
			e.Animation = Walking
		}
		return true
	}

	e.Position = e.Position.Add(delta.Scale(step / d))
	e.Animation = Walking
	return true
}

// SetPath replaces the queue with a copy of waypoints. It is the only way
// to cancel a walk in progress.
func (c *Controller) SetPath(e *Entity, waypoints []geometry.Point) {
	if len(waypoints) == 0 {
		e.Queue = nil
		e.Animation = Idle
		return
	}
	e.Queue = append([]geometry.Point(nil), waypoints...)
	e.Animation = Walking
}

// Reconcile folds a server update into e and reports whether the position
// was snapped. Small drift is left to the local simulation. The local
// entity is never reconciled.
func (c *Controller) Reconcile(e *Entity, a Authoritative) bool {
	if e.Local {
		return false
	}

	snapped := false
	if geometry.Distance(e.Position, a.Position) > c.ReconcileThreshold {
		e.Position = a.Position
		snapped = true
	}

	if a.Destination != nil {
		c.SetPath(e, []geometry.Point{*a.Destination})
	} else {
		c.SetPath(e, nil)
	}
	return snapped
}
