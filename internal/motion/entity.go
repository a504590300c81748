// Package motion moves entities along their queued waypoints and folds
// authoritative server state into the local simulation.
package motion

import (
	"math"

	"isoclient/internal/geometry"
)

// Heading is one of the eight sprite facings.
type Heading int

const (
	North Heading = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var headingNames = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func (h Heading) String() string {
	if h < North || h > NorthWest {
		return "?"
	}
	return headingNames[h]
}

// byAngle maps round((atan2(dy, dx)+π)/(π/4)) to a heading. Screen y grows
// downwards, so positive dy faces south.
var byAngle = [8]Heading{West, NorthWest, North, NorthEast, East, SouthEast, South, SouthWest}

// HeadingOf quantizes a movement vector to eight directions. The zero
// vector faces west, the first slot of the angle table.
func HeadingOf(v geometry.Point) Heading {
	i := int(math.Round((math.Atan2(v.Y, v.X)+math.Pi)/(math.Pi/4))) % 8
	return byAngle[i]
}

// AnimationState selects the sprite animation.
type AnimationState int

const (
	Idle AnimationState = iota
	Walking
)

func (a AnimationState) String() string {
	if a == Walking {
		return "walking"
	}
	return "idle"
}

// Entity is a character on the map. Queue holds the waypoints still to
// visit, first one next; an empty queue means the entity is at rest.
type Entity struct {
	ID        string
	Position  geometry.Point
	Layer     int
	Queue     []geometry.Point
	Heading   Heading
	Animation AnimationState
	Local     bool // controlled by this client, never reconciled
}

// NewEntity returns an idle entity facing south.
func NewEntity(id string, pos geometry.Point, layer int) *Entity {
	return &Entity{ID: id, Position: pos, Layer: layer, Heading: South}
}

// Moving reports whether waypoints remain.
func (e *Entity) Moving() bool {
	return len(e.Queue) > 0
}

// Destination returns the last queued waypoint.
func (e *Entity) Destination() (geometry.Point, bool) {
	if len(e.Queue) == 0 {
		return geometry.Point{}, false
	}
	return e.Queue[len(e.Queue)-1], true
}

// DepthLayer is the draw-order key of the entity, comparable with tile
// depth layers of a map with the given quarter tile height.
func (e *Entity) DepthLayer(quarterHeight float64) int {
	if quarterHeight <= 0 {
		return 2 * e.Layer
	}
	return int(math.Floor(e.Position.Y/quarterHeight + 2*float64(e.Layer)))
}
