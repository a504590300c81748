package game

import (
	"isoclient/internal/geometry"
)

// Camera is the world position of the screen's top-left corner.
type Camera struct {
	X, Y float64
}

// ScreenToWorld converts a cursor position into world pixels.
func (c *Camera) ScreenToWorld(sx, sy int) geometry.Point {
	return geometry.Pt(float64(sx)+c.X, float64(sy)+c.Y)
}

// WorldToScreen converts a world point into screen pixels.
func (c *Camera) WorldToScreen(p geometry.Point) (float64, float64) {
	return p.X - c.X, p.Y - c.Y
}

// Follow centers the view on target. Positions are kept whole so tiles do
// not shimmer while scrolling.
func (c *Camera) Follow(target geometry.Point, screenW, screenH int) {
	c.X = float64(int(target.X) - screenW/2)
	c.Y = float64(int(target.Y) - screenH/2)
}

// SetPosition moves the camera.
func (c *Camera) SetPosition(x, y float64) {
	c.X = x
	c.Y = y
}
