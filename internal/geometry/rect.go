package geometry

// Rect is an axis-aligned rectangle. Containment is half-open: Min is
// inside, Max is outside.
type Rect struct {
	Min, Max Point
}

// RectFromSize creates a rectangle from its top-left corner and size.
func RectFromSize(x, y, width, height float64) Rect {
	return Rect{Min: Point{X: x, Y: y}, Max: Point{X: x + width, Y: y + height}}
}

func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Intersects checks if this rectangle overlaps another
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X < o.Max.X && o.Min.X < r.Max.X && r.Min.Y < o.Max.Y && o.Min.Y < r.Max.Y
}

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}
