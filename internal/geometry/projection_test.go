package geometry

import (
	"math"
	"testing"
)

func TestProjectionRoundTrip(t *testing.T) {
	projections := map[string]Projection{
		"sprite":        NewProjection(32, 32),
		"diamond":       NewProjection(32, 32).WithoutOffset(),
		"wide":          NewProjection(64, 32),
		"grid ratio":    NewProjection(32, 32).WithoutOffset().WithRatio(1.0 / 3.0),
		"ratio+offset":  NewProjection(32, 32).WithRatio(1.0 / 3.0),
		"zero is ratio": {TileWidth: 32, TileHeight: 32, WithOffset: true},
	}

	for name, proj := range projections {
		for col := -5; col < 40; col++ {
			for row := -5; row < 40; row++ {
				c := Cell{X: col, Y: row}
				if got := proj.ToCartesian(proj.ToIsometric(c)); got != c {
					t.Fatalf("%s: round trip of %v returned %v", name, c, got)
				}
			}
		}
	}
}

func TestToIsometricKnownValues(t *testing.T) {
	proj := NewProjection(32, 32)

	got := proj.ToIsometric(Cell{X: 1, Y: 1})
	if got != (Point{X: -16, Y: 16}) {
		t.Errorf("Expected (1,1) to project to (-16, 16), got %v", got)
	}

	got = proj.WithoutOffset().ToIsometric(Cell{X: 3, Y: 1})
	if got != (Point{X: 32, Y: 32}) {
		t.Errorf("Expected (3,1) without offset to project to (32, 32), got %v", got)
	}

	got = proj.WithoutOffset().WithRatio(0.5).ToIsometric(Cell{X: 2, Y: 0})
	if got != (Point{X: 16, Y: 8}) {
		t.Errorf("Expected half-ratio (2,0) to project to (16, 8), got %v", got)
	}
}

func TestToCartesianInsideDiamond(t *testing.T) {
	proj := NewProjection(32, 32).WithoutOffset()

	// Diamond of (2,1): top vertex (16, 24), height 16, width 32.
	center := proj.ToIsometricPoint(Point{X: 2.5, Y: 1.5})
	if math.Abs(center.X-16) > 1e-9 || math.Abs(center.Y-32) > 1e-9 {
		t.Fatalf("Unexpected diamond center %v", center)
	}

	inside := []Point{center, {X: 16, Y: 25}, {X: 2, Y: 32}, {X: 30, Y: 32}, {X: 16, Y: 39}}
	for _, p := range inside {
		if got := proj.ToCartesian(p); got != (Cell{X: 2, Y: 1}) {
			t.Errorf("Expected %v to be in cell (2,1), got %v", p, got)
		}
	}

	if got := proj.ToCartesian(Point{X: 16, Y: 41}); got == (Cell{X: 2, Y: 1}) {
		t.Errorf("Point below the diamond should not map to (2,1)")
	}
}

func TestChebyshevAndDistance(t *testing.T) {
	if d := Chebyshev(Cell{X: 0, Y: 0}, Cell{X: -2, Y: 1}); d != 2 {
		t.Errorf("Expected Chebyshev distance 2, got %d", d)
	}
	if d := Distance(Pt(0, 0), Pt(3, 4)); d != 5 {
		t.Errorf("Expected distance 5, got %v", d)
	}
}

func TestRectContainsHalfOpen(t *testing.T) {
	r := RectFromSize(0, 0, 2, 2)
	if !r.Contains(Pt(0, 0)) || !r.Contains(Pt(1.5, 1.5)) {
		t.Errorf("Expected inner points to be contained")
	}
	if r.Contains(Pt(2, 0)) || r.Contains(Pt(0, 2)) || r.Contains(Pt(-0.1, 1)) {
		t.Errorf("Expected edge and outside points to be rejected")
	}
}
