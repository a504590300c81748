package mathutil

import "math"

// Epsilon absorbs float error when flooring values that are integral in exact arithmetic.
const Epsilon = 1e-9

// FloorStable floors x, treating values within Epsilon below an integer as that integer.
func FloorStable(x float64) int {
	return int(math.Floor(x + Epsilon))
}

// RoundTo rounds x to the nearest multiple of step. A non-positive step rounds to integers.
func RoundTo(x, step float64) float64 {
	if step <= 0 {
		step = 1
	}
	return math.Round(x/step) * step
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
