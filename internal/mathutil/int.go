package mathutil

// IntAbs returns the absolute value of an int (search: int-math).
func IntAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
