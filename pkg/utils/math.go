package utils

import "math"

// NormalizeL2 scales x in place to unit L2 norm and returns the norm it had
// before scaling. A zero vector is left unchanged and 0 is returned.
func NormalizeL2(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return 0
	}
	norm := math.Sqrt(sum)
	inv := float32(1 / norm)
	for i := range x {
		x[i] *= inv
	}
	return norm
}

// IsUnit reports whether x has L2 norm within tol of 1.
func IsUnit(x []float32, tol float64) bool {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Abs(math.Sqrt(sum)-1) <= tol
}
