package primitive

import "math"

// atan2Norm maps atan2(z, x) into [0, 1) for use as a UV U coordinate
// wrapping once around an axis of revolution.
func atan2Norm(z, x float64) float64 {
	a := math.Atan2(z, x)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a / (2 * math.Pi)
}
