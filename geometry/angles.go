package geometry

import "math"

// PMod returns x modulo m with a non-negative result.
func PMod(x, m float64) float64 {
	m = math.Abs(m)
	return x - m*math.Floor(x/m)
}

// Wrap maps x into the half-open range [min, max). Values within a small
// absolute tolerance of the bounds snap to min, which keeps results stable
// across floating point noise at the seam (Celestlab CL_rMod semantics).
func Wrap(x, min, max float64) float64 {
	const tol = 1e-10
	delta := max - min
	if math.Abs(x-min) < tol {
		x = min
	}
	nrev := math.Floor((x - min) / delta)
	res := x - nrev*delta
	if math.Abs(res-max) < tol {
		return min
	}
	return res
}

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * 180 / math.Pi }

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * math.Pi / 180 }
