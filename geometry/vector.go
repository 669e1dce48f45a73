// Package geometry provides the vector, rotation-matrix and quaternion
// primitives underlying all flight-dynamics computations in this SDK.
// Everything here is a value type: operations return new values and never
// mutate their receiver, so concurrent use on independent data needs no
// synchronisation.
package geometry

import (
	"errors"
	"math"
)

// ErrDegenerateVector is returned when an operation would divide by a
// near-zero vector norm (e.g. normalising the zero vector).
var ErrDegenerateVector = errors.New("geometry: degenerate (near-zero) vector")

// degenerateEps is the norm below which a vector is considered degenerate.
const degenerateEps = 1e-12

// Vector3 is a 3-component real vector.
type Vector3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v scaled by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vector3) Dot(other Vector3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product v x other.
func (v Vector3) Cross(other Vector3) Vector3 {
	return Vector3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Norm returns the Euclidean norm of the vector.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Unit returns the unit vector along v. It returns ErrDegenerateVector when
// the norm is below a small epsilon, rather than producing Inf components.
func (v Vector3) Unit() (Vector3, error) {
	n := v.Norm()
	if n < degenerateEps {
		return Vector3{}, ErrDegenerateVector
	}
	return v.Scale(1 / n), nil
}

// IsFinite reports whether all components are finite (no NaN or Inf).
func (v Vector3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// AngleBetween returns the angle in radians between v and other.
// Both vectors must be non-degenerate.
func (v Vector3) AngleBetween(other Vector3) (float64, error) {
	u1, err := v.Unit()
	if err != nil {
		return 0, err
	}
	u2, err := other.Unit()
	if err != nil {
		return 0, err
	}
	// Clamp against floating point drift before acos.
	d := math.Max(-1, math.Min(1, u1.Dot(u2)))
	return math.Acos(d), nil
}
