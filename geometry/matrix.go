package geometry

import (
	"errors"
	"math"
)

// ErrSingularTransform is returned when a matrix expected to be a rotation
// (orthonormal) is not, so its inverse cannot be taken as its transpose.
var ErrSingularTransform = errors.New("geometry: matrix is not orthonormal")

// orthoTol is the tolerance used when checking orthonormality.
const orthoTol = 1e-9

// Matrix3 is a 3x3 real matrix in row-major order.
type Matrix3 [3][3]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Matrix3 {
	return Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// MulVec returns the matrix-vector product m * v.
func (m Matrix3) MulVec(v Vector3) Vector3 {
	return Vector3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// MulMat returns the matrix product m * other.
func (m Matrix3) MulMat(other Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*other[0][j] + m[i][1]*other[1][j] + m[i][2]*other[2][j]
		}
	}
	return out
}

// Transpose returns the transposed matrix.
func (m Matrix3) Transpose() Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// Row returns row i as a vector.
func (m Matrix3) Row(i int) Vector3 {
	return Vector3{X: m[i][0], Y: m[i][1], Z: m[i][2]}
}

// Col returns column j as a vector.
func (m Matrix3) Col(j int) Vector3 {
	return Vector3{X: m[0][j], Y: m[1][j], Z: m[2][j]}
}

// IsOrthonormal reports whether m * m^T is the identity within tolerance.
func (m Matrix3) IsOrthonormal() bool {
	p := m.MulMat(m.Transpose())
	id := Identity3()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(p[i][j]-id[i][j]) > orthoTol {
				return false
			}
		}
	}
	return true
}

// Inverse returns the inverse of a rotation matrix, which is its transpose.
// It returns ErrSingularTransform if m is not orthonormal; general matrix
// inversion is deliberately out of scope for this package.
func (m Matrix3) Inverse() (Matrix3, error) {
	if !m.IsOrthonormal() {
		return Matrix3{}, ErrSingularTransform
	}
	return m.Transpose(), nil
}

// RotationX returns the rotation matrix of angle a (radians) about the X axis.
func RotationX(a float64) Matrix3 {
	c, s := math.Cos(a), math.Sin(a)
	return Matrix3{{1, 0, 0}, {0, c, s}, {0, -s, c}}
}

// RotationY returns the rotation matrix of angle a (radians) about the Y axis.
func RotationY(a float64) Matrix3 {
	c, s := math.Cos(a), math.Sin(a)
	return Matrix3{{c, 0, -s}, {0, 1, 0}, {s, 0, c}}
}

// RotationZ returns the rotation matrix of angle a (radians) about the Z axis.
func RotationZ(a float64) Matrix3 {
	c, s := math.Cos(a), math.Sin(a)
	return Matrix3{{c, s, 0}, {-s, c, 0}, {0, 0, 1}}
}
