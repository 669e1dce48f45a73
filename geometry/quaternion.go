package geometry

import (
	"fmt"
	"math"
)

// Quaternion is a rotation quaternion with scalar part W and vector part
// (X, Y, Z), i.e. q = W + X·i + Y·j + Z·k. Operations that represent
// rotations normalise internally, so a quaternion built from slightly
// noisy components still behaves as a unit rotation.
type Quaternion struct {
	W, X, Y, Z float64
}

// IdentityQuaternion returns the no-rotation quaternion.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// Conjugate returns the quaternion conjugate (inverse rotation for unit
// quaternions).
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Norm returns the quaternion norm.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Unit returns the normalised quaternion. It returns ErrDegenerateVector
// when the norm is too small to normalise safely.
func (q Quaternion) Unit() (Quaternion, error) {
	n := q.Norm()
	if n < degenerateEps {
		return Quaternion{}, ErrDegenerateVector
	}
	return Quaternion{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}, nil
}

// Mul returns the Hamilton product q * other. The product is
// non-commutative: the rotation "apply A, then B" composes as B.Mul(A).
func (q Quaternion) Mul(other Quaternion) Quaternion {
	return Quaternion{
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
	}
}

// Imag returns the vector part of the quaternion.
func (q Quaternion) Imag() Vector3 {
	return Vector3{X: q.X, Y: q.Y, Z: q.Z}
}

// ApproxEqual reports whether two quaternions are component-wise equal
// within tol. Note q and -q encode the same rotation but do not compare
// equal here; callers comparing rotations should normalise signs first.
func (q Quaternion) ApproxEqual(other Quaternion, tol float64) bool {
	return math.Abs(q.W-other.W) <= tol &&
		math.Abs(q.X-other.X) <= tol &&
		math.Abs(q.Y-other.Y) <= tol &&
		math.Abs(q.Z-other.Z) <= tol
}

// AngularDistance returns the rotation angle, in radians, of the relative
// rotation between q and other. Zero means the two quaternions encode the
// same attitude (q and -q included).
func (q Quaternion) AngularDistance(other Quaternion) float64 {
	qu, err := q.Unit()
	if err != nil {
		return math.Pi
	}
	ou, err := other.Unit()
	if err != nil {
		return math.Pi
	}
	rel := ou.Mul(qu.Conjugate())
	w := math.Min(1, math.Abs(rel.W))
	return 2 * math.Acos(w)
}

// RotateVector rotates v by q with v' = q v q*. The result is the image of
// v expressed in the starting frame; use the conjugate to express v in the
// rotated frame (Celestlab CL_rot_rotVect convention).
func (q Quaternion) RotateVector(v Vector3) (Vector3, error) {
	u, err := q.Unit()
	if err != nil {
		return Vector3{}, err
	}
	p := Quaternion{W: 0, X: v.X, Y: v.Y, Z: v.Z}
	return u.Mul(p).Mul(u.Conjugate()).Imag(), nil
}

// FromAxisAngle builds the quaternion rotating by angle (radians) about
// axis. The axis need not be normalised but must be non-degenerate.
func FromAxisAngle(angle float64, axis Vector3) (Quaternion, error) {
	u, err := axis.Unit()
	if err != nil {
		return Quaternion{}, err
	}
	s := math.Sin(angle / 2)
	return Quaternion{
		W: math.Cos(angle / 2),
		X: s * u.X,
		Y: s * u.Y,
		Z: s * u.Z,
	}, nil
}

// ToAxisAngle returns the rotation angle and unit axis of q. For the
// identity rotation the angle is 0 and the axis is +X by convention, since
// any axis would do.
func (q Quaternion) ToAxisAngle() (angle float64, axis Vector3, err error) {
	u, err := q.Unit()
	if err != nil {
		return 0, Vector3{}, err
	}
	w := math.Max(-1, math.Min(1, u.W))
	angle = 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < degenerateEps {
		return 0, Vector3{X: 1}, nil
	}
	return angle, u.Imag().Scale(1 / s), nil
}

// ToRotationMatrix converts q to the frame-transformation matrix R such
// that R·v expresses v in the destination frame of the rotation
// (Celestlab CL_rot_quat2matrix).
func (q Quaternion) ToRotationMatrix() (Matrix3, error) {
	u, err := q.Unit()
	if err != nil {
		return Matrix3{}, err
	}
	q4, q1, q2, q3 := u.W, u.X, u.Y, u.Z
	return Matrix3{
		{q1*q1 - q2*q2 - q3*q3 + q4*q4, 2 * (q1*q2 + q3*q4), 2 * (q1*q3 - q2*q4)},
		{2 * (q1*q2 - q3*q4), -q1*q1 + q2*q2 - q3*q3 + q4*q4, 2 * (q2*q3 + q1*q4)},
		{2 * (q1*q3 + q2*q4), 2 * (q2*q3 - q1*q4), -q1*q1 - q2*q2 + q3*q3 + q4*q4},
	}, nil
}

// FromRotationMatrix converts an orthonormal matrix to a quaternion. The
// four-way branch on the largest of the diagonal terms and the trace avoids
// numerical cancellation near 180-degree rotations
// (Celestlab CL_rot_matrix2quat).
func FromRotationMatrix(m Matrix3) (Quaternion, error) {
	if !m.IsOrthonormal() {
		return Quaternion{}, ErrSingularTransform
	}
	a11, a12, a13 := m[0][0], m[0][1], m[0][2]
	a21, a22, a23 := m[1][0], m[1][1], m[1][2]
	a31, a32, a33 := m[2][0], m[2][1], m[2][2]

	ccc := [4]float64{
		a11 - a22 - a33,
		a22 - a33 - a11,
		a33 - a11 - a22,
		a11 + a22 + a33,
	}
	jMax, vMax := 0, math.Sqrt(math.Max(0, 1+ccc[0]))
	for j := 1; j < 4; j++ {
		if v := math.Sqrt(math.Max(0, 1+ccc[j])); v > vMax {
			jMax, vMax = j, v
		}
	}

	var q1, q2, q3, q4 float64
	switch jMax {
	case 0:
		q1 = vMax * 0.5
		q2 = (a12 + a21) / (2 * vMax)
		q3 = (a13 + a31) / (2 * vMax)
		q4 = (a23 - a32) / (2 * vMax)
	case 1:
		q1 = (a12 + a21) / (2 * vMax)
		q2 = vMax * 0.5
		q3 = (a23 + a32) / (2 * vMax)
		q4 = (a31 - a13) / (2 * vMax)
	case 2:
		q1 = (a13 + a31) / (2 * vMax)
		q2 = (a23 + a32) / (2 * vMax)
		q3 = vMax * 0.5
		q4 = (a12 - a21) / (2 * vMax)
	default:
		q1 = (a23 - a32) / (2 * vMax)
		q2 = (a31 - a13) / (2 * vMax)
		q3 = (a12 - a21) / (2 * vMax)
		q4 = vMax * 0.5
	}

	return Quaternion{W: q4, X: q1, Y: q2, Z: q3}, nil
}

// String implements fmt.Stringer.
func (q Quaternion) String() string {
	return fmt.Sprintf("Quaternion(%g, %g, %g, %g)", q.W, q.X, q.Y, q.Z)
}
