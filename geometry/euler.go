package geometry

import (
	"fmt"
	"math"
)

// RotationSequence names the axis order of an Euler-angle decomposition,
// e.g. "ZYX". The six Cardan sequences (three distinct axes) and the six
// proper Euler sequences (first and third axes equal) are supported.
type RotationSequence string

// The Cardan and proper Euler sequences accepted by ToEulerAngles and
// FromEulerAngles.
const (
	SequenceXYZ RotationSequence = "XYZ"
	SequenceXZY RotationSequence = "XZY"
	SequenceYXZ RotationSequence = "YXZ"
	SequenceYZX RotationSequence = "YZX"
	SequenceZXY RotationSequence = "ZXY"
	SequenceZYX RotationSequence = "ZYX"
	SequenceXYX RotationSequence = "XYX"
	SequenceXZX RotationSequence = "XZX"
	SequenceYXY RotationSequence = "YXY"
	SequenceYZY RotationSequence = "YZY"
	SequenceZXZ RotationSequence = "ZXZ"
	SequenceZYZ RotationSequence = "ZYZ"
)

// EulerAngles holds the three rotation angles of a decomposition, in
// radians, in the order of the sequence they were derived with.
type EulerAngles struct {
	First, Second, Third float64
}

// gimbalTol bounds the second-axis projection beyond which the
// decomposition degenerates (second angle at +/-90 deg for Cardan
// sequences, 0 or 180 deg for proper Euler sequences).
const gimbalTol = 1e-10

func (s RotationSequence) axes() ([3]int, error) {
	if len(s) != 3 {
		return [3]int{}, fmt.Errorf("geometry: rotation sequence %q must have 3 axes", s)
	}
	var out [3]int
	for i := 0; i < 3; i++ {
		switch s[i] {
		case 'X', 'x':
			out[i] = 0
		case 'Y', 'y':
			out[i] = 1
		case 'Z', 'z':
			out[i] = 2
		default:
			return [3]int{}, fmt.Errorf("geometry: rotation sequence %q has invalid axis %q", s, string(s[i]))
		}
	}
	if out[0] == out[1] || out[1] == out[2] {
		return [3]int{}, fmt.Errorf("geometry: rotation sequence %q repeats consecutive axes", s)
	}
	return out, nil
}

func basis(i int) Vector3 {
	switch i {
	case 0:
		return Vector3{X: 1}
	case 1:
		return Vector3{Y: 1}
	default:
		return Vector3{Z: 1}
	}
}

func component(v Vector3, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// ToEulerAngles decomposes q into three successive rotations about the axes
// of seq (Celestlab CL_rot_quat2angles). At gimbal lock the first and third
// angles are not unique; this implementation deterministically sets the
// third angle to zero and folds the whole residual rotation into the first,
// so no NaN is ever produced.
func (q Quaternion) ToEulerAngles(seq RotationSequence) (EulerAngles, error) {
	ax, err := seq.axes()
	if err != nil {
		return EulerAngles{}, err
	}
	u, err := q.Unit()
	if err != nil {
		return EulerAngles{}, err
	}
	if ax[0] == ax[2] {
		return u.properEulerAngles(ax)
	}
	return u.cardanAngles(ax)
}

func (q Quaternion) cardanAngles(ax [3]int) (EulerAngles, error) {
	n1, n2, n3 := ax[0], ax[1], ax[2]
	sign := math.Copysign(1, Wrap(float64(n2-n1), -1.5, 1.5))
	vMax := 1 - gimbalTol

	x3Image, err := q.RotateVector(basis(n3))
	if err != nil {
		return EulerAngles{}, err
	}

	if math.Abs(component(x3Image, n1)) < vMax {
		x1Rot, err := q.Conjugate().RotateVector(basis(n1))
		if err != nil {
			return EulerAngles{}, err
		}
		return EulerAngles{
			First:  math.Atan2(-sign*component(x3Image, n2), component(x3Image, n3)),
			Second: math.Asin(sign * component(x3Image, n1)),
			Third:  math.Atan2(-sign*component(x1Rot, n2), component(x1Rot, n1)),
		}, nil
	}

	// Gimbal lock: second angle at +/-90 deg.
	x2Image, err := q.RotateVector(basis(n2))
	if err != nil {
		return EulerAngles{}, err
	}
	s := math.Max(-1, math.Min(1, sign*component(x3Image, n1)))
	return EulerAngles{
		First:  math.Atan2(sign*component(x2Image, n3), component(x2Image, n2)),
		Second: math.Asin(s),
		Third:  0,
	}, nil
}

func (q Quaternion) properEulerAngles(ax [3]int) (EulerAngles, error) {
	n1, n2 := ax[0], ax[1]
	n3 := int(PMod(float64(n2+(n2-n1)-1), 3)) + 1
	if n3 > 2 {
		n3 -= 3
	}
	sign := math.Copysign(1, Wrap(float64(n2-n1), -1.5, 1.5))
	vMax := 1 - gimbalTol

	x1Image, err := q.RotateVector(basis(n1))
	if err != nil {
		return EulerAngles{}, err
	}
	c := math.Max(-1, math.Min(1, component(x1Image, n1)))

	if math.Abs(component(x1Image, n1)) < vMax {
		x1Rot, err := q.Conjugate().RotateVector(basis(n1))
		if err != nil {
			return EulerAngles{}, err
		}
		return EulerAngles{
			First:  math.Atan2(component(x1Image, n2), -sign*component(x1Image, n3)),
			Second: math.Acos(c),
			Third:  math.Atan2(component(x1Rot, n2), sign*component(x1Rot, n3)),
		}, nil
	}

	// Degenerate: second angle at 0 or 180 deg.
	x2Image, err := q.RotateVector(basis(n2))
	if err != nil {
		return EulerAngles{}, err
	}
	return EulerAngles{
		First:  math.Atan2(sign*component(x2Image, n3), component(x2Image, n2)),
		Second: math.Acos(c),
		Third:  0,
	}, nil
}

// FromEulerAngles composes a quaternion from three successive rotations
// about the axes of seq (Celestlab CL_rot_angles2quat).
func FromEulerAngles(angles EulerAngles, seq RotationSequence) (Quaternion, error) {
	ax, err := seq.axes()
	if err != nil {
		return Quaternion{}, err
	}
	vals := [3]float64{angles.First, angles.Second, angles.Third}
	q, err := FromAxisAngle(vals[0], basis(ax[0]))
	if err != nil {
		return Quaternion{}, err
	}
	for i := 1; i < 3; i++ {
		next, err := FromAxisAngle(vals[i], basis(ax[i]))
		if err != nil {
			return Quaternion{}, err
		}
		q = q.Mul(next)
	}
	return q, nil
}
