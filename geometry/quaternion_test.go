package geometry

import (
	"math"
	"testing"
)

// Reference rotation matrix (inertial to TNW for a 30-degree case) and its
// quaternion, both cross-checked against Celestlab.
var (
	refMatrix = Matrix3{
		{-1.0, 5.3028761936245346e-17, 3.0616169978683824e-17},
		{-6.123233995736767e-17, -0.8660254037844388, -0.5},
		{-4.009074440407614e-33, -0.5, 0.8660254037844388},
	}
	refQuat = Quaternion{W: 2.957e-17, X: 7.924e-18, Y: -0.2588190, Z: 0.9659258}
)

func quatAlmostEqual(a, b Quaternion, tol float64) bool {
	return a.ApproxEqual(b, tol)
}

func TestQuaternion_HamiltonProduct(t *testing.T) {
	q1 := Quaternion{W: 1, X: 2, Y: 3, Z: 4}
	q2 := Quaternion{W: 5, X: 6, Y: 7, Z: 8}
	got := q1.Mul(q2)
	want := Quaternion{W: -60, X: 12, Y: 30, Z: 24}
	if got != want {
		t.Fatalf("Mul: got %v, want %v", got, want)
	}
}

func TestQuaternion_ConjugateNormUnit(t *testing.T) {
	q := Quaternion{W: 1, X: 2, Y: 3, Z: 4}
	if got := q.Conjugate(); got != (Quaternion{W: 1, X: -2, Y: -3, Z: -4}) {
		t.Errorf("Conjugate: got %v", got)
	}
	if !almostEqual(q.Norm(), math.Sqrt(30), 1e-14) {
		t.Errorf("Norm: got %v", q.Norm())
	}
	u, err := q.Unit()
	if err != nil {
		t.Fatalf("Unit: %v", err)
	}
	if !almostEqual(u.Norm(), 1, 1e-14) {
		t.Errorf("unit norm: got %v", u.Norm())
	}
}

func TestFromAxisAngle_CelestlabReference(t *testing.T) {
	q, err := FromAxisAngle(math.Pi/2, Vector3{X: 1})
	if err != nil {
		t.Fatalf("FromAxisAngle: %v", err)
	}
	want := Quaternion{W: math.Cos(math.Pi / 4), X: math.Sin(math.Pi / 4)}
	if !quatAlmostEqual(q, want, 1e-12) {
		t.Errorf("got %v, want %v", q, want)
	}

	q, err = FromAxisAngle(math.Pi/4, Vector3{X: 10, Y: 45, Z: 77})
	if err != nil {
		t.Fatalf("FromAxisAngle: %v", err)
	}
	want = Quaternion{W: 0.9238795, X: 0.0426416, Y: 0.1918874, Z: 0.3283406}
	if !quatAlmostEqual(q, want, 1e-6) {
		t.Errorf("got %v, want %v", q, want)
	}
}

func TestQuaternion_MatrixRoundTrip(t *testing.T) {
	q, err := FromRotationMatrix(refMatrix)
	if err != nil {
		t.Fatalf("FromRotationMatrix: %v", err)
	}
	if !quatAlmostEqual(q, refQuat, 1e-6) {
		t.Fatalf("got %v, want %v", q, refQuat)
	}

	m, err := refQuat.ToRotationMatrix()
	if err != nil {
		t.Fatalf("ToRotationMatrix: %v", err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !almostEqual(m[i][j], refMatrix[i][j], 1e-6) {
				t.Fatalf("matrix mismatch at (%d,%d): got %v, want %v", i, j, m[i][j], refMatrix[i][j])
			}
		}
	}
}

func TestFromRotationMatrix_Identity(t *testing.T) {
	q, err := FromRotationMatrix(Identity3())
	if err != nil {
		t.Fatalf("FromRotationMatrix: %v", err)
	}
	if !quatAlmostEqual(q, IdentityQuaternion(), 1e-12) {
		t.Fatalf("identity matrix should map to identity quaternion, got %v", q)
	}
}

func TestFromRotationMatrix_ElementaryRotations(t *testing.T) {
	cases := []struct {
		name  string
		angle float64
		mat   func(float64) Matrix3
		axis  Vector3
	}{
		{"X", 1.1, RotationX, Vector3{X: 1}},
		{"Y", -0.7, RotationY, Vector3{Y: 1}},
		{"Z", 2.4, RotationZ, Vector3{Z: 1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := FromRotationMatrix(c.mat(c.angle))
			if err != nil {
				t.Fatalf("FromRotationMatrix: %v", err)
			}
			want, err := FromAxisAngle(c.angle, c.axis)
			if err != nil {
				t.Fatalf("FromAxisAngle: %v", err)
			}
			if got.AngularDistance(want) > 1e-10 {
				t.Fatalf("got %v, want %v", got, want)
			}
		})
	}
}

func TestFromRotationMatrix_RejectsNonOrthonormal(t *testing.T) {
	m := Matrix3{{2, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	if _, err := FromRotationMatrix(m); err == nil {
		t.Fatal("expected error for non-orthonormal matrix")
	}
}

func TestQuaternion_RotateVector(t *testing.T) {
	// 90 degrees about Z maps +X to +Y (active rotation).
	q, err := FromAxisAngle(math.Pi/2, Vector3{Z: 1})
	if err != nil {
		t.Fatalf("FromAxisAngle: %v", err)
	}
	got, err := q.RotateVector(Vector3{X: 1})
	if err != nil {
		t.Fatalf("RotateVector: %v", err)
	}
	if !vecAlmostEqual(got, Vector3{Y: 1}, 1e-12) {
		t.Fatalf("got %+v, want +Y", got)
	}
}

func TestQuaternion_AngularDistance(t *testing.T) {
	q, _ := FromAxisAngle(0.5, Vector3{Z: 1})
	if d := q.AngularDistance(q); d > 1e-12 {
		t.Errorf("distance to self: %v", d)
	}
	neg := Quaternion{W: -q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
	if d := q.AngularDistance(neg); d > 1e-12 {
		t.Errorf("q and -q encode the same attitude, distance %v", d)
	}
	r, _ := FromAxisAngle(0.5+0.2, Vector3{Z: 1})
	if d := q.AngularDistance(r); !almostEqual(d, 0.2, 1e-9) {
		t.Errorf("expected 0.2 rad, got %v", d)
	}
}
