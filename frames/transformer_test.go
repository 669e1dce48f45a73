package frames

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/exotrail/spacetower-go-sdk/geometry"
)

func TestTransformPV_RoundTrip(t *testing.T) {
	tr := NewTransformer(DefaultEOPConfig())
	epoch := time.Date(2021, 4, 24, 14, 55, 1, 0, time.UTC)

	pos := geometry.Vector3{X: 6778.0, Y: 120.5, Z: -432.1} // km
	vel := geometry.Vector3{X: -0.2, Y: 7.41, Z: 1.05}      // km/s

	pECF, vECF, err := tr.TransformPV(pos, vel, FrameECI, FrameECF, epoch)
	if err != nil {
		t.Fatalf("TransformPV ECI->ECF: %v", err)
	}
	pBack, vBack, err := tr.TransformPV(pECF, vECF, FrameECF, FrameECI, epoch)
	if err != nil {
		t.Fatalf("TransformPV ECF->ECI: %v", err)
	}

	if d := pBack.Sub(pos).Norm(); d > 1e-9 {
		t.Errorf("position round trip drifted by %g km", d)
	}
	if d := vBack.Sub(vel).Norm(); d > 1e-12 {
		t.Errorf("velocity round trip drifted by %g km/s", d)
	}
}

func TestTransformPV_PreservesNorm(t *testing.T) {
	tr := NewTransformer(DefaultEOPConfig())
	epoch := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	pos := geometry.Vector3{X: 7000, Y: 0, Z: 100}

	pECF, err := tr.TransformPosition(pos, FrameECI, FrameECF, epoch)
	if err != nil {
		t.Fatalf("TransformPosition: %v", err)
	}
	if math.Abs(pECF.Norm()-pos.Norm()) > 1e-9 {
		t.Errorf("rotation must preserve the norm: %g != %g", pECF.Norm(), pos.Norm())
	}
	if pECF == pos {
		t.Error("ECI and ECF should differ at this epoch")
	}
}

func TestTransformPV_SameFrameIsIdentity(t *testing.T) {
	tr := NewTransformer(DefaultEOPConfig())
	pos := geometry.Vector3{X: 1, Y: 2, Z: 3}
	vel := geometry.Vector3{X: 4, Y: 5, Z: 6}

	p, v, err := tr.TransformPV(pos, vel, FrameTEME, FrameTEME, time.Now().UTC())
	if err != nil {
		t.Fatalf("TransformPV: %v", err)
	}
	if p != pos || v != vel {
		t.Errorf("identity transform changed the state: %+v %+v", p, v)
	}
}

func TestTransformPV_AliasResolution(t *testing.T) {
	tr := NewTransformer(DefaultEOPConfig())
	epoch := time.Date(2024, 1, 7, 6, 0, 0, 0, time.UTC)
	pos := geometry.Vector3{X: 7000}

	viaAlias, err := tr.TransformPosition(pos, FrameCIRF, FrameITRF, epoch)
	if err != nil {
		t.Fatalf("TransformPosition with aliases: %v", err)
	}
	canonical, err := tr.TransformPosition(pos, FrameECI, FrameECF, epoch)
	if err != nil {
		t.Fatalf("TransformPosition canonical: %v", err)
	}
	if viaAlias != canonical {
		t.Errorf("alias transform differs from canonical: %+v vs %+v", viaAlias, canonical)
	}
}

func TestTransformPV_UnsupportedFrame(t *testing.T) {
	tr := NewTransformer(DefaultEOPConfig())
	_, _, err := tr.TransformPV(geometry.Vector3{X: 1}, geometry.Vector3{}, FrameGCRF, FrameECF, time.Now().UTC())
	var ufe *UnsupportedFrameError
	if !errors.As(err, &ufe) {
		t.Fatalf("expected UnsupportedFrameError, got %v", err)
	}
	if ufe.From != FrameGCRF {
		t.Errorf("error should name the offending frame, got %+v", ufe)
	}
}

func TestGMST_AdvancesWithTime(t *testing.T) {
	cfg := DefaultEOPConfig()
	t0 := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	g0 := GMST(cfg, t0)
	// One sidereal rotation takes ~23h56m; after 6h GMST advances ~90.25 deg.
	g6 := GMST(cfg, t0.Add(6*time.Hour))
	delta := math.Mod(g6-g0+2*math.Pi, 2*math.Pi)
	if math.Abs(delta-math.Pi/2) > 0.01 {
		t.Errorf("GMST advanced by %g rad over 6h, expected about pi/2", delta)
	}
}

func TestGMST_DUT1Sensitivity(t *testing.T) {
	epoch := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	base := GMST(EOPConfig{Version: "a"}, epoch)
	shifted := GMST(EOPConfig{Version: "b", DUT1Seconds: 0.5}, epoch)
	want := 0.5 * EarthRotationRate // GMST advances at the sidereal rate
	got := shifted - base
	if math.Abs(got-want) > 1e-7 {
		t.Errorf("DUT1 shift: got %g rad, want about %g", got, want)
	}
}

func TestTNWMatrix_CircularEquatorialOrbit(t *testing.T) {
	// Position on +X, velocity on +Y: T=+Y, W=+Z, N=W x T=-X... for a
	// prograde equatorial orbit the triad is orthonormal by construction.
	pos := geometry.Vector3{X: 7000}
	vel := geometry.Vector3{Y: 7.5}

	m, err := TNWMatrix(pos, vel)
	if err != nil {
		t.Fatalf("TNWMatrix: %v", err)
	}
	if !m.IsOrthonormal() {
		t.Fatal("TNW matrix must be orthonormal")
	}
	// T axis along velocity.
	if got := m.MulVec(vel.Scale(1 / vel.Norm())); !vecApprox(got, geometry.Vector3{X: 1}, 1e-12) {
		t.Errorf("velocity should map to +T, got %+v", got)
	}
}

func TestQSWMatrix_Orthonormal(t *testing.T) {
	pos := geometry.Vector3{X: 6800, Y: 500, Z: 300}
	vel := geometry.Vector3{X: -0.5, Y: 7.3, Z: 0.9}
	m, err := QSWMatrix(pos, vel)
	if err != nil {
		t.Fatalf("QSWMatrix: %v", err)
	}
	if !m.IsOrthonormal() {
		t.Fatal("QSW matrix must be orthonormal")
	}
}

func TestTNWMatrix_DegenerateState(t *testing.T) {
	_, err := TNWMatrix(geometry.Vector3{X: 7000}, geometry.Vector3{})
	if !errors.Is(err, geometry.ErrDegenerateVector) {
		t.Fatalf("expected ErrDegenerateVector, got %v", err)
	}
}

func vecApprox(a, b geometry.Vector3, tol float64) bool {
	return a.Sub(b).Norm() <= tol
}
