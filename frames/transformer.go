package frames

import (
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/exotrail/spacetower-go-sdk/geometry"
)

// EarthRotationRate is the Earth's angular velocity in rad/s, used for the
// velocity transport term between inertial and Earth-fixed frames.
const EarthRotationRate = 7.292115146706979e-5

// conversion describes how a frame relates to the ECI hub: the matrix
// rotating hub coordinates into the frame at a given epoch, and the frame's
// angular velocity relative to the hub, expressed in hub coordinates.
type conversion struct {
	toFrame func(cfg EOPConfig, epoch time.Time) geometry.Matrix3
	omega   func(cfg EOPConfig, epoch time.Time) geometry.Vector3
}

// Transformer converts position/velocity states between registered frames
// at a given epoch. All paths compose through the ECI hub, so adding a
// frame requires one registry entry rather than a transform per pair.
//
// A Transformer is immutable after construction and safe for concurrent use.
type Transformer struct {
	cfg      EOPConfig
	registry map[Frame]conversion
}

// NewTransformer builds a Transformer over the given Earth-orientation
// parameters.
//
// Registered frames: the propagator's inertial family (ECI/CIRF and TEME,
// not distinguished at SGP4 fidelity) and the Earth-fixed family (ECF/ITRF
// and GTOD) rotated by Greenwich mean sidereal time. GCRF/EME2000 require
// precession/nutation series that belong to the server-side models, so
// requesting them yields UnsupportedFrameError here.
func NewTransformer(cfg EOPConfig) *Transformer {
	identity := conversion{
		toFrame: func(EOPConfig, time.Time) geometry.Matrix3 { return geometry.Identity3() },
		omega:   func(EOPConfig, time.Time) geometry.Vector3 { return geometry.Vector3{} },
	}
	rotating := conversion{
		toFrame: func(cfg EOPConfig, epoch time.Time) geometry.Matrix3 {
			return geometry.RotationZ(GMST(cfg, epoch))
		},
		omega: func(EOPConfig, time.Time) geometry.Vector3 {
			return geometry.Vector3{Z: EarthRotationRate}
		},
	}
	return &Transformer{
		cfg: cfg,
		registry: map[Frame]conversion{
			FrameECI:  identity,
			FrameTEME: identity,
			FrameECF:  rotating,
			FrameGTOD: rotating,
		},
	}
}

// Config returns the Earth-orientation parameters the Transformer was built
// with.
func (tr *Transformer) Config() EOPConfig { return tr.cfg }

// Supports reports whether a position/velocity transformation is registered
// for the frame.
func (tr *Transformer) Supports(f Frame) bool {
	_, ok := tr.registry[f.Canonical()]
	return ok
}

// TransformPV re-expresses a position/velocity pair from one frame to
// another at the same epoch. Position units are preserved; velocity must be
// position-units per second for the Earth-rotation transport term to be
// dimensionally consistent.
func (tr *Transformer) TransformPV(pos, vel geometry.Vector3, from, to Frame, epoch time.Time) (geometry.Vector3, geometry.Vector3, error) {
	from, to = from.Canonical(), to.Canonical()
	if from == to {
		return pos, vel, nil
	}
	src, ok := tr.registry[from]
	if !ok {
		return geometry.Vector3{}, geometry.Vector3{}, &UnsupportedFrameError{From: from, To: to}
	}
	dst, ok := tr.registry[to]
	if !ok {
		return geometry.Vector3{}, geometry.Vector3{}, &UnsupportedFrameError{From: from, To: to}
	}

	// Source frame to hub.
	mSrc := src.toFrame(tr.cfg, epoch)
	wSrc := src.omega(tr.cfg, epoch)
	mSrcT := mSrc.Transpose()
	posHub := mSrcT.MulVec(pos)
	velHub := mSrcT.MulVec(vel).Add(wSrc.Cross(posHub))

	// Hub to destination frame.
	mDst := dst.toFrame(tr.cfg, epoch)
	wDst := dst.omega(tr.cfg, epoch)
	posOut := mDst.MulVec(posHub)
	velOut := mDst.MulVec(velHub.Sub(wDst.Cross(posHub)))
	return posOut, velOut, nil
}

// TransformPosition re-expresses a position vector only; any velocity
// transport term is irrelevant for a pure position.
func (tr *Transformer) TransformPosition(pos geometry.Vector3, from, to Frame, epoch time.Time) (geometry.Vector3, error) {
	p, _, err := tr.TransformPV(pos, geometry.Vector3{}, from, to, epoch)
	return p, err
}

// GMST returns the Greenwich mean sidereal time in radians at the given
// UTC epoch, with the configured DUT1 offset applied. Julian date and
// sidereal time come from the go-satellite SGP4 implementation so the
// rotation is consistent with TLE propagation output.
func GMST(cfg EOPConfig, epoch time.Time) float64 {
	ut1 := epoch.UTC().Add(time.Duration(cfg.DUT1Seconds * float64(time.Second)))
	jd := satellite.JDay(ut1.Year(), int(ut1.Month()), ut1.Day(), ut1.Hour(), ut1.Minute(), ut1.Second())
	jd += float64(ut1.Nanosecond()) / 1e9 / 86400.0
	return satellite.ThetaG_JD(jd)
}
