package orbit

import (
	"fmt"
	"time"

	"github.com/exotrail/spacetower-go-sdk/frames"
	"github.com/exotrail/spacetower-go-sdk/geometry"
)

// StateSource records which model produced an orbital state. Downstream
// consumers use it to decide whether elements derived from the state are
// mean or osculating.
type StateSource string

const (
	SourceMeanOrbit       StateSource = "MEAN_ORBIT"
	SourceOsculatingOrbit StateSource = "OSCULATING_ORBIT"
	SourceTLE             StateSource = "TLE"
)

// OrbitalState is a cartesian position/velocity pair at an epoch, expressed
// in a named frame. Position is in km, velocity in km/s.
type OrbitalState struct {
	Position geometry.Vector3
	Velocity geometry.Vector3
	Epoch    time.Time
	Frame    frames.Frame
	Source   StateSource
}

// StateFromElements builds an osculating state in the ECI frame from a
// Keplerian element set.
func StateFromElements(k KeplerianElements, epoch time.Time) OrbitalState {
	pos, vel := k.ToCartesian()
	return OrbitalState{
		Position: pos,
		Velocity: vel,
		Epoch:    epoch,
		Frame:    frames.FrameECI,
		Source:   SourceOsculatingOrbit,
	}
}

// InFrame re-expresses the state in another frame at its own epoch,
// preserving the epoch and provenance tag.
func (s OrbitalState) InFrame(tr *frames.Transformer, to frames.Frame) (OrbitalState, error) {
	pos, vel, err := tr.TransformPV(s.Position, s.Velocity, s.Frame, to, s.Epoch)
	if err != nil {
		return OrbitalState{}, err
	}
	out := s
	out.Position = pos
	out.Velocity = vel
	out.Frame = to
	return out, nil
}

// Elements recovers the Keplerian element set of the state. The state must
// be expressed in an inertial frame; Earth-fixed states have no meaningful
// element set without a frame conversion first.
func (s OrbitalState) Elements() (KeplerianElements, error) {
	switch s.Frame.Canonical() {
	case frames.FrameECI, frames.FrameTEME:
		return ElementsFromCartesian(s.Position, s.Velocity)
	default:
		return KeplerianElements{}, fmt.Errorf("orbit: element extraction requires an inertial frame, state is in %s", s.Frame)
	}
}

// Altitude returns the geometric altitude above the WGS-84 mean equatorial
// radius, in km. It is a coarse figure for logging and sanity checks, not a
// geodetic altitude.
func (s OrbitalState) Altitude() float64 {
	const earthRadius = 6378.137
	return s.Position.Norm() - earthRadius
}
