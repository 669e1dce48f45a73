// Package frames names the reference frames used across the SDK and
// converts position/velocity states between them at a given epoch.
//
// Frame transformations are pure functions of their inputs: the Earth
// rotation model is carried in an explicit, versioned EOPConfig instead of
// process-wide state, so identical inputs always produce identical outputs.
package frames

import "fmt"

// Frame identifies a reference frame. The set is closed: conversions are
// dispatched through an explicit registry rather than open-ended dynamic
// dispatch.
type Frame string

const (
	// Inertial frames.
	FrameCIRF    Frame = "CIRF"
	FrameECI     Frame = "ECI"
	FrameTEME    Frame = "TEME"
	FrameJ2000   Frame = "J2000"
	FrameEME2000 Frame = "EME2000"
	FrameGCRF    Frame = "GCRF"

	// Earth-fixed rotating frames.
	FrameITRF Frame = "ITRF"
	FrameGTOD Frame = "GTOD"
	FrameECF  Frame = "ECF"

	// Local orbital frames, defined relative to an orbital state.
	FrameTNW Frame = "TNW"
	FrameQSW Frame = "QSW"
)

// aliases maps equivalent frame names onto the canonical identifier used
// by the transformation registry.
var aliases = map[Frame]Frame{
	FrameCIRF:  FrameECI,
	FrameITRF:  FrameECF,
	FrameJ2000: FrameEME2000,
}

// Canonical resolves frame aliases (CIRF is ECI, ITRF is ECF, J2000 is
// EME2000). Unknown frames pass through unchanged so the transformation
// lookup can report them.
func (f Frame) Canonical() Frame {
	if c, ok := aliases[f]; ok {
		return c
	}
	return f
}

// UnsupportedFrameError reports that no transformation path is registered
// between two frames.
type UnsupportedFrameError struct {
	From Frame
	To   Frame
}

func (e *UnsupportedFrameError) Error() string {
	return fmt.Sprintf("frames: no registered transformation from %q to %q", e.From, e.To)
}
