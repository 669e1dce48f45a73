// Package orbit holds the orbital-state model shared by the propagation and
// frame-transformation layers: Keplerian element sets, anomaly conversions,
// and cartesian states tagged with their epoch, frame and provenance.
package orbit

import (
	"fmt"
	"math"

	"github.com/exotrail/spacetower-go-sdk/geometry"
)

// EarthGravParam is the Earth gravitational parameter in km^3/s^2 (EGM96).
const EarthGravParam = 398600.4418

// KeplerianElements is a classical element set. Angles are in degrees and
// the semi-major axis in kilometres, matching the conventions of the
// flight-dynamics API this SDK fronts. Construction wraps each angle into
// its canonical range.
type KeplerianElements struct {
	SMA  float64 // semi-major axis [km]
	ECC  float64 // eccentricity [-]
	INC  float64 // inclination [deg], in [0, 180)
	AOP  float64 // argument of perigee [deg], in [0, 360)
	RAAN float64 // right ascension of the ascending node [deg], in [-180, 180)
	TA   float64 // true anomaly [deg], in [0, 360)
}

// NewKeplerianElements builds an element set from a true anomaly, wrapping
// angles into canonical ranges and validating the conic shape.
func NewKeplerianElements(sma, ecc, inc, aop, raan, ta float64) (KeplerianElements, error) {
	if err := checkShape(sma, ecc); err != nil {
		return KeplerianElements{}, err
	}
	return KeplerianElements{
		SMA:  sma,
		ECC:  ecc,
		INC:  geometry.Wrap(inc, 0, 180),
		AOP:  geometry.Wrap(aop, 0, 360),
		RAAN: geometry.Wrap(raan, -180, 180),
		TA:   geometry.Wrap(ta, 0, 360),
	}, nil
}

// NewKeplerianElementsWithMeanAnomaly builds an element set from a mean
// anomaly in degrees, solving Kepler's equation for the true anomaly.
func NewKeplerianElementsWithMeanAnomaly(sma, ecc, inc, aop, raan, ma float64) (KeplerianElements, error) {
	if err := checkShape(sma, ecc); err != nil {
		return KeplerianElements{}, err
	}
	ta := TrueAnomalyFromMeanAnomaly(ecc, geometry.Rad(ma))
	return NewKeplerianElements(sma, ecc, inc, aop, raan, geometry.Deg(ta))
}

func checkShape(sma, ecc float64) error {
	if sma <= 0 {
		return fmt.Errorf("orbit: semi-major axis must be positive, got %g km", sma)
	}
	if ecc < 0 || ecc >= 1 {
		return fmt.Errorf("orbit: eccentricity must be in [0, 1), got %g", ecc)
	}
	return nil
}

// MeanAnomaly returns the mean anomaly in degrees, in [0, 360).
func (k KeplerianElements) MeanAnomaly() float64 {
	ma := MeanAnomalyFromTrueAnomaly(k.ECC, geometry.Rad(k.TA))
	return geometry.Wrap(geometry.Deg(ma), 0, 360)
}

// Period returns the Keplerian orbital period in seconds.
func (k KeplerianElements) Period() float64 {
	return Period(k.SMA)
}

// Period returns the Keplerian period in seconds of an orbit with the given
// semi-major axis in kilometres.
func Period(sma float64) float64 {
	return 2 * math.Pi * math.Sqrt(sma*sma*sma/EarthGravParam)
}

// EccentricAnomalyFromTrueAnomaly converts a true anomaly to an eccentric
// anomaly, both in radians (Celestlab CL_kp_v2E).
func EccentricAnomalyFromTrueAnomaly(ecc, trueAnomaly float64) float64 {
	v := geometry.Wrap(trueAnomaly, -math.Pi, math.Pi)
	beta := ecc / (1 + math.Sqrt(1-ecc*ecc))
	return v - 2*math.Atan2(beta*math.Sin(v), 1+beta*math.Cos(v))
}

// MeanAnomalyFromEccentricAnomaly applies Kepler's equation, radians in and
// out (Curtis eq. 3.11).
func MeanAnomalyFromEccentricAnomaly(ecc, eccentricAnomaly float64) float64 {
	return eccentricAnomaly - ecc*math.Sin(eccentricAnomaly)
}

// MeanAnomalyFromTrueAnomaly converts a true anomaly to a mean anomaly,
// both in radians.
func MeanAnomalyFromTrueAnomaly(ecc, trueAnomaly float64) float64 {
	return MeanAnomalyFromEccentricAnomaly(ecc, EccentricAnomalyFromTrueAnomaly(ecc, trueAnomaly))
}

// EccentricAnomalyFromMeanAnomaly inverts Kepler's equation by
// Newton-Raphson iteration (Curtis eq. 3.14), radians in and out.
func EccentricAnomalyFromMeanAnomaly(ecc, meanAnomaly float64) float64 {
	const stepTol = 1e-15

	// Initial guess.
	ea := meanAnomaly
	if ecc >= 0.8 {
		ea = math.Pi
	}

	f := ea - ecc*math.Sin(ea) - meanAnomaly
	fPrime := 1 - ecc*math.Cos(ea)
	for i := 0; math.Abs(f/fPrime) > stepTol && i < 50; i++ {
		ea -= f / fPrime
		f = ea - ecc*math.Sin(ea) - meanAnomaly
		fPrime = 1 - ecc*math.Cos(ea)
	}
	return ea
}

// TrueAnomalyFromEccentricAnomaly converts an eccentric anomaly to a true
// anomaly, both in radians (Celestlab CL_kp_E2v).
func TrueAnomalyFromEccentricAnomaly(ecc, eccentricAnomaly float64) float64 {
	beta := ecc / (1 + math.Sqrt(1-ecc*ecc))
	return eccentricAnomaly + 2*math.Atan2(beta*math.Sin(eccentricAnomaly), 1-beta*math.Cos(eccentricAnomaly))
}

// TrueAnomalyFromMeanAnomaly converts a mean anomaly to a true anomaly,
// both in radians.
func TrueAnomalyFromMeanAnomaly(ecc, meanAnomaly float64) float64 {
	return TrueAnomalyFromEccentricAnomaly(ecc, EccentricAnomalyFromMeanAnomaly(ecc, meanAnomaly))
}

// ToCartesian converts the element set to an inertial position/velocity
// pair in km and km/s (Celestlab CL_oe_kep2car).
func (k KeplerianElements) ToCartesian() (position, velocity geometry.Vector3) {
	inc := geometry.Rad(k.INC)
	aop := geometry.Rad(k.AOP)
	raan := geometry.Rad(k.RAAN)
	ma := geometry.Rad(k.MeanAnomaly())

	ea := EccentricAnomalyFromMeanAnomaly(k.ECC, ma)

	r := k.SMA * (1 - k.ECC*math.Cos(ea))
	n := math.Sqrt(EarthGravParam / (k.SMA * k.SMA * k.SMA))
	eta := math.Sqrt(1 - k.ECC*k.ECC)

	x := k.SMA * (math.Cos(ea) - k.ECC)
	y := k.SMA * eta * math.Sin(ea)
	vx := -n * k.SMA * k.SMA / r * math.Sin(ea)
	vy := n * k.SMA * k.SMA / r * eta * math.Cos(ea)

	cAop, sAop := math.Cos(aop), math.Sin(aop)
	cRaan, sRaan := math.Cos(raan), math.Sin(raan)
	cInc, sInc := math.Cos(inc), math.Sin(inc)

	p := geometry.Vector3{
		X: cAop*cRaan - sAop*sRaan*cInc,
		Y: cAop*sRaan + sAop*cRaan*cInc,
		Z: sAop * sInc,
	}
	q := geometry.Vector3{
		X: -sAop*cRaan - cAop*sRaan*cInc,
		Y: -sAop*sRaan + cAop*cRaan*cInc,
		Z: cAop * sInc,
	}

	position = p.Scale(x).Add(q.Scale(y))
	velocity = p.Scale(vx).Add(q.Scale(vy))
	return position, velocity
}

// ElementsFromCartesian recovers a Keplerian element set from an inertial
// position/velocity pair in km and km/s. It fails for degenerate
// (rectilinear or non-elliptic) states.
func ElementsFromCartesian(position, velocity geometry.Vector3) (KeplerianElements, error) {
	r := position.Norm()
	v := velocity.Norm()
	if r < 1e-9 {
		return KeplerianElements{}, fmt.Errorf("orbit: degenerate position: %w", geometry.ErrDegenerateVector)
	}

	h := position.Cross(velocity)
	if h.Norm() < 1e-9 {
		return KeplerianElements{}, fmt.Errorf("orbit: rectilinear trajectory has no element set")
	}

	energy := v*v/2 - EarthGravParam/r
	if energy >= 0 {
		return KeplerianElements{}, fmt.Errorf("orbit: state is not elliptic (specific energy %g km^2/s^2)", energy)
	}
	sma := -EarthGravParam / (2 * energy)

	// Eccentricity vector.
	eVec := velocity.Cross(h).Scale(1 / EarthGravParam).Sub(position.Scale(1 / r))
	ecc := eVec.Norm()

	inc := math.Acos(math.Max(-1, math.Min(1, h.Z/h.Norm())))

	// Node vector: k x h.
	node := geometry.Vector3{X: -h.Y, Y: h.X}
	var raan, aop, ta float64
	if node.Norm() > 1e-9 {
		raan = math.Atan2(node.Y, node.X)
	}

	if ecc > 1e-11 {
		if node.Norm() > 1e-9 {
			cosAop := node.Dot(eVec) / (node.Norm() * ecc)
			aop = math.Acos(math.Max(-1, math.Min(1, cosAop)))
			if eVec.Z < 0 {
				aop = 2*math.Pi - aop
			}
		} else {
			aop = math.Atan2(eVec.Y, eVec.X)
		}
		cosTA := eVec.Dot(position) / (ecc * r)
		ta = math.Acos(math.Max(-1, math.Min(1, cosTA)))
		if position.Dot(velocity) < 0 {
			ta = 2*math.Pi - ta
		}
	} else {
		// Circular orbit: measure the anomaly from the node line.
		if node.Norm() > 1e-9 {
			cosU := node.Dot(position) / (node.Norm() * r)
			ta = math.Acos(math.Max(-1, math.Min(1, cosU)))
			if position.Z < 0 {
				ta = 2*math.Pi - ta
			}
		} else {
			ta = math.Atan2(position.Y, position.X)
		}
	}

	return NewKeplerianElements(sma, ecc, geometry.Deg(inc), geometry.Deg(aop), geometry.Deg(raan), geometry.Deg(ta))
}
