package frames

import "github.com/exotrail/spacetower-go-sdk/geometry"

// TNWMatrix returns the matrix rotating inertial coordinates into the TNW
// local orbital frame of the given state: T along the velocity, W along the
// orbital momentum, N completing the triad (Celestlab CL_fr_tnwMat). The
// state must have non-degenerate velocity and momentum.
func TNWMatrix(position, velocity geometry.Vector3) (geometry.Matrix3, error) {
	uT, err := velocity.Unit()
	if err != nil {
		return geometry.Matrix3{}, err
	}
	uW, err := position.Cross(velocity).Unit()
	if err != nil {
		return geometry.Matrix3{}, err
	}
	uN := uW.Cross(uT)
	return geometry.Matrix3{
		{uT.X, uT.Y, uT.Z},
		{uN.X, uN.Y, uN.Z},
		{uW.X, uW.Y, uW.Z},
	}, nil
}

// QSWMatrix returns the matrix rotating inertial coordinates into the
// LVLH/QSW frame of the given state: R opposite the position, H opposite
// the orbital momentum, L completing the triad (Celestlab CL_fr_lvlhMat).
func QSWMatrix(position, velocity geometry.Vector3) (geometry.Matrix3, error) {
	uPos, err := position.Unit()
	if err != nil {
		return geometry.Matrix3{}, err
	}
	uMom, err := position.Cross(velocity).Unit()
	if err != nil {
		return geometry.Matrix3{}, err
	}
	uR := uPos.Scale(-1)
	uH := uMom.Scale(-1)
	uL := uH.Cross(uR)
	return geometry.Matrix3{
		{uL.X, uL.Y, uL.Z},
		{uH.X, uH.Y, uH.Z},
		{uR.X, uR.Y, uR.Z},
	}, nil
}
