// Package camera_rig derives camera placement from the framing controls.
package camera_rig

import (
	"math"

	"previz_studio/entities"
)

type CameraState struct {
	Position entities.Vector3
	Target   entities.Vector3
	FOV      float64
}

// TargetY is the look-at height for a shot size.
func TargetY(shot entities.ShotSize) float64 {
	switch shot {
	case entities.ShotCloseUp:
		return 1.65
	case entities.ShotMedium:
		return 1.3
	default:
		return 0.9
	}
}

// Distance is the camera-to-target distance for a shot size.
func Distance(shot entities.ShotSize) float64 {
	switch shot {
	case entities.ShotCloseUp:
		return 2.0
	case entities.ShotMedium:
		return 3.5
	case entities.ShotFull:
		return 5.5
	case entities.ShotWide:
		return 8.0
	default:
		return 4.0
	}
}

// Phi is the polar angle measured from +Y. Dutch Angle shares the eye-level angle;
// no roll is applied.
func Phi(angle entities.CameraAngle) float64 {
	switch angle {
	case entities.AngleHigh:
		return math.Pi / 3.5
	case entities.AngleLow:
		return math.Pi / 1.7
	default:
		return math.Pi/2 - 0.1
	}
}

// FOV is the vertical field of view in degrees for a lens.
func FOV(lens entities.LensType) float64 {
	switch lens {
	case entities.Lens24mm:
		return 74
	case entities.Lens35mm:
		return 54
	case entities.Lens50mm:
		return 40
	case entities.Lens85mm:
		return 24
	default:
		return 45
	}
}

// ComputeCamera places the camera on a sphere around the framing target. The azimuth comes
// from the free-orbit control so reframing keeps the user's horizontal viewing angle.
func ComputeCamera(params entities.SceneParams, orbitAzimuth float64) CameraState {
	target := entities.Vector3{X: 0, Y: TargetY(params.ShotSize), Z: 0}
	dist := Distance(params.ShotSize)
	phi := Phi(params.CameraAngle)

	return CameraState{
		Position: entities.Vector3{
			X: target.X + dist*math.Sin(phi)*math.Sin(orbitAzimuth),
			Y: target.Y + dist*math.Cos(phi),
			Z: target.Z + dist*math.Sin(phi)*math.Cos(orbitAzimuth),
		},
		Target: target,
		FOV:    FOV(params.LensType),
	}
}

// Azimuth recovers the horizontal orbit angle of a camera position around target,
// matching the convention used by ComputeCamera.
func Azimuth(position, target entities.Vector3) float64 {
	return math.Atan2(position.X-target.X, position.Z-target.Z)
}
