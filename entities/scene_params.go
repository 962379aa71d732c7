package entities

import (
	"github.com/go-gl/mathgl/mgl64"
)

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector3) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func VectorFrom(v mgl64.Vec3) Vector3 {
	return Vector3{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// RGB holds linear color channels in [0,1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

var White = RGB{R: 1, G: 1, B: 1}

type LightSettings struct {
	Position  Vector3 `json:"position"`
	Intensity float64 `json:"intensity"`
	ColorTemp int     `json:"colorTemp"`
	Gel       string  `json:"gel"`
	Enabled   bool    `json:"enabled"`
}

const (
	MinColorTemp = 2000
	MaxColorTemp = 10000
)

type SceneParams struct {
	SubjectDescription string        `json:"subjectDescription"`
	SubjectModel       SubjectModel  `json:"subjectModel"`
	KeyLight           LightSettings `json:"keyLight"`
	FillLight          LightSettings `json:"fillLight"`
	CameraAngle        CameraAngle   `json:"cameraAngle"`
	LensType           LensType      `json:"lensType"`
	ShotSize           ShotSize      `json:"shotSize"`
	VisualStyle        VisualStyle   `json:"visualStyle"`
}

// Light returns the settings for the given role.
func (p *SceneParams) Light(role LightRole) *LightSettings {
	if role == RoleFill {
		return &p.FillLight
	}

	return &p.KeyLight
}

// Clone returns an independent copy of p. SceneParams holds only values, so the copy
// shares nothing with p.
func (p SceneParams) Clone() SceneParams {
	return p
}

var DefaultLight = LightSettings{
	Position:  Vector3{X: -2, Y: 2, Z: -2},
	Intensity: 1.0,
	ColorTemp: 5600,
	Gel:       "#ffffff",
	Enabled:   true,
}

func DefaultKeyLight() LightSettings {
	l := DefaultLight
	l.Position = Vector3{X: -2, Y: 2.5, Z: -2}
	l.Intensity = 1.2

	return l
}

func DefaultFillLight() LightSettings {
	l := DefaultLight
	l.Position = Vector3{X: 2, Y: 1.5, Z: -2}
	l.Intensity = 0.3

	return l
}

func DefaultParams() SceneParams {
	return SceneParams{
		SubjectDescription: "A futuristic cyberpunk detective standing in the rain",
		SubjectModel:       SubjectMannequin,
		KeyLight:           DefaultKeyLight(),
		FillLight:          DefaultFillLight(),
		CameraAngle:        AngleEyeLevel,
		LensType:           Lens35mm,
		ShotSize:           ShotWide,
		VisualStyle:        StyleCinematic,
	}
}
