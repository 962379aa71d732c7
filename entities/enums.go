package entities

import (
	"encoding/json"
	"fmt"
)

type SubjectModel string

const (
	SubjectMannequin SubjectModel = "Mannequin"
	SubjectGeometric SubjectModel = "Geometric"
	SubjectCube      SubjectModel = "Cube"
	SubjectBoomBox   SubjectModel = "BoomBox"
	SubjectDragon    SubjectModel = "Dragon"
	SubjectHelmet    SubjectModel = "Helmet"
	SubjectCar       SubjectModel = "Car"
)

var SubjectModels = []SubjectModel{
	SubjectMannequin, SubjectGeometric, SubjectCube, SubjectBoomBox, SubjectDragon, SubjectHelmet, SubjectCar,
}

type CameraAngle string

const (
	AngleEyeLevel CameraAngle = "Eye Level"
	AngleHigh     CameraAngle = "High Angle"
	AngleLow      CameraAngle = "Low Angle"
	AngleDutch    CameraAngle = "Dutch Angle"
)

var CameraAngles = []CameraAngle{AngleEyeLevel, AngleHigh, AngleLow, AngleDutch}

type LensType string

const (
	Lens24mm LensType = "24mm"
	Lens35mm LensType = "35mm"
	Lens50mm LensType = "50mm"
	Lens85mm LensType = "85mm"
)

var LensTypes = []LensType{Lens24mm, Lens35mm, Lens50mm, Lens85mm}

type ShotSize string

const (
	ShotCloseUp ShotSize = "Close Up"
	ShotMedium  ShotSize = "Medium Shot"
	ShotFull    ShotSize = "Full Shot"
	ShotWide    ShotSize = "Wide Shot"
)

var ShotSizes = []ShotSize{ShotCloseUp, ShotMedium, ShotFull, ShotWide}

type VisualStyle string

const (
	StyleCinematic   VisualStyle = "Cinematic"
	StyleFilmNoir    VisualStyle = "Film Noir"
	StyleCyberpunk   VisualStyle = "Cyberpunk"
	StyleEthereal    VisualStyle = "Ethereal"
	StyleDocumentary VisualStyle = "Documentary"
)

var VisualStyles = []VisualStyle{StyleCinematic, StyleFilmNoir, StyleCyberpunk, StyleEthereal, StyleDocumentary}

// ControlMode selects which entity the drag gizmo is attached to.
type ControlMode string

const (
	ModeOrbit    ControlMode = "ORBIT"
	ModeDragKey  ControlMode = "DRAG_KEY"
	ModeDragFill ControlMode = "DRAG_FILL"
)

var ControlModes = []ControlMode{ModeOrbit, ModeDragKey, ModeDragFill}

type LightRole string

const (
	RoleKey  LightRole = "key"
	RoleFill LightRole = "fill"
)

var LightRoles = []LightRole{RoleKey, RoleFill}

// EngineKind identifies the external generation engine that produced a shot.
type EngineKind string

const (
	EngineBria   EngineKind = "BRIA"
	EngineFal    EngineKind = "FAL"
	EngineGemini EngineKind = "GEMINI"
)

var EngineKinds = []EngineKind{EngineBria, EngineFal, EngineGemini}

type InvalidEnumError struct {
	Kind  string
	Value string
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Kind, e.Value)
}

func (e *InvalidEnumError) Is(err error) bool {
	_, ok := err.(*InvalidEnumError)
	return ok
}

func parseEnum[T ~string](value string, allowed []T, kind string) (T, error) {
	for _, v := range allowed {
		if string(v) == value {
			return v, nil
		}
	}

	var zero T

	return zero, &InvalidEnumError{Kind: kind, Value: value}
}

func unmarshalEnum[T ~string](data []byte, dst *T, allowed []T, kind string) error {
	var s string

	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	v, err := parseEnum(s, allowed, kind)
	if err != nil {
		return err
	}

	*dst = v

	return nil
}

func ParseSubjectModel(s string) (SubjectModel, error) { return parseEnum(s, SubjectModels, "subject model") }
func ParseCameraAngle(s string) (CameraAngle, error) { return parseEnum(s, CameraAngles, "camera angle") }
func ParseLensType(s string) (LensType, error) { return parseEnum(s, LensTypes, "lens type") }
func ParseShotSize(s string) (ShotSize, error) { return parseEnum(s, ShotSizes, "shot size") }
func ParseVisualStyle(s string) (VisualStyle, error) { return parseEnum(s, VisualStyles, "visual style") }
func ParseControlMode(s string) (ControlMode, error) { return parseEnum(s, ControlModes, "control mode") }
func ParseLightRole(s string) (LightRole, error) { return parseEnum(s, LightRoles, "light role") }
func ParseEngineKind(s string) (EngineKind, error) { return parseEnum(s, EngineKinds, "engine") }

func (m *SubjectModel) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, m, SubjectModels, "subject model")
}

func (a *CameraAngle) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, a, CameraAngles, "camera angle")
}

func (l *LensType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, l, LensTypes, "lens type")
}

func (s *ShotSize) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, ShotSizes, "shot size")
}

func (s *VisualStyle) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, VisualStyles, "visual style")
}

func (m *ControlMode) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, m, ControlModes, "control mode")
}

func (r *LightRole) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, r, LightRoles, "light role")
}

func (k *EngineKind) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, k, EngineKinds, "engine")
}
