// Package light_rig maps light settings to renderer-native light values.
package light_rig

import (
	"previz_studio/color_engine"
	"previz_studio/entities"
)

// RendererIntensityScale converts the tool's abstract 0..~3 intensity into the
// renderer's physical light units. Changing it changes the look of every saved scene.
const RendererIntensityScale = 80

type LightState struct {
	Position          entities.Vector3
	Color             entities.RGB
	RendererIntensity float64
	Target            entities.Vector3
	// Visible applies to the gizmo mesh attached to the light.
	Visible bool
}

// TargetY is the aim height for both lights, so faces stay lit for every framing.
func TargetY(shot entities.ShotSize) float64 {
	switch shot {
	case entities.ShotCloseUp:
		return 1.6
	case entities.ShotMedium:
		return 1.3
	default:
		return 1.0
	}
}

func SyncLight(settings entities.LightSettings, shot entities.ShotSize) LightState {
	intensity := 0.0
	if settings.Enabled {
		intensity = settings.Intensity * RendererIntensityScale
	}

	return LightState{
		Position:          settings.Position,
		Color:             color_engine.LightColor(settings.ColorTemp, settings.Gel),
		RendererIntensity: intensity,
		Target:            entities.Vector3{X: 0, Y: TargetY(shot), Z: 0},
		Visible:           settings.Enabled,
	}
}
