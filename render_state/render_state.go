// Package render_state computes the complete renderer state for a scene snapshot.
package render_state

import (
	"previz_studio/camera_rig"
	"previz_studio/color_engine"
	"previz_studio/entities"
	"previz_studio/light_rig"
)

type Environment struct {
	Exposure   float64
	Background entities.RGB
	FogColor   entities.RGB
	FogDensity float64
}

type RenderState struct {
	Camera      camera_rig.CameraState
	Key         light_rig.LightState
	Fill        light_rig.LightState
	Environment Environment
}

// EnvironmentFor returns the stage mood for a visual style.
func EnvironmentFor(style entities.VisualStyle) Environment {
	switch style {
	case entities.StyleFilmNoir:
		return mood(0.8, "#000000", 0.05)
	case entities.StyleCyberpunk:
		return mood(1.2, "#0b0214", 0.03)
	case entities.StyleEthereal:
		return mood(1.3, "#d1d5db", 0.04)
	default:
		return mood(1.0, "#1a1a20", 0.02)
	}
}

func mood(exposure float64, hex string, density float64) Environment {
	// the literals above are always valid
	c, _ := color_engine.ParseHex(hex)

	return Environment{
		Exposure:   exposure,
		Background: c,
		FogColor:   c,
		FogDensity: density,
	}
}

// Compute is a pure function of the scene snapshot and the orbit azimuth.
func Compute(params entities.SceneParams, orbitAzimuth float64) RenderState {
	return RenderState{
		Camera:      camera_rig.ComputeCamera(params, orbitAzimuth),
		Key:         light_rig.SyncLight(params.KeyLight, params.ShotSize),
		Fill:        light_rig.SyncLight(params.FillLight, params.ShotSize),
		Environment: EnvironmentFor(params.VisualStyle),
	}
}
