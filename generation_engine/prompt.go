package generation_engine

import (
	"fmt"
	"strings"

	"previz_studio/color_engine"
	"previz_studio/entities"
)

const qualitySuffix = "Breathtaking, photorealistic, 8k resolution, highly detailed texture, sharp focus, cinematic lighting."

func describeLight(label string, l entities.LightSettings) string {
	return fmt.Sprintf("%s: %s (%dK) with %s gel, positioned at [x:%.1f, y:%.1f], intensity %.0f%%.",
		label,
		color_engine.TemperatureDescription(l.ColorTemp),
		l.ColorTemp,
		color_engine.GelName(l.Gel),
		l.Position.X,
		l.Position.Y,
		l.Intensity*100,
	)
}

// LightingDescription describes the key light, and the fill light only when it is on.
func LightingDescription(p entities.SceneParams) string {
	desc := describeLight("Key Light", p.KeyLight)

	if p.FillLight.Enabled {
		desc += " " + describeLight("Fill Light", p.FillLight)
	}

	return desc
}

func cameraDescription(p entities.SceneParams) string {
	return fmt.Sprintf("Camera: %s, %s, %s lens.", p.ShotSize, p.CameraAngle, p.LensType)
}

// StudioPrompt is the text-only prompt for the Bria model family.
func StudioPrompt(p entities.SceneParams) string {
	return strings.Join([]string{
		fmt.Sprintf("High-end studio photography, %s style.", p.VisualStyle),
		fmt.Sprintf("Subject: %s.", p.SubjectDescription),
		"Lighting Setup: " + LightingDescription(p),
		cameraDescription(p),
		qualitySuffix,
	}, " ")
}

// ReferencePrompt is the prompt for engines that also receive the clean plate.
func ReferencePrompt(p entities.SceneParams) string {
	lines := []string{
		"Generate a high-quality cinematic image based on this scene description and the provided reference image (if available) for composition.",
		"",
		"REFERENCE IMAGE INSTRUCTIONS:",
		"- Strictly follow the camera angle, framing, and perspective of the provided reference image.",
		"- Keep the subject position exactly as shown in the reference.",
		"- Use the reference image only for structure/layout, not for the visual style or final subject appearance (replace the 3D model with the realistic subject described below).",
		"",
		"SCENE DETAILS:",
		fmt.Sprintf("Subject: %s (Replace the proxy 3D models with this).", p.SubjectDescription),
		"Lighting Setup: " + LightingDescription(p),
		cameraDescription(p),
		fmt.Sprintf("Visual Style: %s.", p.VisualStyle),
		"",
		"High fidelity, photorealistic, 8k, highly detailed, sharp focus.",
	}

	return strings.Join(lines, "\n")
}
