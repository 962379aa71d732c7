// Package color_engine converts color temperatures and gel swatches into light colors.
package color_engine

import (
	"math"

	"previz_studio/entities"
)

// KelvinToColor maps a color temperature to a normalized RGB tint using Tanner Helland's
// curve fit. Defined for 1000K..40000K.
func KelvinToColor(tempKelvin int) entities.RGB {
	t := float64(tempKelvin) / 100

	var r, g, b float64

	if t <= 66 {
		r = 255
		g = 99.4708025861*math.Log(t) - 161.1195681661
	} else {
		r = 329.698727446 * math.Pow(t-60, -0.1332047592)
		g = 288.1221695283 * math.Pow(t-60, -0.0755148492)
	}

	switch {
	case t >= 66:
		b = 255
	case t <= 19:
		b = 0
	default:
		b = 138.5177312231*math.Log(t-10) - 305.0447927307
	}

	return entities.RGB{
		R: clamp(r, 0, 255) / 255,
		G: clamp(g, 0, 255) / 255,
		B: clamp(b, 0, 255) / 255,
	}
}

// BlendGel filters a white-balanced temperature tint through a gel: temperature first,
// gel multiplied over it.
func BlendGel(tempColor, gelColor entities.RGB) entities.RGB {
	return entities.RGB{
		R: tempColor.R * gelColor.R,
		G: tempColor.G * gelColor.G,
		B: tempColor.B * gelColor.B,
	}
}

// LightColor is the final color of a light with the given temperature and gel hex.
// An unparsable gel is treated as neutral.
func LightColor(tempKelvin int, gelHex string) entities.RGB {
	gel, err := ParseHex(gelHex)
	if err != nil {
		gel = entities.White
	}

	return BlendGel(KelvinToColor(tempKelvin), gel)
}

func clamp(x, min, max float64) float64 {
	return math.Min(math.Max(x, min), max)
}
