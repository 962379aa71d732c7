package scene_state

import (
	"fmt"
	"strings"

	"previz_studio/entities"
)

// LightingPreset repositions both lights and sets the fill ratio.
type LightingPreset struct {
	Name          string
	Key           entities.Vector3
	Fill          entities.Vector3
	FillIntensity float64
}

var LightingPresets = []LightingPreset{
	{Name: "Rembrandt", Key: entities.Vector3{X: -2.5, Y: 2.5, Z: -2.5}, Fill: entities.Vector3{X: 2, Y: 1, Z: -1.5}, FillIntensity: 0.2},
	{Name: "Split", Key: entities.Vector3{X: -4, Y: 1.5, Z: 0}, Fill: entities.Vector3{X: 4, Y: 1.5, Z: 0}, FillIntensity: 0.1},
	{Name: "Butterfly", Key: entities.Vector3{X: 0, Y: 4, Z: -3}, Fill: entities.Vector3{X: 0, Y: 0, Z: -3}, FillIntensity: 0.4},
}

type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown lighting preset %q", e.Name)
}

func (e *UnknownPresetError) Is(err error) bool {
	_, ok := err.(*UnknownPresetError)
	return ok
}

func FindPreset(name string) (LightingPreset, error) {
	for _, p := range LightingPresets {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}

	return LightingPreset{}, &UnknownPresetError{Name: name}
}

func (p LightingPreset) apply(params *entities.SceneParams) {
	params.KeyLight.Position = p.Key
	params.FillLight.Position = p.Fill
	params.FillLight.Intensity = p.FillIntensity
}
