package light_rig

import (
	"testing"

	"previz_studio/color_engine"
	"previz_studio/entities"

	"github.com/stretchr/testify/assert"
)

func TestSyncLightWarmNeutral(t *testing.T) {
	settings := entities.LightSettings{
		Position:  entities.Vector3{X: -2, Y: 2.5, Z: -2},
		Intensity: 1.0,
		ColorTemp: 2000,
		Gel:       "#ffffff",
		Enabled:   true,
	}

	state := SyncLight(settings, entities.ShotWide)

	assert.Equal(t, 80.0, state.RendererIntensity)
	assert.Equal(t, color_engine.KelvinToColor(2000), state.Color)
	assert.Equal(t, 1.0, state.Color.R)
	assert.Less(t, state.Color.B, 0.1)
	assert.True(t, state.Visible)
	assert.Equal(t, settings.Position, state.Position)
	assert.Equal(t, entities.Vector3{Y: 1.0}, state.Target)
}

func TestSyncLightDisabled(t *testing.T) {
	settings := entities.DefaultKeyLight()
	settings.Enabled = false

	state := SyncLight(settings, entities.ShotCloseUp)

	assert.Equal(t, 0.0, state.RendererIntensity)
	assert.False(t, state.Visible)
	assert.Equal(t, 1.6, state.Target.Y)
}

func TestSyncLightIntensityIsNotClamped(t *testing.T) {
	settings := entities.DefaultFillLight()
	settings.Intensity = 7.5

	assert.Equal(t, 600.0, SyncLight(settings, entities.ShotMedium).RendererIntensity)
}

func TestTargetY(t *testing.T) {
	assert.Equal(t, 1.6, TargetY(entities.ShotCloseUp))
	assert.Equal(t, 1.3, TargetY(entities.ShotMedium))
	assert.Equal(t, 1.0, TargetY(entities.ShotFull))
	assert.Equal(t, 1.0, TargetY(entities.ShotWide))
}
