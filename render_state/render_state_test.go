package render_state

import (
	"testing"

	"previz_studio/entities"

	"github.com/stretchr/testify/assert"
)

func TestComputeCombinesRigs(t *testing.T) {
	params := entities.DefaultParams()
	params.ShotSize = entities.ShotCloseUp
	params.FillLight.Enabled = false

	rs := Compute(params, 0.5)

	assert.Equal(t, 1.65, rs.Camera.Target.Y)
	assert.Equal(t, 1.6, rs.Key.Target.Y)
	assert.InDelta(t, 96.0, rs.Key.RendererIntensity, 1e-9)
	assert.Equal(t, 0.0, rs.Fill.RendererIntensity)
	assert.False(t, rs.Fill.Visible)
	assert.Equal(t, rs, Compute(params, 0.5))
}

func TestEnvironmentFor(t *testing.T) {
	noir := EnvironmentFor(entities.StyleFilmNoir)
	assert.Equal(t, 0.8, noir.Exposure)
	assert.Equal(t, entities.RGB{}, noir.Background)
	assert.Equal(t, 0.05, noir.FogDensity)

	ethereal := EnvironmentFor(entities.StyleEthereal)
	assert.Equal(t, 1.3, ethereal.Exposure)
	assert.InDelta(t, 0xd1/255.0, ethereal.FogColor.R, 1e-12)

	assert.Equal(t, 1.2, EnvironmentFor(entities.StyleCyberpunk).Exposure)
	assert.Equal(t, EnvironmentFor(entities.StyleCinematic), EnvironmentFor(entities.StyleDocumentary))
	assert.Equal(t, 0.02, EnvironmentFor(entities.StyleCinematic).FogDensity)
}
