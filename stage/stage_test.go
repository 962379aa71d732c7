package stage

import (
	"context"
	"image"
	"testing"
	"time"

	"previz_studio/asset_loader"
	"previz_studio/capture_pipeline"
	"previz_studio/entities"
	"previz_studio/render_state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyStage(t *testing.T, params entities.SceneParams) *Stage {
	t.Helper()

	s := New()
	s.Resize(160, 90)
	s.SetSubject(&asset_loader.Subject{
		Model:      params.SubjectModel,
		Primitives: []asset_loader.Primitive{asset_loader.FallbackPrimitive},
	})
	s.Apply(render_state.Compute(params, 0), entities.ModeOrbit)

	return s
}

func TestRenderBeforeResize(t *testing.T) {
	s := New()

	assert.ErrorIs(t, s.RenderFrame(), capture_pipeline.ErrNotReady)

	_, err := s.Preview()
	assert.ErrorIs(t, err, capture_pipeline.ErrNotReady)
}

func TestApplyModes(t *testing.T) {
	s := New()
	rs := render_state.Compute(entities.DefaultParams(), 0)

	s.Apply(rs, entities.ModeDragKey)
	h := s.Helpers()
	assert.True(t, h.TransformEnabled)
	assert.True(t, h.TransformVisible)
	assert.Equal(t, capture_pipeline.AttachKey, h.TransformTarget)

	s.Apply(rs, entities.ModeDragFill)
	assert.Equal(t, capture_pipeline.AttachFill, s.Helpers().TransformTarget)

	s.Apply(rs, entities.ModeOrbit)
	h = s.Helpers()
	assert.False(t, h.TransformEnabled)
	assert.False(t, h.TransformVisible)
	assert.Equal(t, capture_pipeline.AttachNone, h.TransformTarget)
}

func TestApplyFollowsLightEnabled(t *testing.T) {
	params := entities.DefaultParams()
	params.FillLight.Enabled = false

	s := New()
	s.Apply(render_state.Compute(params, 0), entities.ModeOrbit)

	assert.True(t, s.Helpers().KeyGizmoVisible)
	assert.False(t, s.Helpers().FillGizmoVisible)
}

func TestGizmoDrawnInLightColor(t *testing.T) {
	params := entities.DefaultParams()
	params.KeyLight.Position = entities.Vector3{X: 0.3, Y: 1.5, Z: 1}
	params.KeyLight.ColorTemp = 2000

	s := readyStage(t, params)
	rs := render_state.Compute(params, 0)

	x, y, ok := newProjector(rs, 160, 90).project(params.KeyLight.Position)
	require.True(t, ok)

	require.NoError(t, s.RenderFrame())
	img, err := s.Preview()
	require.NoError(t, err)

	assert.Equal(t, toColor(rs.Key.Color), img.(*image.RGBA).RGBAAt(int(x), int(y)))

	s.SetGridVisible(false)
	err = s.Exclusive(func(f capture_pipeline.Frame) error {
		f.SetHelpers(capture_pipeline.Helpers{})
		return f.Render()
	})
	require.NoError(t, err)

	img, err = s.Preview()
	require.NoError(t, err)
	assert.NotEqual(t, toColor(rs.Key.Color), img.(*image.RGBA).RGBAAt(int(x), int(y)))
}

func TestBackgroundUsesExposure(t *testing.T) {
	params := entities.DefaultParams()
	params.VisualStyle = entities.StyleEthereal

	s := readyStage(t, params)
	s.SetGridVisible(false)
	s.Apply(render_state.Compute(params, 0), entities.ModeOrbit)
	s.SetSubject(nil)

	require.NoError(t, s.RenderFrame())
	img, err := s.Preview()
	require.NoError(t, err)

	env := render_state.EnvironmentFor(entities.StyleEthereal)
	assert.Equal(t, toColor(scale(env.Background, env.Exposure)), img.(*image.RGBA).RGBAAt(0, 0))
}

func TestSubjectIsLit(t *testing.T) {
	params := entities.DefaultParams()
	params.ShotSize = entities.ShotFull

	s := readyStage(t, params)
	rs := render_state.Compute(params, 0)

	x, y, ok := newProjector(rs, 160, 90).project(entities.Vector3{Y: 0.5})
	require.True(t, ok)

	require.NoError(t, s.RenderFrame())
	lit, err := s.Preview()
	require.NoError(t, err)

	params.KeyLight.Enabled = false
	params.FillLight.Enabled = false
	s.Apply(render_state.Compute(params, 0), entities.ModeOrbit)

	require.NoError(t, s.RenderFrame())
	dark, err := s.Preview()
	require.NoError(t, err)

	l := lit.(*image.RGBA).RGBAAt(int(x), int(y))
	d := dark.(*image.RGBA).RGBAAt(int(x), int(y))
	assert.Greater(t, int(l.R)+int(l.G)+int(l.B), int(d.R)+int(d.G)+int(d.B))
}

func TestCleanPlateThroughPipeline(t *testing.T) {
	params := entities.DefaultParams()
	s := readyStage(t, params)
	s.Apply(render_state.Compute(params, 0), entities.ModeDragKey)

	p, err := capture_pipeline.New(capture_pipeline.Config{Stage: s, State: staticState(params)})
	require.NoError(t, err)

	plate, err := p.CaptureCleanPlate()
	require.NoError(t, err)
	assert.Equal(t, 160, plate.Width)
	assert.Equal(t, 90, plate.Height)

	h := s.Helpers()
	assert.True(t, h.GridVisible)
	assert.True(t, h.KeyGizmoVisible)
	assert.True(t, h.TransformVisible)
	assert.Equal(t, capture_pipeline.AttachKey, h.TransformTarget)
}

func TestRunRendersUntilCancelled(t *testing.T) {
	s := readyStage(t, entities.DefaultParams())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.Frames() > 2 }, time.Second, time.Millisecond)

	cancel()
	<-done
}

type staticState entities.SceneParams

func (s staticState) Get() entities.SceneParams {
	return entities.SceneParams(s)
}

func TestProjectorCentersTarget(t *testing.T) {
	rs := render_state.Compute(entities.DefaultParams(), 0)
	proj := newProjector(rs, 160, 90)

	x, y, ok := proj.project(rs.Camera.Target)
	require.True(t, ok)
	assert.InDelta(t, 80, x, 1e-6)
	assert.InDelta(t, 45, y, 1e-6)

	above := rs.Camera.Target
	above.Y += 0.1
	_, ay, ok := proj.project(above)
	require.True(t, ok)
	assert.Less(t, ay, y)

	behind := rs.Camera.Position.Vec().Mul(2).Sub(rs.Camera.Target.Vec())
	_, _, ok = proj.project(entities.VectorFrom(behind))
	assert.False(t, ok)
}
