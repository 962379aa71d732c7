package scene_state

import (
	"context"

	"previz_studio/asset_loader"
	"previz_studio/entities"
	"previz_studio/render_state"
)

// Renderer receives every recomputed render state and every reloaded subject.
type Renderer interface {
	Apply(rs render_state.RenderState, mode entities.ControlMode)
	SetSubject(subject *asset_loader.Subject)
}

// Listener is notified after each mutation with the new snapshot. Listeners run while
// the store is publishing and must not mutate the store.
type Listener func(params entities.SceneParams, rs render_state.RenderState)

type Store interface {
	Get() entities.SceneParams
	Mode() entities.ControlMode
	ActiveLight() entities.LightRole
	RenderState() render_state.RenderState

	SetField(key, value string) error
	SetLightField(role entities.LightRole, key, value string) error
	Update(fn func(p *entities.SceneParams)) error
	UpdateLight(role entities.LightRole, fn func(l *entities.LightSettings)) error
	ReplaceAll(params entities.SceneParams) error

	SetMode(mode entities.ControlMode) error
	SetActiveLight(role entities.LightRole) error
	SetOrbitAzimuth(azimuth float64)
	ApplyPreset(name string) error

	Subscribe(l Listener) (unsubscribe func())
	// ReloadModel loads the current subject model and hands it to the renderer.
	ReloadModel(ctx context.Context)
	Close()
}
