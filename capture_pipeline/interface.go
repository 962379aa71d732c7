package capture_pipeline

import (
	"errors"
	"image"

	"previz_studio/entities"
)

var ErrNotReady = errors.New("capture not ready: no renderer frame available")

// Attachment names the object the drag gizmo is attached to.
type Attachment string

const (
	AttachNone Attachment = ""
	AttachKey  Attachment = "key"
	AttachFill Attachment = "fill"
)

// Helpers is the visibility of every non-diegetic helper on the stage.
type Helpers struct {
	GridVisible      bool
	KeyGizmoVisible  bool
	FillGizmoVisible bool
	TransformEnabled bool
	TransformVisible bool
	TransformTarget  Attachment
}

// Frame is the stage as seen while a capture holds it exclusively.
type Frame interface {
	Helpers() Helpers
	SetHelpers(h Helpers)
	// Render runs one synchronous render pass.
	Render() error
	// Snapshot reads back the last rendered framebuffer.
	Snapshot() (image.Image, error)
}

// Stage is the renderer collaborator. Exclusive keeps every other writer (state sync,
// render loop) off the stage while fn runs.
type Stage interface {
	Exclusive(fn func(f Frame) error) error
}

// StateReader gives the live scene state at restore time.
type StateReader interface {
	Get() entities.SceneParams
}

type Pipeline interface {
	CaptureCleanPlate() (*CleanPlate, error)
}
