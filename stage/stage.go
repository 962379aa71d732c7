// Package stage is a headless software stage: it holds the camera, lights, subject and
// helper gizmos, applies computed render state and draws preview frames.
package stage

import (
	"context"
	"image"
	"sync"
	"time"

	"previz_studio/asset_loader"
	"previz_studio/capture_pipeline"
	"previz_studio/entities"
	"previz_studio/render_state"
)

type Stage struct {
	mu      sync.Mutex
	width   int
	height  int
	helpers capture_pipeline.Helpers
	state   render_state.RenderState
	subject *asset_loader.Subject
	frame   *image.RGBA
	frames  uint64
}

func New() *Stage {
	return &Stage{
		helpers: capture_pipeline.Helpers{
			GridVisible:      true,
			KeyGizmoVisible:  true,
			FillGizmoVisible: true,
		},
	}
}

// Resize sets the framebuffer size. A stage without a size cannot render.
func (s *Stage) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.width = width
	s.height = height
}

// Apply pushes freshly computed render state and the gizmo mode onto the stage.
func (s *Stage) Apply(rs render_state.RenderState, mode entities.ControlMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = rs
	s.helpers.KeyGizmoVisible = rs.Key.Visible
	s.helpers.FillGizmoVisible = rs.Fill.Visible

	switch mode {
	case entities.ModeDragKey:
		s.helpers.TransformEnabled = true
		s.helpers.TransformVisible = true
		s.helpers.TransformTarget = capture_pipeline.AttachKey
	case entities.ModeDragFill:
		s.helpers.TransformEnabled = true
		s.helpers.TransformVisible = true
		s.helpers.TransformTarget = capture_pipeline.AttachFill
	default:
		s.helpers.TransformEnabled = false
		s.helpers.TransformVisible = false
		s.helpers.TransformTarget = capture_pipeline.AttachNone
	}
}

func (s *Stage) SetSubject(subject *asset_loader.Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subject = subject
}

func (s *Stage) Subject() *asset_loader.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.subject
}

func (s *Stage) Helpers() capture_pipeline.Helpers {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.helpers
}

func (s *Stage) SetGridVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.helpers.GridVisible = visible
}

// RenderFrame draws one frame with the helpers currently visible.
func (s *Stage) RenderFrame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.renderLocked()
}

// Preview returns a copy of the latest frame.
func (s *Stage) Preview() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frame == nil {
		return nil, capture_pipeline.ErrNotReady
	}

	return cloneRGBA(s.frame), nil
}

func (s *Stage) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.frames
}

// Run is the render loop: it redraws at the given interval until ctx is done.
func (s *Stage) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// not ready yet; the loop keeps ticking until a size is set
			_ = s.RenderFrame()
		}
	}
}

func (s *Stage) Exclusive(fn func(f capture_pipeline.Frame) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(lockedFrame{s: s})
}

// lockedFrame is the stage seen from inside Exclusive; its methods assume s.mu is held.
type lockedFrame struct {
	s *Stage
}

func (f lockedFrame) Helpers() capture_pipeline.Helpers {
	return f.s.helpers
}

func (f lockedFrame) SetHelpers(h capture_pipeline.Helpers) {
	f.s.helpers = h
}

func (f lockedFrame) Render() error {
	return f.s.renderLocked()
}

func (f lockedFrame) Snapshot() (image.Image, error) {
	if f.s.frame == nil {
		return nil, capture_pipeline.ErrNotReady
	}

	return cloneRGBA(f.s.frame), nil
}

func (s *Stage) renderLocked() error {
	if s.width <= 0 || s.height <= 0 {
		return capture_pipeline.ErrNotReady
	}

	s.frame = draw(s.width, s.height, s.state, s.subject, s.helpers)
	s.frames++

	return nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)

	return dst
}
