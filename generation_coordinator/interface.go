package generation_coordinator

import (
	"context"
	"errors"

	"previz_studio/entities"
)

var (
	ErrBusy          = errors.New("a generation is already in progress")
	ErrUnknownEngine = errors.New("unknown generation engine")
)

// Status is the coordinator's lifecycle state: Idle, Capturing, Requesting, then back to
// Idle, or through Failed to Idle.
type Status int32

const (
	StatusIdle Status = iota
	StatusCapturing
	StatusRequesting
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCapturing:
		return "capturing"
	case StatusRequesting:
		return "requesting"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

type StatusListener func(status Status, err error)

type Coordinator interface {
	// Generate captures a clean plate and sends it with a frozen scene snapshot to the
	// engine. It returns ErrBusy immediately while another generation is outstanding.
	Generate(ctx context.Context, engine entities.EngineKind, credential string) (*entities.GeneratedShot, error)
	Status() Status
	// Gallery returns the shots newest first.
	Gallery() []entities.GeneratedShot
	Shot(id string) (*entities.GeneratedShot, bool)
	RemoveShot(ctx context.Context, id string) error
	// LoadGallery replaces the in-memory gallery with the persisted one.
	LoadGallery(ctx context.Context) error
	OnStatusChange(l StatusListener)
}
