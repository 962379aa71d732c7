// Package generation_coordinator runs at most one capture-and-generate request at a time and
// turns results into gallery shots.
package generation_coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"previz_studio/capture_pipeline"
	"previz_studio/clock"
	"previz_studio/entities"
	"previz_studio/generation_engine"
	"previz_studio/repositories"
	"previz_studio/repositories/generated_shots"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type coordinatorImpl struct {
	status atomic.Int32

	pipeline  capture_pipeline.Pipeline
	state     capture_pipeline.StateReader
	engines   map[entities.EngineKind]generation_engine.Engine
	shotRepo  generated_shots.Repository
	sessionID string
	clock     clock.Clock
	timeout   time.Duration
	metrics   *Metrics
	newID     func() (string, error)

	mu        sync.RWMutex
	gallery   []entities.GeneratedShot
	listeners []StatusListener
}

type Config struct {
	Pipeline capture_pipeline.Pipeline
	State    capture_pipeline.StateReader
	Engines  []generation_engine.Engine

	// ShotRepo persists the gallery under SessionID. Optional.
	ShotRepo  generated_shots.Repository
	SessionID string

	Clock clock.Clock
	// Timeout bounds each engine request. Zero means no timeout.
	Timeout time.Duration
	Metrics *Metrics
	// NewID defaults to time-ordered UUIDs.
	NewID func() (string, error)
}

func New(cfg Config) (Coordinator, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("missing capture pipeline")
	}

	if cfg.State == nil {
		return nil, errors.New("missing scene state")
	}

	if len(cfg.Engines) == 0 {
		return nil, errors.New("missing generation engines")
	}

	if cfg.ShotRepo != nil && cfg.SessionID == "" {
		return nil, errors.New("missing session ID")
	}

	engines := make(map[entities.EngineKind]generation_engine.Engine, len(cfg.Engines))
	for _, e := range cfg.Engines {
		engines[e.Kind()] = e
	}

	c := cfg.Clock
	if c == nil {
		c = clock.NewClock()
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	newID := cfg.NewID
	if newID == nil {
		newID = newShotID
	}

	return &coordinatorImpl{
		pipeline:  cfg.Pipeline,
		state:     cfg.State,
		engines:   engines,
		shotRepo:  cfg.ShotRepo,
		sessionID: cfg.SessionID,
		clock:     c,
		timeout:   cfg.Timeout,
		metrics:   metrics,
		newID:     newID,
		gallery:   []entities.GeneratedShot{},
	}, nil
}

func newShotID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (c *coordinatorImpl) Generate(ctx context.Context, kind entities.EngineKind, credential string) (*entities.GeneratedShot, error) {
	if !c.status.CompareAndSwap(int32(StatusIdle), int32(StatusCapturing)) {
		c.metrics.rejected.Inc()

		return nil, ErrBusy
	}

	// the guard is released even if an engine panics
	defer func() {
		c.status.Store(int32(StatusIdle))
		c.notify(StatusIdle, nil)
	}()

	c.notify(StatusCapturing, nil)

	shot, err := c.generate(ctx, kind, credential)
	if err != nil {
		log.Printf("Error generating shot with %s: %v", kind, err)

		c.status.Store(int32(StatusFailed))
		c.notify(StatusFailed, err)
	}

	return shot, err
}

func (c *coordinatorImpl) generate(ctx context.Context, kind entities.EngineKind, credential string) (*entities.GeneratedShot, error) {
	engine, ok := c.engines[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, kind)
	}

	// nothing is captured or sent without a credential
	if credential == "" {
		return nil, generation_engine.ErrMissingCredential
	}

	params := c.state.Get()

	plate, err := c.pipeline.CaptureCleanPlate()
	if err != nil {
		c.metrics.captures.Inc()

		return nil, fmt.Errorf("capture clean plate: %w", err)
	}

	c.status.Store(int32(StatusRequesting))
	c.notify(StatusRequesting, nil)

	req := &generation_engine.Request{
		Params:     params,
		Credential: credential,
	}

	if engine.AcceptsReference() {
		req.Reference = plate
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	res, err := engine.Generate(ctx, req)
	c.metrics.duration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())

	if err != nil {
		c.metrics.generations.WithLabelValues(string(kind), OutcomeFailure).Inc()

		return nil, err
	}

	c.metrics.generations.WithLabelValues(string(kind), OutcomeSuccess).Inc()

	id, err := c.newID()
	if err != nil {
		return nil, err
	}

	shot := entities.GeneratedShot{
		ID:        id,
		Timestamp: c.clock.Now().UnixMilli(),
		ImageURL:  res.ImageURL,
		Engine:    kind,
		Params:    params,
	}

	if c.shotRepo != nil {
		// the image already exists; a storage failure only costs persistence
		_, err = c.shotRepo.Create(ctx, c.sessionID, &shot)
		if err != nil {
			log.Printf("Error persisting shot %s: %v", shot.ID, err)
		}
	}

	c.mu.Lock()
	c.gallery = append([]entities.GeneratedShot{shot}, c.gallery...)
	c.metrics.gallery.Set(float64(len(c.gallery)))
	c.mu.Unlock()

	log.Info().Str("shot", shot.ID).Str("engine", string(kind)).Msg("shot generated")

	out := shot

	return &out, nil
}

func (c *coordinatorImpl) Status() Status {
	return Status(c.status.Load())
}

func (c *coordinatorImpl) Gallery() []entities.GeneratedShot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return entities.CloneGallery(c.gallery)
}

func (c *coordinatorImpl) Shot(id string) (*entities.GeneratedShot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, s := range c.gallery {
		if s.ID == id {
			out := s

			return &out, true
		}
	}

	return nil, false
}

func (c *coordinatorImpl) RemoveShot(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1

	for i, s := range c.gallery {
		if s.ID == id {
			idx = i
			break
		}
	}

	if idx < 0 {
		return repositories.NewNotFoundError(fmt.Sprintf("generated shot %s", id))
	}

	if c.shotRepo != nil {
		err := c.shotRepo.Delete(ctx, id)
		if err != nil && !repositories.IsNotFound(err) {
			return err
		}
	}

	c.gallery = append(c.gallery[:idx:idx], c.gallery[idx+1:]...)
	c.metrics.gallery.Set(float64(len(c.gallery)))

	return nil
}

func (c *coordinatorImpl) LoadGallery(ctx context.Context) error {
	if c.shotRepo == nil {
		return nil
	}

	shots, err := c.shotRepo.List(ctx, c.sessionID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.gallery = shots
	c.metrics.gallery.Set(float64(len(c.gallery)))
	c.mu.Unlock()

	return nil
}

func (c *coordinatorImpl) OnStatusChange(l StatusListener) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = append(c.listeners, l)
}

func (c *coordinatorImpl) notify(status Status, err error) {
	c.mu.RLock()
	listeners := append([]StatusListener(nil), c.listeners...)
	c.mu.RUnlock()

	for _, l := range listeners {
		l(status, err)
	}
}
