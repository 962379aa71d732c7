// Package scene_state is the single writer of the live scene. Every mutation recomputes the
// render state, pushes it to the renderer and notifies subscribers.
package scene_state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"previz_studio/asset_loader"
	"previz_studio/color_engine"
	"previz_studio/entities"
	"previz_studio/render_state"

	"github.com/rs/zerolog/log"
)

var (
	ErrColorTempRange    = fmt.Errorf("color temperature must be between %dK and %dK", entities.MinColorTemp, entities.MaxColorTemp)
	ErrNegativeIntensity = errors.New("intensity must not be negative")
)

type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown scene field %q", e.Field)
}

func (e *UnknownFieldError) Is(err error) bool {
	_, ok := err.(*UnknownFieldError)
	return ok
}

type subscription struct {
	id int
	fn Listener
}

type storeImpl struct {
	mu      sync.RWMutex
	params  entities.SceneParams
	mode    entities.ControlMode
	active  entities.LightRole
	azimuth float64
	rs      render_state.RenderState

	publishMu   sync.Mutex
	subscribers []subscription
	nextSubID   int

	renderer Renderer
	loader   asset_loader.Loader

	ctx     context.Context
	cancel  context.CancelFunc
	loadMu  sync.Mutex
	loadSeq uint64
	loads   sync.WaitGroup
}

type Config struct {
	Loader asset_loader.Loader
	// Renderer is optional; a store without one only computes and notifies.
	Renderer Renderer
	// Initial defaults to entities.DefaultParams.
	Initial *entities.SceneParams
}

func New(cfg Config) (Store, error) {
	if cfg.Loader == nil {
		return nil, errors.New("missing asset loader")
	}

	params := entities.DefaultParams()
	if cfg.Initial != nil {
		params = cfg.Initial.Clone()
	}

	if err := validate(params); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &storeImpl{
		params:   params,
		mode:     entities.ModeOrbit,
		active:   entities.RoleKey,
		renderer: cfg.Renderer,
		loader:   cfg.Loader,
		ctx:      ctx,
		cancel:   cancel,
	}

	s.publish()

	return s, nil
}

func (s *storeImpl) Get() entities.SceneParams {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.params.Clone()
}

func (s *storeImpl) Mode() entities.ControlMode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mode
}

func (s *storeImpl) ActiveLight() entities.LightRole {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active
}

func (s *storeImpl) RenderState() render_state.RenderState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rs
}

// SetField sets a top-level scene field by its JSON name from its textual value.
func (s *storeImpl) SetField(key, value string) error {
	return s.mutate(func(p *entities.SceneParams) error {
		var err error

		switch key {
		case "subjectDescription":
			p.SubjectDescription = value
		case "subjectModel":
			p.SubjectModel, err = entities.ParseSubjectModel(value)
		case "cameraAngle":
			p.CameraAngle, err = entities.ParseCameraAngle(value)
		case "lensType":
			p.LensType, err = entities.ParseLensType(value)
		case "shotSize":
			p.ShotSize, err = entities.ParseShotSize(value)
		case "visualStyle":
			p.VisualStyle, err = entities.ParseVisualStyle(value)
		default:
			return &UnknownFieldError{Field: key}
		}

		return err
	})
}

// SetLightField sets one light field from its textual value. Position takes "x,y,z";
// gel takes a hex color or a gel preset name.
func (s *storeImpl) SetLightField(role entities.LightRole, key, value string) error {
	if _, err := entities.ParseLightRole(string(role)); err != nil {
		return err
	}

	return s.mutate(func(p *entities.SceneParams) error {
		return setLightField(p.Light(role), key, value)
	})
}

func (s *storeImpl) Update(fn func(p *entities.SceneParams)) error {
	return s.mutate(func(p *entities.SceneParams) error {
		fn(p)
		return nil
	})
}

func (s *storeImpl) UpdateLight(role entities.LightRole, fn func(l *entities.LightSettings)) error {
	return s.Update(func(p *entities.SceneParams) {
		fn(p.Light(role))
	})
}

// ReplaceAll swaps in a whole new scene and always reloads the subject model.
func (s *storeImpl) ReplaceAll(params entities.SceneParams) error {
	next := params.Clone()

	if err := validate(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.params = next
	s.mu.Unlock()

	s.publish()
	s.reloadAsync()

	return nil
}

func (s *storeImpl) SetMode(mode entities.ControlMode) error {
	mode, err := entities.ParseControlMode(string(mode))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.mode = mode
	switch mode {
	case entities.ModeDragKey:
		s.active = entities.RoleKey
	case entities.ModeDragFill:
		s.active = entities.RoleFill
	}
	s.mu.Unlock()

	s.publish()

	return nil
}

func (s *storeImpl) SetActiveLight(role entities.LightRole) error {
	role, err := entities.ParseLightRole(string(role))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.active = role
	s.mu.Unlock()

	s.publish()

	return nil
}

// SetOrbitAzimuth records the free-orbit control's horizontal angle so reframing keeps it.
func (s *storeImpl) SetOrbitAzimuth(azimuth float64) {
	s.mu.Lock()
	s.azimuth = azimuth
	s.mu.Unlock()

	s.publish()
}

func (s *storeImpl) ApplyPreset(name string) error {
	preset, err := FindPreset(name)
	if err != nil {
		return err
	}

	return s.Update(preset.apply)
}

func (s *storeImpl) Subscribe(l Listener) func() {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscription{id: id, fn: l})

	return func() {
		s.publishMu.Lock()
		defer s.publishMu.Unlock()

		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (s *storeImpl) ReloadModel(ctx context.Context) {
	s.loadMu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.loadMu.Unlock()

	model := s.Get().SubjectModel
	subject := s.loader.Load(ctx, model)

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if seq != s.loadSeq {
		log.Debug().Str("model", string(model)).Msg("discarding superseded model load")
		return
	}

	if s.renderer != nil {
		s.renderer.SetSubject(subject)
	}

	log.Info().Str("model", string(model)).Bool("fallback", subject.Fallback).Msg("subject model loaded")
}

// Close cancels in-flight model loads and waits for them to finish.
func (s *storeImpl) Close() {
	s.cancel()
	s.loads.Wait()
}

func (s *storeImpl) reloadAsync() {
	s.loads.Add(1)

	go func() {
		defer s.loads.Done()
		s.ReloadModel(s.ctx)
	}()
}

// mutate applies fn to a copy of the scene and commits it only if the result is valid.
func (s *storeImpl) mutate(fn func(p *entities.SceneParams) error) error {
	s.mu.Lock()

	next := s.params.Clone()

	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}

	if err := validate(next); err != nil {
		s.mu.Unlock()
		return err
	}

	reload := next.SubjectModel != s.params.SubjectModel
	s.params = next
	s.mu.Unlock()

	s.publish()

	if reload {
		s.reloadAsync()
	}

	return nil
}

func (s *storeImpl) publish() {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	params := s.params.Clone()
	mode := s.mode
	rs := render_state.Compute(params, s.azimuth)
	s.rs = rs
	s.mu.Unlock()

	if s.renderer != nil {
		s.renderer.Apply(rs, mode)
	}

	for _, sub := range s.subscribers {
		sub.fn(params.Clone(), rs)
	}
}

func validate(p entities.SceneParams) error {
	var errs []error

	if _, err := entities.ParseSubjectModel(string(p.SubjectModel)); err != nil {
		errs = append(errs, err)
	}

	if _, err := entities.ParseCameraAngle(string(p.CameraAngle)); err != nil {
		errs = append(errs, err)
	}

	if _, err := entities.ParseLensType(string(p.LensType)); err != nil {
		errs = append(errs, err)
	}

	if _, err := entities.ParseShotSize(string(p.ShotSize)); err != nil {
		errs = append(errs, err)
	}

	if _, err := entities.ParseVisualStyle(string(p.VisualStyle)); err != nil {
		errs = append(errs, err)
	}

	if err := validateLight(p.KeyLight); err != nil {
		errs = append(errs, fmt.Errorf("key light: %w", err))
	}

	if err := validateLight(p.FillLight); err != nil {
		errs = append(errs, fmt.Errorf("fill light: %w", err))
	}

	return errors.Join(errs...)
}

func validateLight(l entities.LightSettings) error {
	if l.ColorTemp < entities.MinColorTemp || l.ColorTemp > entities.MaxColorTemp {
		return ErrColorTempRange
	}

	if l.Intensity < 0 {
		return ErrNegativeIntensity
	}

	if _, err := color_engine.ParseHex(l.Gel); err != nil {
		return fmt.Errorf("gel %q: %w", l.Gel, err)
	}

	return nil
}

func setLightField(l *entities.LightSettings, key, value string) error {
	switch key {
	case "intensity":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("intensity: %w", err)
		}

		l.Intensity = f
	case "colorTemp":
		k, err := strconv.Atoi(strings.TrimSuffix(strings.ToUpper(value), "K"))
		if err != nil {
			return fmt.Errorf("colorTemp: %w", err)
		}

		l.ColorTemp = k
	case "gel":
		if hex, ok := color_engine.GelHexByName(value); ok {
			l.Gel = hex
			return nil
		}

		c, err := color_engine.ParseHex(value)
		if err != nil {
			return fmt.Errorf("gel %q: %w", value, err)
		}

		l.Gel = color_engine.ToHex(c)
	case "enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("enabled: %w", err)
		}

		l.Enabled = b
	case "position":
		v, err := parseVector(value)
		if err != nil {
			return err
		}

		l.Position = v
	case "x", "y", "z":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}

		switch key {
		case "x":
			l.Position.X = f
		case "y":
			l.Position.Y = f
		default:
			l.Position.Z = f
		}
	default:
		return &UnknownFieldError{Field: key}
	}

	return nil
}

func parseVector(value string) (entities.Vector3, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return entities.Vector3{}, fmt.Errorf("position %q: want x,y,z", value)
	}

	var xyz [3]float64

	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return entities.Vector3{}, fmt.Errorf("position %q: %w", value, err)
		}

		xyz[i] = f
	}

	return entities.Vector3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
