// Package asset_loader turns a subject model identifier into a subject seated on the
// stage floor.
package asset_loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"

	"previz_studio/entities"

	"github.com/rs/zerolog/log"
)

// TargetHeight is the size a model's largest dimension is normalized to.
const TargetHeight = 3.0

const maxModelBytes = 64 << 20

type modelSpec struct {
	url        string
	scale      float64
	rotationY  float64
	forceScale bool
	yOffset    float64
	primitives []Primitive
}

var DefaultModelURLs = map[entities.SubjectModel]string{
	entities.SubjectMannequin: "https://raw.githubusercontent.com/gdquest-demos/godot-3d-mannequin/master/godot-csharp/assets/3d/mannequiny/mannequiny-0.3.0.glb",
	entities.SubjectDragon:    "https://raw.githubusercontent.com/KhronosGroup/glTF-Sample-Models/main/2.0/DragonAttenuation/glTF-Binary/DragonAttenuation.glb",
	entities.SubjectHelmet:    "https://raw.githubusercontent.com/KhronosGroup/glTF-Sample-Assets/main/Models/DamagedHelmet/glTF-Binary/DamagedHelmet.glb",
	entities.SubjectCar:       "https://raw.githubusercontent.com/KhronosGroup/glTF-Sample-Assets/main/Models/ToyCar/glTF-Binary/ToyCar.glb",
	entities.SubjectBoomBox:   "https://raw.githubusercontent.com/KhronosGroup/glTF-Sample-Assets/main/Models/BoomBox/glTF-Binary/BoomBox.glb",
}

func specFor(model entities.SubjectModel, urls map[entities.SubjectModel]string) modelSpec {
	switch model {
	case entities.SubjectMannequin:
		// real-world sized asset, matches the camera framing heights
		return modelSpec{url: urls[model], scale: 1, rotationY: math.Pi, forceScale: true}
	case entities.SubjectCube:
		return modelSpec{primitives: []Primitive{
			{Kind: PrimitiveBox, Size: entities.Vector3{X: 1.5, Y: 1.5, Z: 1.5}, Position: entities.Vector3{Y: 0.75}},
		}}
	case entities.SubjectDragon:
		return modelSpec{url: urls[model], scale: 1, rotationY: math.Pi, yOffset: 0.05}
	case entities.SubjectHelmet:
		return modelSpec{url: urls[model], scale: 1, rotationY: math.Pi}
	case entities.SubjectCar:
		return modelSpec{url: urls[model], scale: 1, rotationY: math.Pi / 2}
	case entities.SubjectBoomBox:
		// the stand is a separate primitive, the model itself rests on the floor
		return modelSpec{url: urls[model], scale: 1, rotationY: math.Pi, primitives: []Primitive{
			{Kind: PrimitiveCylinder, Size: entities.Vector3{X: 0.3, Y: 1.0, Z: 0.4}, Position: entities.Vector3{Y: 0.5}},
		}}
	case entities.SubjectGeometric:
		return modelSpec{primitives: []Primitive{
			{Kind: PrimitiveBox, Size: entities.Vector3{X: 0.5, Y: 0.5, Z: 0.5}, Position: entities.Vector3{X: -0.4, Y: 0.25, Z: 0.2}, RotationY: math.Pi / 4},
			{Kind: PrimitiveSphere, Size: entities.Vector3{X: 0.3, Y: 0.3, Z: 0.3}, Position: entities.Vector3{X: 0.4, Y: 0.3, Z: -0.2}},
			{Kind: PrimitiveCylinder, Size: entities.Vector3{X: 0.1, Y: 1.5, Z: 0.1}, Position: entities.Vector3{Y: 0.75}},
		}}
	default:
		return modelSpec{}
	}
}

// FallbackPrimitive replaces any model that cannot be loaded.
var FallbackPrimitive = Primitive{Kind: PrimitiveBox, Size: entities.Vector3{X: 1, Y: 1, Z: 1}, Position: entities.Vector3{Y: 0.5}}

type loaderImpl struct {
	client *http.Client
	urls   map[entities.SubjectModel]string
	mu     sync.Mutex
	cache  map[string]Box
}

type Config struct {
	HTTPClient *http.Client
	// ModelURLs overrides DefaultModelURLs per model.
	ModelURLs map[entities.SubjectModel]string
}

func New(cfg Config) (Loader, error) {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	urls := make(map[entities.SubjectModel]string, len(DefaultModelURLs))
	for k, v := range DefaultModelURLs {
		urls[k] = v
	}

	for k, v := range cfg.ModelURLs {
		urls[k] = v
	}

	return &loaderImpl{
		client: client,
		urls:   urls,
		cache:  make(map[string]Box),
	}, nil
}

func (l *loaderImpl) Load(ctx context.Context, model entities.SubjectModel) *Subject {
	spec := specFor(model, l.urls)

	subject := &Subject{
		Model:      model,
		Primitives: append([]Primitive(nil), spec.primitives...),
	}

	if spec.url == "" {
		if len(spec.primitives) == 0 {
			return fallback(model, &AssetLoadError{URL: string(model), Err: errors.New("unknown subject model")})
		}

		return subject
	}

	raw, err := l.fetchBounds(ctx, spec.url)
	if err != nil {
		return fallback(model, &AssetLoadError{URL: spec.url, Err: err})
	}

	placement := normalize(raw, spec)

	subject.Mesh = &Mesh{
		URL:       spec.url,
		RawBounds: raw,
		Placement: placement,
		Bounds:    placement.transformBox(raw),
	}

	return subject
}

// normalize scales the model to TargetHeight (unless its entry forces a scale), rotates it,
// centers it on the origin in X/Z and seats its base on the floor plus its offset.
func normalize(raw Box, spec modelSpec) Placement {
	scale := spec.scale
	if !spec.forceScale {
		size := raw.Size()
		maxDim := math.Max(size.X, math.Max(size.Y, size.Z))

		if maxDim > 0 {
			scale = TargetHeight / maxDim * spec.scale
		}
	}

	p := Placement{Scale: scale, RotationY: spec.rotationY}
	placed := p.transformBox(raw)
	center := placed.Center()

	p.Position = entities.Vector3{
		X: -center.X,
		Y: -placed.Min.Y + spec.yOffset,
		Z: -center.Z,
	}

	return p
}

func fallback(model entities.SubjectModel, err error) *Subject {
	log.Printf("Failed to load model %s, falling back to cube: %v", model, err)

	return &Subject{
		Model:      model,
		Primitives: []Primitive{FallbackPrimitive},
		Fallback:   true,
		Err:        err,
	}
}

func (l *loaderImpl) fetchBounds(ctx context.Context, url string) (Box, error) {
	l.mu.Lock()
	cached, ok := l.cache[url]
	l.mu.Unlock()

	if ok {
		return cached, nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Box{}, err
	}

	response, err := l.client.Do(request)
	if err != nil {
		return Box{}, err
	}

	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return Box{}, fmt.Errorf("unexpected status %d", response.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, maxModelBytes))
	if err != nil {
		return Box{}, err
	}

	bounds, err := glbBounds(data)
	if err != nil {
		return Box{}, err
	}

	l.mu.Lock()
	l.cache[url] = bounds
	l.mu.Unlock()

	return bounds, nil
}
