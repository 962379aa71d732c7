package asset_loader

import (
	"fmt"
	"math"

	"previz_studio/entities"

	"github.com/go-gl/mathgl/mgl64"
)

type PrimitiveKind string

const (
	PrimitiveBox      PrimitiveKind = "box"
	PrimitiveSphere   PrimitiveKind = "sphere"
	PrimitiveCylinder PrimitiveKind = "cylinder"
)

// Primitive is a built-in shape. Size is the box extent, (r,r,r) for spheres and
// (radiusTop, height, radiusBottom) for cylinders.
type Primitive struct {
	Kind      PrimitiveKind
	Size      entities.Vector3
	Position  entities.Vector3
	RotationY float64
}

type Box struct {
	Min entities.Vector3
	Max entities.Vector3
}

func emptyBox() Box {
	inf := math.Inf(1)

	return Box{
		Min: entities.Vector3{X: inf, Y: inf, Z: inf},
		Max: entities.Vector3{X: -inf, Y: -inf, Z: -inf},
	}
}

func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

func (b Box) Size() entities.Vector3 {
	return entities.Vector3{X: b.Max.X - b.Min.X, Y: b.Max.Y - b.Min.Y, Z: b.Max.Z - b.Min.Z}
}

func (b Box) Center() entities.Vector3 {
	return entities.Vector3{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2, Z: (b.Min.Z + b.Max.Z) / 2}
}

func (b Box) expandPoint(p entities.Vector3) Box {
	b.Min = entities.Vector3{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
	b.Max = entities.Vector3{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}

	return b
}

func (b Box) Union(o Box) Box {
	if o.IsEmpty() {
		return b
	}

	return b.expandPoint(o.Min).expandPoint(o.Max)
}

func (b Box) corners() []entities.Vector3 {
	out := make([]entities.Vector3, 0, 8)

	for _, x := range []float64{b.Min.X, b.Max.X} {
		for _, y := range []float64{b.Min.Y, b.Max.Y} {
			for _, z := range []float64{b.Min.Z, b.Max.Z} {
				out = append(out, entities.Vector3{X: x, Y: y, Z: z})
			}
		}
	}

	return out
}

// Placement is the normalization applied to a loaded mesh: uniform scale, then a
// rotation about Y, then a translation.
type Placement struct {
	Scale     float64
	RotationY float64
	Position  entities.Vector3
}

// Matrix is the model transform T*Ry*S.
func (p Placement) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(p.Position.X, p.Position.Y, p.Position.Z).
		Mul4(mgl64.HomogRotate3DY(p.RotationY)).
		Mul4(mgl64.Scale3D(p.Scale, p.Scale, p.Scale))
}

func (p Placement) transformBox(b Box) Box {
	m := p.Matrix()

	out := emptyBox()
	for _, corner := range b.corners() {
		out = out.expandPoint(entities.VectorFrom(mgl64.TransformCoordinate(corner.Vec(), m)))
	}

	return out
}

// Mesh is a fetched model with its raw and placed bounds.
type Mesh struct {
	URL       string
	RawBounds Box
	Placement Placement
	Bounds    Box
}

// Subject is what the stage draws for the current subject model.
type Subject struct {
	Model      entities.SubjectModel
	Primitives []Primitive
	Mesh       *Mesh
	Fallback   bool
	Err        error
}

// Bounds is the world-space bounding box of the whole subject.
func (s *Subject) Bounds() Box {
	out := emptyBox()

	for _, p := range s.Primitives {
		out = out.Union(p.bounds())
	}

	if s.Mesh != nil {
		out = out.Union(s.Mesh.Bounds)
	}

	return out
}

func (p Primitive) bounds() Box {
	var half entities.Vector3

	switch p.Kind {
	case PrimitiveCylinder:
		r := math.Max(p.Size.X, p.Size.Z)
		half = entities.Vector3{X: r, Y: p.Size.Y / 2, Z: r}
	default:
		half = entities.Vector3{X: p.Size.X / 2, Y: p.Size.Y / 2, Z: p.Size.Z / 2}
		if p.Kind == PrimitiveSphere {
			half = p.Size
		}
	}

	local := Box{
		Min: entities.Vector3{X: -half.X, Y: -half.Y, Z: -half.Z},
		Max: half,
	}

	return Placement{Scale: 1, RotationY: p.RotationY, Position: p.Position}.transformBox(local)
}

// AssetLoadError reports a model that could not be fetched or parsed.
type AssetLoadError struct {
	URL string
	Err error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("load asset %s: %v", e.URL, e.Err)
}

func (e *AssetLoadError) Unwrap() error {
	return e.Err
}
