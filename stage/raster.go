package stage

import (
	"image"
	"image/color"
	"math"

	"previz_studio/asset_loader"
	"previz_studio/capture_pipeline"
	"previz_studio/entities"
	"previz_studio/light_rig"
	"previz_studio/render_state"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	gridHalfExtent = 5
	gizmoHalfSize  = 4
	crossHalfSize  = 10
	ambient        = 0.15
)

var (
	gridColor  = entities.RGB{R: 0.35, G: 0.35, B: 0.4}
	crossColor = entities.RGB{R: 1, G: 0.85, B: 0.1}
	albedo     = 0.7
)

const (
	nearPlane = 0.01
	farPlane  = 1000
)

// projector maps world points to pixels for one camera.
type projector struct {
	view       mgl64.Mat4
	projection mgl64.Mat4
	width      int
	height     int
}

func newProjector(cam render_state.RenderState, width, height int) projector {
	c := cam.Camera

	return projector{
		view:       mgl64.LookAtV(c.Position.Vec(), c.Target.Vec(), mgl64.Vec3{0, 1, 0}),
		projection: mgl64.Perspective(mgl64.DegToRad(c.FOV), float64(width)/float64(height), nearPlane, farPlane),
		width:      width,
		height:     height,
	}
}

// project returns false for points behind the near plane.
func (p projector) project(v entities.Vector3) (float64, float64, bool) {
	obj := v.Vec()

	if p.view.Mul4x1(obj.Vec4(1)).Z() > -nearPlane {
		return 0, 0, false
	}

	win := mgl64.Project(obj, p.view, p.projection, 0, 0, p.width, p.height)

	// window coordinates grow upwards, image rows grow downwards
	return win.X(), float64(p.height) - win.Y(), true
}

func draw(width, height int, rs render_state.RenderState, subject *asset_loader.Subject, h capture_pipeline.Helpers) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	exposure := rs.Environment.Exposure

	bg := toColor(scale(rs.Environment.Background, exposure))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = bg.R, bg.G, bg.B, 255
	}

	if rs.Camera.FOV <= 0 {
		return img
	}

	proj := newProjector(rs, width, height)

	if h.GridVisible {
		drawGrid(img, proj)
	}

	if subject != nil {
		drawSubject(img, proj, subject.Bounds(), rs, exposure)
	}

	if h.KeyGizmoVisible {
		drawGizmo(img, proj, rs.Key)
	}

	if h.FillGizmoVisible {
		drawGizmo(img, proj, rs.Fill)
	}

	if h.TransformVisible {
		switch h.TransformTarget {
		case capture_pipeline.AttachKey:
			drawCross(img, proj, rs.Key.Position)
		case capture_pipeline.AttachFill:
			drawCross(img, proj, rs.Fill.Position)
		}
	}

	return img
}

func drawGrid(img *image.RGBA, proj projector) {
	c := toColor(gridColor)

	for i := -gridHalfExtent; i <= gridHalfExtent; i++ {
		f := float64(i)
		drawSegment(img, proj, entities.Vector3{X: f, Z: -gridHalfExtent}, entities.Vector3{X: f, Z: gridHalfExtent}, c)
		drawSegment(img, proj, entities.Vector3{X: -gridHalfExtent, Z: f}, entities.Vector3{X: gridHalfExtent, Z: f}, c)
	}
}

func drawSegment(img *image.RGBA, proj projector, a, b entities.Vector3, c color.RGBA) {
	const steps = 200

	for s := 0; s <= steps; s++ {
		t := float64(s) / steps
		p := a.Vec().Add(b.Vec().Sub(a.Vec()).Mul(t))

		if x, y, ok := proj.project(entities.VectorFrom(p)); ok {
			img.SetRGBA(int(x), int(y), c)
		}
	}
}

// drawSubject fills the screen-space rectangle of the subject bounds, lit by both lights.
func drawSubject(img *image.RGBA, proj projector, b asset_loader.Box, rs render_state.RenderState, exposure float64) {
	if b.IsEmpty() {
		return
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	visible := false

	for _, x := range []float64{b.Min.X, b.Max.X} {
		for _, y := range []float64{b.Min.Y, b.Max.Y} {
			for _, z := range []float64{b.Min.Z, b.Max.Z} {
				px, py, ok := proj.project(entities.Vector3{X: x, Y: y, Z: z})
				if !ok {
					continue
				}

				visible = true
				minX, maxX = math.Min(minX, px), math.Max(maxX, px)
				minY, maxY = math.Min(minY, py), math.Max(maxY, py)
			}
		}
	}

	if !visible {
		return
	}

	center := b.Center()
	shade := entities.RGB{R: ambient, G: ambient, B: ambient}

	for _, l := range []light_rig.LightState{rs.Key, rs.Fill} {
		w := lightWeight(l, center)
		shade.R += l.Color.R * w
		shade.G += l.Color.G * w
		shade.B += l.Color.B * w
	}

	c := toColor(scale(shade, albedo*exposure))
	rect := image.Rect(int(minX), int(minY), int(maxX)+1, int(maxY)+1).Intersect(img.Bounds())

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// lightWeight falls off with the squared distance, normalized so a default key light
// at its default position contributes roughly one.
func lightWeight(l light_rig.LightState, at entities.Vector3) float64 {
	if l.RendererIntensity <= 0 {
		return 0
	}

	d := l.Position.Vec().Sub(at.Vec())
	dist2 := math.Max(d.Dot(d), 0.25)

	return l.RendererIntensity / light_rig.RendererIntensityScale * 8 / dist2
}

func drawGizmo(img *image.RGBA, proj projector, l light_rig.LightState) {
	x, y, ok := proj.project(l.Position)
	if !ok {
		return
	}

	c := toColor(l.Color)
	rect := image.Rect(int(x)-gizmoHalfSize, int(y)-gizmoHalfSize, int(x)+gizmoHalfSize+1, int(y)+gizmoHalfSize+1).Intersect(img.Bounds())

	for py := rect.Min.Y; py < rect.Max.Y; py++ {
		for px := rect.Min.X; px < rect.Max.X; px++ {
			img.SetRGBA(px, py, c)
		}
	}
}

func drawCross(img *image.RGBA, proj projector, at entities.Vector3) {
	x, y, ok := proj.project(at)
	if !ok {
		return
	}

	c := toColor(crossColor)
	cx, cy := int(x), int(y)

	for d := -crossHalfSize; d <= crossHalfSize; d++ {
		img.SetRGBA(cx+d, cy, c)
		img.SetRGBA(cx, cy+d, c)
	}
}

func toColor(c entities.RGB) color.RGBA {
	return color.RGBA{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: 255}
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func scale(c entities.RGB, f float64) entities.RGB {
	return entities.RGB{R: c.R * f, G: c.G * f, B: c.B * f}
}
