package asset_loader

import (
	"bytes"
	"errors"
	"fmt"

	"previz_studio/entities"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
)

const maxNodeDepth = 64

var (
	ErrNotGLB     = errors.New("not a binary glTF file")
	ErrNoGeometry = errors.New("model has no bounded geometry")
)

// glbBounds decodes a GLB and returns the scene's bounding box from the POSITION accessor
// extents, with node transforms applied.
func glbBounds(data []byte) (Box, error) {
	if !bytes.HasPrefix(data, []byte("glTF")) {
		return Box{}, ErrNotGLB
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return Box{}, fmt.Errorf("decode glb: %w", err)
	}

	return documentBounds(doc)
}

func validIndex(i, n int) bool {
	return i >= 0 && i < n
}

func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && validIndex(int(*doc.Scene), len(doc.Scenes)) {
			idx = int(*doc.Scene)
		}

		roots := make([]int, 0, len(doc.Scenes[idx].Nodes))
		for _, n := range doc.Scenes[idx].Nodes {
			roots = append(roots, int(n))
		}

		return roots
	}

	isChild := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[int(c)] = true
		}
	}

	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}

	return roots
}

func documentBounds(doc *gltf.Document) (Box, error) {
	out := emptyBox()

	var visit func(idx int, parent mgl64.Mat4, depth int)
	visit = func(idx int, parent mgl64.Mat4, depth int) {
		if !validIndex(idx, len(doc.Nodes)) || depth > maxNodeDepth {
			return
		}

		node := doc.Nodes[idx]
		world := parent.Mul4(localTransform(node))

		if node.Mesh != nil && validIndex(int(*node.Mesh), len(doc.Meshes)) {
			out = out.Union(meshBounds(doc, doc.Meshes[int(*node.Mesh)], world))
		}

		for _, c := range node.Children {
			visit(int(c), world, depth+1)
		}
	}

	for _, root := range sceneRoots(doc) {
		visit(root, mgl64.Ident4(), 0)
	}

	if out.IsEmpty() {
		return Box{}, ErrNoGeometry
	}

	return out, nil
}

// localTransform uses the node matrix when one is set, otherwise T*R*S.
func localTransform(node *gltf.Node) mgl64.Mat4 {
	m := mgl64.Mat4(node.MatrixOrDefault())
	if !m.ApproxEqual(mgl64.Ident4()) {
		return m
	}

	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()

	rotation := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}.Normalize()

	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(rotation.Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

func meshBounds(doc *gltf.Document, mesh *gltf.Mesh, world mgl64.Mat4) Box {
	out := emptyBox()

	for _, prim := range mesh.Primitives {
		acc, ok := prim.Attributes[gltf.POSITION]
		if !ok || !validIndex(int(acc), len(doc.Accessors)) {
			continue
		}

		a := doc.Accessors[int(acc)]
		if len(a.Min) < 3 || len(a.Max) < 3 {
			continue
		}

		local := Box{
			Min: entities.Vector3{X: a.Min[0], Y: a.Min[1], Z: a.Min[2]},
			Max: entities.Vector3{X: a.Max[0], Y: a.Max[1], Z: a.Max[2]},
		}

		for _, corner := range local.corners() {
			out = out.expandPoint(entities.VectorFrom(mgl64.TransformCoordinate(corner.Vec(), world)))
		}
	}

	return out
}
