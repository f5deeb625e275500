package loader

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoGeometry is returned for model files without vertex positions or faces.
	ErrNoGeometry = errors.New("model has no geometry")

	// ErrIndexOutOfRange is returned when a face references a vertex attribute that does not exist.
	ErrIndexOutOfRange = errors.New("face index out of range")

	// ErrUnsupportedFormat is returned when no backend handles a file extension.
	ErrUnsupportedFormat = errors.New("unsupported model format")
)

// ImportedMaterial is the material data read from a material library.
type ImportedMaterial struct {
	Name      string
	Ambient   [3]float32
	Diffuse   [3]float32
	Specular  [3]float32
	Shininess float32
	Opacity   float32

	// DiffuseMap is the resolved path of the diffuse texture, empty for none.
	DiffuseMap string
}

// defaultImportedMaterial is used by faces whose material is not defined.
func defaultImportedMaterial() ImportedMaterial {
	return ImportedMaterial{
		Name:    "default",
		Diffuse: [3]float32{0.8, 0.8, 0.8},
		Opacity: 1,
	}
}

// ImportedPart is the geometry of a model drawn with one material. Vertices are unique per
// position/uv/normal combination and Indices list triangles.
type ImportedPart struct {
	Material ImportedMaterial
	Vertices []common.Vertex
	Indices  []uint32
}

// ImportedModel is a model file decoded into CPU-side parts, one per material in first-use order.
type ImportedModel struct {
	Name      string
	Parts     []ImportedPart
	BoundsMin mgl32.Vec3
	BoundsMax mgl32.Vec3

	// HasUVs reports whether the file declared any texture coordinates.
	HasUVs bool
}

// VertexCount returns the number of vertices over all parts.
func (m *ImportedModel) VertexCount() int {
	n := 0
	for _, p := range m.Parts {
		n += len(p.Vertices)
	}
	return n
}

// Center returns the middle of the bounding box.
func (m *ImportedModel) Center() mgl32.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Mul(0.5)
}

// Normalize moves the bounding box center to the origin and scales the model uniformly so its
// largest extent equals size. Degenerate (flat in every axis) models are only recentered.
//
// Parameters:
//   - size: the target largest extent
func (m *ImportedModel) Normalize(size float32) {
	center := m.Center()
	ext := m.BoundsMax.Sub(m.BoundsMin)
	largest := max(ext.X(), ext.Y(), ext.Z())
	scale := float32(1)
	if largest > 0 && size > 0 {
		scale = size / largest
	}
	for i := range m.Parts {
		vs := m.Parts[i].Vertices
		for j := range vs {
			vs[j].Position = vs[j].Position.Sub(center).Mul(scale)
		}
	}
	m.BoundsMin = m.BoundsMin.Sub(center).Mul(scale)
	m.BoundsMax = m.BoundsMax.Sub(center).Mul(scale)
}
