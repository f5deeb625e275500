package mesh

import (
	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Triangle builds a single triangle. Texture coordinates map a to the bottom left, b to the top
// middle and c to the bottom right of the texture.
//
// Parameters:
//   - label: the debug label
//   - a, b, c: the corners in counter-clockwise order
//   - options: further options such as WithMaterial
//
// Returns:
//   - Mesh: the triangle mesh
func Triangle(label string, a, b, c mgl32.Vec3, options ...MeshBuilderOption) Mesh {
	vertices := []common.Vertex{
		{Position: a, TexCoord: mgl32.Vec2{0, 1}},
		{Position: b, TexCoord: mgl32.Vec2{0.5, 0}},
		{Position: c, TexCoord: mgl32.Vec2{1, 1}},
	}
	return NewMesh(label, append([]MeshBuilderOption{WithVertices(vertices...)}, options...)...)
}

// Quad builds an axis-aligned rectangle in the XY plane facing +Z, made of two indexed triangles.
//
// Parameters:
//   - label: the debug label
//   - center: the rectangle center
//   - width, height: the rectangle size
//   - options: further options such as WithMaterial
//
// Returns:
//   - Mesh: the quad mesh
func Quad(label string, center mgl32.Vec3, width, height float32, options ...MeshBuilderOption) Mesh {
	hw, hh := width/2, height/2
	vertices := []common.Vertex{
		{Position: center.Add(mgl32.Vec3{-hw, -hh, 0}), TexCoord: mgl32.Vec2{0, 1}},
		{Position: center.Add(mgl32.Vec3{hw, -hh, 0}), TexCoord: mgl32.Vec2{1, 1}},
		{Position: center.Add(mgl32.Vec3{hw, hh, 0}), TexCoord: mgl32.Vec2{1, 0}},
		{Position: center.Add(mgl32.Vec3{-hw, hh, 0}), TexCoord: mgl32.Vec2{0, 0}},
	}
	base := []MeshBuilderOption{
		WithVertices(vertices...),
		WithIndices(0, 1, 2, 2, 3, 0),
	}
	return NewMesh(label, append(base, options...)...)
}
