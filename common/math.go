package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// FaceNormal returns the unit normal of the triangle (a, b, c) with counter-clockwise winding.
// Degenerate triangles return the zero vector.
//
// Parameters:
//   - a, b, c: the triangle corners in winding order
//
// Returns:
//   - mgl32.Vec3: the normalized face normal
func FaceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() == 0 {
		return mgl32.Vec3{}
	}
	return n.Normalize()
}

// ComputeFlatNormals assigns every vertex the normal of the last triangle that references it.
// When indices is empty the vertices are treated as a plain triangle list.
// Trailing vertices or indices that do not form a full triangle are left untouched.
//
// Parameters:
//   - vertices: the vertices to update in place
//   - indices: optional triangle indices into vertices
func ComputeFlatNormals(vertices []Vertex, indices []uint32) {
	if len(indices) == 0 {
		for i := 0; i+2 < len(vertices); i += 3 {
			n := FaceNormal(vertices[i].Position, vertices[i+1].Position, vertices[i+2].Position)
			vertices[i].Normal, vertices[i+1].Normal, vertices[i+2].Normal = n, n, n
		}
		return
	}
	for i := 0; i+2 < len(indices); i += 3 {
		ia, ib, ic := indices[i], indices[i+1], indices[i+2]
		if int(ia) >= len(vertices) || int(ib) >= len(vertices) || int(ic) >= len(vertices) {
			continue
		}
		n := FaceNormal(vertices[ia].Position, vertices[ib].Position, vertices[ic].Position)
		vertices[ia].Normal, vertices[ib].Normal, vertices[ic].Normal = n, n, n
	}
}

// HasNormals reports whether any vertex carries a non-zero normal.
//
// Parameters:
//   - vertices: the vertices to inspect
//
// Returns:
//   - bool: true if at least one normal is non-zero
func HasNormals(vertices []Vertex) bool {
	for _, v := range vertices {
		if v.Normal != (mgl32.Vec3{}) {
			return true
		}
	}
	return false
}
