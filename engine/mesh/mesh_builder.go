package mesh

import (
	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/material"
)

// MeshBuilderOption is a function that configures a mesh instance during construction.
type MeshBuilderOption func(*mesh)

// WithVertices is an option builder that sets the vertex data. The slice is copied.
//
// Parameters:
//   - vertices: the mesh vertices
//
// Returns:
//   - MeshBuilderOption: a function that applies the vertices option to a mesh
func WithVertices(vertices ...common.Vertex) MeshBuilderOption {
	return func(m *mesh) {
		m.vertices = append([]common.Vertex(nil), vertices...)
	}
}

// WithIndices is an option builder that sets the triangle indices. The slice is copied.
//
// Parameters:
//   - indices: three indices per triangle
//
// Returns:
//   - MeshBuilderOption: a function that applies the indices option to a mesh
func WithIndices(indices ...uint32) MeshBuilderOption {
	return func(m *mesh) {
		m.indices = append([]uint32(nil), indices...)
	}
}

// WithMaterial is an option builder that sets the material. The mesh takes ownership of it.
//
// Parameters:
//   - mat: the material
//
// Returns:
//   - MeshBuilderOption: a function that applies the material option to a mesh
func WithMaterial(mat material.Material) MeshBuilderOption {
	return func(m *mesh) {
		m.material = mat
	}
}
