package mesh

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/vertex_array"
)

var (
	// ErrNoVertices is returned when a mesh without vertices is initialized.
	ErrNoVertices = errors.New("mesh has no vertices")

	// ErrIndexOutOfRange is returned when an index refers past the last vertex.
	ErrIndexOutOfRange = errors.New("mesh index out of range")

	// ErrNotInitialized is returned when an uninitialized mesh is drawn.
	ErrNotInitialized = errors.New("mesh not initialized")

	// ErrReleased is returned when a released mesh is used.
	ErrReleased = errors.New("mesh released")
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	mu       *sync.Mutex
	label    string
	vertices []common.Vertex
	indices  []uint32
	material material.Material

	vertexArray vertex_array.VertexArray
	released    bool
}

// Mesh is a drawable piece of geometry: vertices, optional triangle indices and the material
// they are drawn with. Init builds the vertex buffer, index buffer and vertex array and uploads
// them through a renderer; after that the mesh can be drawn every frame until Release.
type Mesh interface {
	// Label returns the debug label.
	Label() string

	// Vertices returns the vertex data. Normals are filled in by Init when none were given.
	//
	// Returns:
	//   - []common.Vertex: the vertices
	Vertices() []common.Vertex

	// Indices returns the triangle indices, empty for a plain triangle list.
	//
	// Returns:
	//   - []uint32: the indices
	Indices() []uint32

	// Material returns the material the mesh is drawn with.
	//
	// Returns:
	//   - material.Material: the material
	Material() material.Material

	// VertexArray returns the vertex array created by Init, or nil before Init.
	VertexArray() vertex_array.VertexArray

	// BoundingRadius returns the largest distance from the origin of any vertex.
	BoundingRadius() float32

	// Init computes flat normals when all normals are zero, uploads the geometry and, for a
	// textured material, uploads the texture and creates its bind group.
	// A second call on an initialized mesh does nothing.
	//
	// Parameters:
	//   - r: the renderer to upload through; the material's pipeline must be registered
	//
	// Returns:
	//   - error: ErrNoVertices, ErrIndexOutOfRange, ErrReleased or a renderer error
	Init(r renderer.Renderer) error

	// Draw issues the draw call for the mesh with its material's pipeline.
	//
	// Parameters:
	//   - r: the renderer, between BeginFrame and EndFrame
	//
	// Returns:
	//   - error: ErrNotInitialized, ErrReleased or a renderer error
	Draw(r renderer.Renderer) error

	Initialized() bool
	Released() bool

	// Release frees the buffers and the material once. Later calls log and do nothing.
	Release()
}

var _ Mesh = &mesh{}

// NewMesh creates a mesh. Without WithMaterial it uses an untextured material drawn with
// material.DefaultPipelineKey.
//
// Parameters:
//   - label: the debug label
//   - options: functional options
//
// Returns:
//   - Mesh: the mesh, not yet on the GPU
func NewMesh(label string, options ...MeshBuilderOption) Mesh {
	m := &mesh{
		mu:    &sync.Mutex{},
		label: label,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.material == nil {
		m.material = material.NewMaterial(label)
	}
	return m
}

func (m *mesh) Label() string {
	return m.label
}

func (m *mesh) Vertices() []common.Vertex {
	return m.vertices
}

func (m *mesh) Indices() []uint32 {
	return m.indices
}

func (m *mesh) Material() material.Material {
	return m.material
}

func (m *mesh) VertexArray() vertex_array.VertexArray {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vertexArray
}

func (m *mesh) BoundingRadius() float32 {
	var maxDistSq float32
	for _, v := range m.vertices {
		if d := v.Position.Dot(v.Position); d > maxDistSq {
			maxDistSq = d
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

func (m *mesh) Init(r renderer.Renderer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return fmt.Errorf("mesh %q: %w", m.label, ErrReleased)
	}
	if m.vertexArray != nil {
		return nil
	}
	if err := m.validate(); err != nil {
		return err
	}
	if !common.HasNormals(m.vertices) {
		common.ComputeFlatNormals(m.vertices, m.indices)
	}

	key := m.material.PipelineKey()
	options := []vertex_array.VertexArrayBuilderOption{
		vertex_array.WithVertexBuffer(buffer.NewBuffer(m.label+" Vertex Buffer", buffer.KindVertex,
			buffer.WithData(common.MarshalVertices(m.vertices)))),
	}
	if len(m.indices) > 0 {
		options = append(options, vertex_array.WithIndexBuffer(buffer.NewBuffer(m.label+" Index Buffer", buffer.KindIndex,
			buffer.WithData(common.MarshalIndices(m.indices)))))
	}
	va := vertex_array.NewVertexArray(m.label, options...)
	if err := r.InitVertexArray(va, key); err != nil {
		va.Release()
		return fmt.Errorf("mesh %q: %w", m.label, err)
	}

	if tex := m.material.DiffuseTexture(); tex != nil {
		provider, err := r.InitTexture(tex, key)
		if err != nil {
			va.Release()
			return fmt.Errorf("mesh %q: %w", m.label, err)
		}
		if provider != nil {
			m.material.SetBindGroupProvider(provider)
		}
	}

	m.vertexArray = va
	return nil
}

func (m *mesh) Draw(r renderer.Renderer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return fmt.Errorf("mesh %q: %w", m.label, ErrReleased)
	}
	if m.vertexArray == nil {
		return fmt.Errorf("mesh %q: %w", m.label, ErrNotInitialized)
	}

	var bindGroups []bind_group_provider.BindGroupProvider
	if provider := m.material.BindGroupProvider(); provider != nil {
		bindGroups = append(bindGroups, provider)
	}
	return r.Draw(m.material.PipelineKey(), m.vertexArray, bindGroups...)
}

func (m *mesh) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vertexArray != nil && !m.released
}

func (m *mesh) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func (m *mesh) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		log.Printf("mesh %q: release called more than once", m.label)
		return
	}
	m.released = true
	if m.vertexArray != nil {
		m.vertexArray.Release()
		m.vertexArray = nil
	}
	if !m.material.Released() {
		m.material.Release()
	}
}

// validate checks the geometry before upload. Caller must hold mu.
func (m *mesh) validate() error {
	if len(m.vertices) == 0 {
		return fmt.Errorf("mesh %q: %w", m.label, ErrNoVertices)
	}
	for i, idx := range m.indices {
		if int(idx) >= len(m.vertices) {
			return fmt.Errorf("mesh %q: index %d at position %d with %d vertices: %w", m.label, idx, i, len(m.vertices), ErrIndexOutOfRange)
		}
	}
	return nil
}
