package material

import (
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/texture"
)

// DefaultPipelineKey is the pipeline a material draws with when none is configured.
const DefaultPipelineKey = "basic"

// material is the implementation of the Material interface.
type material struct {
	mu                *sync.Mutex
	name              string
	baseColor         [4]float32
	ambient           [3]float32
	diffuse           [3]float32
	specular          [3]float32
	shininess         float32
	diffuseTexture    texture.Texture
	pipelineKey       string
	bindGroupProvider bind_group_provider.BindGroupProvider
	released          bool
}

// Material describes how a mesh surface is drawn. It is a stub: the lighting terms are carried
// but no shader consumes them, and the only GPU resource it owns is the bind group of its
// diffuse texture.
//
// Surface properties are set at construction and are read-only through this interface. The bind
// group provider is set later, once the renderer has uploaded the diffuse texture.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the RGBA color used when the material has no texture.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Ambient, Diffuse and Specular return the RGB reflectance terms.
	Ambient() [3]float32
	Diffuse() [3]float32
	Specular() [3]float32

	// Shininess returns the specular exponent.
	Shininess() float32

	// DiffuseTexture retrieves the diffuse texture, or nil if none is set.
	//
	// Returns:
	//   - texture.Texture: the diffuse texture, or nil
	DiffuseTexture() texture.Texture

	// Textured reports whether a diffuse texture is set.
	Textured() bool

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// BindGroupProvider retrieves the bind group holding the diffuse texture, or nil if it has not
	// been created.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider stores the bind group created for the diffuse texture. The material takes
	// ownership and releases it on Release.
	//
	// Parameters:
	//   - provider: the bind group provider
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)

	// Release frees the bind group and the diffuse texture once. Later calls log and do nothing.
	Release()

	Released() bool
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - name: the material identifier
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(name string, options ...MaterialBuilderOption) Material {
	m := &material{
		mu:          &sync.Mutex{},
		name:        name,
		baseColor:   [4]float32{1, 1, 1, 1},
		ambient:     [3]float32{1, 1, 1},
		diffuse:     [3]float32{1, 1, 1},
		specular:    [3]float32{0.5, 0.5, 0.5},
		shininess:   32,
		pipelineKey: DefaultPipelineKey,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Ambient() [3]float32 {
	return m.ambient
}

func (m *material) Diffuse() [3]float32 {
	return m.diffuse
}

func (m *material) Specular() [3]float32 {
	return m.specular
}

func (m *material) Shininess() float32 {
	return m.shininess
}

func (m *material) DiffuseTexture() texture.Texture {
	return m.diffuseTexture
}

func (m *material) Textured() bool {
	return m.diffuseTexture != nil
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bindGroupProvider
}

func (m *material) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bindGroupProvider != nil && m.bindGroupProvider != provider {
		m.bindGroupProvider.Release()
	}
	m.bindGroupProvider = provider
}

func (m *material) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func (m *material) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		log.Printf("material %q: release called more than once", m.name)
		return
	}
	m.released = true
	if m.bindGroupProvider != nil {
		m.bindGroupProvider.Release()
		m.bindGroupProvider = nil
	}
	if m.diffuseTexture != nil && !m.diffuseTexture.Released() {
		m.diffuseTexture.Release()
	}
}
