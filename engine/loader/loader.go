package loader

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/mesh"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/texture"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeOBJ selects the Wavefront OBJ/MTL loader backend.
	BackendTypeOBJ LoaderBackendType = iota
)

// DefaultTexturedPipelineKey is the pipeline textured parts are drawn with unless WithPipelineKeys
// says otherwise.
const DefaultTexturedPipelineKey = "textured"

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	modelCache map[string]*ImportedModel

	backendType LoaderBackendType
	backend     loaderBackend

	plainPipelineKey    string
	texturedPipelineKey string
	normalizeSize       float32
	textureWorkers      int
}

// Loader loads model files into CPU-side models, caches them by path and turns them into meshes.
type Loader interface {
	// Load imports a model file and caches the result. A cached model is returned as is.
	//
	// Parameters:
	//   - path: the model file; the extension must match the loader backend
	//
	// Returns:
	//   - *ImportedModel: the loaded and cached model
	//   - error: error if loading fails
	Load(path string) (*ImportedModel, error)

	// LoadReader imports a model from streams and caches it by name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - model: the model stream
	//   - materials: the material library stream, nil for none
	//   - dir: the directory relative texture paths are resolved against
	//
	// Returns:
	//   - *ImportedModel: the loaded model
	//   - error: error if loading fails
	LoadReader(name string, model, materials io.Reader, dir string) (*ImportedModel, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	Get(name string) *ImportedModel

	// Models returns a copy of the model cache.
	Models() map[string]*ImportedModel

	// Meshes creates one mesh per model part. Diffuse maps are decoded in parallel; a part whose
	// texture fails to load, or a model without texture coordinates, falls back to the plain
	// pipeline. The caller owns the returned meshes.
	//
	// Parameters:
	//   - m: the model
	//
	// Returns:
	//   - []mesh.Mesh: the meshes, not yet on the GPU
	Meshes(m *ImportedModel) []mesh.Mesh
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the model format backend
//   - options: functional options
//
// Returns:
//   - Loader: the loader
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		modelCache:          make(map[string]*ImportedModel),
		backendType:         backendType,
		plainPipelineKey:    material.DefaultPipelineKey,
		texturedPipelineKey: DefaultTexturedPipelineKey,
		textureWorkers:      4,
	}

	switch backendType {
	case BackendTypeOBJ:
		fallthrough
	default:
		l.backend = newOBJLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*ImportedModel, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".obj" {
		return nil, fmt.Errorf("%s: %w %q", path, ErrUnsupportedFormat, ext)
	}

	m, err := l.backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.store(path, m), nil
}

func (l *loader) LoadReader(name string, model, materials io.Reader, dir string) (*ImportedModel, error) {
	m, err := l.backend.LoadReader(name, model, materials, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return l.store(name, m), nil
}

func (l *loader) Get(name string) *ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]*ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]*ImportedModel, len(l.modelCache))
	for k, v := range l.modelCache {
		out[k] = v
	}
	return out
}

func (l *loader) Meshes(m *ImportedModel) []mesh.Mesh {
	textures := l.loadDiffuseMaps(m)

	meshes := make([]mesh.Mesh, 0, len(m.Parts))
	for i, part := range m.Parts {
		pm := part.Material
		opts := []material.MaterialBuilderOption{
			material.WithBaseColor([4]float32{pm.Diffuse[0], pm.Diffuse[1], pm.Diffuse[2], pm.Opacity}),
			material.WithReflectance(pm.Ambient, pm.Diffuse, pm.Specular),
			material.WithShininess(pm.Shininess),
			material.WithPipelineKey(l.plainPipelineKey),
		}
		label := fmt.Sprintf("%s#%d:%s", m.Name, i, pm.Name)
		if staging, ok := textures[pm.DiffuseMap]; ok {
			opts = append(opts,
				material.WithDiffuseTexture(texture.NewTexture(label, staging)),
				material.WithPipelineKey(l.texturedPipelineKey),
			)
		}
		meshes = append(meshes, mesh.NewMesh(label,
			mesh.WithVertices(part.Vertices...),
			mesh.WithIndices(part.Indices...),
			mesh.WithMaterial(material.NewMaterial(pm.Name, opts...)),
		))
	}
	return meshes
}

// loadDiffuseMaps decodes the distinct diffuse maps of a model, keyed by path. Maps that fail to
// decode are logged and left out.
func (l *loader) loadDiffuseMaps(m *ImportedModel) map[string]common.TextureStagingData {
	out := make(map[string]common.TextureStagingData)
	if !m.HasUVs {
		return out
	}
	var paths []string
	seen := make(map[string]bool)
	for _, p := range m.Parts {
		if path := p.Material.DiffuseMap; path != "" && !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return out
	}

	results, err := texture.LoadAll(paths, l.textureWorkers)
	if err != nil {
		log.Printf("[Loader] %s: %v", m.Name, err)
	}
	for i, path := range paths {
		if results[i].Width > 0 {
			out[path] = results[i]
		}
	}
	return out
}

// store applies import-time options and caches a model, keeping an earlier entry on a race.
func (l *loader) store(name string, m *ImportedModel) *ImportedModel {
	if l.normalizeSize > 0 {
		m.Normalize(l.normalizeSize)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.modelCache[name]; ok {
		return cached
	}
	l.modelCache[name] = m
	return m
}
