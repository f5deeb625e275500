package shader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrEmptySource is returned when a shader file or string contains no WGSL code.
	ErrEmptySource = errors.New("shader source is empty")

	// ErrMissingEntryPoint is returned when the source has no entry point for the shader's stage.
	ErrMissingEntryPoint = errors.New("shader has no entry point for its stage")

	// ErrLink is returned when a vertex and fragment shader cannot be paired into a program.
	ErrLink = errors.New("shader program link failed")
)

// ShaderType identifies the pipeline stage a shader is written for.
type ShaderType int

const (
	// ShaderTypeVertex is a shader with a @vertex entry point.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is a shader with a @fragment entry point.
	ShaderTypeFragment
)

// String returns the WGSL attribute name of the stage.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// Visibility returns the wgpu shader stage flag for the type.
func (t ShaderType) Visibility() wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageNone
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key          string
	path         string
	source       string
	shaderType   ShaderType
	entryPoint   string
	vertexLayout []wgpu.VertexBufferLayout
	resources    []resourceDecl
	declarations []Annotation
	module       *wgpu.ShaderModuleDescriptor
}

// Shader is one parsed WGSL stage: its processed source, entry point and the resource and vertex
// input layouts reflected from the source.
type Shader interface {
	// Key returns the shader's identifier, used as the module label.
	Key() string

	// Path returns the file the shader was read from, or an empty string for in-memory sources.
	Path() string

	// Source returns the pre-processed WGSL source.
	Source() string

	// ShaderType returns the stage the shader was loaded as.
	ShaderType() ShaderType

	// EntryPoint returns the name of the stage's entry point function.
	EntryPoint() string

	// VertexLayouts returns one layout per vertex input struct. Always empty for fragment shaders.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the parsed layouts in declaration order
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptors returns the resources the shader declares, grouped by @group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group, entries sorted by binding
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindingName returns the variable name declared at group/binding.
	//
	// Parameters:
	//   - group: the @group index
	//   - binding: the @binding index
	//
	// Returns:
	//   - string: the variable name, or an empty string if nothing is declared there
	BindingName(group, binding int) string

	// Declarations returns the @oxy:binding annotations found in the source.
	Declarations() []Annotation

	// Module returns the descriptor used to compile the shader on a device.
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader reads WGSL source from path and parses it as a shader of the given stage.
//
// Parameters:
//   - key: the shader identifier
//   - shaderType: the stage the source is written for
//   - path: the file to read, relative paths resolve against the working directory
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if the file cannot be read, is empty, has malformed annotations or lacks an entry point
func NewShader(key string, shaderType ShaderType, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader %s: read %q: %w", key, path, err)
	}
	s, err := newShader(key, shaderType, string(data))
	if err != nil {
		return nil, fmt.Errorf("shader %s (%s): %w", key, path, err)
	}
	s.path = path
	return s, nil
}

// NewShaderFromSource parses an in-memory WGSL source as a shader of the given stage.
//
// Parameters:
//   - key: the shader identifier
//   - shaderType: the stage the source is written for
//   - source: the raw WGSL source
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if the source is empty, has malformed annotations or lacks an entry point
func NewShaderFromSource(key string, shaderType ShaderType, source string) (Shader, error) {
	s, err := newShader(key, shaderType, source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return s, nil
}

func newShader(key string, shaderType ShaderType, raw string) (*shader, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptySource
	}
	if shaderType != ShaderTypeVertex && shaderType != ShaderTypeFragment {
		return nil, fmt.Errorf("unsupported shader type %s", shaderType)
	}

	pp := NewPreProcessor()
	source, err := pp.Process(raw)
	if err != nil {
		return nil, fmt.Errorf("pre-process: %w", err)
	}

	s := &shader{
		key:          key,
		source:       source,
		shaderType:   shaderType,
		declarations: pp.Declarations(),
		module: &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
		},
	}

	s.entryPoint = parseEntryPoint(source, shaderType)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("%w (@%s)", ErrMissingEntryPoint, shaderType)
	}
	if shaderType == ShaderTypeVertex {
		s.vertexLayout = parseVertexLayouts(source)
	}
	s.resources = parseResources(source, shaderType.Visibility())

	for _, d := range s.declarations {
		if s.BindingName(d.Group, d.Binding) == "" {
			return nil, fmt.Errorf("line %d: @oxy:binding %d %d %s has no matching declaration", d.Line, d.Group, d.Binding, d.Arg)
		}
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Path() string {
	return s.path
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayout
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return groupLayouts(s.resources)
}

func (s *shader) BindingName(group, binding int) string {
	for _, r := range s.resources {
		if r.group == group && r.binding == binding {
			return r.name
		}
	}
	return ""
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
