package shader

import (
	"fmt"
	"slices"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// program is the implementation of the Program interface.
type program struct {
	key              string
	vertex           Shader
	fragment         Shader
	bindGroupLayouts map[int]wgpu.BindGroupLayoutDescriptor
	roles            map[AnnotationArg][2]int
}

// Program is a linked vertex and fragment shader pair, the unit a render pipeline is built from.
type Program interface {
	// Key returns the program identifier.
	Key() string

	// Vertex returns the vertex stage.
	Vertex() Shader

	// Fragment returns the fragment stage.
	Fragment() Shader

	// VertexLayout returns the first vertex input layout declared by the vertex stage.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the layout
	//   - bool: false if the vertex stage declares no vertex input struct
	VertexLayout() (wgpu.VertexBufferLayout, bool)

	// BindGroupLayouts returns the resource layouts of both stages merged per group. Bindings used
	// by both stages are visible to both.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor

	// Groups returns the group indices in ascending order.
	Groups() []int

	// Binding returns the group and binding annotated with the given role.
	//
	// Parameters:
	//   - role: the role named in an @oxy:binding annotation
	//
	// Returns:
	//   - int: the group index
	//   - int: the binding index
	//   - bool: false if neither stage annotates a binding with the role
	Binding(role AnnotationArg) (int, int, bool)
}

var _ Program = &program{}

// NewProgram links a vertex and a fragment shader. Linking fails when a stage is missing or of the
// wrong type, when the stages declare different resource kinds at the same group and binding, when
// a role is annotated at two different bindings, or when group indices are not contiguous from 0.
//
// Parameters:
//   - key: the program identifier
//   - vertex: a shader of type ShaderTypeVertex
//   - fragment: a shader of type ShaderTypeFragment
//
// Returns:
//   - Program: the linked program
//   - error: an error wrapping ErrLink
func NewProgram(key string, vertex, fragment Shader) (Program, error) {
	if vertex == nil || fragment == nil {
		return nil, fmt.Errorf("%w: program %s needs both a vertex and a fragment shader", ErrLink, key)
	}
	if vertex.ShaderType() != ShaderTypeVertex {
		return nil, fmt.Errorf("%w: program %s: %s is a %s shader, want vertex", ErrLink, key, vertex.Key(), vertex.ShaderType())
	}
	if fragment.ShaderType() != ShaderTypeFragment {
		return nil, fmt.Errorf("%w: program %s: %s is a %s shader, want fragment", ErrLink, key, fragment.Key(), fragment.ShaderType())
	}

	merged, err := mergeBindGroupLayouts(vertex.BindGroupLayoutDescriptors(), fragment.BindGroupLayoutDescriptors())
	if err != nil {
		return nil, fmt.Errorf("%w: program %s: %v", ErrLink, key, err)
	}
	for g := range len(merged) {
		if _, ok := merged[g]; !ok {
			return nil, fmt.Errorf("%w: program %s: bind groups must be numbered from 0 without gaps, group %d is missing", ErrLink, key, g)
		}
	}

	roles := make(map[AnnotationArg][2]int)
	for _, d := range slices.Concat(vertex.Declarations(), fragment.Declarations()) {
		at := [2]int{d.Group, d.Binding}
		if prev, ok := roles[d.Arg]; ok && prev != at {
			return nil, fmt.Errorf("%w: program %s: role %s annotated at %d/%d and %d/%d", ErrLink, key, d.Arg, prev[0], prev[1], at[0], at[1])
		}
		roles[d.Arg] = at
	}

	return &program{
		key:              key,
		vertex:           vertex,
		fragment:         fragment,
		bindGroupLayouts: merged,
		roles:            roles,
	}, nil
}

// LoadProgram reads both stages from disk and links them.
//
// Parameters:
//   - key: the program identifier, stages are keyed <key>.vertex and <key>.fragment
//   - vertexPath: path of the vertex WGSL file
//   - fragmentPath: path of the fragment WGSL file
//
// Returns:
//   - Program: the linked program
//   - error: an error if either stage fails to load or the stages fail to link
func LoadProgram(key, vertexPath, fragmentPath string) (Program, error) {
	vs, err := NewShader(key+".vertex", ShaderTypeVertex, vertexPath)
	if err != nil {
		return nil, err
	}
	fs, err := NewShader(key+".fragment", ShaderTypeFragment, fragmentPath)
	if err != nil {
		return nil, err
	}
	return NewProgram(key, vs, fs)
}

func (p *program) Key() string {
	return p.key
}

func (p *program) Vertex() Shader {
	return p.vertex
}

func (p *program) Fragment() Shader {
	return p.fragment
}

func (p *program) VertexLayout() (wgpu.VertexBufferLayout, bool) {
	layouts := p.vertex.VertexLayouts()
	if len(layouts) == 0 {
		return wgpu.VertexBufferLayout{}, false
	}
	return layouts[0], true
}

func (p *program) BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.bindGroupLayouts
}

func (p *program) Groups() []int {
	groups := make([]int, 0, len(p.bindGroupLayouts))
	for g := range p.bindGroupLayouts {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	return groups
}

func (p *program) Binding(role AnnotationArg) (int, int, bool) {
	at, ok := p.roles[role]
	return at[0], at[1], ok
}

// mergeBindGroupLayouts combines the per-group layouts of two stages. A binding declared by both
// stages keeps one entry with both visibilities; it is an error for the stages to disagree on what
// kind of resource sits there.
func mergeBindGroupLayouts(vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor) (map[int]wgpu.BindGroupLayoutDescriptor, error) {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, max(len(vertex), len(fragment)))
	for g, desc := range vertex {
		merged[g] = wgpu.BindGroupLayoutDescriptor{Entries: slices.Clone(desc.Entries)}
	}

	for g, desc := range fragment {
		existing, ok := merged[g]
		if !ok {
			merged[g] = wgpu.BindGroupLayoutDescriptor{Entries: slices.Clone(desc.Entries)}
			continue
		}
		entries := existing.Entries
		for _, e := range desc.Entries {
			i := slices.IndexFunc(entries, func(x wgpu.BindGroupLayoutEntry) bool { return x.Binding == e.Binding })
			if i < 0 {
				entries = append(entries, e)
				continue
			}
			if vk, fk := resourceKind(entries[i]), resourceKind(e); vk != fk {
				return nil, fmt.Errorf("group %d binding %d is a %s in the vertex stage and a %s in the fragment stage", g, e.Binding, vk, fk)
			}
			entries[i].Visibility |= e.Visibility
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
		merged[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return merged, nil
}
