package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// vertexAttributeFormats maps WGSL vertex input types to wgpu vertex formats.
var vertexAttributeFormats = map[string]attributeFormat{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2i":     {wgpu.VertexFormatSint32x2, 8},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
	"vec3i":     {wgpu.VertexFormatSint32x3, 12},
	"vec3<i32>": {wgpu.VertexFormatSint32x3, 12},
	"vec4i":     {wgpu.VertexFormatSint32x4, 16},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2u":     {wgpu.VertexFormatUint32x2, 8},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec3u":     {wgpu.VertexFormatUint32x3, 12},
	"vec3<u32>": {wgpu.VertexFormatUint32x3, 12},
	"vec4u":     {wgpu.VertexFormatUint32x4, 16},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
}

// textureShapes maps sampled texture base types to their view dimension.
var textureShapes = map[string]textureShape{
	"texture_1d":                    {wgpu.TextureViewDimension1D, false},
	"texture_2d":                    {wgpu.TextureViewDimension2D, false},
	"texture_2d_array":              {wgpu.TextureViewDimension2DArray, false},
	"texture_3d":                    {wgpu.TextureViewDimension3D, false},
	"texture_cube":                  {wgpu.TextureViewDimensionCube, false},
	"texture_multisampled_2d":       {wgpu.TextureViewDimension2D, true},
	"texture_depth_2d":              {wgpu.TextureViewDimension2D, false},
	"texture_depth_multisampled_2d": {wgpu.TextureViewDimension2D, true},
}

// textureSampleTypes maps the texel scalar parameter of a sampled texture to its sample type.
var textureSampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var (
	structRegex   = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex = regexp.MustCompile(`@location\(\s*(\d+)\s*\)`)
	builtinRegex  = regexp.MustCompile(`@builtin\(\s*\w+\s*\)`)

	// memberRegex captures the name and type of a struct member after any attributes.
	memberRegex = regexp.MustCompile(`^(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)$`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// resourceRegex captures group, binding, address space, name and type of a module-scope
	// resource such as: @group(0) @binding(1) var<uniform> tint: Tint;
	resourceRegex = regexp.MustCompile(`@group\(\s*(\d+)\s*\)\s*@binding\(\s*(\d+)\s*\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoint returns the name of the first function tagged with the stage attribute of
// shaderType, or an empty string when the source has none.
//
// Parameters:
//   - source: the pre-processed WGSL source
//   - shaderType: the stage to look for
//
// Returns:
//   - string: the entry point name
func parseEntryPoint(source string, shaderType ShaderType) string {
	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}
	if m := re.FindStringSubmatch(stripComments(source)); m != nil {
		return m[1]
	}
	return ""
}

// parseVertexLayouts builds a vertex buffer layout for every struct whose members all carry
// @location attributes, in declaration order. Structs mixing @location and @builtin members are
// stage outputs and are skipped, as are structs with member types that cannot be vertex attributes.
//
// Parameters:
//   - source: the pre-processed WGSL source
//
// Returns:
//   - []wgpu.VertexBufferLayout: one tightly packed layout per vertex input struct
func parseVertexLayouts(source string) []wgpu.VertexBufferLayout {
	var layouts []wgpu.VertexBufferLayout
	for _, sb := range parseStructs(stripComments(source)) {
		if !sb.isVertexInput() {
			continue
		}
		if layout, ok := sb.vertexLayout(); ok {
			layouts = append(layouts, layout)
		}
	}
	return layouts
}

// parseResources extracts every @group/@binding declaration, classifying each into a layout entry
// visible to the given stage. Uniform buffers get a MinBindingSize when their type can be sized.
//
// Parameters:
//   - source: the pre-processed WGSL source
//   - visibility: the stage that declares the resources
//
// Returns:
//   - []resourceDecl: the declarations in source order
func parseResources(source string, visibility wgpu.ShaderStage) []resourceDecl {
	cleaned := stripComments(source)
	sizes := structLayouts(parseStructs(cleaned))

	var decls []resourceDecl
	for _, m := range resourceRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		typeName := strings.TrimSpace(m[5])

		entry := classifyResource(uint32(binding), visibility, strings.TrimSpace(m[3]), typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := resolveLayout(typeName, sizes); ok {
				entry.Buffer.MinBindingSize = roundUp(l.align, l.size)
			}
		}
		decls = append(decls, resourceDecl{group: group, binding: binding, name: strings.TrimSpace(m[4]), entry: entry})
	}
	return decls
}

// groupLayouts collects declarations into one layout descriptor per group, entries sorted by binding.
func groupLayouts(decls []resourceDecl) map[int]wgpu.BindGroupLayoutDescriptor {
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	for _, d := range decls {
		entries[d.group] = append(entries[d.group], d.entry)
	}
	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, e := range entries {
		sort.Slice(e, func(i, j int) bool { return e[i].Binding < e[j].Binding })
		out[g] = wgpu.BindGroupLayoutDescriptor{Entries: e}
	}
	return out
}

func parseStructs(source string) []structBlock {
	matches := structRegex.FindAllStringSubmatch(source, -1)
	blocks := make([]structBlock, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, structBlock{name: m[1], fields: parseMembers(m[2])})
	}
	return blocks
}

func parseMembers(body string) []structField {
	var fields []structField
	for _, part := range splitTopLevel(body) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m := memberRegex.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		f := structField{name: m[1], typeName: strings.TrimSpace(m[2]), location: -1}
		f.builtin = builtinRegex.MatchString(part)
		if loc := locationRegex.FindStringSubmatch(part); loc != nil {
			f.location, _ = strconv.Atoi(loc[1])
		}
		fields = append(fields, f)
	}
	return fields
}

func (sb structBlock) isVertexInput() bool {
	if len(sb.fields) == 0 {
		return false
	}
	for _, f := range sb.fields {
		if f.builtin || f.location < 0 {
			return false
		}
	}
	return true
}

func (sb structBlock) vertexLayout() (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(sb.fields))
	var offset uint64
	for _, f := range sb.fields {
		af, ok := vertexAttributeFormats[f.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         af.format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += af.size
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// classifyResource turns a resource declaration into a bind group layout entry. Declarations with
// an address space are buffers; the rest are textures or samplers told apart by type name.
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	switch {
	case addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_"):
		base, param := splitTypeParams(typeName)
		if shape, ok := textureShapes[base]; ok {
			entry.Texture.ViewDimension = shape.viewDimension
			entry.Texture.Multisampled = shape.multisampled
		}
		if strings.HasPrefix(base, "texture_depth_") {
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		} else if st, ok := textureSampleTypes[param]; ok {
			entry.Texture.SampleType = st
		}
	}
	return entry
}

// resourceKind names the category of a layout entry for conflict messages.
func resourceKind(e wgpu.BindGroupLayoutEntry) string {
	switch {
	case e.Buffer.Type != wgpu.BufferBindingTypeUndefined:
		return "buffer"
	case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		return "sampler"
	case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		return "texture"
	default:
		return "unknown"
	}
}

// splitTypeParams splits "texture_2d<f32>" into "texture_2d" and "f32".
func splitTypeParams(typeName string) (string, string) {
	base, params, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return base, strings.TrimSpace(strings.TrimSuffix(params, ">"))
}

// stripComments removes line comments and nested block comments in a single pass.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		c := source[i]
		var next byte
		if i+1 < len(source) {
			next = source[i+1]
		}
		switch {
		case c == '/' && next == '*':
			depth++
			i++
		case c == '*' && next == '/' && depth > 0:
			depth--
			i++
		case depth > 0:
		case c == '/' && next == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// splitTopLevel splits a struct body on commas outside angle brackets, so array<T, N> stays whole.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
