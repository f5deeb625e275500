package shader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const vertexSrc = `//@oxy:include vertex

struct VertexOutput {
    @builtin(position) clip: vec4f,
    @location(0) uv: vec2f,
};

@group(0) @binding(2) var<uniform> tint: Tint;

struct Tint {
    color: vec4f,
    strength: f32,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = vec4f(in.position, 1.0);
    out.uv = in.tex_coord;
    return out;
}
`

const fragmentSrc = `/* block /* nested */ comment @vertex fn nope() */
//@oxy:binding 0 0 diffuse_texture
@group(0) @binding(0) var diffuse: texture_2d<f32>;
//@oxy:binding 0 1 diffuse_sampler
@group(0) @binding(1) var diffuse_sampler: sampler;
@group(0) @binding(2) var<uniform> tint: Tint;

struct Tint {
    color: vec4f,
    strength: f32,
};

@fragment
fn fs_main(@location(0) uv: vec2f) -> @location(0) vec4f {
    return textureSample(diffuse, diffuse_sampler, uv) * tint.color;
}
`

func mustShader(t *testing.T, key string, st ShaderType, src string) Shader {
	t.Helper()
	s, err := NewShaderFromSource(key, st, src)
	if err != nil {
		t.Fatalf("NewShaderFromSource(%s): %v", key, err)
	}
	return s
}

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		line    string
		want    *Annotation
		wantErr bool
	}{
		{"let x = 1;", nil, false},
		{"// plain comment", nil, false},
		{"//@oxy:include vertex", &Annotation{Type: annotationTypeInclude, Arg: AnnotationArgVertex, Line: 1}, false},
		{"   // @oxy:binding 0 1 diffuse_sampler", &Annotation{Type: AnnotationTypeBinding, Arg: AnnotationArgDiffuseSampler, Line: 1, Binding: 1}, false},
		{"//@oxy:", nil, true},
		{"//@oxy:include", nil, true},
		{"//@oxy:include camera", nil, true},
		{"//@oxy:binding 0 x diffuse_texture", nil, true},
		{"//@oxy:binding -1 0 diffuse_texture", nil, true},
		{"//@oxy:binding 0 0 normal_map", nil, true},
		{"//@oxy:provider 0 0 material", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseAnnotation(tt.line, 1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("got %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestPreProcessorIncludesVertexStruct(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process(vertexSrc)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "@oxy:include") {
		t.Error("include annotation was not replaced")
	}
	if !strings.Contains(out, "struct VertexInput") {
		t.Error("VertexInput struct was not injected")
	}
	if len(pp.Declarations()) != 0 {
		t.Errorf("declarations = %v, want none", pp.Declarations())
	}

	if _, err := pp.Process(fragmentSrc); err != nil {
		t.Fatal(err)
	}
	if got := len(pp.Declarations()); got != 2 {
		t.Errorf("len(declarations) = %d, want 2", got)
	}
}

func TestStripComments(t *testing.T) {
	src := "a // line\nb /* one /* two */ still */ c\n// last"
	got := stripComments(src)
	want := "a \nb  c\n"
	if got != want {
		t.Errorf("stripComments = %q, want %q", got, want)
	}
}

func TestVertexShaderReflection(t *testing.T) {
	s := mustShader(t, "tri.vertex", ShaderTypeVertex, vertexSrc)
	if s.EntryPoint() != "vs_main" {
		t.Errorf("EntryPoint = %q, want vs_main", s.EntryPoint())
	}

	layouts := s.VertexLayouts()
	if len(layouts) != 1 {
		t.Fatalf("len(VertexLayouts) = %d, want 1", len(layouts))
	}
	l := layouts[0]
	if l.ArrayStride != 32 {
		t.Errorf("ArrayStride = %d, want 32", l.ArrayStride)
	}
	wantAttrs := []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	}
	if len(l.Attributes) != len(wantAttrs) {
		t.Fatalf("attributes = %+v", l.Attributes)
	}
	for i, a := range wantAttrs {
		if l.Attributes[i] != a {
			t.Errorf("attribute %d = %+v, want %+v", i, l.Attributes[i], a)
		}
	}

	groups := s.BindGroupLayoutDescriptors()
	entries := groups[0].Entries
	if len(entries) != 1 || entries[0].Binding != 2 {
		t.Fatalf("group 0 entries = %+v", entries)
	}
	if entries[0].Buffer.Type != wgpu.BufferBindingTypeUniform {
		t.Errorf("binding 2 type = %v, want uniform", entries[0].Buffer.Type)
	}
	if entries[0].Buffer.MinBindingSize != 32 {
		t.Errorf("MinBindingSize = %d, want 32", entries[0].Buffer.MinBindingSize)
	}
	if entries[0].Visibility != wgpu.ShaderStageVertex {
		t.Errorf("Visibility = %v, want vertex", entries[0].Visibility)
	}
}

func TestFragmentShaderReflection(t *testing.T) {
	s := mustShader(t, "tri.fragment", ShaderTypeFragment, fragmentSrc)
	if s.EntryPoint() != "fs_main" {
		t.Errorf("EntryPoint = %q, want fs_main", s.EntryPoint())
	}
	if len(s.VertexLayouts()) != 0 {
		t.Error("fragment shader should have no vertex layouts")
	}
	if got := s.BindingName(0, 1); got != "diffuse_sampler" {
		t.Errorf("BindingName(0, 1) = %q", got)
	}
	if got := s.BindingName(3, 0); got != "" {
		t.Errorf("BindingName(3, 0) = %q, want empty", got)
	}

	entries := s.BindGroupLayoutDescriptors()[0].Entries
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].Texture.SampleType != wgpu.TextureSampleTypeFloat || entries[0].Texture.ViewDimension != wgpu.TextureViewDimension2D {
		t.Errorf("texture entry = %+v", entries[0].Texture)
	}
	if entries[1].Sampler.Type != wgpu.SamplerBindingTypeFiltering {
		t.Errorf("sampler entry = %+v", entries[1].Sampler)
	}
}

func TestNewShaderErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.wgsl")
	if err := os.WriteFile(empty, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewShader("missing", ShaderTypeVertex, filepath.Join(dir, "nope.wgsl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, want ErrNotExist", err)
	}
	if _, err := NewShader("empty", ShaderTypeVertex, empty); !errors.Is(err, ErrEmptySource) {
		t.Errorf("empty file: err = %v, want ErrEmptySource", err)
	}
	if _, err := NewShaderFromSource("wrong-stage", ShaderTypeVertex, fragmentSrc); !errors.Is(err, ErrMissingEntryPoint) {
		t.Errorf("fragment source as vertex: err = %v, want ErrMissingEntryPoint", err)
	}
	if _, err := NewShaderFromSource("bad-include", ShaderTypeVertex, "//@oxy:include light\n@vertex fn main() {}"); err == nil {
		t.Error("expected error for unknown include")
	}
	orphan := "//@oxy:binding 1 0 diffuse_texture\n@fragment fn main() -> @location(0) vec4f { return vec4f(1.0); }"
	if _, err := NewShaderFromSource("orphan", ShaderTypeFragment, orphan); err == nil {
		t.Error("expected error for annotation without declaration")
	}
}

func TestNewShaderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.vert.wgsl")
	if err := os.WriteFile(path, []byte(vertexSrc), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewShader("tri.vertex", ShaderTypeVertex, path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Path() != path {
		t.Errorf("Path = %q, want %q", s.Path(), path)
	}
	if s.Module().Label != "tri.vertex" || s.Module().WGSLDescriptor.Code != s.Source() {
		t.Error("module descriptor does not carry the key and processed source")
	}
}

func TestResolveLayout(t *testing.T) {
	structs := structLayouts(parseStructs(`
struct Outer { inner: Inner, scale: f32 }
struct Inner { a: vec3f, b: f32 }
`))
	tests := []struct {
		typeName  string
		wantSize  uint64
		wantAlign uint64
		ok        bool
	}{
		{"f32", 4, 4, true},
		{"vec3f", 12, 16, true},
		{"mat4x4<f32>", 64, 16, true},
		{"array<vec3f, 4>", 64, 16, true},
		{"Inner", 16, 16, true},
		{"Outer", 32, 16, true},
		{"array<f32>", 0, 0, false},
		{"Unknown", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			l, ok := resolveLayout(tt.typeName, structs)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (l.size != tt.wantSize || l.align != tt.wantAlign) {
				t.Errorf("layout = %+v, want size %d align %d", l, tt.wantSize, tt.wantAlign)
			}
		})
	}
}
