package shader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewProgramMergesStages(t *testing.T) {
	vs := mustShader(t, "tri.vertex", ShaderTypeVertex, vertexSrc)
	fs := mustShader(t, "tri.fragment", ShaderTypeFragment, fragmentSrc)

	p, err := NewProgram("tri", vs, fs)
	if err != nil {
		t.Fatal(err)
	}
	if groups := p.Groups(); len(groups) != 1 || groups[0] != 0 {
		t.Fatalf("Groups = %v, want [0]", groups)
	}

	entries := p.BindGroupLayouts()[0].Entries
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for i, e := range entries {
		if e.Binding != uint32(i) {
			t.Errorf("entry %d has binding %d", i, e.Binding)
		}
	}
	if want := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment; entries[2].Visibility != want {
		t.Errorf("shared uniform visibility = %v, want %v", entries[2].Visibility, want)
	}
	if entries[0].Visibility != wgpu.ShaderStageFragment {
		t.Errorf("texture visibility = %v, want fragment", entries[0].Visibility)
	}

	// the vertex stage's own descriptors are not modified by the merge
	if v := vs.BindGroupLayoutDescriptors()[0].Entries[0].Visibility; v != wgpu.ShaderStageVertex {
		t.Errorf("vertex stage visibility changed to %v", v)
	}

	if g, b, ok := p.Binding(AnnotationArgDiffuseSampler); !ok || g != 0 || b != 1 {
		t.Errorf("Binding(diffuse_sampler) = %d, %d, %v", g, b, ok)
	}
	layout, ok := p.VertexLayout()
	if !ok || layout.ArrayStride != 32 {
		t.Errorf("VertexLayout = %+v, %v", layout, ok)
	}
}

func TestNewProgramLinkErrors(t *testing.T) {
	vs := mustShader(t, "vs", ShaderTypeVertex, vertexSrc)
	fs := mustShader(t, "fs", ShaderTypeFragment, fragmentSrc)

	conflicting := mustShader(t, "conflict", ShaderTypeFragment, `
@group(0) @binding(2) var tex: texture_2d<f32>;
@fragment fn main() -> @location(0) vec4f { return vec4f(1.0); }
`)
	gapped := mustShader(t, "gap", ShaderTypeFragment, `
@group(2) @binding(0) var s: sampler;
@fragment fn main() -> @location(0) vec4f { return vec4f(1.0); }
`)

	tests := []struct {
		name     string
		vertex   Shader
		fragment Shader
	}{
		{"missing fragment", vs, nil},
		{"swapped stages", fs, vs},
		{"resource kind conflict", vs, conflicting},
		{"group gap", vs, gapped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProgram("p", tt.vertex, tt.fragment); !errors.Is(err, ErrLink) {
				t.Errorf("err = %v, want ErrLink", err)
			}
		})
	}
}

func TestLoadProgram(t *testing.T) {
	dir := t.TempDir()
	vp := filepath.Join(dir, "tri.vert.wgsl")
	fp := filepath.Join(dir, "tri.frag.wgsl")
	if err := os.WriteFile(vp, []byte(vertexSrc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fp, []byte(fragmentSrc), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProgram("tri", vp, fp)
	if err != nil {
		t.Fatal(err)
	}
	if p.Vertex().Key() != "tri.vertex" || p.Fragment().Key() != "tri.fragment" {
		t.Errorf("stage keys = %q, %q", p.Vertex().Key(), p.Fragment().Key())
	}

	if _, err := LoadProgram("tri", vp, filepath.Join(dir, "missing.wgsl")); err == nil {
		t.Error("expected error for missing fragment file")
	}
}
