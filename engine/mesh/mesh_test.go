package mesh

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/vertex_array"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// fakeRenderer records uploads and draws.
type fakeRenderer struct {
	vertexArrays []string
	textures     []string
	draws        []string
	drawGroups   []int
	initErr      error
}

var _ renderer.Renderer = &fakeRenderer{}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline                 { return nil }
func (f *fakeRenderer) Pipelines() map[string]pipeline.Pipeline               { return nil }
func (f *fakeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error { return nil }
func (f *fakeRenderer) Resize(width, height int) {}
func (f *fakeRenderer) SetPresentMode(mode renderer.PresentMode) {}
func (f *fakeRenderer) SetClearColor(color wgpu.Color) {}
func (f *fakeRenderer) InitBuffer(b buffer.Buffer) error                      { return nil }
func (f *fakeRenderer) BeginFrame() error                                     { return nil }
func (f *fakeRenderer) EndFrame() {}
func (f *fakeRenderer) Present() {}
func (f *fakeRenderer) Release() {}

func (f *fakeRenderer) InitVertexArray(va vertex_array.VertexArray, pipelineKey string) error {
	if f.initErr != nil {
		return f.initErr
	}
	if err := va.Validate(); err != nil {
		return err
	}
	f.vertexArrays = append(f.vertexArrays, va.Label()+"@"+pipelineKey)
	return nil
}

func (f *fakeRenderer) InitTexture(tex texture.Texture, pipelineKey string) (bind_group_provider.BindGroupProvider, error) {
	f.textures = append(f.textures, tex.Label())
	return bind_group_provider.NewBindGroupProvider(tex.Label(), 0), nil
}

func (f *fakeRenderer) Draw(pipelineKey string, va vertex_array.VertexArray, bindGroups ...bind_group_provider.BindGroupProvider) error {
	f.draws = append(f.draws, pipelineKey+"/"+va.Label())
	f.drawGroups = append(f.drawGroups, len(bindGroups))
	return nil
}

func TestTriangleInitComputesNormals(t *testing.T) {
	tri := Triangle("tri", mgl32.Vec3{-0.5, -0.5, 0}, mgl32.Vec3{0.5, -0.5, 0}, mgl32.Vec3{0, 0.5, 0})
	r := &fakeRenderer{}
	if err := tri.Init(r); err != nil {
		t.Fatal(err)
	}
	for i, v := range tri.Vertices() {
		if !v.Normal.ApproxEqual(mgl32.Vec3{0, 0, 1}) {
			t.Errorf("vertex %d normal = %v", i, v.Normal)
		}
	}
	if err := tri.Init(r); err != nil {
		t.Fatal(err)
	}
	if len(r.vertexArrays) != 1 || r.vertexArrays[0] != "tri@"+material.DefaultPipelineKey {
		t.Errorf("vertex arrays = %v, want one upload", r.vertexArrays)
	}
	if tri.VertexArray().Indexed() {
		t.Error("triangle without indices should draw non-indexed")
	}
	if tri.VertexArray().VertexCount() != 3 {
		t.Errorf("VertexCount = %d", tri.VertexArray().VertexCount())
	}
}

func TestInitKeepsGivenNormals(t *testing.T) {
	up := mgl32.Vec3{0, 1, 0}
	m := NewMesh("m", WithVertices(
		common.Vertex{Position: mgl32.Vec3{0, 0, 0}, Normal: up},
		common.Vertex{Position: mgl32.Vec3{1, 0, 0}, Normal: up},
		common.Vertex{Position: mgl32.Vec3{0, 1, 0}, Normal: up},
	))
	if err := m.Init(&fakeRenderer{}); err != nil {
		t.Fatal(err)
	}
	if m.Vertices()[0].Normal != up {
		t.Errorf("normal overwritten: %v", m.Vertices()[0].Normal)
	}
}

func TestInitErrors(t *testing.T) {
	tests := []struct {
		name string
		mesh Mesh
		want error
	}{
		{"no vertices", NewMesh("empty"), ErrNoVertices},
		{"index out of range", NewMesh("bad", WithVertices(common.Vertex{}, common.Vertex{}, common.Vertex{}), WithIndices(0, 1, 3)), ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.mesh.Init(&fakeRenderer{}); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if tt.mesh.Initialized() {
				t.Error("mesh should not be initialized")
			}
		})
	}

	m := Triangle("tri", mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	if err := m.Init(&fakeRenderer{initErr: renderer.ErrPipelineNotFound}); !errors.Is(err, renderer.ErrPipelineNotFound) {
		t.Errorf("err = %v, want ErrPipelineNotFound", err)
	}
	if m.Initialized() {
		t.Error("mesh should not be initialized after a renderer error")
	}
}

func TestDraw(t *testing.T) {
	r := &fakeRenderer{}
	quad := Quad("quad", mgl32.Vec3{}, 1, 1)
	if err := quad.Draw(r); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Draw before Init = %v, want ErrNotInitialized", err)
	}
	if err := quad.Init(r); err != nil {
		t.Fatal(err)
	}
	if err := quad.Draw(r); err != nil {
		t.Fatal(err)
	}
	if !quad.VertexArray().Indexed() || quad.VertexArray().IndexCount() != 6 {
		t.Error("quad should draw six indices")
	}

	tex := texture.NewTexture("white", common.TextureStagingData{Width: 1, Height: 1, Pixels: []byte{255, 255, 255, 255}})
	textured := Quad("textured", mgl32.Vec3{}, 1, 1,
		WithMaterial(material.NewMaterial("textured", material.WithDiffuseTexture(tex), material.WithPipelineKey("textured"))))
	if err := textured.Init(r); err != nil {
		t.Fatal(err)
	}
	if err := textured.Draw(r); err != nil {
		t.Fatal(err)
	}

	if len(r.draws) != 2 || r.draws[0] != material.DefaultPipelineKey+"/quad" || r.draws[1] != "textured/textured" {
		t.Errorf("draws = %v", r.draws)
	}
	if r.drawGroups[0] != 0 || r.drawGroups[1] != 1 {
		t.Errorf("bind groups per draw = %v, want [0 1]", r.drawGroups)
	}
	if len(r.textures) != 1 {
		t.Errorf("textures = %v", r.textures)
	}
}

func TestReleaseOnce(t *testing.T) {
	quad := Quad("quad", mgl32.Vec3{}, 2, 2)
	if err := quad.Init(&fakeRenderer{}); err != nil {
		t.Fatal(err)
	}
	vbo := quad.VertexArray().VertexBuffer()
	ebo := quad.VertexArray().IndexBuffer()

	quad.Release()
	quad.Release()
	if !quad.Released() || !vbo.Released() || !ebo.Released() || !quad.Material().Released() {
		t.Error("Release should free the buffers and material")
	}
	if err := quad.Draw(&fakeRenderer{}); !errors.Is(err, ErrReleased) {
		t.Errorf("Draw after Release = %v, want ErrReleased", err)
	}
	if err := quad.Init(&fakeRenderer{}); !errors.Is(err, ErrReleased) {
		t.Errorf("Init after Release = %v, want ErrReleased", err)
	}
}

func TestBoundingRadius(t *testing.T) {
	quad := Quad("quad", mgl32.Vec3{0, 0, 0}, 6, 8)
	if got := quad.BoundingRadius(); got != 5 {
		t.Errorf("BoundingRadius = %v, want 5", got)
	}
}

func TestInitLeavesCallerVerticesAlone(t *testing.T) {
	given := []common.Vertex{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{0, 1, 0}},
	}
	m := NewMesh("copy", WithVertices(given...))
	if err := m.Init(&fakeRenderer{}); err != nil {
		t.Fatal(err)
	}
	if m.Vertices()[0].Normal == (mgl32.Vec3{}) {
		t.Fatal("Init should have computed normals")
	}
	for i, v := range given {
		if v.Normal != (mgl32.Vec3{}) {
			t.Errorf("caller vertex %d normal changed to %v", i, v.Normal)
		}
	}
}
