package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/mesh"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/vertex_array"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// fakeWindow runs a message loop until RequestClose.
type fakeWindow struct {
	update  func()
	resize  func(width, height int)
	closing atomic.Bool
	closes  int
}

var _ window.Window = &fakeWindow{}

func (w *fakeWindow) SetUpdateCallback(callback func()) { w.update = callback }
func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) { w.resize = callback }
func (w *fakeWindow) SetKeyDownCallback(callback func(keyCode uint32)) {}
func (w *fakeWindow) SetKeyUpCallback(callback func(keyCode uint32)) {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor         { return nil }
func (w *fakeWindow) IsRunning() bool                                    { return !w.closing.Load() }
func (w *fakeWindow) RequestClose() { w.closing.Store(true) }
func (w *fakeWindow) Title() string                                      { return "fake" }
func (w *fakeWindow) Width() int                                         { return 800 }
func (w *fakeWindow) Height() int                                        { return 800 }

func (w *fakeWindow) Close() error {
	w.closes++
	return nil
}

func (w *fakeWindow) ProcessMessages() {
	deadline := time.Now().Add(5 * time.Second)
	for w.IsRunning() && time.Now().Before(deadline) {
		if w.update != nil {
			w.update()
		}
		time.Sleep(time.Millisecond)
	}
}

// fakeRenderer counts frames and draws.
type fakeRenderer struct {
	mu        sync.Mutex
	beginErr  error
	frames    int
	draws     map[string]int
	released  int
	uploads   int
	resizedTo [2]int
}

var _ renderer.Renderer = &fakeRenderer{}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{draws: make(map[string]int)}
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline                 { return nil }
func (f *fakeRenderer) Pipelines() map[string]pipeline.Pipeline               { return nil }
func (f *fakeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error { return nil }
func (f *fakeRenderer) SetPresentMode(mode renderer.PresentMode) {}
func (f *fakeRenderer) SetClearColor(color wgpu.Color) {}
func (f *fakeRenderer) InitBuffer(b buffer.Buffer) error                      { return nil }
func (f *fakeRenderer) EndFrame() {}
func (f *fakeRenderer) Present() {}

func (f *fakeRenderer) Resize(width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizedTo = [2]int{width, height}
}

func (f *fakeRenderer) InitVertexArray(va vertex_array.VertexArray, pipelineKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return va.Validate()
}

func (f *fakeRenderer) InitTexture(tex texture.Texture, pipelineKey string) (bind_group_provider.BindGroupProvider, error) {
	return nil, nil
}

func (f *fakeRenderer) BeginFrame() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beginErr != nil {
		return f.beginErr
	}
	f.frames++
	return nil
}

func (f *fakeRenderer) Draw(pipelineKey string, va vertex_array.VertexArray, bindGroups ...bind_group_provider.BindGroupProvider) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draws[va.Label()]++
	return nil
}

func (f *fakeRenderer) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
}

func testTriangle(label string) mesh.Mesh {
	return mesh.Triangle(label, mgl32.Vec3{-0.5, 0, -0.5}, mgl32.Vec3{0, 0.5, 0}, mgl32.Vec3{0.5, 0, -0.5})
}

func TestRunDrawsUntilQuit(t *testing.T) {
	w := &fakeWindow{}
	r := newFakeRenderer()
	e := NewEngine(WithWindow(w), WithRenderer(r), WithProfiling(true))

	for _, label := range []string{"left", "right"} {
		if err := e.AddMesh(testTriangle(label)); err != nil {
			t.Fatal(err)
		}
	}
	meshes := e.Meshes()

	var frames atomic.Int32
	e.SetRenderCallback(func(dt float32) {
		if frames.Add(1) == 3 {
			e.Quit()
		}
	})
	e.Run()

	if r.frames < 3 {
		t.Errorf("frames = %d, want at least 3", r.frames)
	}
	if r.draws["left"] != r.frames || r.draws["right"] != r.frames {
		t.Errorf("draws = %v over %d frames", r.draws, r.frames)
	}
	if r.released != 1 {
		t.Errorf("renderer released %d times", r.released)
	}
	if w.closes != 1 {
		t.Errorf("window closed %d times", w.closes)
	}
	for _, m := range meshes {
		if !m.Released() {
			t.Errorf("mesh %q not released", m.Label())
		}
	}
	if len(e.Meshes()) != 0 {
		t.Error("draw list should be empty after Run")
	}
	e.Quit()
}

func TestRunRecoversRenderPanic(t *testing.T) {
	w := &fakeWindow{}
	r := newFakeRenderer()
	e := NewEngine(WithWindow(w), WithRenderer(r))
	e.SetRenderCallback(func(dt float32) {
		panic("boom")
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after a render panic")
	}
	if r.released != 1 {
		t.Errorf("renderer released %d times", r.released)
	}
}

func TestBeginFrameErrorSkipsDraws(t *testing.T) {
	w := &fakeWindow{}
	r := newFakeRenderer()
	r.beginErr = errors.New("surface lost")
	e := NewEngine(WithWindow(w), WithRenderer(r))
	if err := e.AddMesh(testTriangle("tri")); err != nil {
		t.Fatal(err)
	}

	var frames atomic.Int32
	e.SetRenderCallback(func(dt float32) {
		if frames.Add(1) == 2 {
			e.Quit()
		}
	})
	e.Run()

	if len(r.draws) != 0 {
		t.Errorf("draws = %v, want none", r.draws)
	}
}

func TestMeshList(t *testing.T) {
	r := newFakeRenderer()
	e := NewEngine(WithRenderer(r))

	if err := e.AddMesh(mesh.NewMesh("empty")); !errors.Is(err, mesh.ErrNoVertices) {
		t.Errorf("AddMesh(empty) = %v, want ErrNoVertices", err)
	}
	a, b := testTriangle("a"), testTriangle("b")
	for _, m := range []mesh.Mesh{a, b} {
		if err := e.AddMesh(m); err != nil {
			t.Fatal(err)
		}
	}
	if r.uploads != 2 {
		t.Errorf("uploads = %d, want 2", r.uploads)
	}

	if !e.RemoveMesh("a") {
		t.Fatal("RemoveMesh(a) = false")
	}
	if !a.Released() {
		t.Error("removed mesh should be released")
	}
	if e.RemoveMesh("a") {
		t.Error("second RemoveMesh(a) = true")
	}
	if got := e.Meshes(); len(got) != 1 || got[0].Label() != "b" {
		t.Errorf("meshes = %v", got)
	}
}

func TestResizeForwardsToRenderer(t *testing.T) {
	w := &fakeWindow{}
	r := newFakeRenderer()
	NewEngine(WithWindow(w), WithRenderer(r))
	w.resize(640, 480)
	if r.resizedTo != [2]int{640, 480} {
		t.Errorf("renderer resized to %v", r.resizedTo)
	}
}

func TestRates(t *testing.T) {
	tests := []struct {
		fps  float64
		want time.Duration
	}{
		{0, 0},
		{-10, 0},
		{50, 20 * time.Millisecond},
		{1000, time.Millisecond},
	}
	for _, tt := range tests {
		if got := frameDuration(tt.fps); got != tt.want {
			t.Errorf("frameDuration(%v) = %v, want %v", tt.fps, got, tt.want)
		}
	}

	e := NewEngine(WithTickRate(-1), WithRenderFrameLimit(100)).(*engine)
	if e.engineTickRate != time.Second/60 {
		t.Errorf("tick rate = %v, want 60Hz", e.engineTickRate)
	}
	if e.renderFrameLimit != 10*time.Millisecond {
		t.Errorf("frame limit = %v", e.renderFrameLimit)
	}
	e.SetTickRate(20)
	if e.engineTickRate != 50*time.Millisecond {
		t.Errorf("tick rate after SetTickRate = %v", e.engineTickRate)
	}
}
