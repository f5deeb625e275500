package renderer

import (
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/vertex_array"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultClearColor is the color frames are cleared to unless configured otherwise.
var DefaultClearColor = wgpu.Color{R: 0.2, G: 0.3, B: 0.3, A: 1.0}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend
	released    bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	clearColor           wgpu.Color
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns the GPU device and surface, a cache of registered pipelines, and the per-frame
// render pass. Buffers, vertex arrays and textures are created by their own packages and uploaded
// through the Renderer, which is the only place that hands out the device.
//
// Frame flow: BeginFrame, any number of Draw calls, EndFrame, Present.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines compiles each pipeline's shaders and creates its GPU objects via the backend,
	// then caches it by PipelineKey. Keys that are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if shader compilation or pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize configures the underlying backend to handle a new surface size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. A call to Resize is required for the new mode
	// to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color each frame is cleared to.
	//
	// Parameters:
	//   - color: the clear color
	SetClearColor(color wgpu.Color)

	// InitBuffer uploads a buffer's staged data to the GPU.
	//
	// Parameters:
	//   - b: the buffer to upload
	//
	// Returns:
	//   - error: an error if the buffer is empty, released or cannot be created
	InitBuffer(b buffer.Buffer) error

	// InitVertexArray validates a vertex array against the vertex layout of a registered pipeline
	// and uploads its vertex and index buffers.
	//
	// Parameters:
	//   - va: the vertex array to prepare
	//   - pipelineKey: the pipeline the vertex array will be drawn with
	//
	// Returns:
	//   - error: ErrPipelineNotFound, a layout validation error or an upload error
	InitVertexArray(va vertex_array.VertexArray, pipelineKey string) error

	// InitTexture uploads a texture and, when the pipeline's program samples a diffuse texture,
	// creates the bind group holding it. Uniform bindings sharing that group get zero-filled
	// buffers owned by the returned provider.
	//
	// Parameters:
	//   - tex: the texture to upload
	//   - pipelineKey: the pipeline the texture will be sampled by
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group, or nil when the program has no diffuse texture binding
	//   - error: ErrPipelineNotFound or an error if the upload or bind group creation fails
	InitTexture(tex texture.Texture, pipelineKey string) (bind_group_provider.BindGroupProvider, error)

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	// Must be paired with EndFrame after all Draw invocations within a single frame.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// Draw encodes a draw of a vertex array within the current render pass. Indexed vertex arrays
	// are drawn with their index buffer.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - va: the vertex array holding vertex and index buffers
	//   - bindGroups: providers whose bind groups are set at their group index
	//
	// Returns:
	//   - error: ErrPipelineNotFound, ErrNoFrame, or an error if a resource is not initialized
	Draw(pipelineKey string, va vertex_array.VertexArray, bindGroups ...bind_group_provider.BindGroupProvider) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface, call Present() after EndFrame to display the frame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// Release frees every cached pipeline and then the device. Later calls log and do nothing.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type for a window.
// GPU adapter and device request failures panic.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window whose surface is rendered to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := newRenderer(backendType, options...)

	msaa := MSAA4x
	if r.pendingMSAA != nil && r.pendingMSAA.Valid() {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa, r.clearColor)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

// newRenderer applies options to a renderer with no backend.
func newRenderer(backendType RendererBackendType, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		clearColor:    DefaultClearColor,
	}
	// Options are applied before the backend exists so flags such as forceFallbackAdapter are
	// available when the adapter is requested.
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(color wgpu.Color) {
	r.mu.Lock()
	r.clearColor = color
	r.mu.Unlock()
	r.backend.SetClearColor(color)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return err
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) InitBuffer(b buffer.Buffer) error {
	return r.backend.InitBuffer(b)
}

func (r *renderer) InitVertexArray(va vertex_array.VertexArray, pipelineKey string) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	if err := va.Validate(); err != nil {
		return err
	}
	for _, layout := range p.VertexBuffers() {
		if err := va.CompatibleWith(layout); err != nil {
			return fmt.Errorf("pipeline %q: %w", pipelineKey, err)
		}
		if err := matchOffsets(va, layout); err != nil {
			return fmt.Errorf("pipeline %q: %w", pipelineKey, err)
		}
	}

	if err := r.backend.InitBuffer(va.VertexBuffer()); err != nil {
		return err
	}
	if va.IndexBuffer() != nil {
		if err := r.backend.InitBuffer(va.IndexBuffer()); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) InitTexture(tex texture.Texture, pipelineKey string) (bind_group_provider.BindGroupProvider, error) {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return nil, err
	}
	plan, ok, err := planTextureBindGroup(p.Program())
	if err != nil {
		return nil, err
	}
	if err := r.backend.InitTexture(tex); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	view, err := tex.View()
	if err != nil {
		return nil, err
	}
	sampler, err := tex.Sampler()
	if err != nil {
		return nil, err
	}

	provider := bind_group_provider.NewBindGroupProvider(tex.Label()+" Bind Group", plan.group,
		bind_group_provider.WithTextureView(plan.texture, view),
		bind_group_provider.WithSampler(plan.sampler, sampler),
	)
	for binding, size := range plan.buffers {
		ub := buffer.NewBuffer(fmt.Sprintf("%s uniform %d", tex.Label(), binding), buffer.KindUniform, buffer.WithSize(size))
		provider.SetBuffer(binding, ub)
		if err := r.backend.InitBuffer(ub); err != nil {
			provider.Release()
			return nil, err
		}
	}
	if err := r.backend.CreateBindGroup(p, provider); err != nil {
		provider.Release()
		return nil, err
	}
	return provider, nil
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) Draw(pipelineKey string, va vertex_array.VertexArray, bindGroups ...bind_group_provider.BindGroupProvider) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	return r.backend.Draw(p, va, bindGroups)
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		log.Printf("renderer: release called more than once")
		return
	}
	r.released = true
	for key, p := range r.pipelineCache {
		if p.Initialized() {
			p.Release()
		}
		delete(r.pipelineCache, key)
	}
	r.backend.Release()
}

// lookup returns a registered pipeline by key.
func (r *renderer) lookup(key string) (pipeline.Pipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return nil, ErrReleased
	}
	p, exists := r.pipelineCache[key]
	if !exists {
		return nil, fmt.Errorf("render pipeline %q: %w", key, ErrPipelineNotFound)
	}
	return p, nil
}

// matchOffsets checks that the pipeline reads each attribute where the vertex array stores it.
func matchOffsets(va vertex_array.VertexArray, layout wgpu.VertexBufferLayout) error {
	if va.Stride() != layout.ArrayStride {
		return fmt.Errorf("vertex array %q has stride %d, pipeline expects %d", va.Label(), va.Stride(), layout.ArrayStride)
	}
	offsets := make(map[uint32]uint64, len(va.Attributes()))
	for _, a := range va.Attributes() {
		offsets[a.Location] = a.Offset
	}
	for _, want := range layout.Attributes {
		if got := offsets[want.ShaderLocation]; got != want.Offset {
			return fmt.Errorf("vertex array %q stores location %d at offset %d, pipeline expects %d", va.Label(), want.ShaderLocation, got, want.Offset)
		}
	}
	return nil
}
