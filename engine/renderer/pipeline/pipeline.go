package pipeline

import (
	"log"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/vertex_array"
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFormat is the format of the depth attachment every pipeline is built against.
const DepthFormat = wgpu.TextureFormatDepth24Plus

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for lookups in the renderer
	pipelineKey string

	// program is the linked vertex and fragment shader pair
	program shader.Program

	// GPU objects created by the renderer backend; owned by the pipeline once attached
	renderPipeline   *wgpu.RenderPipeline
	pipelineLayout   *wgpu.PipelineLayout
	bindGroupLayouts []*wgpu.BindGroupLayout
	released         bool

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline describes a render pipeline: the shader program it runs and the fixed-function state
// (primitive assembly, depth testing, blending) it is created with. After registration with the
// renderer it also owns the created GPU pipeline and its bind group layouts.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Program returns the shader program this pipeline runs.
	//
	// Returns:
	//   - shader.Program: the linked vertex and fragment shaders
	Program() shader.Program

	// VertexBuffers returns the vertex buffer layouts the pipeline is created with. The program's
	// reflected vertex input layout is used when it has one, otherwise the common.Vertex layout.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: a single layout for buffer slot 0
	VertexBuffers() []wgpu.VertexBufferLayout

	// PrimitiveState returns the topology, winding and culling configuration.
	PrimitiveState() wgpu.PrimitiveState

	// DepthStencilState returns the depth configuration for a DepthFormat attachment.
	DepthStencilState() *wgpu.DepthStencilState

	// ColorTarget returns the color target state for a surface of the given format.
	//
	// Parameters:
	//   - format: the surface texture format
	//
	// Returns:
	//   - wgpu.ColorTargetState: the target with the write mask and, when enabled, the blend state
	ColorTarget(format wgpu.TextureFormat) wgpu.ColorTargetState

	DepthTestEnabled() bool
	DepthWriteEnabled() bool
	BlendEnabled() bool
	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace

	// RenderPipeline returns the created GPU pipeline, or nil before registration.
	RenderPipeline() *wgpu.RenderPipeline

	// BindGroupLayout returns the GPU bind group layout created for a group.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout, or nil if the group does not exist or the pipeline is not registered
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// Attach hands the GPU objects created for this pipeline over to it.
	//
	// Parameters:
	//   - rp: the render pipeline
	//   - layout: the pipeline layout
	//   - groups: the bind group layouts indexed by group
	Attach(rp *wgpu.RenderPipeline, layout *wgpu.PipelineLayout, groups []*wgpu.BindGroupLayout)

	// Initialized reports whether GPU objects have been attached and not yet released.
	Initialized() bool

	// Release frees the GPU pipeline and layouts. Calling it again logs and does nothing.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline description for a linked program. Depth testing and
// writing are on, blending is off, triangles are wound counter-clockwise and nothing is culled.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - program: the shader program to run
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance
func NewPipeline(pipelineKey string, program shader.Program, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		program:           program,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Program() shader.Program {
	return p.program
}

func (p *pipeline) VertexBuffers() []wgpu.VertexBufferLayout {
	if p.program != nil {
		if layout, ok := p.program.VertexLayout(); ok {
			return []wgpu.VertexBufferLayout{layout}
		}
	}
	return []wgpu.VertexBufferLayout{vertex_array.NewVertexArray(p.pipelineKey).Layout()}
}

func (p *pipeline) PrimitiveState() wgpu.PrimitiveState {
	return wgpu.PrimitiveState{
		Topology:  p.topology,
		FrontFace: p.frontFace,
		CullMode:  p.cullMode,
	}
}

func (p *pipeline) DepthStencilState() *wgpu.DepthStencilState {
	compare := wgpu.CompareFunctionLess
	if !p.depthTestEnabled {
		compare = wgpu.CompareFunctionAlways
	}
	return &wgpu.DepthStencilState{
		Format:              DepthFormat,
		DepthWriteEnabled:   p.depthWriteEnabled,
		DepthCompare:        compare,
		DepthBias:           p.depthBias,
		DepthBiasSlopeScale: p.depthBiasSlopeScale,
		StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
	}
}

func (p *pipeline) ColorTarget(format wgpu.TextureFormat) wgpu.ColorTargetState {
	state := wgpu.ColorTargetState{
		Format:    format,
		WriteMask: p.writeMask,
	}
	if p.blendEnabled {
		state.Blend = p.blendState
	}
	return state
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	if group < 0 || group >= len(p.bindGroupLayouts) {
		return nil
	}
	return p.bindGroupLayouts[group]
}

func (p *pipeline) Attach(rp *wgpu.RenderPipeline, layout *wgpu.PipelineLayout, groups []*wgpu.BindGroupLayout) {
	p.renderPipeline = rp
	p.pipelineLayout = layout
	p.bindGroupLayouts = groups
	p.released = false
}

func (p *pipeline) Initialized() bool {
	return p.renderPipeline != nil && !p.released
}

func (p *pipeline) Release() {
	if p.released {
		log.Printf("pipeline %q: release called more than once", p.pipelineKey)
		return
	}
	p.released = true

	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	for _, l := range p.bindGroupLayouts {
		if l != nil {
			l.Release()
		}
	}
	p.bindGroupLayouts = nil
}
