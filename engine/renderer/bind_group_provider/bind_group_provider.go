package bind_group_provider

import (
	"fmt"
	"log"
	"sort"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// group is the @group index the bind group is set at.
	group int

	// bindGroup is the GPU bind group, nil until the renderer creates it.
	bindGroup *wgpu.BindGroup

	// buffers are uniform buffers created for buffer bindings, owned by the provider.
	buffers map[int]buffer.Buffer

	// textureViews and samplers are borrowed from texture wrappers and are not released here.
	textureViews map[int]*wgpu.TextureView
	samplers     map[int]*wgpu.Sampler

	released bool
}

// BindGroupProvider collects the resources bound at one @group index and holds the bind group
// the renderer creates from them.
//
// Usage pattern:
//  1. The renderer creates a provider for the group a program declares its material bindings in
//  2. Texture views and samplers are attached at the bindings the program annotates
//  3. Buffer bindings get a zero-filled uniform buffer of the reflected size
//  4. Entries() is turned into a wgpu.BindGroup and stored with SetBindGroup
//  5. Draw calls set BindGroup() at Group()
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	Label() string

	// Group returns the @group index the provider is bound at.
	Group() int

	// BindGroup returns the created bind group, or nil before creation or after release.
	BindGroup() *wgpu.BindGroup

	// SetBindGroup stores the created bind group. The provider releases it.
	SetBindGroup(bg *wgpu.BindGroup)

	// Buffer returns the uniform buffer at a binding, or nil.
	Buffer(binding int) buffer.Buffer

	// SetBuffer attaches an owned uniform buffer at a binding.
	SetBuffer(binding int, b buffer.Buffer)

	// TextureView returns the texture view at a binding, or nil.
	TextureView(binding int) *wgpu.TextureView

	// SetTextureView attaches a borrowed texture view at a binding.
	SetTextureView(binding int, tv *wgpu.TextureView)

	// Sampler returns the sampler at a binding, or nil.
	Sampler(binding int) *wgpu.Sampler

	// SetSampler attaches a borrowed sampler at a binding.
	SetSampler(binding int, s *wgpu.Sampler)

	// Entries builds the bind group entries for a layout descriptor from the attached resources.
	//
	// Parameters:
	//   - descriptor: the layout the bind group must match
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: one entry per layout entry, in binding order
	//   - error: an error naming the first binding with no resource of the required kind
	Entries(descriptor wgpu.BindGroupLayoutDescriptor) ([]wgpu.BindGroupEntry, error)

	// Released reports whether Release has been called.
	Released() bool

	// Release frees the bind group and owned buffers once. Later calls log and do nothing.
	Release()
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider for a bind group.
//
// Parameters:
//   - label: the debug label
//   - group: the @group index
//   - options: functional options attaching resources
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, group int, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		group:        group,
		buffers:      make(map[int]buffer.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() int {
	return p.group
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) Buffer(binding int) buffer.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, b buffer.Buffer) {
	p.buffers[binding] = b
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
}

func (p *bindGroupProvider) Entries(descriptor wgpu.BindGroupLayoutDescriptor) ([]wgpu.BindGroupEntry, error) {
	layout := append([]wgpu.BindGroupLayoutEntry(nil), descriptor.Entries...)
	sort.Slice(layout, func(i, j int) bool { return layout[i].Binding < layout[j].Binding })

	entries := make([]wgpu.BindGroupEntry, 0, len(layout))
	for _, e := range layout {
		binding := int(e.Binding)
		switch {
		case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			tv := p.textureViews[binding]
			if tv == nil {
				return nil, fmt.Errorf("bind group %q: texture binding %d has no texture view", p.label, binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, TextureView: tv})
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			s := p.samplers[binding]
			if s == nil {
				return nil, fmt.Errorf("bind group %q: sampler binding %d has no sampler", p.label, binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Sampler: s})
		default:
			b := p.buffers[binding]
			if b == nil || !b.Initialized() {
				return nil, fmt.Errorf("bind group %q: buffer binding %d: %w", p.label, binding, buffer.ErrNotInitialized)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Buffer: b.GPUBuffer(), Offset: 0, Size: wgpu.WholeSize})
		}
	}
	return entries, nil
}

func (p *bindGroupProvider) Released() bool {
	return p.released
}

func (p *bindGroupProvider) Release() {
	if p.released {
		log.Printf("bind group %q: release called more than once", p.label)
		return
	}
	p.released = true

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, b := range p.buffers {
		if !b.Released() {
			b.Release()
		}
		delete(p.buffers, i)
	}
	clear(p.textureViews)
	clear(p.samplers)
}
