package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithTextureView attaches a texture view at a binding.
//
// Parameters:
//   - binding: the @binding index
//   - tv: the texture view, owned by its texture
//
// Returns:
//   - BindGroupProviderOption: a function that attaches the texture view
func WithTextureView(binding int, tv *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textureViews[binding] = tv
	}
}

// WithSampler attaches a sampler at a binding.
//
// Parameters:
//   - binding: the @binding index
//   - s: the sampler, owned by its texture
//
// Returns:
//   - BindGroupProviderOption: a function that attaches the sampler
func WithSampler(binding int, s *wgpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.samplers[binding] = s
	}
}

// WithBuffer attaches a uniform buffer the provider takes ownership of.
func WithBuffer(binding int, b buffer.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = b
	}
}
