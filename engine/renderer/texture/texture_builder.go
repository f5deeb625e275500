package texture

import "github.com/Carmen-Shannon/oxy-sandbox/common"

// TextureBuilderOption is a functional option used to configure a Texture during construction.
type TextureBuilderOption func(*texture)

// WithSampler sets the sampler configuration. Zero fields keep the linear, repeating defaults.
//
// Parameters:
//   - s: the sampler configuration
//
// Returns:
//   - TextureBuilderOption: a function that sets the sampler configuration
func WithSampler(s common.SamplerStagingData) TextureBuilderOption {
	return func(t *texture) {
		t.sampler = s
	}
}
