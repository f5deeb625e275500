package material

import "github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/texture"

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithBaseColor is an option builder that sets the RGBA color of an untextured material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithReflectance is an option builder that sets the ambient, diffuse and specular terms.
//
// Parameters:
//   - ambient: the ambient RGB term
//   - diffuse: the diffuse RGB term
//   - specular: the specular RGB term
//
// Returns:
//   - MaterialBuilderOption: a function that applies the reflectance terms to a material
func WithReflectance(ambient, diffuse, specular [3]float32) MaterialBuilderOption {
	return func(m *material) {
		m.ambient = ambient
		m.diffuse = diffuse
		m.specular = specular
	}
}

// WithShininess is an option builder that sets the specular exponent.
//
// Parameters:
//   - shininess: the exponent, negative values are clamped to zero
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shininess option to a material
func WithShininess(shininess float32) MaterialBuilderOption {
	return func(m *material) {
		m.shininess = max(shininess, 0)
	}
}

// WithDiffuseTexture is an option builder that sets the diffuse texture. The material takes
// ownership of the texture.
//
// Parameters:
//   - tex: the texture sampled by the material's pipeline
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse texture option to a material
func WithDiffuseTexture(tex texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseTexture = tex
	}
}

// WithPipelineKey is an option builder that sets the render pipeline key.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - MaterialBuilderOption: a function that applies the pipeline key option to a material
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		if key != "" {
			m.pipelineKey = key
		}
	}
}
