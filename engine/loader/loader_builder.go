package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithPipelineKeys is an option builder that sets the pipelines meshes are drawn with. Empty keys
// keep the defaults.
//
// Parameters:
//   - plain: the pipeline for untextured parts
//   - textured: the pipeline for parts with a diffuse texture
//
// Returns:
//   - LoaderBuilderOption: a function that applies the pipeline keys to a loader
func WithPipelineKeys(plain, textured string) LoaderBuilderOption {
	return func(l *loader) {
		if plain != "" {
			l.plainPipelineKey = plain
		}
		if textured != "" {
			l.texturedPipelineKey = textured
		}
	}
}

// WithNormalizeSize is an option builder that recenters every loaded model on the origin and
// scales it so its largest extent equals size. Zero disables normalization.
//
// Parameters:
//   - size: the target largest extent
//
// Returns:
//   - LoaderBuilderOption: a function that applies the normalization option to a loader
func WithNormalizeSize(size float32) LoaderBuilderOption {
	return func(l *loader) {
		l.normalizeSize = max(size, 0)
	}
}

// WithTextureWorkers is an option builder that sets how many diffuse maps are decoded at once.
//
// Parameters:
//   - n: the number of concurrent decoders, values below 1 mean one
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithTextureWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.textureWorkers = max(n, 1)
	}
}

// WithModel is an option builder that pre-populates the model cache.
//
// Parameters:
//   - key: the cache key for the model
//   - m: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, m *ImportedModel) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = m
	}
}
