package loader

import "io"

// loaderBackend decodes one model file format into an ImportedModel.
type loaderBackend interface {
	// Load decodes a model file and the material library it references.
	//
	// Parameters:
	//   - path: the model file
	//
	// Returns:
	//   - *ImportedModel: the decoded model
	//   - error: error if the file cannot be read or decoded
	Load(path string) (*ImportedModel, error)

	// LoadReader decodes a model from streams.
	//
	// Parameters:
	//   - name: the model name
	//   - model: the model stream
	//   - materials: the material library stream, nil for none
	//   - dir: the directory relative texture paths are resolved against
	//
	// Returns:
	//   - *ImportedModel: the decoded model
	//   - error: error if decoding fails
	LoadReader(name string, model, materials io.Reader, dir string) (*ImportedModel, error)
}
