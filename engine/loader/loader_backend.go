package loader

import (
	"io"

	"github.com/qmuntal/gltf"
)

// loaderBackend decodes a model file or stream into a glTF document.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Open decodes the file at path. External buffers are resolved relative to the file.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *gltf.Document: the decoded document
	//   - error: error if the file cannot be read or parsed
	Open(path string) (*gltf.Document, error)

	// Decode reads a self-contained document (GLB or glTF with embedded buffers) from a stream.
	//
	// Parameters:
	//   - r: the reader providing model data
	//
	// Returns:
	//   - *gltf.Document: the decoded document
	//   - error: error if the stream cannot be parsed
	Decode(r io.Reader) (*gltf.Document, error)

	// Extensions lists the file extensions the backend accepts, lower case with the leading dot.
	//
	// Returns:
	//   - []string: the accepted extensions
	Extensions() []string
}
