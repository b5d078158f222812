package shader

import (
	"errors"
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/multierr"
)

// ErrNoEntryPoint is returned when a shader lacks a @vertex or @fragment function.
var ErrNoEntryPoint = errors.New("missing entry point")

// Binding is one @group/@binding declaration of a processed shader.
type Binding struct {
	Group        int
	Binding      int
	AddressSpace string
	Name         string
	Type         string
	// Size is the byte size of Type, 0 for handle types or types that could not be resolved.
	Size uint64
}

// shader is the implementation of the Shader interface.
type shader struct {
	key           string
	source        string
	vertexEntry   string
	fragmentEntry string
	vertexInput   wgpu.VertexBufferLayout
	hasInput      bool
	bindings      []Binding
	declarations  []Annotation
}

// Shader is a pre-processed WGSL render shader together with what was reflected from it:
// entry points, the vertex input layout and the uniform bindings.
type Shader interface {
	// Key returns the shader's identifier.
	//
	// Returns:
	//   - string: the key
	Key() string

	// Source returns the processed WGSL source with every annotation expanded.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// VertexEntryPoint returns the name of the @vertex function.
	//
	// Returns:
	//   - string: the entry point name
	VertexEntryPoint() string

	// FragmentEntryPoint returns the name of the @fragment function.
	//
	// Returns:
	//   - string: the entry point name
	FragmentEntryPoint() string

	// VertexInput returns the layout of the shader's vertex input struct.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the layout the shader reads, packed in field order
	//   - bool: false if the shader declares no vertex input struct
	VertexInput() (wgpu.VertexBufferLayout, bool)

	// Bindings returns the shader's resource declarations in source order.
	//
	// Returns:
	//   - []Binding: the bindings
	Bindings() []Binding

	// Declarations returns the @oxy:group annotations the bindings were generated from.
	//
	// Returns:
	//   - []Annotation: the annotations
	Declarations() []Annotation

	// CheckVertexLayout verifies that every location the shader reads exists in layout with the same format.
	//
	// Parameters:
	//   - layout: the vertex buffer layout meshes are uploaded with
	//
	// Returns:
	//   - error: every mismatch, or nil
	CheckVertexLayout(layout wgpu.VertexBufferLayout) error

	// CheckUniformSizes verifies the shader's bindings against the buffers the renderer binds,
	// one uniform per group at binding 0.
	//
	// Parameters:
	//   - sizes: the uniform buffer size bound at each group
	//
	// Returns:
	//   - error: every mismatch, or nil
	CheckUniformSizes(sizes map[int]uint64) error
}

var _ Shader = &shader{}

// NewShader pre-processes source and reflects its entry points and bindings.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - source: WGSL source, optionally containing @oxy: annotations
//
// Returns:
//   - Shader: the processed shader
//   - error: error if an annotation is malformed or an entry point is missing
func NewShader(key, source string) (Shader, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	s := &shader{
		key:           key,
		source:        processed,
		vertexEntry:   parseEntryPoint(processed, wgpu.ShaderStageVertex),
		fragmentEntry: parseEntryPoint(processed, wgpu.ShaderStageFragment),
		bindings:      parseBindings(processed),
		declarations:  append([]Annotation(nil), pp.Declarations()...),
	}
	if s.vertexEntry == "" {
		return nil, fmt.Errorf("shader %s: @vertex: %w", key, ErrNoEntryPoint)
	}
	if s.fragmentEntry == "" {
		return nil, fmt.Errorf("shader %s: @fragment: %w", key, ErrNoEntryPoint)
	}
	s.vertexInput, s.hasInput = parseVertexInput(processed)
	return s, nil
}

// NewShaderFromFile reads a WGSL file and passes it to NewShader.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - path: the WGSL file
//
// Returns:
//   - Shader: the processed shader
//   - error: error if the file cannot be read or processed
func NewShaderFromFile(key, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return NewShader(key, string(data))
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntry
}

func (s *shader) FragmentEntryPoint() string {
	return s.fragmentEntry
}

func (s *shader) VertexInput() (wgpu.VertexBufferLayout, bool) {
	return s.vertexInput, s.hasInput
}

func (s *shader) Bindings() []Binding {
	return s.bindings
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) CheckVertexLayout(layout wgpu.VertexBufferLayout) error {
	if !s.hasInput {
		return nil
	}
	formats := make(map[uint32]wgpu.VertexFormat, len(layout.Attributes))
	for _, a := range layout.Attributes {
		formats[a.ShaderLocation] = a.Format
	}

	var err error
	for _, a := range s.vertexInput.Attributes {
		got, ok := formats[a.ShaderLocation]
		switch {
		case !ok:
			err = multierr.Append(err, fmt.Errorf("location %d is not in the vertex buffer", a.ShaderLocation))
		case got != a.Format:
			err = multierr.Append(err, fmt.Errorf("location %d: shader reads %v, buffer holds %v", a.ShaderLocation, a.Format, got))
		}
	}
	return err
}

func (s *shader) CheckUniformSizes(sizes map[int]uint64) error {
	var err error
	for _, b := range s.bindings {
		want, ok := sizes[b.Group]
		switch {
		case !ok || b.Binding != 0:
			err = multierr.Append(err, fmt.Errorf("%s: group %d binding %d is not provided", b.Name, b.Group, b.Binding))
		case b.Size != want:
			err = multierr.Append(err, fmt.Errorf("%s: %s is %d bytes, the bound buffer is %d", b.Name, b.Type, b.Size, want))
		}
	}
	return err
}
