package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// registryEntry pairs an embedded WGSL struct source with its type name.
type registryEntry struct {
	Source string
	Type   string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations is reset at the start of each Process call.
	declarations []Annotation
}

// PreProcessor replaces @oxy: annotations in WGSL source with the struct definitions and
// binding declarations they name.
type PreProcessor interface {
	// Process expands every annotation in source. Repeated includes of a struct are dropped.
	//
	// Parameters:
	//   - source: WGSL source containing annotations
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: error if an annotation is malformed or a binding is declared twice
	Process(source string) (string, error)

	// Declarations returns the binding annotations of the last Process call in source order.
	//
	// Returns:
	//   - []Annotation: the group annotations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the vertex, mesh and scene structs registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgVertex:       {Source: model.GPUVertexSource, Type: "VertexInput"},
			AnnotationArgMeshUniform:  {Source: model.GPUMeshUniformSource, Type: "MeshUniform"},
			AnnotationArgSceneUniform: {Source: renderer.GPUSceneUniformSource, Type: "SceneUniform"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform: "var<uniform>",
			annotationArgStorageTypeRead:    "var<storage, read>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]
	included := make(map[AnnotationArg]bool)
	bound := make(map[[2]int]int)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			if !included[a.Args[0]] {
				included[a.Args[0]] = true
				out = append(out, strings.TrimRight(p.structRegistry[a.Args[0]].Source, "\n"))
			}
		case AnnotationTypeBindingGroup:
			key := [2]int{a.Group, a.Binding}
			if prev, ok := bound[key]; ok {
				return "", fmt.Errorf("line %d: group %d binding %d already declared on line %d", a.Line, a.Group, a.Binding, prev)
			}
			bound[key] = a.Line

			entry := p.structRegistry[a.Args[2]]
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				a.Group, a.Binding, p.addressSpaceRegistry[a.Args[0]], a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
