package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// structRegistry maps include arguments to the WGSL source injected in their place.
	structRegistry map[AnnotationArg]string

	// declarations accumulates binding annotations during a Process call.
	declarations []Annotation
}

// PreProcessor rewrites raw WGSL source by expanding @oxy:include annotations and collecting
// @oxy:binding role declarations.
type PreProcessor interface {
	// Process expands annotations in source. The declarations list is reset on every call.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an annotation is malformed
	Process(source string) (string, error)

	// Declarations returns the binding annotations collected by the most recent Process call, in source order.
	//
	// Returns:
	//   - []Annotation: the collected declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the sandbox's shared struct sources registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]string{
			AnnotationArgVertex: common.VertexSource,
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = nil

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
			src, ok := p.structRegistry[a.Arg]
			if !ok {
				return "", fmt.Errorf("line %d: no source registered for %q", a.Line, a.Arg)
			}
			out = append(out, strings.TrimRight(src, "\n"))
		case AnnotationTypeBinding:
			p.declarations = append(p.declarations, *a)
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
