// annotations.go defines the annotation types and parser for the WGSL shader pre-processor.
// Annotations are single-line WGSL comments prefixed with @oxy: that either inject a shared
// struct definition into the shader or tag a hand-written binding with the role it plays,
// so the renderer can find the material texture and sampler without matching variable names.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct at the annotation site.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include vertex
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBinding tags the hand-written @group/@binding declaration below it with a role.
	// The comment line is left untouched and the role is recorded in the shader's declarations.
	//
	// Syntax: //@oxy:binding <group> <binding> <role>
	//
	// Example: //@oxy:binding 0 0 diffuse_texture
	AnnotationTypeBinding AnnotationType = "binding"
)

// AnnotationArg is a typed string used as an annotation argument.
type AnnotationArg string

const (
	// AnnotationArgVertex identifies the VertexInput struct matching common.Vertex.
	AnnotationArgVertex AnnotationArg = "vertex"

	// AnnotationArgDiffuseTexture marks the binding that receives the material's diffuse texture view.
	AnnotationArgDiffuseTexture AnnotationArg = "diffuse_texture"

	// AnnotationArgDiffuseSampler marks the binding that receives the material's diffuse sampler.
	AnnotationArgDiffuseSampler AnnotationArg = "diffuse_sampler"
)

var (
	validStructTypes = []AnnotationArg{AnnotationArgVertex}
	validRoles       = []AnnotationArg{AnnotationArgDiffuseTexture, AnnotationArgDiffuseSampler}
)

// Annotation represents a single parsed @oxy: annotation from a WGSL source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Arg is the struct type for include annotations or the role for binding annotations.
	Arg AnnotationArg

	// Line is the 1-based source line the annotation was found on.
	Line int

	// Group and Binding are set for binding annotations only.
	Group, Binding int
}

// parseAnnotation parses a single WGSL source line. Lines without the annotation prefix return nil, nil.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number used in error messages
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: an error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy:include requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy:include", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeInclude, Arg: AnnotationArg(args[1]), Line: lineNum}, nil
	case AnnotationTypeBinding:
		if len(args) != 4 {
			return nil, fmt.Errorf("line %d: @oxy:binding requires group, binding and role", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil || group < 0 {
			return nil, fmt.Errorf("line %d: invalid group %q in @oxy:binding", lineNum, args[1])
		}
		binding, err := strconv.Atoi(args[2])
		if err != nil || binding < 0 {
			return nil, fmt.Errorf("line %d: invalid binding %q in @oxy:binding", lineNum, args[2])
		}
		if !slices.Contains(validRoles, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown role %q in @oxy:binding", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeBinding,
			Arg:     AnnotationArg(args[3]),
			Line:    lineNum,
			Group:   group,
			Binding: binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown annotation type %q", lineNum, args[0])
	}
}
