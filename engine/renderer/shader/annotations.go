// annotations.go defines the annotation types, argument constants, and parser for the
// WGSL shader pre-processor. Annotations are single-line WGSL comments prefixed with
// @oxy: that drive shared source injection, bind group declaration, and resource provider
// registration. The parsed results are stored as Annotation values and consumed by the
// PreProcessor and the render mode variants to wire GPU resources to bind groups.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered WGSL source (a struct definition or the shared
	// raymarch function library) at the annotation site. It produces no declaration.
	//
	// Syntax: //@oxy:include <source_key>
	//
	// Example: //@oxy:include camera
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration and
	// records a declaration carrying the group, binding and struct type. Mode variants read
	// these to learn which uniform lives in which group.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 0 storage_uniform camera camera
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider records a resource provider identity for a group and binding
	// without generating WGSL. The binding itself stays hand-written below the annotation.
	// Textures and samplers use this form. An optional binding role names the purpose of
	// the binding within its provider group.
	//
	// Syntax:
	//   //@oxy:provider <group> <binding> <provider_identity>
	//   //@oxy:provider <group> <binding> <provider_identity> <binding_role>
	//
	// Example: //@oxy:provider 1 1 volume density_texture
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed (include, group, or provider).
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = source key (e.g. "camera")
	//   - group:    [0] = address space, [1] = var name, [2] = struct type key
	//   - provider: [0] = provider identity (e.g. "volume"), [1] = binding role (optional)
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source, for error reporting.
	Line int

	// Group is the @group index for group and provider annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group and provider annotations. Nil for include annotations.
	Binding *int
}

// StructType returns the struct type key of a group annotation, or "" for other annotations.
func (a Annotation) StructType() AnnotationArg {
	if a.Type != AnnotationTypeBindingGroup || len(a.Args) < 3 {
		return ""
	}
	return a.Args[2]
}

// Role returns the binding role of a provider annotation, or "" when none was given.
func (a Annotation) Role() AnnotationArg {
	if a.Type != AnnotationTypeProvider || len(a.Args) < 2 {
		return ""
	}
	return a.Args[1]
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────
// These identify registered WGSL struct types. They can appear in @oxy:include and as
// the type field of @oxy:group. Each maps to a Go GPU type with an embedded .wgsl asset.

const (
	// AnnotationArgCamera identifies the CameraUniform struct.
	// Source: engine/camera/assets/camera_uniform.wgsl
	AnnotationArgCamera AnnotationArg = "camera"

	// AnnotationArgFrame identifies the FrameUniform struct shared by both raymarch pipelines.
	// Source: engine/params/assets/frame_uniform.wgsl
	AnnotationArgFrame AnnotationArg = "frame"

	// AnnotationArgVolumeParams identifies the VolumeParams struct of the volume pipeline.
	// Source: engine/params/assets/volume_params.wgsl
	AnnotationArgVolumeParams AnnotationArg = "volume_params"

	// AnnotationArgIsoParams identifies the IsoParams struct of the isosurface pipeline.
	// Source: engine/params/assets/iso_params.wgsl
	AnnotationArgIsoParams AnnotationArg = "iso_params"

	// annotationArgCubeVertex identifies the VertexInput struct of the cube strip.
	// Source: engine/raymarch/assets/cube_vertex.wgsl
	annotationArgCubeVertex AnnotationArg = "cube_vertex"
)

// ── Library arguments ──────────────────────────────────────────────────────────
// These identify WGSL function libraries. They are accepted only by @oxy:include.

const (
	// annotationArgRaymarchCommon identifies the shared raymarch primitives.
	// Source: engine/raymarch/assets/raymarch_common.wgsl
	annotationArgRaymarchCommon AnnotationArg = "raymarch_common"
)

// ── Address space arguments ────────────────────────────────────────────────────

const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"
)

// ── Provider identity arguments ────────────────────────────────────────────────

const (
	// AnnotationArgVolume identifies the volume provider: the frame uniform, the density
	// texture, and the colormap texture with its sampler.
	AnnotationArgVolume AnnotationArg = "volume"
)

// ── Binding role arguments ─────────────────────────────────────────────────────

const (
	// AnnotationArgDensityTexture identifies the 3-D R16Float density texture.
	AnnotationArgDensityTexture AnnotationArg = "density_texture"

	// AnnotationArgColormapTexture identifies the 180x1 transfer function texture.
	AnnotationArgColormapTexture AnnotationArg = "colormap_texture"

	// AnnotationArgColormapSampler identifies the clamped linear sampler paired with the colormap.
	AnnotationArgColormapSampler AnnotationArg = "colormap_sampler"
)

// validStructTypes lists the struct type keys accepted by @oxy:include and @oxy:group.
// Each entry must have a corresponding registryEntry in the PreProcessor's registry.
var validStructTypes = []AnnotationArg{
	AnnotationArgCamera,
	AnnotationArgFrame,
	AnnotationArgVolumeParams,
	AnnotationArgIsoParams,
	annotationArgCubeVertex,
}

// validLibraries lists the function library keys accepted by @oxy:include.
var validLibraries = []AnnotationArg{
	annotationArgRaymarchCommon,
}

// validAddressSpaces lists the address space arguments accepted by @oxy:group.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
}

// validProviderIdentities lists the provider identities accepted by @oxy:provider.
var validProviderIdentities = []AnnotationArg{
	AnnotationArgCamera,
	AnnotationArgVolume,
}

// validBindingRoles lists the binding roles accepted by @oxy:provider.
var validBindingRoles = []AnnotationArg{
	AnnotationArgDensityTexture,
	AnnotationArgColormapTexture,
	AnnotationArgColormapSampler,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
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

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		key := AnnotationArg(args[1])
		if !slices.Contains(validStructTypes, key) && !slices.Contains(validLibraries, key) {
			return nil, fmt.Errorf("line %d: unknown include %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{key},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires exactly five arguments (group, binding, address space, var name, struct type)", lineNum)
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[5])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy group annotation", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	case string(AnnotationTypeProvider):
		if len(args) < 4 || len(args) > 5 {
			return nil, fmt.Errorf("line %d: @oxy provider annotation requires three or four arguments (group, binding, provider identity[, binding role])", lineNum)
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown provider identity %q in @oxy provider annotation", lineNum, args[3])
		}
		providerArgs := []AnnotationArg{AnnotationArg(args[3])}
		if len(args) == 5 {
			if !slices.Contains(validBindingRoles, AnnotationArg(args[4])) {
				return nil, fmt.Errorf("line %d: unknown binding role %q in @oxy provider annotation", lineNum, args[4])
			}
			providerArgs = append(providerArgs, AnnotationArg(args[4]))
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    providerArgs,
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

func parseGroupBinding(groupArg, bindingArg string, lineNum int) (int, int, error) {
	group, err := strconv.Atoi(groupArg)
	if err != nil || group < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid group number %q", lineNum, groupArg)
	}
	binding, err := strconv.Atoi(bindingArg)
	if err != nil || binding < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid binding number %q", lineNum, bindingArg)
	}
	return group, binding, nil
}
