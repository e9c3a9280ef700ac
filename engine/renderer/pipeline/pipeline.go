package pipeline

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the vertex and fragment shaders of a render pipeline and the fixed-function state used to create it.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// renderPipeline is set by the renderer once the GPU object has been created
	renderPipeline *wgpu.RenderPipeline

	cullMode   wgpu.CullMode
	topology   wgpu.PrimitiveTopology
	frontFace  wgpu.FrontFace
	writeMask  wgpu.ColorWriteMask
	blendState *wgpu.BlendState
}

// Pipeline defines the interface for a render pipeline made of a vertex and a fragment shader.
// It holds the configuration state required for pipeline creation: cull, topology, winding,
// color write mask and an optional blend state.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified stage if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the stage of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified stage, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// RenderPipeline returns the underlying GPU pipeline, nil until the renderer has created it.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the created render pipeline
	RenderPipeline() *wgpu.RenderPipeline

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline (e.g., wgpu.CullModeFront)
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline (e.g., wgpu.PrimitiveTopologyTriangleStrip)
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order for this pipeline
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state, or nil when the pipeline overwrites its target
	BlendState() *wgpu.BlendState

	// SetRenderPipeline sets the render pipeline
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline description. Both shaders are required. The defaults
// match a raymarch proxy cube: triangle strip, counter-clockwise front faces culled, full write
// mask and no blending.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
//   - error: an error if a shader is missing or was parsed for the wrong stage
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) (Pipeline, error) {
	p := &pipeline{
		pipelineKey: pipelineKey,
		cullMode:    wgpu.CullModeFront,
		topology:    wgpu.PrimitiveTopologyTriangleStrip,
		frontFace:   wgpu.FrontFaceCCW,
		writeMask:   wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.vertexShader == nil || p.fragmentShader == nil {
		return nil, fmt.Errorf("pipeline %s: vertex and fragment shaders are required", pipelineKey)
	}
	if p.vertexShader.ShaderType() != shader.ShaderTypeVertex {
		return nil, fmt.Errorf("pipeline %s: shader %s is not a vertex shader", pipelineKey, p.vertexShader.Key())
	}
	if p.fragmentShader.ShaderType() != shader.ShaderTypeFragment {
		return nil, fmt.Errorf("pipeline %s: shader %s is not a fragment shader", pipelineKey, p.fragmentShader.Key())
	}
	return p, nil
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

// MergedBindGroupLayouts unions the bind group layouts of both shaders of a pipeline. Entries
// declared by both stages for the same binding are combined into one entry whose visibility is
// the OR of the stage visibilities. The entries within each group are sorted by binding.
//
// Parameters:
//   - p: the pipeline whose shaders are merged
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
//   - error: an error if both stages declare the same binding with different resource types
func MergedBindGroupLayouts(p Pipeline) (map[int]wgpu.BindGroupLayoutDescriptor, error) {
	type slot struct{ group, binding int }
	entries := make(map[slot]wgpu.BindGroupLayoutEntry)
	groups := make(map[int]bool)

	for _, st := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		s := p.Shader(st)
		if s == nil {
			continue
		}
		for group, desc := range s.BindGroupLayoutDescriptors() {
			groups[group] = true
			for _, e := range desc.Entries {
				k := slot{group, int(e.Binding)}
				prev, ok := entries[k]
				if !ok {
					entries[k] = e
					continue
				}
				if resourceKind(prev) != resourceKind(e) {
					return nil, fmt.Errorf("pipeline %s: group %d binding %d declared as %s and %s",
						p.PipelineKey(), group, e.Binding, resourceKind(prev), resourceKind(e))
				}
				prev.Visibility |= e.Visibility
				entries[k] = prev
			}
		}
	}

	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for group := range groups {
		var list []wgpu.BindGroupLayoutEntry
		for k, e := range entries {
			if k.group == group {
				list = append(list, e)
			}
		}
		slices.SortFunc(list, func(a, b wgpu.BindGroupLayoutEntry) int {
			return cmp.Compare(a.Binding, b.Binding)
		})
		out[group] = wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s_group_%d", p.PipelineKey(), group),
			Entries: list,
		}
	}
	return out, nil
}

func resourceKind(e wgpu.BindGroupLayoutEntry) string {
	switch {
	case e.Buffer.Type != wgpu.BufferBindingTypeUndefined:
		return "buffer"
	case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		return "texture"
	case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		return "sampler"
	case e.StorageTexture.Access != wgpu.StorageTextureAccessUndefined:
		return "storage texture"
	default:
		return "unknown"
	}
}

