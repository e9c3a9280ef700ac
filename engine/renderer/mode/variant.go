package mode

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-volume/engine/params"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// sharedResources are the bind groups and mesh every variant draws with.
type sharedResources struct {
	mesh   bind_group_provider.BindGroupProvider
	camera bind_group_provider.BindGroupProvider
	volume bind_group_provider.BindGroupProvider
}

type variant struct {
	mode     params.Mode
	uniforms []UniformID
	pipeline pipeline.Pipeline
	layout   bindingLayout
	groups   map[int]wgpu.BindGroupLayoutDescriptor

	shared         *sharedResources
	paramsProvider bind_group_provider.BindGroupProvider
	marshalParams  func(params.Parameters) []byte
	bound          bool
}

// Variant is one raymarching pipeline with the uniform set it declares.
type Variant interface {
	// Mode returns the render mode this variant draws.
	Mode() params.Mode

	// Key returns the pipeline key.
	Key() string

	// Uniforms returns the uniform blocks the variant reads, in the order they are written.
	//
	// Returns:
	//   - []UniformID: the declared uniform set
	Uniforms() []UniformID

	// Pipeline returns the variant's pipeline.
	Pipeline() pipeline.Pipeline

	// Bind creates the variant's own parameter bind group. It is a no-op once bound.
	//
	// Parameters:
	//   - r: the renderer that owns the GPU device
	//
	// Returns:
	//   - error: an error if the bind group could not be created
	Bind(r renderer.Renderer) error

	// Bound reports whether Bind has succeeded.
	Bound() bool

	// SetUniforms builds the buffer writes for every declared uniform.
	//
	// Parameters:
	//   - f: the state of the frame being drawn
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: one write per declared uniform
	SetUniforms(f FrameState) []bind_group_provider.BufferWrite

	// Draw records the cube strip draw with the camera, volume and parameter bind groups.
	//
	// Parameters:
	//   - r: the renderer recording the current frame
	//
	// Returns:
	//   - error: an error if the variant is not bound or the draw fails
	Draw(r renderer.Renderer) error

	// Release releases the parameter bind group.
	Release()
}

var _ Variant = &variant{}

// newVariant parses the stages, builds the pipeline and resolves where each resource binds.
func newVariant(m params.Mode, key string, fragmentSource string, paramsType shader.AnnotationArg, uniforms []UniformID, marshal func(params.Parameters) []byte, shared *sharedResources) (*variant, error) {
	vs, err := shader.NewShader(key+"_vs", shader.ShaderTypeVertex, raymarchVertexSource)
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShader(key+"_fs", shader.ShaderTypeFragment, fragmentSource)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.NewPipeline(key, pipeline.WithVertexShader(vs), pipeline.WithFragmentShader(fs))
	if err != nil {
		return nil, err
	}
	layout, err := resolveLayout(vs, fs, paramsType)
	if err != nil {
		return nil, err
	}
	groups, err := pipeline.MergedBindGroupLayouts(p)
	if err != nil {
		return nil, err
	}

	return &variant{
		mode:           m,
		uniforms:       uniforms,
		pipeline:       p,
		layout:         layout,
		groups:         groups,
		shared:         shared,
		paramsProvider: bind_group_provider.NewBindGroupProvider(key + "_params"),
		marshalParams:  marshal,
	}, nil
}

func newVolumeVariant(shared *sharedResources) (*variant, error) {
	return newVariant(params.ModeVolume, VolumePipelineKey, volumeFragmentSource, shader.AnnotationArgVolumeParams,
		[]UniformID{UniformCamera, UniformFrame, UniformVolumeParams},
		func(p params.Parameters) []byte {
			u := params.NewGPUVolumeParams(p)
			return u.Marshal()
		}, shared)
}

func newIsosurfaceVariant(shared *sharedResources) (*variant, error) {
	return newVariant(params.ModeIsosurface, IsosurfacePipelineKey, isosurfaceFragmentSource, shader.AnnotationArgIsoParams,
		[]UniformID{UniformCamera, UniformFrame, UniformIsoParams},
		func(p params.Parameters) []byte {
			u := params.NewGPUIsoParams(p)
			return u.Marshal()
		}, shared)
}

func (v *variant) Mode() params.Mode {
	return v.mode
}

func (v *variant) Key() string {
	return v.pipeline.PipelineKey()
}

func (v *variant) Uniforms() []UniformID {
	return slices.Clone(v.uniforms)
}

func (v *variant) Pipeline() pipeline.Pipeline {
	return v.pipeline
}

func (v *variant) Bound() bool {
	return v.bound
}

func (v *variant) Bind(r renderer.Renderer) error {
	if v.bound {
		return nil
	}
	if err := r.InitBindGroup(v.paramsProvider, v.groups[v.layout.params.group], nil, nil); err != nil {
		return fmt.Errorf("%s params: %w", v.Key(), err)
	}
	v.bound = true
	return nil
}

func (v *variant) SetUniforms(f FrameState) []bind_group_provider.BufferWrite {
	writes := make([]bind_group_provider.BufferWrite, 0, len(v.uniforms))
	for _, id := range v.uniforms {
		switch id {
		case UniformCamera:
			writes = append(writes, bind_group_provider.BufferWrite{
				Provider: v.shared.camera,
				Binding:  v.layout.camera.binding,
				Data:     f.Camera.Marshal(),
			})
		case UniformFrame:
			frame := f.frameUniform()
			writes = append(writes, bind_group_provider.BufferWrite{
				Provider: v.shared.volume,
				Binding:  v.layout.frame.binding,
				Data:     frame.Marshal(),
			})
		case UniformVolumeParams, UniformIsoParams:
			writes = append(writes, bind_group_provider.BufferWrite{
				Provider: v.paramsProvider,
				Binding:  v.layout.params.binding,
				Data:     v.marshalParams(f.Params),
			})
		}
	}
	return writes
}

// bindGroups orders the providers by their group index.
func (v *variant) bindGroups() []bind_group_provider.BindGroupProvider {
	groups := make([]bind_group_provider.BindGroupProvider, groupCount)
	groups[v.layout.camera.group] = v.shared.camera
	groups[v.layout.frame.group] = v.shared.volume
	groups[v.layout.params.group] = v.paramsProvider
	return groups
}

func (v *variant) Draw(r renderer.Renderer) error {
	if !v.bound {
		return fmt.Errorf("%s: variant not bound", v.Key())
	}
	return r.DrawCall(v.Key(), v.shared.mesh, v.bindGroups())
}

func (v *variant) Release() {
	v.paramsProvider.Release()
	v.bound = false
}
