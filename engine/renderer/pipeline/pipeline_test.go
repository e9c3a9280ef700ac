package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const vertexSource = `//@oxy:include cube_vertex
//@oxy:include camera
//@oxy:include frame
//@oxy:group 0 0 storage_uniform camera camera
//@oxy:group 1 0 storage_uniform frame frame

@vertex
fn vs_main(vert: VertexInput) -> @builtin(position) vec4<f32> {
    return camera.proj_view * vec4<f32>(vert.position * frame.scale.xyz, 1.0);
}
`

const fragmentSource = `//@oxy:include frame
//@oxy:include iso_params
//@oxy:group 1 0 storage_uniform frame frame
//@oxy:provider 1 1 volume density_texture
@group(1) @binding(1) var density: texture_3d<f32>;
//@oxy:group 2 0 storage_uniform params iso_params

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(frame.scale.xyz, params.iso_value);
}
`

// conflictSource declares group 1 binding 0 as a texture instead of the frame uniform.
const conflictSource = `@group(1) @binding(0) var density: texture_3d<f32>;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0);
}
`

func mustShader(t *testing.T, key string, st shader.ShaderType, src string) shader.Shader {
	t.Helper()
	s, err := shader.NewShader(key, st, src)
	if err != nil {
		t.Fatalf("NewShader(%s): %v", key, err)
	}
	return s
}

func TestNewPipelineDefaults(t *testing.T) {
	vs := mustShader(t, "vs", shader.ShaderTypeVertex, vertexSource)
	fs := mustShader(t, "fs", shader.ShaderTypeFragment, fragmentSource)

	p, err := NewPipeline("iso", WithVertexShader(vs), WithFragmentShader(fs))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if p.Topology() != wgpu.PrimitiveTopologyTriangleStrip {
		t.Errorf("topology = %v", p.Topology())
	}
	if p.CullMode() != wgpu.CullModeFront || p.FrontFace() != wgpu.FrontFaceCCW {
		t.Errorf("cull = %v, front face = %v", p.CullMode(), p.FrontFace())
	}
	if p.BlendState() != nil {
		t.Error("blend enabled by default")
	}
	if p.Shader(shader.ShaderTypeVertex) != vs || p.Shader(shader.ShaderTypeFragment) != fs {
		t.Error("shaders not stored by stage")
	}
	if p.RenderPipeline() != nil {
		t.Error("GPU pipeline set before creation")
	}
}

func TestNewPipelineValidatesShaders(t *testing.T) {
	vs := mustShader(t, "vs", shader.ShaderTypeVertex, vertexSource)
	fs := mustShader(t, "fs", shader.ShaderTypeFragment, fragmentSource)

	tests := []struct {
		name string
		opts []PipelineBuilderOption
	}{
		{"missing fragment", []PipelineBuilderOption{WithVertexShader(vs)}},
		{"missing vertex", []PipelineBuilderOption{WithFragmentShader(fs)}},
		{"swapped stages", []PipelineBuilderOption{WithVertexShader(fs), WithFragmentShader(vs)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPipeline("bad", tt.opts...); err == nil {
				t.Fatal("invalid pipeline accepted")
			}
		})
	}
}

func TestMergedBindGroupLayouts(t *testing.T) {
	vs := mustShader(t, "vs", shader.ShaderTypeVertex, vertexSource)
	fs := mustShader(t, "fs", shader.ShaderTypeFragment, fragmentSource)
	p, err := NewPipeline("iso", WithVertexShader(vs), WithFragmentShader(fs))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	merged, err := MergedBindGroupLayouts(p)
	if err != nil {
		t.Fatalf("MergedBindGroupLayouts: %v", err)
	}
	if len(merged) != 3 {
		t.Fatalf("got %d groups, want 3", len(merged))
	}

	cam := merged[0].Entries
	if len(cam) != 1 || cam[0].Visibility != wgpu.ShaderStageVertex {
		t.Errorf("camera group = %+v", cam)
	}

	vol := merged[1].Entries
	if len(vol) != 2 {
		t.Fatalf("volume group has %d entries, want 2", len(vol))
	}
	if vol[0].Binding != 0 || vol[0].Visibility != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
		t.Errorf("frame entry = %+v", vol[0])
	}
	if vol[1].Binding != 1 || vol[1].Visibility != wgpu.ShaderStageFragment {
		t.Errorf("density entry = %+v", vol[1])
	}

	params := merged[2].Entries
	if len(params) != 1 || params[0].Buffer.MinBindingSize != 16 {
		t.Errorf("iso params group = %+v", params)
	}
}

func TestMergedBindGroupLayoutsRejectsConflicts(t *testing.T) {
	vs := mustShader(t, "vs", shader.ShaderTypeVertex, vertexSource)
	fs := mustShader(t, "fs", shader.ShaderTypeFragment, conflictSource)
	p, err := NewPipeline("conflict", WithVertexShader(vs), WithFragmentShader(fs))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if _, err := MergedBindGroupLayouts(p); err == nil {
		t.Fatal("buffer and texture at the same binding merged")
	}
}
