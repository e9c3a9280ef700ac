package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const testVertexSource = `//@oxy:include cube_vertex
//@oxy:include camera
//@oxy:include frame

//@oxy:group 0 0 storage_uniform camera camera
//@oxy:group 1 0 storage_uniform frame frame

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) ray_dir: vec3<f32>,
}

@vertex
fn vs_main(vert: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = camera.proj_view * vec4<f32>(vert.position * frame.scale.xyz, 1.0);
    out.ray_dir = vert.position - camera.eye.xyz;
    return out;
}
`

const testFragmentSource = `//@oxy:include frame
//@oxy:include volume_params
//@oxy:include frame

//@oxy:group 1 0 storage_uniform frame frame
//@oxy:provider 1 1 volume density_texture
@group(1) @binding(1) var density: texture_3d<f32>;
//@oxy:provider 1 2 volume colormap_texture
@group(1) @binding(2) var colormap: texture_2d<f32>;
//@oxy:provider 1 3 volume colormap_sampler
@group(1) @binding(3) var colormap_sampler: sampler;
//@oxy:group 2 0 storage_uniform params volume_params

@fragment
fn fs_main(@location(0) ray_dir: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(ray_dir, params.opacity_strength);
}
`

func TestPreProcessorInjectsAndDeclares(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process(testFragmentSource)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if n := strings.Count(out, "struct FrameUniform"); n != 1 {
		t.Errorf("FrameUniform injected %d times, want 1", n)
	}
	if !strings.Contains(out, "@group(2) @binding(0) var<uniform> params: VolumeParams;") {
		t.Error("params declaration not generated")
	}
	if strings.Contains(out, "@oxy:") {
		t.Error("annotation left in output")
	}

	decls := pp.Declarations()
	if len(decls) != 5 {
		t.Fatalf("got %d declarations, want 5", len(decls))
	}
	if decls[0].StructType() != AnnotationArgFrame || *decls[0].Group != 1 {
		t.Errorf("first declaration = %+v", decls[0])
	}
	roles := []AnnotationArg{AnnotationArgDensityTexture, AnnotationArgColormapTexture, AnnotationArgColormapSampler}
	for i, want := range roles {
		d := decls[i+1]
		if d.Type != AnnotationTypeProvider || d.Args[0] != AnnotationArgVolume || d.Role() != want || *d.Binding != i+1 {
			t.Errorf("declaration %d = %+v, want volume provider %s at binding %d", i+1, d, want, i+1)
		}
	}
	if decls[4].StructType() != AnnotationArgVolumeParams {
		t.Errorf("last declaration struct = %q", decls[4].StructType())
	}
}

func TestPreProcessorRejectsMalformedAnnotations(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"unknown include", "//@oxy:include light"},
		{"library as group type", "//@oxy:group 0 0 storage_uniform lib raymarch_common"},
		{"bad group number", "//@oxy:group x 0 storage_uniform camera camera"},
		{"negative binding", "//@oxy:group 0 -1 storage_uniform camera camera"},
		{"storage address space", "//@oxy:group 0 0 storage_read camera camera"},
		{"missing group args", "//@oxy:group 0 0 storage_uniform camera"},
		{"unknown provider", "//@oxy:provider 1 1 material"},
		{"unknown role", "//@oxy:provider 1 1 volume diffuse_texture"},
		{"unknown annotation", "//@oxy:define FOO"},
		{"empty annotation", "//@oxy:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPreProcessor().Process(tt.line); err == nil {
				t.Fatalf("%q accepted", tt.line)
			}
		})
	}
}

func TestPreProcessorIgnoresCode(t *testing.T) {
	src := "let x = 1; // mentions @oxy:include camera after code\n"
	out, err := NewPreProcessor().Process(src)
	if err != nil || out != src {
		t.Fatalf("trailing comment treated as annotation: %q, %v", out, err)
	}
}

func TestNewShaderVertexLayouts(t *testing.T) {
	s, err := NewShader("raymarch_vs", ShaderTypeVertex, testVertexSource)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	if s.EntryPoint() != "vs_main" {
		t.Errorf("entry point = %q", s.EntryPoint())
	}

	layouts := s.VertexLayouts()
	if len(layouts) != 1 {
		t.Fatalf("got %d vertex layouts, want 1", len(layouts))
	}
	l := layouts[0][0]
	if l.ArrayStride != 12 || len(l.Attributes) != 1 || l.Attributes[0].Format != wgpu.VertexFormatFloat32x3 {
		t.Errorf("cube vertex layout = %+v", l)
	}

	cam := s.BindGroupLayoutDescriptor(0).Entries
	if len(cam) != 1 || cam[0].Buffer.Type != wgpu.BufferBindingTypeUniform || cam[0].Buffer.MinBindingSize != 80 {
		t.Errorf("camera entry = %+v", cam)
	}
	if cam[0].Visibility != wgpu.ShaderStageVertex {
		t.Errorf("camera visibility = %v", cam[0].Visibility)
	}
	frame := s.BindGroupLayoutDescriptor(1).Entries
	if len(frame) != 1 || frame[0].Buffer.MinBindingSize != 48 {
		t.Errorf("frame entry = %+v", frame)
	}
	if s.BindGroupVarName(1, 0) != "frame" {
		t.Errorf("var name = %q", s.BindGroupVarName(1, 0))
	}
}

func TestNewShaderFragmentBindings(t *testing.T) {
	s, err := NewShader("volume_fs", ShaderTypeFragment, testFragmentSource)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	if s.EntryPoint() != "fs_main" {
		t.Errorf("entry point = %q", s.EntryPoint())
	}
	if len(s.VertexLayouts()) != 0 {
		t.Error("fragment shader reported vertex layouts")
	}

	entries := s.BindGroupLayoutDescriptor(1).Entries
	if len(entries) != 4 {
		t.Fatalf("group 1 has %d entries, want 4", len(entries))
	}
	if e := entries[1]; e.Texture.ViewDimension != wgpu.TextureViewDimension3D || e.Texture.SampleType != wgpu.TextureSampleTypeFloat {
		t.Errorf("density entry = %+v", e.Texture)
	}
	if e := entries[2]; e.Texture.ViewDimension != wgpu.TextureViewDimension2D {
		t.Errorf("colormap entry = %+v", e.Texture)
	}
	if e := entries[3]; e.Sampler.Type != wgpu.SamplerBindingTypeFiltering {
		t.Errorf("sampler entry = %+v", e.Sampler)
	}
	if p := s.BindGroupLayoutDescriptor(2).Entries; len(p) != 1 || p[0].Buffer.MinBindingSize != 32 {
		t.Errorf("params entry = %+v", p)
	}
	if b, ok := s.BindGroupFromVarName(1, "colormap_sampler"); !ok || b != 3 {
		t.Errorf("colormap_sampler binding = %d, %v", b, ok)
	}
	if len(s.Declarations()) != 5 {
		t.Errorf("got %d declarations", len(s.Declarations()))
	}
}

func TestNewShaderRequiresEntryPoint(t *testing.T) {
	if _, err := NewShader("no_entry", ShaderTypeFragment, testVertexSource); err == nil {
		t.Fatal("vertex-only source accepted as fragment shader")
	}
	if _, err := NewShaderFromPath("missing", ShaderTypeVertex, "does/not/exist.wgsl"); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestResolveTypeLayout(t *testing.T) {
	tests := []struct {
		typeName string
		size     uint64
		ok       bool
	}{
		{"vec3<f32>", 12, true},
		{"mat4x4<f32>", 64, true},
		{"array<vec4<f32>, 4>", 64, true},
		{"array<vec3<f32>, 2>", 32, true},
		{"array<f32>", 0, false},
		{"texture_3d<f32>", 0, false},
	}
	for _, tt := range tests {
		layout, ok := resolveTypeLayout(tt.typeName, nil)
		if ok != tt.ok || layout.size != tt.size {
			t.Errorf("%s: size %d ok %v, want %d %v", tt.typeName, layout.size, ok, tt.size, tt.ok)
		}
	}
}
