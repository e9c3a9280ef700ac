package mode

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/Carmen-Shannon/oxy-volume/engine/camera"
	"github.com/Carmen-Shannon/oxy-volume/engine/params"
)

func mustController(t *testing.T, options ...ControllerBuilderOption) *controller {
	t.Helper()
	c, err := NewController(options...)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c.(*controller)
}

func TestNewControllerVariants(t *testing.T) {
	c := mustController(t)
	if c.Mode() != params.ModeVolume {
		t.Errorf("initial mode = %v", c.Mode())
	}

	tests := []struct {
		mode     params.Mode
		key      string
		uniforms []UniformID
	}{
		{params.ModeVolume, VolumePipelineKey, []UniformID{UniformCamera, UniformFrame, UniformVolumeParams}},
		{params.ModeIsosurface, IsosurfacePipelineKey, []UniformID{UniformCamera, UniformFrame, UniformIsoParams}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := c.Variant(tt.mode)
			if v == nil {
				t.Fatal("variant missing")
			}
			if v.Key() != tt.key || v.Mode() != tt.mode {
				t.Errorf("key=%s mode=%v", v.Key(), v.Mode())
			}
			got := v.Uniforms()
			if len(got) != len(tt.uniforms) {
				t.Fatalf("uniforms = %v", got)
			}
			for i := range got {
				if got[i] != tt.uniforms[i] {
					t.Errorf("uniform %d = %v, want %v", i, got[i], tt.uniforms[i])
				}
			}
			if v.Bound() {
				t.Error("variant bound before Init")
			}
		})
	}
}

func TestSharedLayout(t *testing.T) {
	c := mustController(t)
	l := c.variants[params.ModeVolume].layout

	if l.camera != (slot{0, 0}) || l.frame != (slot{1, 0}) || l.params != (slot{2, 0}) {
		t.Errorf("uniform slots camera=%v frame=%v params=%v", l.camera, l.frame, l.params)
	}
	if l.density != (slot{1, 1}) || l.colormap != (slot{1, 2}) || l.sampler != (slot{1, 3}) {
		t.Errorf("resource slots density=%v colormap=%v sampler=%v", l.density, l.colormap, l.sampler)
	}

	groups := c.variants[params.ModeIsosurface].bindGroups()
	if groups[0] != c.shared.camera || groups[1] != c.shared.volume || groups[2] != c.variants[params.ModeIsosurface].paramsProvider {
		t.Error("bind groups not ordered by group index")
	}
}

func TestSetUniforms(t *testing.T) {
	c := mustController(t)
	f := FrameState{
		Params:    params.Defaults(),
		StepScale: 1.5,
		Camera:    camera.GPUCameraUniform{Eye: [4]float32{0.5, 0.5, 1.5, 1}},
		Dims:      [3]int{64, 32, 16},
		Scale:     [3]float32{1, 0.5, 0.25},
		Linear:    true,
		Width:     800,
		Height:    600,
	}

	tests := []struct {
		mode       params.Mode
		paramsSize int
	}{
		{params.ModeVolume, 32},
		{params.ModeIsosurface, 16},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			v := c.variants[tt.mode]
			writes := v.SetUniforms(f)
			if len(writes) != 3 {
				t.Fatalf("writes = %d", len(writes))
			}
			if writes[0].Provider != c.shared.camera || len(writes[0].Data) != 80 {
				t.Errorf("camera write provider=%s len=%d", writes[0].Provider.Label(), len(writes[0].Data))
			}
			if writes[1].Provider != c.shared.volume || len(writes[1].Data) != 48 {
				t.Errorf("frame write provider=%s len=%d", writes[1].Provider.Label(), len(writes[1].Data))
			}
			if writes[2].Provider != v.paramsProvider || len(writes[2].Data) != tt.paramsSize {
				t.Errorf("params write provider=%s len=%d", writes[2].Provider.Label(), len(writes[2].Data))
			}
		})
	}
}

func TestCameraProviderIsShared(t *testing.T) {
	cam := camera.NewCamera()
	c := mustController(t, WithCameraProvider(cam.BindGroupProvider()))

	for _, m := range []params.Mode{params.ModeVolume, params.ModeIsosurface} {
		writes := c.variants[m].SetUniforms(FrameState{Params: params.Defaults(), Camera: cam.Uniform()})
		if writes[0].Provider != cam.BindGroupProvider() {
			t.Errorf("%v writes the camera uniform to %q, want %q", m, writes[0].Provider.Label(), cam.BindGroupProvider().Label())
		}
	}
}

func TestFrameUniformFromState(t *testing.T) {
	f := FrameState{Dims: [3]int{3, 4, 5}, Scale: [3]float32{0.6, 0.8, 1}, Linear: true, Width: 640, Height: 480, StepScale: 2}
	u := f.frameUniform()
	if u.Dims != [3]int32{3, 4, 5} || !u.Linear || u.Screen != [2]float32{640, 480} || u.StepScale != 2 {
		t.Errorf("frame uniform = %+v", u)
	}
}

func TestSwitchBeforeInit(t *testing.T) {
	c := mustController(t, WithInitialMode(params.ModeIsosurface))
	if c.Mode() != params.ModeIsosurface {
		t.Fatalf("initial mode = %v", c.Mode())
	}

	changed, err := c.Switch(params.ModeVolume)
	if err != nil || !changed {
		t.Errorf("Switch(volume) = %v, %v", changed, err)
	}
	if changed, err = c.Switch(params.ModeVolume); err != nil || changed {
		t.Errorf("repeat Switch(volume) = %v, %v", changed, err)
	}
	if _, err = c.Switch(params.Mode(9)); err == nil {
		t.Error("expected error for unknown mode")
	}
	if c.Active().Mode() != params.ModeVolume {
		t.Errorf("active = %v", c.Active().Mode())
	}
}

func TestUninitializedController(t *testing.T) {
	c := mustController(t)
	if c.VolumeTexture() != nil {
		t.Error("volume texture before Init")
	}
	if err := c.Draw(FrameState{}); err == nil {
		t.Error("Draw before Init should fail")
	}
	if err := c.SetColormap(common.TextureStagingData{}); err == nil {
		t.Error("SetColormap before Init should fail")
	}
	if err := c.variants[params.ModeVolume].Draw(nil); err == nil {
		t.Error("unbound variant drew")
	}
}
