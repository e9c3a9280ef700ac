package mode

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/shader"
)

// slot is a (group, binding) pair.
type slot struct {
	group, binding int
}

// bindingLayout is where each resource of a variant lives, read from the shader declarations.
type bindingLayout struct {
	camera   slot
	frame    slot
	density  slot
	colormap slot
	sampler  slot
	params   slot
}

// groupCount is the number of bind groups every variant uses.
const groupCount = 3

// resolveLayout reads the group and provider declarations of both stages. The frame uniform,
// density texture, colormap and sampler must share a group, and camera, volume and params
// must each own a distinct group below groupCount.
func resolveLayout(vs, fs shader.Shader, paramsType shader.AnnotationArg) (bindingLayout, error) {
	found := map[string]slot{}
	for _, s := range []shader.Shader{vs, fs} {
		for _, a := range s.Declarations() {
			if a.Group == nil || a.Binding == nil {
				continue
			}
			at := slot{group: *a.Group, binding: *a.Binding}
			switch a.Type {
			case shader.AnnotationTypeBindingGroup:
				switch a.StructType() {
				case shader.AnnotationArgCamera:
					found["camera"] = at
				case shader.AnnotationArgFrame:
					found["frame"] = at
				case paramsType:
					found["params"] = at
				}
			case shader.AnnotationTypeProvider:
				switch a.Role() {
				case shader.AnnotationArgDensityTexture:
					found["density"] = at
				case shader.AnnotationArgColormapTexture:
					found["colormap"] = at
				case shader.AnnotationArgColormapSampler:
					found["sampler"] = at
				}
			}
		}
	}

	for _, name := range []string{"camera", "frame", "density", "colormap", "sampler", "params"} {
		if _, ok := found[name]; !ok {
			return bindingLayout{}, fmt.Errorf("%s/%s: no %s declaration", vs.Key(), fs.Key(), name)
		}
	}
	l := bindingLayout{
		camera:   found["camera"],
		frame:    found["frame"],
		density:  found["density"],
		colormap: found["colormap"],
		sampler:  found["sampler"],
		params:   found["params"],
	}

	volumeGroup := l.frame.group
	for _, s := range []slot{l.density, l.colormap, l.sampler} {
		if s.group != volumeGroup {
			return bindingLayout{}, fmt.Errorf("%s: volume resources span groups %d and %d", fs.Key(), volumeGroup, s.group)
		}
	}
	groups := map[int]bool{l.camera.group: true, volumeGroup: true, l.params.group: true}
	if len(groups) != groupCount {
		return bindingLayout{}, fmt.Errorf("%s/%s: camera, volume and params must use distinct groups", vs.Key(), fs.Key())
	}
	for g := range groups {
		if g < 0 || g >= groupCount {
			return bindingLayout{}, fmt.Errorf("%s/%s: group %d out of range", vs.Key(), fs.Key(), g)
		}
	}
	return l, nil
}
