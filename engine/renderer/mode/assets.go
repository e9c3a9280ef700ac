// Package mode owns the two raymarching pipeline variants, volume compositing and isosurface
// extraction, and the controller that switches between them.
package mode

import _ "embed"

// raymarchVertexSource is the vertex stage shared by both variants.
//
//go:embed assets/raymarch.vert.wgsl
var raymarchVertexSource string

//go:embed assets/volume.frag.wgsl
var volumeFragmentSource string

//go:embed assets/isosurface.frag.wgsl
var isosurfaceFragmentSource string

// Pipeline keys.
const (
	VolumePipelineKey     = "volume"
	IsosurfacePipelineKey = "isosurface"
)
