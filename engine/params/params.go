// Package params holds the tunable render parameters, the store that owns the canonical
// instance, and the GPU uniform layouts the parameters are uploaded through.
package params

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Mode selects which raymarching pipeline draws the volume.
type Mode int

const (
	// ModeVolume renders emission-absorption compositing of the whole field.
	ModeVolume Mode = iota

	// ModeIsosurface renders the first upward crossing of IsoValue with headlight shading.
	ModeIsosurface
)

// String returns the lowercase mode name used in configuration files and the control API.
func (m Mode) String() string {
	switch m {
	case ModeVolume:
		return "volume"
	case ModeIsosurface:
		return "isosurface"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode resolves a mode name. "iso" is accepted as shorthand for isosurface.
//
// Parameters:
//   - s: the mode name, case-insensitive
//
// Returns:
//   - Mode: the parsed mode
//   - error: error if the name is unknown
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "volume", "vol":
		return ModeVolume, nil
	case "isosurface", "iso":
		return ModeIsosurface, nil
	default:
		return ModeVolume, fmt.Errorf("unknown render mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler so modes read naturally in YAML and JSON.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Parameter names accepted by Store.Set and the control API.
const (
	NameStepScale       = "step_scale"
	NameRhoMax          = "rho_max"
	NameLogAlpha        = "log_alpha"
	NameAlphaLo         = "alpha_lo"
	NameAlphaHi         = "alpha_hi"
	NameOpacityStrength = "opacity_strength"
	NameIsoValue        = "iso_value"
)

// ErrUnknownParameter is returned when a parameter name is not recognised. Out-of-range
// values are never an error; they are clamped.
var ErrUnknownParameter = errors.New("unknown render parameter")

// Parameters is one immutable snapshot of the render state.
type Parameters struct {
	Mode            Mode    `json:"mode" yaml:"mode"`
	StepScale       float32 `json:"step_scale" yaml:"step_scale"`
	RhoMax          float32 `json:"rho_max" yaml:"rho_max"`
	LogAlpha        float32 `json:"log_alpha" yaml:"log_alpha"`
	AlphaLo         float32 `json:"alpha_lo" yaml:"alpha_lo"`
	AlphaHi         float32 `json:"alpha_hi" yaml:"alpha_hi"`
	OpacityStrength float32 `json:"opacity_strength" yaml:"opacity_strength"`
	IsoValue        float32 `json:"iso_value" yaml:"iso_value"`
	Colormap        string  `json:"colormap" yaml:"colormap"`
}

// Defaults returns the startup parameters.
func Defaults() Parameters {
	return Parameters{
		Mode:            ModeVolume,
		StepScale:       1.0,
		RhoMax:          0.02,
		LogAlpha:        10,
		AlphaLo:         0.05,
		AlphaHi:         0.35,
		OpacityStrength: 1.0,
		IsoValue:        0.001,
		Colormap:        "Cool Warm",
	}
}

// valueRange is the closed interval a parameter is clamped to.
type valueRange struct {
	lo, hi float32
}

// ranges lists the clamp interval of every numeric parameter.
var ranges = map[string]valueRange{
	NameStepScale:       {0.1, 4},
	NameRhoMax:          {1e-6, 1e6},
	NameLogAlpha:        {0, 1e4},
	NameAlphaLo:         {0, 1},
	NameAlphaHi:         {0, 1},
	NameOpacityStrength: {0, 10},
	NameIsoValue:        {0, 1e6},
}

// Names returns the numeric parameter names in sorted order.
func Names() []string {
	out := make([]string, 0, len(ranges))
	for name := range ranges {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// field returns a pointer to the named numeric field, or nil for an unknown name.
func (p *Parameters) field(name string) *float32 {
	switch name {
	case NameStepScale:
		return &p.StepScale
	case NameRhoMax:
		return &p.RhoMax
	case NameLogAlpha:
		return &p.LogAlpha
	case NameAlphaLo:
		return &p.AlphaLo
	case NameAlphaHi:
		return &p.AlphaHi
	case NameOpacityStrength:
		return &p.OpacityStrength
	case NameIsoValue:
		return &p.IsoValue
	default:
		return nil
	}
}

// Get returns the value of a numeric parameter.
//
// Parameters:
//   - name: one of the Name* constants
//
// Returns:
//   - float32: the current value
//   - error: ErrUnknownParameter for an unknown name
func (p Parameters) Get(name string) (float32, error) {
	f := p.field(name)
	if f == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return *f, nil
}

// Set assigns a numeric parameter without clamping.
//
// Parameters:
//   - name: one of the Name* constants
//   - value: the value to assign
//
// Returns:
//   - error: ErrUnknownParameter for an unknown name
func (p *Parameters) Set(name string, value float32) error {
	f := p.field(name)
	if f == nil {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	*f = value
	return nil
}

// AlphaWindow returns the opacity window in ascending order. AlphaLo and AlphaHi are stored as
// set, so an inverted pair is ordered here, where it is consumed.
func (p Parameters) AlphaWindow() (lo, hi float32) {
	lo, hi = p.AlphaLo, p.AlphaHi
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi
}

// Sanitized returns a copy with every value clamped to its range and non-finite values
// replaced by their defaults. An inverted alpha window is kept as is.
func (p Parameters) Sanitized() Parameters {
	def := Defaults()
	for name, r := range ranges {
		v := p.field(name)
		if isNaNOrInf(*v) {
			*v = *def.field(name)
		}
		*v = min(max(*v, r.lo), r.hi)
	}
	if p.Mode != ModeVolume && p.Mode != ModeIsosurface {
		p.Mode = ModeVolume
	}
	return p
}

// Map returns the numeric parameters keyed by name.
func (p Parameters) Map() map[string]float32 {
	out := make(map[string]float32, len(ranges))
	for name := range ranges {
		out[name] = *p.field(name)
	}
	return out
}

func isNaNOrInf(v float32) bool {
	f := float64(v)
	return math.IsNaN(f) || math.IsInf(f, 0)
}
