package colormap

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-volume/common"
)

// Entry names a colormap and the PNG file it is loaded from.
type Entry struct {
	Name string `json:"name"`
	File string `json:"file"`

	// stops is the built-in ramp used when the file is unavailable.
	stops []color.RGBA
}

// DefaultName is the colormap selected at startup.
const DefaultName = "Cool Warm"

// Catalog lists the available colormaps in display order.
var Catalog = []Entry{
	{Name: "Cool Warm", File: "cool-warm-paraview.png", stops: []color.RGBA{
		{59, 76, 192, 255}, {221, 221, 221, 255}, {180, 4, 38, 255},
	}},
	{Name: "Matplotlib Plasma", File: "matplotlib-plasma.png", stops: []color.RGBA{
		{13, 8, 135, 255}, {126, 3, 168, 255}, {204, 71, 120, 255}, {248, 149, 64, 255}, {240, 249, 33, 255},
	}},
	{Name: "Matplotlib Virdis", File: "matplotlib-virdis.png", stops: []color.RGBA{
		{68, 1, 84, 255}, {59, 82, 139, 255}, {33, 145, 140, 255}, {94, 201, 98, 255}, {253, 231, 37, 255},
	}},
	{Name: "Rainbow", File: "rainbow.png", stops: []color.RGBA{
		{0, 0, 255, 255}, {0, 255, 255, 255}, {0, 255, 0, 255}, {255, 255, 0, 255}, {255, 0, 0, 255},
	}},
	{Name: "Samsel Linear Green", File: "samsel-linear-green.png", stops: []color.RGBA{
		{13, 20, 8, 255}, {44, 112, 41, 255}, {146, 204, 112, 255}, {235, 248, 224, 255},
	}},
	{Name: "Samsel Linear YGB 1211G", File: "samsel-linear-ygb-1211g.png", stops: []color.RGBA{
		{255, 255, 204, 255}, {161, 218, 180, 255}, {65, 182, 196, 255}, {34, 94, 168, 255}, {12, 32, 96, 255},
	}},
}

// Names returns the catalog names in display order.
func Names() []string {
	out := make([]string, len(Catalog))
	for i, e := range Catalog {
		out[i] = e.Name
	}
	return out
}

// Lookup finds a catalog entry by name.
func Lookup(name string) (Entry, bool) {
	i := slices.IndexFunc(Catalog, func(e Entry) bool { return e.Name == name })
	if i < 0 {
		return Entry{}, false
	}
	return Catalog[i], true
}

// Next returns the catalog name following name, wrapping around.
func Next(name string) string {
	i := slices.IndexFunc(Catalog, func(e Entry) bool { return e.Name == name })
	return Catalog[(i+1)%len(Catalog)].Name
}

// Library loads catalog colormaps from a directory and caches them.
type Library struct {
	mu    sync.Mutex
	dir   string
	cache map[string]*Colormap
}

// NewLibrary creates a Library reading PNG files from dir. An empty dir uses only the
// built-in ramps.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir, cache: make(map[string]*Colormap)}
}

// Get returns the named colormap, loading its file on first use. A missing or unreadable
// file falls back to the entry's built-in ramp.
//
// Parameters:
//   - name: a catalog name
//
// Returns:
//   - *Colormap: the colormap
//   - error: ErrUnknownColormap if the name is not in the catalog
func (l *Library) Get(name string) (*Colormap, error) {
	entry, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColormap, name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.cache[name]; ok {
		return c, nil
	}

	c, err := l.load(entry)
	if err != nil {
		common.Logger().Warn("colormap file unavailable, using built-in ramp", "name", name, "error", err)
		c = Ramp(entry.Name, entry.stops)
	}
	l.cache[name] = c
	return c, nil
}

func (l *Library) load(e Entry) (*Colormap, error) {
	if l.dir == "" {
		return nil, fmt.Errorf("no colormap directory configured")
	}
	f, err := os.Open(filepath.Join(l.dir, e.File))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(e.Name, f)
}

// Ramp builds a colormap by interpolating evenly spaced sRGB stops.
//
// Parameters:
//   - name: the colormap name
//   - stops: at least one colour stop
//
// Returns:
//   - *Colormap: the generated colormap
func Ramp(name string, stops []color.RGBA) *Colormap {
	img := image.NewRGBA(image.Rect(0, 0, Width, 1))
	for x := range Width {
		img.SetRGBA(x, 0, rampColor(stops, float32(x)/float32(Width-1)))
	}
	return fromPixels(name, img.Pix)
}

func rampColor(stops []color.RGBA, u float32) color.RGBA {
	if len(stops) == 1 {
		return stops[0]
	}
	pos := u * float32(len(stops)-1)
	i := min(int(pos), len(stops)-2)
	f := pos - float32(i)
	a, b := stops[i], stops[i+1]
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x)*(1-f) + float32(y)*f + 0.5)
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}
