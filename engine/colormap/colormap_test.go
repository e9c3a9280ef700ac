package colormap

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
)

func TestFromImageResamplesToWidth(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 512, 4))
	for x := 0; x < 512; x++ {
		for y := 0; y < 4; y++ {
			src.SetRGBA(x, y, color.RGBA{uint8(x / 2), 0, 255 - uint8(x/2), 255})
		}
	}
	c := FromImage("test", src)
	if len(c.Pixels) != Width*4 {
		t.Fatalf("got %d bytes, want %d", len(c.Pixels), Width*4)
	}
	if c.Pixels[0] > 10 || c.Pixels[(Width-1)*4] < 245 {
		t.Fatalf("resampled ramp endpoints are wrong: %d .. %d", c.Pixels[0], c.Pixels[(Width-1)*4])
	}
}

func TestLookupClampsAndInterpolates(t *testing.T) {
	c := Ramp("gray", []color.RGBA{{0, 0, 0, 255}, {255, 255, 255, 255}})

	if got := c.Lookup(-1); got != c.Lookup(0) {
		t.Fatalf("Lookup(-1) = %v, want the first texel %v", got, c.Lookup(0))
	}
	if got := c.Lookup(2); got[0] != 1 {
		t.Fatalf("Lookup(2) = %v, want white", got)
	}
	prev := float32(-1)
	for i := 0; i <= 100; i++ {
		v := c.Lookup(float32(i) / 100)[0]
		if v < prev {
			t.Fatalf("lookup not monotonic at %d", i)
		}
		prev = v
	}
}

func TestLookupDecodesSRGB(t *testing.T) {
	c := Ramp("mid", []color.RGBA{{188, 188, 188, 255}})
	// sRGB 188 is about 0.5 in linear light.
	if got := c.Lookup(0.5)[0]; math32.Abs(got-0.5) > 0.01 {
		t.Fatalf("linear value = %v, want about 0.5", got)
	}
}

func TestLibraryFallsBackToRamp(t *testing.T) {
	lib := NewLibrary(t.TempDir())
	c, err := lib.Get(DefaultName)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Name != DefaultName || len(c.Pixels) != Width*4 {
		t.Fatalf("unexpected colormap %q with %d bytes", c.Name, len(c.Pixels))
	}
	if _, err := lib.Get("Jet"); !errors.Is(err, ErrUnknownColormap) {
		t.Fatalf("err = %v, want ErrUnknownColormap", err)
	}
}

func TestLibraryLoadsFile(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 256, 1))
	for x := 0; x < 256; x++ {
		img.SetRGBA(x, 0, color.RGBA{0, uint8(x), 0, 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "rainbow.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := NewLibrary(dir).Get("Rainbow")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// The file is a pure green ramp, unlike the built-in rainbow.
	if c.Pixels[0] != 0 || c.Pixels[2] != 0 {
		t.Fatalf("first texel = %v, expected the file's green ramp", c.Pixels[:4])
	}
}

func TestNextWraps(t *testing.T) {
	last := Catalog[len(Catalog)-1].Name
	if Next(last) != Catalog[0].Name {
		t.Fatalf("Next(%q) = %q, want wrap to %q", last, Next(last), Catalog[0].Name)
	}
	if Next(DefaultName) != Catalog[1].Name {
		t.Fatal("Next does not advance")
	}
}
