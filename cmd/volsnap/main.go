// Command volsnap renders a volume to a PNG on the CPU, without a window or GPU.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/Carmen-Shannon/oxy-volume/engine/camera"
	"github.com/Carmen-Shannon/oxy-volume/engine/colormap"
	"github.com/Carmen-Shannon/oxy-volume/engine/config"
	"github.com/Carmen-Shannon/oxy-volume/engine/loader"
	"github.com/Carmen-Shannon/oxy-volume/engine/params"
	"github.com/Carmen-Shannon/oxy-volume/engine/raymarch"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	configPath := flag.String("config", "volview.yaml", "YAML configuration file for parameter defaults")
	volumeRef := flag.String("volume", "", "volume path or http(s) URL, overrides the config")
	output := flag.String("out", "snapshot.png", "output PNG file")
	width := flag.Int("width", 640, "image width in pixels")
	height := flag.Int("height", 480, "image height in pixels")
	modeName := flag.String("mode", "", "render mode: volume or isosurface, overrides the config")
	cmapName := flag.String("colormap", "", "colormap name, overrides the config")
	dragX := flag.Float64("drag-x", 0, "horizontal arcball drag in pixels from the image centre")
	dragY := flag.Float64("drag-y", 0, "vertical arcball drag in pixels from the image centre")
	zoom := flag.Float64("zoom", 0, "zoom amount, positive moves closer")
	workers := flag.Int("workers", 0, "worker pool size, 0 uses GOMAXPROCS")
	nearest := flag.Bool("nearest", false, "use nearest voxel reconstruction")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	level := cfg.Level()
	if *verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	p := cfg.Parameters
	if *modeName != "" {
		if p.Mode, err = params.ParseMode(*modeName); err != nil {
			log.Fatalf("Invalid mode: %v", err)
		}
	}
	if *cmapName != "" {
		p.Colormap = *cmapName
	}
	ref := cfg.Render.Volume
	if *volumeRef != "" {
		ref = *volumeRef
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := loader.NewLoader().LoadRef(ctx, ref).Wait(ctx)
	if err != nil {
		log.Fatalf("Load cancelled: %v", err)
	}
	if res.Err != nil {
		log.Fatalf("Failed to load volume: %v", res.Err)
	}
	grid := res.Grid
	info := grid.Describe()

	cmap, err := colormap.NewLibrary(cfg.Render.ColormapDir).Get(p.Colormap)
	if err != nil {
		log.Fatalf("Failed to load colormap: %v", err)
	}

	cam := camera.NewCamera(camera.WithViewport(*width, *height))
	centre := mgl32.Vec2{float32(*width) / 2, float32(*height) / 2}
	if *dragX != 0 || *dragY != 0 {
		cam.Rotate(centre, centre.Add(mgl32.Vec2{float32(*dragX), float32(*dragY)}))
	}
	if *zoom != 0 {
		cam.Zoom(float32(*zoom))
	}

	frame := raymarch.Frame{
		Width:     *width,
		Height:    *height,
		ProjView:  cam.ProjView(),
		Eye:       cam.Eye(),
		Scale:     grid.Scale(),
		Params:    p,
		StepScale: p.StepScale,
		Linear:    !*nearest,
	}
	field := raymarch.NewDenseField(grid)
	grid.Release()

	start := time.Now()
	img, err := raymarch.NewRenderer(*workers).Render(ctx, field, cmap, frame)
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}
	elapsed := time.Since(start)

	file, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		log.Fatalf("Failed to encode PNG: %v", err)
	}
	if err := file.Close(); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	fmt.Printf("%s: %dx%dx%d volume, %s mode, %s colormap, %dx%d in %s -> %s\n",
		res.Source, info.Dims[0], info.Dims[1], info.Dims[2], p.Mode, p.Colormap,
		*width, *height, elapsed.Round(time.Millisecond), *output)
}
