// Command volgen writes synthetic test volumes in the binary density format.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-volume/engine/volume"
)

func main() {
	shape := flag.String("shape", volume.ShapeBlobs, "volume shape: "+strings.Join(volume.Shapes(), ", "))
	output := flag.String("out", "assets/density.bin", "output file")
	nx := flag.Int("nx", 128, "voxels along x")
	ny := flag.Int("ny", 128, "voxels along y")
	nz := flag.Int("nz", 128, "voxels along z")
	peak := flag.Float64("peak", 1, "maximum density")
	seed := flag.Uint64("seed", 1, "random seed for blob placement")
	compress := flag.Bool("zstd", false, "zstd-compress the output")
	flag.Parse()

	g, err := volume.Synthesize(*shape, [3]int{*nx, *ny, *nz}, float32(*peak), *seed)
	if err != nil {
		log.Fatalf("Failed to generate volume: %v", err)
	}

	data := volume.Encode(g)
	if *compress {
		if data, err = volume.Compress(data); err != nil {
			log.Fatalf("Failed to compress volume: %v", err)
		}
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		log.Fatalf("Failed to write volume: %v", err)
	}

	info := g.Describe()
	fmt.Printf("%s: %s %dx%dx%d, max density %.4g, %d bytes, fingerprint %s\n",
		*output, *shape, info.Dims[0], info.Dims[1], info.Dims[2], info.MaxDensity, len(data), info.Fingerprint)
}
