// Command drawdemo inspects the shader programs the drawcore front end
// generates: it builds a few geometry descriptors, prints their structural
// keys, and dumps the emitted WGSL.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/drawcore"
	"github.com/gogpu/drawcore/cache"
	"github.com/gogpu/drawcore/geomproc"
)

func main() {
	var (
		source  = flag.Bool("source", false, "print the emitted WGSL for each program")
		verbose = flag.Bool("v", false, "enable library logging")
	)
	flag.Parse()

	if *verbose {
		drawcore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	descriptors := []struct {
		name string
		desc drawcore.GeometryDescriptor
	}{
		{"solid quad", geomproc.NewSolidQuad(drawcore.Mat3Identity(), false)},
		{"solid quad (wide color)", geomproc.NewSolidQuad(drawcore.Mat3Identity(), true)},
		{"solid quad (rotated)", geomproc.NewSolidQuad(drawcore.Mat3Rotate(0.5), false)},
		{"ellipse fill", geomproc.NewEllipse(drawcore.Mat3Identity(), false)},
		{"ellipse stroke", geomproc.NewEllipse(drawcore.Mat3Identity(), true)},
	}

	programs := cache.NewProgramCache()
	caps := drawcore.ShaderCaps{}

	for _, d := range descriptors {
		key := drawcore.DescriptorKey(d.desc)
		entry, err := programs.GetOrCreate(nil, d.desc, caps)
		if err != nil {
			log.Fatalf("%s: %v", d.name, err)
		}
		fmt.Printf("%-26s key=%016x bits=%d stride=%d spirv=%d words\n",
			d.name, key.Hash(), key.Bits(), d.desc.VertexStride(), len(entry.SPIRV()))
		if *source {
			fmt.Println(entry.Source())
		}
	}

	hits, misses := programs.Stats()
	fmt.Printf("\n%d distinct programs (%d hits, %d misses)\n", programs.Size(), hits, misses)
}
