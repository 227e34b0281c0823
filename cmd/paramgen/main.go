package main

import (
	"flag"
	"fmt"
	"os"

	"risksim/cmd/paramgen/generator"
)

func main() {
	template := flag.String("template", "all", "Template to derive from, or 'all'")
	scenario := flag.String("scenario", "baseline", "Scenario to generate: baseline, stress, calm")
	scale := flag.Float64("scale", 1, "Multiplier applied to every cost parameter")
	iterations := flag.Int("iterations", 0, "Override the template iteration count")
	horizon := flag.Float64("horizon", 0, "Override the time horizon in years")
	outDir := flag.String("out", "./params", "Output directory for parameter files")
	flag.Parse()

	cfg := generator.GeneratorConfig{
		Template:   *template,
		Scenario:   *scenario,
		CostScale:  *scale,
		Iterations: *iterations,
		Horizon:    *horizon,
	}

	fmt.Printf("Generating scenario '%s' for template '%s' (cost scale %.2f) to %s...\n", cfg.Scenario, cfg.Template, cfg.CostScale, *outDir)

	sets, err := generator.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate parameters: %v\n", err)
		os.Exit(1)
	}

	paths, err := generator.Save(*outDir, sets)
	if err != nil {
		fmt.Printf("Failed to save parameters: %v\n", err)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}

	fmt.Println("Done.")
}
