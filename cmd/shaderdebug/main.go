// Kernel debug tool - runs the simulation kernels for a number of frames and
// writes the trail field to a PNG for inspection. With -backend gpu the
// compute shaders are compiled in a hidden window, so compile errors show up
// here first.
//
// Usage: go run -tags opengl43 ./cmd/shaderdebug -backend gpu -frames 600 -out trail.png
package main

import (
	"flag"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/compute"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/game"
	"github.com/pthm-cable/physarum/renderer"
	"github.com/pthm-cable/physarum/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	backend := flag.String("backend", "", "Compute backend: cpu or gpu (empty = use config)")
	outPath := flag.String("out", "trail.png", "Output PNG path")
	frames := flag.Int("frames", 600, "Frames to run before export")
	particles := flag.Int("particles", 0, "Agent count (0 = use config)")
	dim := flag.Int("dim", 0, "Trail dimension (0 = use config)")
	gain := flag.Float64("gain", 1, "Display gain for the colour ramp")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Compute.Backend = *backend
	}
	if *particles > 0 {
		cfg.Simulation.Particles = *particles
	}
	if *dim > 0 {
		cfg.Simulation.TrailDimension = *dim
	}
	cfg.Telemetry.StatsWindow = 0
	cfg.ComputeDerived()

	// Initialize raylib with hidden window; the GPU backend needs its context
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(256, 256, "Kernel Debug")
	defer rl.CloseWindow()

	var dev compute.Device
	switch cfg.Compute.Backend {
	case config.BackendGPU:
		gpu, err := renderer.NewGPUDevice(cfg.Derived.GroupSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build compute shaders: %v\n", err)
			os.Exit(1)
		}
		defer gpu.Unload()
		dev = gpu
	default:
		dev = compute.NewCPUDevice(cfg.Derived.GroupSize, cfg.Compute.Workers)
	}

	sim, err := game.New(dev, cfg, game.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start simulation: %v\n", err)
		os.Exit(1)
	}
	defer sim.Close()

	sim.Step(*frames, 1.0/60.0)
	if !sim.Enabled() {
		fmt.Fprintf(os.Stderr, "Simulation disabled after %d frames\n", sim.Frame())
		os.Exit(1)
	}

	cells, err := sim.ReadTrail(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read trail: %v\n", err)
		os.Exit(1)
	}

	stats := telemetry.ComputeTrailStats(cells, sim.Dimension(), cfg.Telemetry.CoverageThreshold)
	fmt.Printf("%s: %d frames, %d agents, %dx%d field: total=%.1f cv=%.3f max=%.3f coverage=%.2f\n",
		dev.Name(), sim.Frame(), sim.AgentCount(), sim.Dimension(), sim.Dimension(),
		stats.Total, stats.CV, stats.Max, stats.Coverage)

	if err := renderer.ExportPNG(*outPath, cells, sim.Dimension(), float32(*gain)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to export image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Trail rendered to: %s (%dx%d)\n", *outPath, sim.Dimension(), sim.Dimension())
}
