package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/app"
	"github.com/pthm-cable/physarum/compute"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/game"
	"github.com/pthm-cable/physarum/telemetry"
)

// headlessDT is the fixed frame time of headless runs.
const headlessDT = float32(1.0 / 60.0)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics (CPU backend)")
	logStats := flag.Bool("log-stats", false, "Output trail stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", -1, "Agent seed (-1 = use config, 0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N dispatched frames (0 = unlimited)")
	backend := flag.String("backend", "", "Compute backend: cpu or gpu (empty = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for bookmark snapshots and PNG exports (empty = output dir)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *backend != "" {
		cfg.Compute.Backend = *backend
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid backend", "error", err)
			os.Exit(1)
		}
	}
	switch {
	case *seed == 0:
		cfg.Simulation.Seed = uint32(time.Now().UnixNano())
	case *seed > 0:
		cfg.Simulation.Seed = uint32(*seed)
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	cfg.ComputeDerived()

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	if *snapshotDir == "" {
		*snapshotDir = *outputDir
	}

	if *headless {
		runHeadless(cfg, headlessOptions{
			output:      output,
			logStats:    *logStats,
			maxTicks:    *maxTicks,
			snapshotDir: *snapshotDir,
		})
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Physarum")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	a := app.New(cfg, app.Options{
		Title:       "Physarum",
		Output:      output,
		LogStats:    *logStats,
		SnapshotDir: *snapshotDir,
	})
	defer a.Unload()

	a.Run(*maxTicks)
}

type headlessOptions struct {
	output      *telemetry.OutputManager
	logStats    bool
	maxTicks    int
	snapshotDir string
}

// runHeadless steps the simulation on the CPU device until maxTicks frames
// or an interrupt.
func runHeadless(cfg *config.Config, opts headlessOptions) {
	if cfg.Compute.Backend != config.BackendCPU {
		slog.Warn("headless mode runs on the cpu backend", "requested", cfg.Compute.Backend)
		cfg.Compute.Backend = config.BackendCPU
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dev := compute.NewCPUDevice(cfg.Derived.GroupSize, cfg.Compute.Workers)
	sim, err := game.New(dev, cfg, game.Options{
		Perf:        telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		Output:      opts.output,
		Bookmarks:   game.BookmarksFromConfig(cfg),
		SnapshotDir: opts.snapshotDir,
		LogStats:    opts.logStats,
	})
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		return
	}
	defer sim.Close()

	slog.Info("starting headless simulation",
		"seed", cfg.Simulation.Seed,
		"particles", sim.AgentCount(),
		"dimension", sim.Dimension(),
		"stats_window", cfg.Telemetry.StatsWindow,
		"max_ticks", opts.maxTicks,
	)

	// Headless runs always dispatch.
	sim.SetActive(true)
	for ctx.Err() == nil && sim.Enabled() {
		sim.Update(headlessDT)

		if opts.maxTicks > 0 && int(sim.Frame()) >= opts.maxTicks {
			slog.Info("max ticks reached", "frame", sim.Frame())
			return
		}
	}
	slog.Info("headless simulation stopped", "frame", sim.Frame(), "sim_time", sim.SimTime())
}
