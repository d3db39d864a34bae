// Package app is the raylib host: it owns the window loop, turns mouse and
// keyboard input into simulation settings and draws the field with the UI.
package app

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/camera"
	"github.com/pthm-cable/physarum/compute"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/game"
	"github.com/pthm-cable/physarum/renderer"
	"github.com/pthm-cable/physarum/telemetry"
	"github.com/pthm-cable/physarum/ui"
)

// Options configures the host.
type Options struct {
	Title    string
	Output   *telemetry.OutputManager
	LogStats bool
	// Directory for PNG and bookmark snapshots (empty = working directory)
	SnapshotDir string
}

// App holds the host state. Create it after rl.InitWindow.
type App struct {
	cfg     *config.Config
	sim     *game.Simulation
	device  compute.Device
	gpu     *renderer.GPUDevice
	title   string
	snapDir string

	camera    *camera.Camera
	view      *renderer.TrailView
	controls  *ui.ControlPanel
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	overlays  *ui.OverlayRegistry
	perf      *telemetry.PerfCollector

	lastStats  telemetry.TrailStats
	readback   []float32
	snapshots  int
	checkpoint *telemetry.Snapshot

	screenWidth, screenHeight float32
}

// New builds the device for cfg.Compute.Backend and the simulation on it.
// A device that cannot be created leaves the simulation disabled; the window
// keeps running and the HUD reports it.
func New(cfg *config.Config, opts Options) *App {
	a := &App{
		cfg:          cfg,
		title:        opts.Title,
		snapDir:      opts.SnapshotDir,
		view:         renderer.NewTrailView(),
		hud:          ui.NewHUD(),
		overlays:     ui.NewOverlayRegistry(),
		perf:         telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		screenWidth:  float32(rl.GetScreenWidth()),
		screenHeight: float32(rl.GetScreenHeight()),
	}
	if a.title == "" {
		a.title = "Physarum"
	}

	panelW := int32(cfg.Screen.PanelW)
	a.controls = ui.NewControlPanel(0, 0, panelW)
	a.camera = camera.New(float32(panelW), 0, a.screenWidth-float32(panelW), a.screenHeight)
	a.perfPanel = ui.NewPerfPanel(panelW+10, 100)

	a.device = a.openDevice()
	if a.gpu != nil {
		if err := a.view.AttachDevice(a.gpu); err != nil {
			slog.Warn("drawing the field through readback", "error", err)
		}
	}

	sim, err := game.New(a.device, cfg, game.Options{
		Pointer:       game.PointerFunc(a.pollMouse),
		Perf:          a.perf,
		Output:        opts.Output,
		Bookmarks:     game.BookmarksFromConfig(cfg),
		SnapshotDir:   opts.SnapshotDir,
		LogStats:      opts.LogStats,
		StatsCallback: func(s telemetry.TrailStats) { a.lastStats = s },
	})
	if err != nil {
		slog.Error("simulation unavailable", "error", err)
	}
	a.sim = sim
	return a
}

// openDevice returns nil when the configured backend cannot be created.
func (a *App) openDevice() compute.Device {
	groupSize := a.cfg.Derived.GroupSize
	if a.cfg.Compute.Backend == config.BackendGPU {
		gpu, err := renderer.NewGPUDevice(groupSize)
		if err != nil {
			slog.Error("failed to create gpu device", "error", err)
			return nil
		}
		a.gpu = gpu
		return gpu
	}
	return compute.NewCPUDevice(groupSize, a.cfg.Compute.Workers)
}

// Simulation returns the hosted simulation.
func (a *App) Simulation() *game.Simulation { return a.sim }

// Run drives the window loop until it closes or maxTicks dispatched frames
// have run (0 = unlimited).
func (a *App) Run(maxTicks int) {
	for !rl.WindowShouldClose() {
		a.Update()
		a.Draw()

		if maxTicks > 0 && int(a.sim.Frame()) >= maxTicks {
			slog.Info("max ticks reached", "frame", a.sim.Frame())
			return
		}
	}
}

// Update processes input and advances the simulation by one host frame.
func (a *App) Update() {
	a.handleInput()
	a.sim.Update(rl.GetFrameTime())
	a.perf.RecordPresent()
}

// Unload releases the simulation, the device and GPU resources.
func (a *App) Unload() {
	a.sim.Close()
	if a.gpu != nil {
		a.gpu.Unload()
	}
	a.view.Unload()
}
