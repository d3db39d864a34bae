// Package game drives the simulation: it owns the parameter block, provisions
// device resources and sequences the kernels once per host frame.
package game

import (
	"log/slog"

	"github.com/pthm-cable/physarum/compute"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/systems"
	"github.com/pthm-cable/physarum/telemetry"
)

// Options holds optional collaborators for a Simulation.
type Options struct {
	Pointer       PointerSource               // nil = NoPointer
	Perf          *telemetry.PerfCollector    // nil disables phase timing
	Output        *telemetry.OutputManager    // nil disables CSV output
	Bookmarks     *telemetry.BookmarkDetector // nil disables bookmark detection
	SnapshotDir   string                      // where bookmarks save snapshots; empty = log only
	LogStats      bool                        // log trail stats every window
	StatsCallback func(telemetry.TrailStats)
}

// Simulation holds the orchestration state. It is single-threaded: only the
// host loop calls into it.
type Simulation struct {
	device  compute.Device
	cfg     *config.Config
	pointer PointerSource
	enabled bool

	params  systems.Params
	runtime Runtime

	// Allocation state
	groupSize        int
	compact          bool // variant 2: one Init kernel seeds both resources
	agentCount       int
	dimension        int
	agentGroups      int
	trailGX, trailGY int

	// Loop state
	active  bool
	frame   uint32
	simTime float64

	// Telemetry
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	bookmarks     *telemetry.BookmarkDetector
	snapshotDir   string
	logStats      bool
	statsCallback func(telemetry.TrailStats)
	nextStats     float64
	readback      []float32
}

// New provisions both resources on device and seeds them. A nil device is a
// configuration error: a disabled Simulation is returned with ErrNoDevice so
// the host can keep running without it.
func New(device compute.Device, cfg *config.Config, opts Options) (*Simulation, error) {
	s := &Simulation{
		device:        device,
		cfg:           cfg,
		pointer:       opts.Pointer,
		runtime:       RuntimeFromConfig(cfg),
		active:        cfg.Simulation.Active,
		compact:       cfg.Simulation.Variant == 2,
		perf:          opts.Perf,
		output:        opts.Output,
		bookmarks:     opts.Bookmarks,
		snapshotDir:   opts.SnapshotDir,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
		nextStats:     cfg.Telemetry.StatsWindow,
	}
	if s.pointer == nil {
		s.pointer = NoPointer{}
	}

	if device == nil {
		slog.Error("simulation disabled", "error", compute.ErrNoDevice)
		return s, compute.ErrNoDevice
	}
	s.groupSize = device.GroupSize()

	set := Settings{
		ParticleCount: cfg.Simulation.Particles,
		Dimension:     cfg.Simulation.TrailDimension,
		Active:        s.active,
	}
	if err := s.provision(set); err != nil {
		s.disable(err)
		return s, err
	}
	s.enabled = true

	slog.Info("simulation ready",
		"device", device.Name(),
		"particles", s.agentCount,
		"dimension", s.dimension,
		"group_size", s.groupSize,
		"variant", cfg.Simulation.Variant,
	)
	return s, nil
}

// disable turns the simulation off after a fatal error.
func (s *Simulation) disable(err error) {
	slog.Error("simulation disabled", "error", err)
	s.enabled = false
}

// Enabled reports whether the simulation is running (false after a fatal error).
func (s *Simulation) Enabled() bool { return s.enabled }

// Active reports whether frames dispatch kernels.
func (s *Simulation) Active() bool { return s.active }

// SetActive gates per-frame dispatch.
func (s *Simulation) SetActive(active bool) { s.active = active }

// AgentCount returns the effective (clamped) agent count.
func (s *Simulation) AgentCount() int { return s.agentCount }

// Dimension returns the effective (snapped) field dimension.
func (s *Simulation) Dimension() int { return s.dimension }

// Frame returns the number of dispatched frames since the last seed.
func (s *Simulation) Frame() uint32 { return s.frame }

// SimTime returns the summed deltaTime of dispatched frames.
func (s *Simulation) SimTime() float64 { return s.simTime }

// Runtime returns the live tunables. Edits apply on the next Update.
func (s *Simulation) Runtime() *Runtime { return &s.runtime }

// Params returns the block pushed on the last Update.
func (s *Simulation) Params() systems.Params { return s.params }

// Settings returns the current configuration surface with effective sizes.
func (s *Simulation) Settings() Settings {
	return Settings{
		ParticleCount: s.agentCount,
		Dimension:     s.dimension,
		Active:        s.active,
	}
}

// Device returns the compute device, nil when none was supplied.
func (s *Simulation) Device() compute.Device { return s.device }

// ReadTrail copies the field into dst for display or export.
func (s *Simulation) ReadTrail(dst []float32) ([]float32, error) {
	if !s.enabled {
		return dst, compute.ErrNoDevice
	}
	return s.device.ReadTrail(dst)
}

// ReadAgents copies the agent buffer into dst.
func (s *Simulation) ReadAgents(dst []systems.Agent) ([]systems.Agent, error) {
	if !s.enabled {
		return dst, compute.ErrNoDevice
	}
	return s.device.ReadAgents(dst)
}
