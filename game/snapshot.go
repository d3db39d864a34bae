package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/physarum/compute"
	"github.com/pthm-cable/physarum/systems"
	"github.com/pthm-cable/physarum/telemetry"
)

// Snapshot reads both resources back and captures the loop state.
func (s *Simulation) Snapshot() (*telemetry.Snapshot, error) {
	if !s.enabled {
		return nil, compute.ErrNoDevice
	}
	agents, err := s.device.ReadAgents(nil)
	if err != nil {
		return nil, fmt.Errorf("reading agents: %w", err)
	}
	cells, err := s.device.ReadTrail(nil)
	if err != nil {
		return nil, fmt.Errorf("reading trail: %w", err)
	}
	return &telemetry.Snapshot{
		Version:   telemetry.SnapshotVersion,
		Seed:      s.runtime.Seed,
		Variant:   s.cfg.Simulation.Variant,
		Frame:     s.frame,
		SimTime:   s.simTime,
		Runtime:   s.runtime.RuntimeConfig,
		Pointer:   s.runtime.Pointer,
		Dimension: s.dimension,
		Agents:    agents,
		Cells:     cells,
	}, nil
}

// Restore resizes both resources to the snapshot and overwrites them with
// its contents. The runtime tunables, seed and loop state are taken from the
// snapshot; the active flag is kept.
func (s *Simulation) Restore(snap *telemetry.Snapshot) error {
	if !s.enabled {
		return compute.ErrNoDevice
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	if _, snapped := systems.SnapTrailDimension(snap.Dimension); snapped {
		return fmt.Errorf("%w: snapshot dimension %d", compute.ErrInvalidSize, snap.Dimension)
	}
	if _, clamped := systems.ClampParticleCount(len(snap.Agents), s.groupSize); clamped {
		return fmt.Errorf("%w: snapshot holds %d agents", compute.ErrDispatchLimit, len(snap.Agents))
	}
	if snap.Variant != s.cfg.Simulation.Variant {
		slog.Warn("snapshot variant differs", "snapshot", snap.Variant, "running", s.cfg.Simulation.Variant)
	}

	s.runtime.RuntimeConfig = snap.Runtime
	s.runtime.Pointer = snap.Pointer
	s.runtime.Seed = snap.Seed

	err := s.provision(Settings{
		ParticleCount: len(snap.Agents),
		Dimension:     snap.Dimension,
		Active:        s.active,
	})
	if err == nil {
		err = s.device.WriteAgents(snap.Agents)
	}
	if err == nil {
		err = s.device.WriteTrail(snap.Cells)
	}
	if err != nil {
		s.disable(err)
		return err
	}

	s.frame = snap.Frame
	s.simTime = snap.SimTime
	s.nextStats = s.simTime + s.cfg.Telemetry.StatsWindow
	if s.bookmarks != nil {
		s.bookmarks.Reset()
	}

	slog.Info("snapshot restored",
		"frame", s.frame,
		"particles", s.agentCount,
		"dimension", s.dimension,
	)
	return nil
}
