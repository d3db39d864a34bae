package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/physarum/compute"
	"github.com/pthm-cable/physarum/systems"
)

// Apply reconciles the configuration surface: changed sizes reallocate and
// reseed their resource, Restart reseeds everything without reallocating.
func (s *Simulation) Apply(set Settings) error {
	if !s.enabled {
		return compute.ErrNoDevice
	}
	if err := s.provision(set); err != nil {
		s.disable(err)
		return err
	}
	return nil
}

// provision allocates whatever differs from the current state and seeds it.
func (s *Simulation) provision(set Settings) error {
	dim, snapped := systems.SnapTrailDimension(set.Dimension)
	if snapped {
		slog.Warn("trail dimension snapped", "requested", set.Dimension, "dimension", dim)
	}
	n, clamped := systems.ClampParticleCount(set.ParticleCount, s.groupSize)
	if clamped {
		slog.Warn("particle count clamped",
			"requested", set.ParticleCount,
			"particles", n,
			"max", s.groupSize*systems.MaxGroupsPerDimension,
		)
	}

	trailChanged := dim != s.dimension
	if trailChanged {
		if err := s.device.ProvisionTrail(dim); err != nil {
			return fmt.Errorf("provisioning trail: %w", err)
		}
		s.dimension = dim
		s.trailGX, s.trailGY = compute.Groups2D(dim)
		s.params.SetTrailDimension(dim)
		slog.Info("trail provisioned", "dimension", dim, "tiles_x", s.trailGX, "tiles_y", s.trailGY)
	}

	agentsChanged := n != s.agentCount
	if agentsChanged {
		if err := s.device.ProvisionAgents(n); err != nil {
			return fmt.Errorf("provisioning agents: %w", err)
		}
		s.agentCount = n
		s.agentGroups = compute.Groups1D(n, s.groupSize)
		slog.Info("agents provisioned", "particles", n, "thread_groups", s.agentGroups)
	}

	s.active = set.Active

	// The compact program only has a combined init kernel.
	if set.Restart || (s.compact && (trailChanged || agentsChanged)) {
		return s.reseed()
	}

	s.fillParams()
	s.device.SetParams(&s.params)
	if trailChanged {
		if err := s.device.Dispatch(compute.InitTrail, s.trailGX, s.trailGY); err != nil {
			return err
		}
	}
	if agentsChanged {
		if err := s.device.Dispatch(compute.InitParticles, s.agentGroups, 1); err != nil {
			return err
		}
	}
	return nil
}

// Reset reseeds both resources in place: agents return to the seeded start
// distribution and the field to zero. The frame counter restarts.
func (s *Simulation) Reset() error {
	if !s.enabled {
		return compute.ErrNoDevice
	}
	if err := s.reseed(); err != nil {
		s.disable(err)
		return err
	}
	return nil
}

func (s *Simulation) reseed() error {
	s.frame = 0
	s.simTime = 0
	s.nextStats = s.cfg.Telemetry.StatsWindow
	if s.bookmarks != nil {
		s.bookmarks.Reset()
	}

	s.fillParams()
	s.device.SetParams(&s.params)

	if s.compact {
		return s.device.Dispatch(compute.Init, s.agentGroups, 1)
	}
	if err := s.device.Dispatch(compute.InitParticles, s.agentGroups, 1); err != nil {
		return err
	}
	return s.device.Dispatch(compute.InitTrail, s.trailGX, s.trailGY)
}

// Close releases both resources. Safe to call more than once.
func (s *Simulation) Close() {
	if s.device != nil {
		s.device.Release()
	}
	s.enabled = false
	s.agentCount = 0
	s.dimension = 0
}
