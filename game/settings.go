package game

import (
	"github.com/pthm-cable/physarum/config"
)

// Settings is the host-settable configuration surface. Size changes
// reallocate the matching resource; Restart is consumed by Apply.
type Settings struct {
	ParticleCount int
	Dimension     int
	Active        bool
	Restart       bool
}

// Runtime holds the per-frame tunables in user units (degrees for angles).
type Runtime struct {
	config.RuntimeConfig
	Pointer config.PointerConfig
	Seed    uint32
}

// RuntimeFromConfig copies the tunables out of cfg.
func RuntimeFromConfig(cfg *config.Config) Runtime {
	return Runtime{
		RuntimeConfig: cfg.Runtime,
		Pointer:       cfg.Pointer,
		Seed:          cfg.Simulation.Seed,
	}
}

// fillParams rebuilds the uniform block from the runtime tunables. Pointer
// fields and the dimension constants are left as they are.
func (s *Simulation) fillParams() {
	rt := &s.runtime
	p := &s.params

	p.SensorAngle = float32(rt.SensorAngleDegrees * config.DegToRad)
	p.RotationAngle = float32(rt.RotationAngleDegrees * config.DegToRad)
	p.SensorOffsetDistance = float32(rt.SensorOffsetDistance)
	p.StepSize = float32(rt.StepSize)
	p.Decay = float32(min(max(rt.Decay, 0), 1))
	p.Deposit = float32(rt.Deposit)
	p.StartRadius = float32(rt.StartRadius)
	p.Randomness = float32(rt.Randomness)
	p.BlurRadius = max(rt.BlurRadius, 0)

	p.PointerRadius = float32(rt.Pointer.Radius)
	p.PointerChemicalA = float32(rt.Pointer.ChemicalA)
	p.PointerParticleAttraction = float32(rt.Pointer.ParticleAttraction)

	p.Frame = s.frame
	p.Seed = rt.Seed
}

// pushParams rebuilds the block for this frame and uploads it.
func (s *Simulation) pushParams(dt, u, v float32, hit bool) {
	s.fillParams()
	s.params.DeltaTime = dt
	s.params.PointerU, s.params.PointerV = u, v
	s.params.PointerHit = hit
	s.device.SetParams(&s.params)
}
