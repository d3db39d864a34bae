package game

import (
	"github.com/pthm-cable/physarum/compute"
	"github.com/pthm-cable/physarum/telemetry"
)

// Update advances one host frame: poll the pointer, push the parameter
// block and, when active, run the agent kernel followed by the field kernel.
// An inactive frame runs no kernels.
func (s *Simulation) Update(dt float32) {
	if !s.enabled {
		return
	}

	s.perf.StartFrame()
	s.perf.StartPhase(telemetry.PhaseParams)
	u, v, hit := s.pollPointer()
	s.pushParams(dt, u, v, hit)

	if !s.active {
		s.perf.EndFrame()
		return
	}

	s.perf.StartPhase(telemetry.PhaseMoveParticles)
	if err := s.device.Dispatch(compute.MoveParticles, s.agentGroups, 1); err != nil {
		s.disable(err)
		return
	}

	s.perf.StartPhase(telemetry.PhaseStepTrail)
	if err := s.device.Dispatch(compute.StepTrail, s.trailGX, s.trailGY); err != nil {
		s.disable(err)
		return
	}

	s.frame++
	s.simTime += float64(dt)

	if s.telemetryDue() {
		s.perf.StartPhase(telemetry.PhaseReadback)
		s.flushTelemetry()
	}
	s.perf.EndFrame()
}

// Step runs n active frames of dt regardless of the active flag. Used by the
// headless tools.
func (s *Simulation) Step(n int, dt float32) {
	was := s.active
	s.active = true
	for i := 0; i < n && s.enabled; i++ {
		s.Update(dt)
	}
	s.active = was
}
