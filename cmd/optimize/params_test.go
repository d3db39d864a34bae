package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/physarum/config"
)

func TestNormalizeRoundtrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()

	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-9 {
			t.Errorf("%s: %f -> %f", pv.Specs[i].Name, def[i], back[i])
		}
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Defaults()

	pv.ApplyToConfig(cfg, []float64{1000, -5, 0.02})

	if cfg.Runtime.SensorAngleDegrees != 120 {
		t.Errorf("expected sensor angle clamped to 120, got %f", cfg.Runtime.SensorAngleDegrees)
	}
	if cfg.Runtime.RotationAngleDegrees != 5 {
		t.Errorf("expected rotation angle clamped to 5, got %f", cfg.Runtime.RotationAngleDegrees)
	}
	if cfg.Runtime.SensorOffsetDistance != 0.02 {
		t.Errorf("expected offset 0.02, got %f", cfg.Runtime.SensorOffsetDistance)
	}
	if math.Abs(float64(cfg.Derived.SensorAngle)-120*config.DegToRad) > 1e-5 {
		t.Errorf("expected derived angle refreshed, got %f", cfg.Derived.SensorAngle)
	}
}

func TestEvaluateScoresStructure(t *testing.T) {
	cfg := config.Defaults()
	cfg.Simulation.Particles = 2000
	cfg.Simulation.TrailDimension = 32
	cfg.ComputeDerived()

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 20, []uint32{1, 2}, 1, cfg)

	fitness := fe.Evaluate(pv.DefaultVector())
	if fitness >= 0 {
		t.Errorf("expected negative fitness for a populated field, got %f", fitness)
	}
	if got := fe.LastStats().CV; math.Abs(-got-fitness) > 1e-9 {
		t.Errorf("expected fitness = -cv, got %f vs cv %f", fitness, got)
	}
}
