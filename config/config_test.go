package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if cfg.Simulation.Particles != 524280 {
		t.Errorf("expected 524280 particles, got %d", cfg.Simulation.Particles)
	}
	if cfg.Simulation.TrailDimension != 1024 {
		t.Errorf("expected trail dimension 1024, got %d", cfg.Simulation.TrailDimension)
	}
	if cfg.Compute.Backend != BackendCPU {
		t.Errorf("expected cpu backend by default, got %q", cfg.Compute.Backend)
	}
	if cfg.Derived.GroupSize != ParticleGroupSize {
		t.Errorf("expected group size %d, got %d", ParticleGroupSize, cfg.Derived.GroupSize)
	}
	if cfg.Telemetry.BookmarkHistory != 10 {
		t.Errorf("expected bookmark history 10, got %d", cfg.Telemetry.BookmarkHistory)
	}
}

func TestDerivedRadians(t *testing.T) {
	cfg := Defaults()
	want := 45 * 0.0174533
	if math.Abs(float64(cfg.Derived.SensorAngle)-want) > 1e-6 {
		t.Errorf("sensor angle: expected %f rad, got %f", want, cfg.Derived.SensorAngle)
	}
	if math.Abs(float64(cfg.Derived.RotationAngle)-want) > 1e-6 {
		t.Errorf("rotation angle: expected %f rad, got %f", want, cfg.Derived.RotationAngle)
	}
}

func TestDerivedClampsAndSnaps(t *testing.T) {
	cfg := Defaults()
	cfg.Simulation.Particles = 64*65535 + 1000
	cfg.Simulation.TrailDimension = 3
	cfg.ComputeDerived()

	if cfg.Derived.Particles != 64*65535 {
		t.Errorf("expected clamp to %d, got %d", 64*65535, cfg.Derived.Particles)
	}
	if cfg.Derived.TrailDimension != TrailTileSize {
		t.Errorf("expected snap to %d, got %d", TrailTileSize, cfg.Derived.TrailDimension)
	}

	cfg.Simulation.Variant = 2
	cfg.ComputeDerived()
	if cfg.Derived.MaxParticles != 8*65535 {
		t.Errorf("variant 2: expected max %d, got %d", 8*65535, cfg.Derived.MaxParticles)
	}
	if cfg.Derived.Particles != 8*65535 {
		t.Errorf("variant 2: expected clamp to %d, got %d", 8*65535, cfg.Derived.Particles)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	data := []byte("simulation:\n  particles: 1000\n  trail_dimension: 64\nruntime:\n  decay: 0.5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Simulation.Particles != 1000 || cfg.Simulation.TrailDimension != 64 {
		t.Errorf("user values not applied: %+v", cfg.Simulation)
	}
	if cfg.Runtime.Decay != 0.5 {
		t.Errorf("expected decay 0.5, got %f", cfg.Runtime.Decay)
	}
	// Untouched fields keep their defaults
	if cfg.Runtime.Deposit != 1.0 {
		t.Errorf("expected default deposit 1.0, got %f", cfg.Runtime.Deposit)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"decay above one", func(c *Config) { c.Runtime.Decay = 1.5 }},
		{"negative decay", func(c *Config) { c.Runtime.Decay = -0.1 }},
		{"negative deposit", func(c *Config) { c.Runtime.Deposit = -1 }},
		{"negative blur", func(c *Config) { c.Runtime.BlurRadius = -1 }},
		{"unknown backend", func(c *Config) { c.Compute.Backend = "fpga" }},
		{"bad variant", func(c *Config) { c.Simulation.Variant = 3 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg := Defaults()
	cfg.Runtime.Randomness = 0.25

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.Runtime.Randomness != 0.25 {
		t.Errorf("expected randomness 0.25 after reload, got %f", back.Runtime.Randomness)
	}
}
