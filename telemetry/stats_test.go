package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/physarum/config"
)

func TestComputeTrailStats(t *testing.T) {
	// 4x4 field, one hot cell at (1, 2)
	cells := make([]float32, 16)
	for i := range cells {
		cells[i] = 1
	}
	cells[2*4+1] = 17

	s := ComputeTrailStats(cells, 4, 2)

	if s.Total != 32 {
		t.Errorf("total = %v, want 32", s.Total)
	}
	if s.Mean != 2 {
		t.Errorf("mean = %v, want 2", s.Mean)
	}
	if s.Max != 17 || s.MaxX != 1 || s.MaxY != 2 {
		t.Errorf("max = %v at (%d,%d), want 17 at (1,2)", s.Max, s.MaxX, s.MaxY)
	}
	// 15 cells at 1, one at 17: population std = sqrt((15*1 + 225)/16) = sqrt(15)
	if math.Abs(s.StdDev-math.Sqrt(15)) > 1e-9 {
		t.Errorf("std = %v, want sqrt(15)", s.StdDev)
	}
	if math.Abs(s.CV-math.Sqrt(15)/2) > 1e-9 {
		t.Errorf("cv = %v, want sqrt(15)/2", s.CV)
	}
	if s.Coverage != 1.0/16 {
		t.Errorf("coverage = %v, want 1/16", s.Coverage)
	}
	if s.P50 != 1 {
		t.Errorf("p50 = %v, want 1", s.P50)
	}
}

func TestComputeTrailStatsEmptyField(t *testing.T) {
	s := ComputeTrailStats(make([]float32, 64), 8, 0.01)
	if s.Total != 0 || s.CV != 0 || s.Coverage != 0 {
		t.Errorf("expected zero stats for an empty field, got %+v", s)
	}

	s = ComputeTrailStats(nil, 0, 0.01)
	if s.Total != 0 {
		t.Errorf("expected zero stats for no cells, got %+v", s)
	}
}

func TestComputeTrailStatsLeavesInput(t *testing.T) {
	cells := []float32{3, 1, 2, 0}
	ComputeTrailStats(cells, 2, 0.5)
	if cells[0] != 3 || cells[1] != 1 || cells[2] != 2 || cells[3] != 0 {
		t.Errorf("input mutated: %v", cells)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("new output manager: %v", err)
	}

	if err := om.WriteConfig(config.Defaults()); err != nil {
		t.Fatalf("write config: %v", err)
	}
	for frame := uint32(1); frame <= 3; frame++ {
		if err := om.WriteTrail(TrailStats{Frame: frame, Dim: 8}); err != nil {
			t.Fatalf("write trail: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{}, 3); err != nil {
		t.Fatalf("write perf: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "trail.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "frame,sim_time,agents,dim") {
		t.Errorf("unexpected header %q", lines[0])
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("expected config.yaml: %v", err)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager for empty dir, got %v, %v", om, err)
	}
	// nil manager is a no-op
	if err := om.WriteTrail(TrailStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}
