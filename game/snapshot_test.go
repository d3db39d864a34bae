package game

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/physarum/compute"
	"github.com/pthm-cable/physarum/systems"
	"github.com/pthm-cable/physarum/telemetry"
)

func TestSnapshotRestoreContinuesRun(t *testing.T) {
	src := newSim(t, scenarioConfig(), 1, Options{})
	src.Step(30, dt)

	snap, err := src.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Frame != 30 || len(snap.Agents) != 1000 || snap.Dimension != 64 {
		t.Fatalf("unexpected snapshot: frame=%d agents=%d dim=%d", snap.Frame, len(snap.Agents), snap.Dimension)
	}

	// A differently sized run picks up the snapshot's shape and state.
	cfg := scenarioConfig()
	cfg.Simulation.Particles = 500
	cfg.Simulation.TrailDimension = 32
	cfg.Simulation.Seed = 7
	dst := newSim(t, cfg, 1, Options{})
	if err := dst.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if dst.AgentCount() != 1000 || dst.Dimension() != 64 || dst.Frame() != 30 {
		t.Fatalf("restored sizes: agents=%d dim=%d frame=%d", dst.AgentCount(), dst.Dimension(), dst.Frame())
	}

	src.Step(30, dt)
	dst.Step(30, dt)

	a, b := readAgents(t, src), readAgents(t, dst)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("agent %d diverged after restore: %+v vs %+v", i, a[i], b[i])
		}
	}
	ca, cb := readTrail(t, src), readTrail(t, dst)
	for i := range ca {
		if ca[i] != cb[i] {
			t.Fatalf("cell %d diverged after restore: %f vs %f", i, ca[i], cb[i])
		}
	}
}

func TestRestoreRejectsOversizedAgents(t *testing.T) {
	sim := newSim(t, scenarioConfig(), 1, Options{})
	snap, err := sim.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	snap.Agents = make([]systems.Agent, sim.groupSize*systems.MaxGroupsPerDimension+1)
	err = sim.Restore(snap)
	if !errors.Is(err, compute.ErrDispatchLimit) {
		t.Fatalf("expected ErrDispatchLimit, got %v", err)
	}
	if !sim.Enabled() {
		t.Error("a rejected snapshot should leave the simulation running")
	}
}

func TestBookmarksSaveSnapshots(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Telemetry.StatsWindow = 0.1
	dir := t.TempDir()

	detector := telemetry.NewBookmarkDetector(5)
	sim := newSim(t, cfg, 1, Options{Bookmarks: detector, SnapshotDir: dir})

	// Full decay wipes a built-up field within one window.
	sim.Step(60, dt)
	sim.Runtime().Decay = 1
	sim.Step(12, dt)

	matches, err := filepath.Glob(filepath.Join(dir, "snapshot_*_field_collapse.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		entries, _ := os.ReadDir(dir)
		t.Fatalf("no collapse snapshot written; dir has %d entries", len(entries))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	var dump telemetry.Snapshot
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatalf("unmarshal dump: %v", err)
	}
	if dump.Bookmark == nil || dump.Bookmark.Type != telemetry.BookmarkFieldCollapse {
		t.Errorf("dump bookmark = %+v", dump.Bookmark)
	}
	if err := dump.Validate(); err != nil {
		t.Errorf("dump does not validate: %v", err)
	}
}
