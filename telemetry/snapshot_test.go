package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/systems"
)

func testSnapshot() *Snapshot {
	cells := make([]float32, 16)
	for i := range cells {
		cells[i] = float32(i) * 0.25
	}
	return &Snapshot{
		Version: SnapshotVersion,
		Seed:    42,
		Variant: 1,
		Frame:   1000,
		SimTime: 16.5,
		Runtime: config.RuntimeConfig{
			Deposit:            0.5,
			Decay:              0.1,
			SensorAngleDegrees: 45,
			BlurRadius:         1,
		},
		Pointer:   config.PointerConfig{Radius: 0.05, ChemicalA: 1},
		Dimension: 4,
		Agents: []systems.Agent{
			{X: 0.25, Y: 0.5, Heading: 1.5},
			{X: 0.75, Y: 0.125, Heading: 3},
		},
		Cells: cells,
	}
}

func readDump(t *testing.T, path string) *Snapshot {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal dump: %v", err)
	}
	return &snap
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	snapshot := testSnapshot()

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "snapshot_1000.json" {
		t.Errorf("unexpected file name %q", filepath.Base(path))
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("snapshot file not created: %s", path)
	}

	loaded := readDump(t, path)
	if err := loaded.Validate(); err != nil {
		t.Fatalf("dump does not validate: %v", err)
	}

	if loaded.Seed != snapshot.Seed || loaded.Frame != snapshot.Frame || loaded.SimTime != snapshot.SimTime {
		t.Errorf("loop state mismatch: got seed=%d frame=%d t=%v", loaded.Seed, loaded.Frame, loaded.SimTime)
	}
	if loaded.Runtime != snapshot.Runtime || loaded.Pointer != snapshot.Pointer {
		t.Errorf("tunables mismatch: %+v %+v", loaded.Runtime, loaded.Pointer)
	}
	if len(loaded.Agents) != len(snapshot.Agents) {
		t.Fatalf("agent count = %d, want %d", len(loaded.Agents), len(snapshot.Agents))
	}
	for i := range snapshot.Agents {
		if loaded.Agents[i] != snapshot.Agents[i] {
			t.Errorf("agent %d = %+v, want %+v", i, loaded.Agents[i], snapshot.Agents[i])
		}
	}
	for i := range snapshot.Cells {
		if loaded.Cells[i] != snapshot.Cells[i] {
			t.Errorf("cell %d = %v, want %v", i, loaded.Cells[i], snapshot.Cells[i])
		}
	}
	if loaded.Bookmark != nil {
		t.Error("unexpected bookmark")
	}
}

func TestSnapshotWithBookmark(t *testing.T) {
	tmpDir := t.TempDir()
	snapshot := testSnapshot()
	snapshot.Bookmark = &Bookmark{
		Type:        BookmarkNetworkFormed,
		Frame:       1000,
		Description: "Field CV 1.60 is 4.0x average (0.40)",
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if !strings.HasSuffix(path, "snapshot_1000_network_formed.json") {
		t.Errorf("bookmark type missing from file name: %s", path)
	}

	loaded := readDump(t, path)
	if err := loaded.Validate(); err != nil {
		t.Fatalf("dump does not validate: %v", err)
	}
	if loaded.Bookmark == nil || *loaded.Bookmark != *snapshot.Bookmark {
		t.Errorf("bookmark mismatch: %+v", loaded.Bookmark)
	}
}

func TestValidateRejectsMismatchedField(t *testing.T) {
	snapshot := testSnapshot()
	snapshot.Dimension = 8 // cells still hold 4x4
	if err := snapshot.Validate(); err == nil {
		t.Error("expected error for a field that does not match its dimension")
	}
}

func TestValidateRejectsVersion(t *testing.T) {
	snapshot := testSnapshot()
	snapshot.Version = SnapshotVersion + 1
	if err := snapshot.Validate(); err == nil {
		t.Error("expected error for an unknown version")
	}
}
