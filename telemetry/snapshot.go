package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/systems"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// Snapshot captures the complete simulation state at one frame. It is held in
// memory as a checkpoint and written out as an analysis dump; dumps are not
// read back.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    uint32 `json:"seed"`
	Variant int    `json:"variant"`

	// Loop state
	Frame   uint32  `json:"frame"`
	SimTime float64 `json:"sim_time"`

	// Tunables at capture time
	Runtime config.RuntimeConfig `json:"runtime"`
	Pointer config.PointerConfig `json:"pointer"`

	// Device resources
	Dimension int             `json:"dimension"`
	Agents    []systems.Agent `json:"agents"`
	Cells     []float32       `json:"cells"`

	// Bookmark that triggered this snapshot (if any)
	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// Validate checks that the resource sizes agree with each other.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	if len(s.Agents) == 0 {
		return fmt.Errorf("snapshot has no agents")
	}
	if s.Dimension < 1 || len(s.Cells) != s.Dimension*s.Dimension {
		return fmt.Errorf("snapshot has %d cells for dimension %d", len(s.Cells), s.Dimension)
	}
	return nil
}

// SaveSnapshot writes a snapshot dump to the given directory.
// Returns the path to the saved file.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Frame)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Frame, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	// Compact encoding: the cell array dominates the file.
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}
