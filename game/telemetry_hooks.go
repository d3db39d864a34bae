package game

import (
	"log/slog"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/telemetry"
)

// BookmarksFromConfig returns a detector sized by the telemetry config, or
// nil when bookmarks are disabled.
func BookmarksFromConfig(cfg *config.Config) *telemetry.BookmarkDetector {
	if cfg.Telemetry.BookmarkHistory <= 0 {
		return nil
	}
	return telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory)
}

// telemetryDue reports whether a stats window has elapsed and anyone is
// listening for it.
func (s *Simulation) telemetryDue() bool {
	window := s.cfg.Telemetry.StatsWindow
	if window <= 0 {
		return false
	}
	if !s.logStats && s.output == nil && s.statsCallback == nil && s.bookmarks == nil {
		return false
	}
	return s.simTime >= s.nextStats
}

// flushTelemetry reads the field back and emits one TrailStats record.
func (s *Simulation) flushTelemetry() {
	s.nextStats = s.simTime + s.cfg.Telemetry.StatsWindow

	cells, err := s.device.ReadTrail(s.readback)
	if err != nil {
		slog.Error("failed to read trail", "error", err)
		return
	}
	s.readback = cells

	stats := telemetry.ComputeTrailStats(cells, s.dimension, s.cfg.Telemetry.CoverageThreshold)
	stats.Frame = s.frame
	stats.SimTime = s.simTime
	stats.Agents = s.agentCount

	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		slog.Info("perf", "stats", perfStats)
	}

	if s.bookmarks != nil {
		for _, b := range s.bookmarks.Check(stats) {
			b.LogBookmark()
			s.saveBookmark(b)
		}
	}

	if s.output != nil {
		if err := s.output.WriteTrail(stats); err != nil {
			slog.Error("failed to write trail stats", "error", err)
		}
		if err := s.output.WritePerf(perfStats, s.frame); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// saveBookmark writes a snapshot tagged with b when a snapshot dir is set.
func (s *Simulation) saveBookmark(b telemetry.Bookmark) {
	if s.snapshotDir == "" {
		return
	}
	snap, err := s.Snapshot()
	if err != nil {
		slog.Error("failed to capture snapshot", "error", err)
		return
	}
	snap.Bookmark = &b
	path, err := telemetry.SaveSnapshot(snap, s.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "bookmark", string(b.Type))
}
