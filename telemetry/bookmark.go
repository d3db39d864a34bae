package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNetworkFormed BookmarkType = "network_formed"
	BookmarkCoverageSurge BookmarkType = "coverage_surge"
	BookmarkFieldCollapse BookmarkType = "field_collapse"
	BookmarkStablePattern BookmarkType = "stable_pattern"
)

// Detector thresholds.
const (
	networkCVFactor   = 2.0    // CV jump over the rolling average
	networkMinCV      = 1.0    // absolute CV a network must reach
	coverageFactor    = 2.0    // coverage jump over the rolling average
	coverageMin       = 0.1    // absolute coverage a surge must reach
	collapseDrop      = 0.5    // fraction of peak mass lost
	stableWindow      = 4      // windows compared for stability
	stableMaxCV2      = 0.0025 // squared relative spread, i.e. under 5%
	stableTriggerRuns = 5
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Frame       uint32       `json:"frame"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"description", b.Description,
	)
}

// BookmarkDetector flags notable moments in the field's evolution from the
// per-window trail stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []TrailStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentTotalPeak   float64 // peak field mass since the last collapse
	networkLatched    bool    // a network bookmark fired and CV has not fallen back
	stableWindowCount int     // consecutive windows with a steady field
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < stableWindow+1 {
		historySize = stableWindow + 1
	}
	return &BookmarkDetector{
		history:     make([]TrailStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats TrailStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkNetworkFormed(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkCoverageSurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkFieldCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkStablePattern(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Total > bd.recentTotalPeak {
		bd.recentTotalPeak = stats.Total
	}

	return bookmarks
}

// Reset forgets all history, e.g. after the field is reseeded.
func (bd *BookmarkDetector) Reset() {
	clear(bd.history)
	bd.historyIdx = 0
	bd.historyFull = false
	bd.recentTotalPeak = 0
	bd.networkLatched = false
	bd.stableWindowCount = 0
}

func (bd *BookmarkDetector) addToHistory(stats TrailStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the recorded windows oldest first.
func (bd *BookmarkDetector) getHistory() []TrailStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]TrailStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkNetworkFormed(stats TrailStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var sum float64
	for _, h := range history {
		sum += h.CV
	}
	avgCV := sum / float64(len(history))

	if bd.networkLatched {
		if stats.CV < avgCV {
			bd.networkLatched = false
		}
		return nil
	}
	if avgCV == 0 {
		return nil
	}

	if stats.CV > avgCV*networkCVFactor && stats.CV >= networkMinCV {
		bd.networkLatched = true
		return &Bookmark{
			Type:        BookmarkNetworkFormed,
			Frame:       stats.Frame,
			Description: fmt.Sprintf("Field CV %.2f is %.1fx average (%.2f)", stats.CV, stats.CV/avgCV, avgCV),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkCoverageSurge(stats TrailStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var sum float64
	for _, h := range history {
		sum += h.Coverage
	}
	avg := sum / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.Coverage > avg*coverageFactor && stats.Coverage >= coverageMin {
		return &Bookmark{
			Type:        BookmarkCoverageSurge,
			Frame:       stats.Frame,
			Description: fmt.Sprintf("Coverage %.1f%% is %.1fx average (%.1f%%)", stats.Coverage*100, stats.Coverage/avg, avg*100),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkFieldCollapse(stats TrailStats) *Bookmark {
	if bd.recentTotalPeak <= 0 {
		return nil
	}

	drop := 1 - stats.Total/bd.recentTotalPeak
	if drop > collapseDrop {
		oldPeak := bd.recentTotalPeak
		bd.recentTotalPeak = stats.Total

		return &Bookmark{
			Type:        BookmarkFieldCollapse,
			Frame:       stats.Frame,
			Description: fmt.Sprintf("Field mass fell %.0f%% from peak %.1f to %.1f", drop*100, oldPeak, stats.Total),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStablePattern(stats TrailStats) *Bookmark {
	if stats.Total <= 0 {
		bd.stableWindowCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < stableWindow {
		return nil
	}
	recent := append(history[len(history)-stableWindow:len(history):len(history)], stats)

	if relativeSpread2(recent, func(s TrailStats) float64 { return s.Total }) < stableMaxCV2 &&
		relativeSpread2(recent, func(s TrailStats) float64 { return s.CV }) < stableMaxCV2 {
		bd.stableWindowCount++
	} else {
		bd.stableWindowCount = 0
	}

	if bd.stableWindowCount == stableTriggerRuns {
		return &Bookmark{
			Type:        BookmarkStablePattern,
			Frame:       stats.Frame,
			Description: fmt.Sprintf("Field steady at mass %.1f, CV %.2f over %d+ windows", stats.Total, stats.CV, stableTriggerRuns),
		}
	}
	return nil
}

// relativeSpread2 is the squared coefficient of variation of f over windows.
func relativeSpread2(windows []TrailStats, f func(TrailStats) float64) float64 {
	var sum float64
	for _, w := range windows {
		sum += f(w)
	}
	mean := sum / float64(len(windows))
	if mean == 0 {
		return 0
	}

	var v float64
	for _, w := range windows {
		d := f(w) - mean
		v += d * d
	}
	v /= float64(len(windows))
	return v / (mean * mean)
}
