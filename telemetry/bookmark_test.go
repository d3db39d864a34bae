package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_NetworkFormed(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Diffuse field: low CV
	for i := 0; i < 5; i++ {
		bd.Check(TrailStats{Frame: uint32(i * 60), Total: 100, CV: 0.4})
	}

	sharp := TrailStats{Frame: 300, Total: 100, CV: 1.6}
	if !hasBookmark(bd.Check(sharp), BookmarkNetworkFormed) {
		t.Fatal("expected network_formed bookmark")
	}

	// Latched until CV falls back under the average.
	sharp.Frame = 360
	if hasBookmark(bd.Check(sharp), BookmarkNetworkFormed) {
		t.Error("network_formed fired twice without CV falling back")
	}
}

func TestBookmarkDetector_NetworkNeedsAbsoluteCV(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(TrailStats{Frame: uint32(i * 60), Total: 100, CV: 0.1})
	}
	// 5x the average but still a diffuse field.
	if hasBookmark(bd.Check(TrailStats{Frame: 300, Total: 100, CV: 0.5}), BookmarkNetworkFormed) {
		t.Error("network_formed fired below the absolute CV floor")
	}
}

func TestBookmarkDetector_CoverageSurge(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(TrailStats{Frame: uint32(i * 60), Total: 100, Coverage: 0.05})
	}
	if !hasBookmark(bd.Check(TrailStats{Frame: 300, Total: 100, Coverage: 0.3}), BookmarkCoverageSurge) {
		t.Error("expected coverage_surge bookmark")
	}
}

func TestBookmarkDetector_FieldCollapse(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Build up field mass
	for i := 0; i < 5; i++ {
		bd.Check(TrailStats{Frame: uint32(i * 60), Total: 1000, CV: 1})
	}

	// Drop by 70%
	bookmarks := bd.Check(TrailStats{Frame: 300, Total: 300, CV: 1})
	if !hasBookmark(bookmarks, BookmarkFieldCollapse) {
		t.Fatal("expected field_collapse bookmark")
	}

	// The peak resets to the collapsed level.
	if hasBookmark(bd.Check(TrailStats{Frame: 360, Total: 250, CV: 1}), BookmarkFieldCollapse) {
		t.Error("field_collapse fired again against the old peak")
	}
}

func TestBookmarkDetector_StablePattern(t *testing.T) {
	bd := NewBookmarkDetector(10)

	fired := -1
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(TrailStats{Frame: uint32(i * 60), Total: 500, CV: 1.2})
		if hasBookmark(bookmarks, BookmarkStablePattern) {
			if fired >= 0 {
				t.Fatalf("stable_pattern fired again at window %d", i)
			}
			fired = i
		}
	}
	// Stability is measured once four windows exist, so the fifth steady
	// comparison lands on window 8.
	if fired != 8 {
		t.Errorf("stable_pattern fired at window %d, want 8", fired)
	}
}

func TestBookmarkDetector_UnstableFieldNeverSettles(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 12; i++ {
		total := 500.0
		if i%2 == 1 {
			total = 700
		}
		if hasBookmark(bd.Check(TrailStats{Frame: uint32(i * 60), Total: total, CV: 1}), BookmarkStablePattern) {
			t.Fatalf("stable_pattern fired on an oscillating field at window %d", i)
		}
	}
}

func TestBookmarkDetector_HistoryWraps(t *testing.T) {
	bd := NewBookmarkDetector(5)
	for i := 0; i < 7; i++ {
		bd.Check(TrailStats{Frame: uint32(i), Total: float64(i + 1)})
	}

	history := bd.getHistory()
	if len(history) != 5 {
		t.Fatalf("history length = %d, want 5", len(history))
	}
	for i, h := range history {
		if want := uint32(i + 2); h.Frame != want {
			t.Errorf("history[%d].Frame = %d, want %d", i, h.Frame, want)
		}
	}

	bd.Reset()
	if len(bd.getHistory()) != 0 {
		t.Error("Reset kept history")
	}
}
