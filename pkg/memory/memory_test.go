package memory

import (
	"fmt"
	"testing"
	"time"
)

func TestLog_RecordAndRecent(t *testing.T) {
	l := NewLog(10)

	l.Record("round 1 begins", "coordinator", "round_start")
	l.Record("you see a tavern", "director", "scene_description")
	l.Record("round 2 begins", "coordinator", "round_start")

	recent := l.Recent(2, "")
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d entries, want 2", len(recent))
	}
	if recent[0].Content != "you see a tavern" || recent[1].Content != "round 2 begins" {
		t.Errorf("Recent(2) returned wrong entries: %+v", recent)
	}

	filtered := l.Recent(10, "round_start")
	if len(filtered) != 2 {
		t.Fatalf("Recent with filter returned %d entries, want 2", len(filtered))
	}
	for _, e := range filtered {
		if e.Type != "round_start" {
			t.Errorf("filtered entry has type %q, want round_start", e.Type)
		}
	}
}

func TestLog_RecentShorterThanLimit(t *testing.T) {
	l := NewLog(10)
	l.Record("only one", "director", "scene_description")

	recent := l.Recent(5, "")
	if len(recent) != 1 {
		t.Errorf("Recent(5) on log of 1 returned %d entries, want 1", len(recent))
	}
}

func TestLog_Eviction(t *testing.T) {
	const max = 5
	const extra = 3

	l := NewLog(max)
	for i := 0; i < max+extra; i++ {
		l.Record(fmt.Sprintf("message %d", i), "coordinator", "action_result")
	}

	if l.Len() != max {
		t.Fatalf("Len() = %d after overflow, want %d", l.Len(), max)
	}

	recent := l.Recent(max, "")
	if len(recent) != max {
		t.Fatalf("Recent(%d) returned %d entries", max, len(recent))
	}
	// The first `extra` entries must be unreachable; survivors keep order.
	for i, e := range recent {
		want := fmt.Sprintf("message %d", i+extra)
		if e.Content != want {
			t.Errorf("entry %d = %q, want %q", i, e.Content, want)
		}
	}
}

func TestLog_DefaultBound(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < DefaultMaxEntries+1; i++ {
		l.Record("m", "s", "t")
	}
	if l.Len() != DefaultMaxEntries {
		t.Errorf("Len() = %d, want %d", l.Len(), DefaultMaxEntries)
	}
}

func TestLog_RecentIsPureRead(t *testing.T) {
	l := NewLog(10)
	l.Record("a", "s", "t")
	l.Record("b", "s", "t")

	before := l.Len()
	_ = l.Recent(1, "")
	_ = l.Recent(10, "missing_type")
	if l.Len() != before {
		t.Errorf("Recent mutated the log: len %d -> %d", before, l.Len())
	}
}

func TestLog_Last(t *testing.T) {
	l := NewLog(10)
	if _, ok := l.Last(); ok {
		t.Error("Last() on an empty log should report false")
	}

	l.Record("first", "s", "t")
	l.Record("second", "s", "t")
	last, ok := l.Last()
	if !ok || last.Content != "second" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
}

func TestLog_Timestamps(t *testing.T) {
	l := NewLog(10)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	l.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}

	l.Record("first", "s", "t")
	l.Record("second", "s", "t")

	entries := l.Entries()
	if !entries[0].Timestamp.Before(entries[1].Timestamp) {
		t.Error("entries are not in chronological order")
	}
}
