package memory

import (
	"sync"
	"time"
)

// DefaultMaxEntries bounds an agent's message log.
const DefaultMaxEntries = 100

// Entry is one observed message in an agent's memory.
type Entry struct {
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}

// Log is an append-only, bounded message log for a single agent. When the
// bound is exceeded the oldest entries are discarded. The log is advisory
// context for decision-making, not authoritative game state.
//
// Log is safe for concurrent use: the broadcast consumer records entries
// while the round loop reads them.
type Log struct {
	mu      sync.Mutex
	max     int
	entries []Entry
	now     func() time.Time
}

// NewLog creates a log bounded to max entries. A non-positive max uses
// DefaultMaxEntries.
func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Log{
		max:     max,
		entries: make([]Entry, 0, max),
		now:     time.Now,
	}
}

// Record appends a timestamped entry, evicting the oldest entry if the log
// is full. It never fails.
func (l *Log) Record(content, sender, msgType string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{
		Content:   content,
		Sender:    sender,
		Timestamp: l.now(),
		Type:      msgType,
	})
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// Recent returns up to limit entries in chronological order, optionally
// filtered by message type. An empty typeFilter matches everything.
func (l *Log) Recent(limit int, typeFilter string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	matched := l.entries
	if typeFilter != "" {
		matched = make([]Entry, 0, len(l.entries))
		for _, e := range l.entries {
			if e.Type == typeFilter {
				matched = append(matched, e)
			}
		}
	}

	if limit <= 0 || limit > len(matched) {
		limit = len(matched)
	}
	out := make([]Entry, limit)
	copy(out, matched[len(matched)-limit:])
	return out
}

// Last returns the most recent entry, if any.
func (l *Log) Last() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of all retained entries in chronological order,
// used when snapshotting agent state for persistence.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
