package conversation

import (
	"sync"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
)

// Log is the append-only interview transcript. Entries are never mutated or removed.
// Growth is unbounded for the life of the session.
type Log struct {
	mu      sync.RWMutex
	entries []domain.ConversationEntry
}

func NewLog() *Log {
	return &Log{entries: make([]domain.ConversationEntry, 0, 64)}
}

// Append adds entry at the end and returns the new length.
func (l *Log) Append(entry domain.ConversationEntry) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	return len(l.entries)
}

// All returns a copy of every entry in insertion order.
func (l *Log) All() []domain.ConversationEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.ConversationEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Latest returns the most recent entry; ok is false while the log is empty.
func (l *Log) Latest() (domain.ConversationEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return domain.ConversationEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
