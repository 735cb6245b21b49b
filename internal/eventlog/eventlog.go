// Package eventlog keeps a bounded in-memory record of session events for
// inspection by the operator surface.
package eventlog

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCapacity bounds the log when no capacity is configured.
const DefaultCapacity = 100

// Entry is one recorded session event.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
}

// Log is a bounded, append-only event log. Once full, each append drops the
// oldest entry. Safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	buf  []Entry
	next int
	full bool
}

// New builds a log holding at most capacity entries. Zero or negative
// capacities fall back to DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{buf: make([]Entry, capacity)}
}

// Append records one entry, evicting the oldest when the log is full.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.next] = e
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
}

// Entries returns the recorded entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		return append([]Entry(nil), l.buf[:l.next]...)
	}
	out := make([]Entry, 0, len(l.buf))
	out = append(out, l.buf[l.next:]...)
	out = append(out, l.buf[:l.next]...)
	return out
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.buf)
	}
	return l.next
}

// Run implements zerolog.Hook, so a Log can be installed on a logger with
// logger.Hook(l). Unleveled events are not recorded.
func (l *Log) Run(_ *zerolog.Event, level zerolog.Level, message string) {
	if level == zerolog.NoLevel {
		return
	}
	l.Append(Entry{Time: time.Now(), Level: level.String(), Message: message})
}
