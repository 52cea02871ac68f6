package aggregate

import (
	"time"

	"github.com/vlanwatch/vlanwatch/internal/ingest"
)

// DefaultLogCapacity bounds the raw event log when no capacity is configured.
const DefaultLogCapacity = 1000

// LoggedEvent is an accepted event with its arrival time.
type LoggedEvent struct {
	At    time.Time
	Event ingest.PacketEvent
}

// EventLog is a fixed-capacity ring of the most recent accepted events.
// Once full, each Push evicts the oldest entry.
type EventLog struct {
	buf     []LoggedEvent
	head    int // index of the oldest entry
	size    int
	evicted uint64
	now     func() time.Time
}

// NewEventLog creates a ring holding at most capacity events.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &EventLog{
		buf: make([]LoggedEvent, capacity),
		now: time.Now,
	}
}

// Push records ev, evicting the oldest entry when the ring is full.
func (l *EventLog) Push(ev ingest.PacketEvent) {
	e := LoggedEvent{At: l.now(), Event: ev}
	if l.size < len(l.buf) {
		l.buf[(l.head+l.size)%len(l.buf)] = e
		l.size++
		return
	}
	l.buf[l.head] = e
	l.head = (l.head + 1) % len(l.buf)
	l.evicted++
}

// Snapshot copies the retained events, oldest first.
func (l *EventLog) Snapshot() []LoggedEvent {
	out := make([]LoggedEvent, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.buf[(l.head+i)%len(l.buf)]
	}
	return out
}

// Tail copies at most n of the newest events, oldest first.
func (l *EventLog) Tail(n int) []LoggedEvent {
	if n > l.size {
		n = l.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]LoggedEvent, n)
	start := l.size - n
	for i := 0; i < n; i++ {
		out[i] = l.buf[(l.head+start+i)%len(l.buf)]
	}
	return out
}

// Len returns the number of retained events.
func (l *EventLog) Len() int { return l.size }

// Cap returns the ring capacity.
func (l *EventLog) Cap() int { return len(l.buf) }

// Evicted returns how many events were pushed out since the last Reset.
func (l *EventLog) Evicted() uint64 { return l.evicted }

// Reset drops every retained event.
func (l *EventLog) Reset() {
	clear(l.buf)
	l.head = 0
	l.size = 0
	l.evicted = 0
}
