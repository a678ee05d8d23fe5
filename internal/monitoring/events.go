package monitoring

import (
	"sync"
	"time"
)

// Event is one notable occurrence in the ingestion stream, such as a packet
// dropped because it could not be decoded.
type Event struct {
	Time       time.Time `json:"time"`
	Kind       string    `json:"kind"`
	Descriptor uint8     `json:"descriptor"`
	Message    string    `json:"message"`
}

// EventLog keeps the most recent events in a fixed-size ring. It is safe for
// concurrent use.
type EventLog struct {
	mu    sync.Mutex
	buf   []Event
	next  int
	full  bool
	total map[string]uint64
}

// NewEventLog returns a log holding at most size events.
func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = 1
	}
	return &EventLog{buf: make([]Event, size), total: make(map[string]uint64)}
}

// Record stores e, evicting the oldest event when full, and logs it.
func (l *EventLog) Record(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	Logf("%s: descriptor=0x%02x %s", e.Kind, e.Descriptor, e.Message)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.next] = e
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
	l.total[e.Kind]++
}

// Recent returns the retained events, oldest first.
func (l *EventLog) Recent() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		return append([]Event(nil), l.buf[:l.next]...)
	}
	out := make([]Event, 0, len(l.buf))
	out = append(out, l.buf[l.next:]...)
	return append(out, l.buf[:l.next]...)
}

// Totals returns how many events of each kind were ever recorded.
func (l *EventLog) Totals() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.total))
	for k, v := range l.total {
		out[k] = v
	}
	return out
}
