// Package ingest runs the ingestion loop: it pulls packets from a source,
// routes each one by descriptor to its assembler and row mapper, and writes
// the row. One packet is in flight at a time.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/banshee-data/navlog/internal/mip"
	"github.com/banshee-data/navlog/internal/monitoring"
	"github.com/banshee-data/navlog/internal/store"
)

var logf = monitoring.Prefixed("ingest")

// Event kinds recorded by the loop.
const (
	EventDecodeError  = "decode_error"
	EventWriteDropped = "write_dropped"
	EventWriteFailed  = "write_failed"
)

// State is the loop's position in its cycle.
type State int32

const (
	// Idle means the loop is waiting for the next packet.
	Idle State = iota
	// Dispatching means a packet is being decoded and written.
	Dispatching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dispatching:
		return "dispatching"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Writer persists rows.
type Writer interface {
	Insert(ctx context.Context, row store.Row) error
}

// RetryPolicy bounds retries of transient write failures.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries for roughly half a minute before giving up.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      8,
	InitialInterval: 250 * time.Millisecond,
	MaxInterval:     10 * time.Second,
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, p.MaxRetries)
}

// Config holds the optional collaborators of a Loop. Zero values select
// DefaultRegistry, a 64-entry event log and DefaultRetryPolicy.
type Config struct {
	Registry *Registry
	Events   *monitoring.EventLog
	Retry    RetryPolicy
}

// Loop is the ingestion state machine. Run must be called from a single
// goroutine; Stats and State may be read concurrently.
type Loop struct {
	src    PacketSource
	w      Writer
	reg    *Registry
	events *monitoring.EventLog

	newBackOff func() backoff.BackOff

	state        atomic.Int32
	packets      atomic.Uint64
	ignored      atomic.Uint64
	decodeErrors atomic.Uint64
	writeErrors  atomic.Uint64
	retries      atomic.Uint64

	rowsMu sync.Mutex
	rows   map[string]uint64
}

// NewLoop returns a loop reading from src and writing to w.
func NewLoop(src PacketSource, w Writer, cfg Config) *Loop {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if cfg.Events == nil {
		cfg.Events = monitoring.NewEventLog(64)
	}
	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultRetryPolicy
	}
	return &Loop{
		src:        src,
		w:          w,
		reg:        cfg.Registry,
		events:     cfg.Events,
		newBackOff: cfg.Retry.backOff,
		rows:       make(map[string]uint64),
	}
}

// Run processes packets until ctx is cancelled or the source reports
// io.EOF, both of which return nil. It returns an error when the source
// fails or a transient write failure outlasts the retry policy. Decode
// failures and permanently rejected rows are recorded and skipped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.state.Store(int32(Idle))
	for {
		l.state.Store(int32(Idle))
		pkt, err := l.src.NextPacket(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, io.EOF):
			logf("packet source exhausted after %d packets", l.packets.Load())
			return nil
		case err != nil:
			return fmt.Errorf("failed to read packet: %w", err)
		case pkt == nil:
			continue
		}

		l.state.Store(int32(Dispatching))
		if err := l.dispatch(ctx, pkt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, pkt *mip.Packet) error {
	l.packets.Add(1)
	h, ok := l.reg.lookup(pkt.Descriptor)
	if !ok {
		l.ignored.Add(1)
		return nil
	}

	row, err := h.handle(pkt)
	if err != nil {
		l.decodeErrors.Add(1)
		l.events.Record(monitoring.Event{
			Kind:       EventDecodeError,
			Descriptor: pkt.Descriptor,
			Message:    fmt.Sprintf("dropped %s packet: %v", h.name, err),
		})
		return nil
	}
	return l.write(ctx, pkt.Descriptor, row)
}

// write inserts row, retrying transient failures with exponential backoff.
func (l *Loop) write(ctx context.Context, descriptor uint8, row store.Row) error {
	attempts := 0
	op := func() error {
		attempts++
		err := l.w.Insert(ctx, row)
		if err != nil && !store.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		l.retries.Add(1)
		logf("retrying %s insert in %v: %v", row.Table, wait, err)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(l.newBackOff(), ctx), notify)
	if err == nil {
		l.rowsMu.Lock()
		l.rows[row.Table]++
		l.rowsMu.Unlock()
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	l.writeErrors.Add(1)
	if store.IsTransient(err) {
		l.events.Record(monitoring.Event{
			Kind:       EventWriteFailed,
			Descriptor: descriptor,
			Message:    fmt.Sprintf("giving up after %d attempts: %v", attempts, err),
		})
		return fmt.Errorf("giving up on %s insert after %d attempts: %w", row.Table, attempts, err)
	}
	l.events.Record(monitoring.Event{
		Kind:       EventWriteDropped,
		Descriptor: descriptor,
		Message:    err.Error(),
	})
	return nil
}

// State returns what the loop is doing right now.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Events returns the loop's event log.
func (l *Loop) Events() *monitoring.EventLog {
	return l.events
}

// Stats is a snapshot of the loop counters.
type Stats struct {
	State        string            `json:"state"`
	Packets      uint64            `json:"packets"`
	Ignored      uint64            `json:"ignored"`
	DecodeErrors uint64            `json:"decode_errors"`
	WriteErrors  uint64            `json:"write_errors"`
	Retries      uint64            `json:"retries"`
	Rows         map[string]uint64 `json:"rows"`
}

// Stats returns the current counters. Safe for concurrent use with Run.
func (l *Loop) Stats() Stats {
	l.rowsMu.Lock()
	rows := make(map[string]uint64, len(l.rows))
	for k, v := range l.rows {
		rows[k] = v
	}
	l.rowsMu.Unlock()

	return Stats{
		State:        l.State().String(),
		Packets:      l.packets.Load(),
		Ignored:      l.ignored.Load(),
		DecodeErrors: l.decodeErrors.Load(),
		WriteErrors:  l.writeErrors.Load(),
		Retries:      l.retries.Load(),
		Rows:         rows,
	}
}

// RunStats converts the snapshot into the counters stored per run.
func (s Stats) RunStats() store.RunStats {
	return store.RunStats{
		Packets:      s.Packets,
		IMURows:      s.Rows[store.TableIMU],
		GNSSRows:     s.Rows[store.TableGNSS],
		Ignored:      s.Ignored,
		DecodeErrors: s.DecodeErrors,
		WriteErrors:  s.WriteErrors,
	}
}
