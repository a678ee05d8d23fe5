package monitoring

import (
	"testing"
)

func TestEventLog_Ring(t *testing.T) {
	SetLogger(nil)
	defer SetLogger(nil)

	l := NewEventLog(3)
	if got := l.Recent(); len(got) != 0 {
		t.Fatalf("Recent() on empty log = %v", got)
	}

	for i := 0; i < 5; i++ {
		l.Record(Event{Kind: "decode_error", Descriptor: uint8(i)})
	}
	got := l.Recent()
	if len(got) != 3 {
		t.Fatalf("len(Recent()) = %d, want 3", len(got))
	}
	for i, e := range got {
		if e.Descriptor != uint8(i+2) {
			t.Errorf("Recent()[%d].Descriptor = %d, want %d", i, e.Descriptor, i+2)
		}
		if e.Time.IsZero() {
			t.Errorf("Recent()[%d] has zero time", i)
		}
	}
	if n := l.Totals()["decode_error"]; n != 5 {
		t.Errorf("Totals()[decode_error] = %d, want 5", n)
	}
}

func TestEventLog_LogsEachEvent(t *testing.T) {
	var lines []string
	SetLogger(func(format string, v ...interface{}) { lines = append(lines, format) })
	defer SetLogger(nil)

	l := NewEventLog(0)
	l.Record(Event{Kind: "write_error", Message: "boom"})
	l.Record(Event{Kind: "write_error", Message: "boom again"})
	if len(lines) != 2 {
		t.Errorf("logged %d lines, want 2", len(lines))
	}
	if got := l.Recent(); len(got) != 1 || got[0].Message != "boom again" {
		t.Errorf("Recent() = %+v", got)
	}
}
