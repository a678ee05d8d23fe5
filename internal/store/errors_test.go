package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/lib/pq"
)

func TestIsTransientClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped unexpected eof", fmt.Errorf("read: %w", io.ErrUnexpectedEOF), true},
		{"connection reset", &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}, true},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"pq connection failure", &pq.Error{Code: "08006"}, true},
		{"pq too many connections", &pq.Error{Code: "53300"}, true},
		{"pq admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"pq serialization failure", &pq.Error{Code: "40001"}, true},
		{"pq deadlock", &pq.Error{Code: "40P01"}, true},
		{"pq unique violation", &pq.Error{Code: "23505"}, false},
		{"pq undefined column", &pq.Error{Code: "42703"}, false},
		{"cancelled", context.Canceled, false},
		{"deadline", fmt.Errorf("exec: %w", context.DeadlineExceeded), false},
		{"plain", errors.New("syntax error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	cause := &pq.Error{Code: "08006", Message: "connection failure"}
	err := fmt.Errorf("insert: %w", &WriteError{Table: TableIMU, Err: cause, Transient: true})

	if !IsTransient(err) {
		t.Error("IsTransient() = false, want true")
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		t.Error("WriteError should unwrap to the driver error")
	}
	want := "insert: write to imu_data failed (transient): pq: connection failure"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if IsTransient(&WriteError{Table: TableGNSS, Err: errors.New("constraint")}) {
		t.Error("permanent WriteError reported transient")
	}
	if IsTransient(driver.ErrBadConn) {
		t.Error("IsTransient() only recognises WriteError")
	}
}
