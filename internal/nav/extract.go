// Package nav decodes the fixed-layout fields of IMU and GNSS data packets
// into typed navigation records.
//
// All numeric values on the wire are little-endian. Decoding is pure: the
// functions here never retain or modify the packet they are given, and are
// safe to call from multiple goroutines.
package nav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/navlog/internal/mip"
)

// Scalar is the set of numeric types a field can be read as.
type Scalar interface {
	int8 | int16 | int32 | float32 | float64
}

// ErrOutOfBounds matches every *OutOfBoundsError.
var ErrOutOfBounds = errors.New("read out of bounds")

// OutOfBoundsError reports a scalar read that does not fit in its field.
type OutOfBoundsError struct {
	Offset int
	Size   int
	Len    int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("read of %d bytes at offset %d exceeds field length %d", e.Size, e.Offset, e.Len)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }

// SizeOf returns the encoded width of T in bytes.
func SizeOf[T Scalar]() int {
	var v T
	switch any(v).(type) {
	case int8:
		return 1
	case int16:
		return 2
	case int32, float32:
		return 4
	default:
		return 8
	}
}

// Extract reads a little-endian T at offset within f. It fails with an
// *OutOfBoundsError, without touching f, when offset+sizeof(T) exceeds len(f).
func Extract[T Scalar](f mip.Field, offset int) (T, error) {
	var v T
	size := SizeOf[T]()
	if offset < 0 || offset > len(f)-size {
		return v, &OutOfBoundsError{Offset: offset, Size: size, Len: len(f)}
	}
	b := f[offset : offset+size]

	switch p := any(&v).(type) {
	case *int8:
		*p = int8(b[0])
	case *int16:
		*p = int16(binary.LittleEndian.Uint16(b))
	case *int32:
		*p = int32(binary.LittleEndian.Uint32(b))
	case *float32:
		*p = math.Float32frombits(binary.LittleEndian.Uint32(b))
	case *float64:
		*p = math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return v, nil
}
