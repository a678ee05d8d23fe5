package nav

import (
	"fmt"

	"github.com/banshee-data/navlog/internal/mip"
)

// MissingFieldError reports a required tag absent from a packet payload.
type MissingFieldError struct {
	Tag uint8
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field 0x%02x", e.Tag)
}

// FieldDecodeError reports a present field that could not be decoded.
type FieldDecodeError struct {
	Tag uint8
	Err error
}

func (e *FieldDecodeError) Error() string {
	return fmt.Sprintf("failed to decode field 0x%02x: %v", e.Tag, e.Err)
}

func (e *FieldDecodeError) Unwrap() error { return e.Err }

// assembler looks up fields by tag and decodes them, keeping only the first
// error. Once an error is recorded every further read returns a zero value,
// so a record built from an assembler with a non-nil err must be discarded.
type assembler struct {
	pkt *mip.Packet
	err error
}

func (a *assembler) field(tag uint8) (mip.Field, bool) {
	if a.err != nil {
		return nil, false
	}
	f, ok := a.pkt.Payload.Field(tag)
	if !ok {
		a.err = &MissingFieldError{Tag: tag}
		return nil, false
	}
	return f, true
}

func (a *assembler) fail(tag uint8, err error) {
	if err != nil && a.err == nil {
		a.err = &FieldDecodeError{Tag: tag, Err: err}
	}
}

func read[T Scalar](a *assembler, tag uint8, offset int) T {
	f, ok := a.field(tag)
	if !ok {
		var zero T
		return zero
	}
	v, err := Extract[T](f, offset)
	a.fail(tag, err)
	return v
}

func vector3(a *assembler, tag uint8) Vector3 {
	f, ok := a.field(tag)
	if !ok {
		return Vector3{}
	}
	v, err := DecodeVector3(f)
	a.fail(tag, err)
	return v
}

func quaternion(a *assembler, tag uint8) Quaternion {
	f, ok := a.field(tag)
	if !ok {
		return Quaternion{}
	}
	q, err := DecodeQuaternion(f)
	a.fail(tag, err)
	return q
}
