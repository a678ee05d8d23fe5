// Package testutil provides shared test fixtures: little-endian field
// builders and fully populated IMU and GNSS packets with known values.
package testutil

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/banshee-data/navlog/internal/mip"
	"github.com/banshee-data/navlog/internal/nav"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// LE appends little-endian scalars to build a field.
type LE []byte

func (b LE) I8(v int8) LE     { return append(b, byte(v)) }
func (b LE) I16(v int16) LE   { return binary.LittleEndian.AppendUint16(b, uint16(v)) }
func (b LE) F32(v float32) LE { return binary.LittleEndian.AppendUint32(b, math.Float32bits(v)) }
func (b LE) F64(v float64) LE { return binary.LittleEndian.AppendUint64(b, math.Float64bits(v)) }

// Vec appends a Vector3.
func (b LE) Vec(v nav.Vector3) LE { return b.F32(v.X).F32(v.Y).F32(v.Z) }

// Field returns the built bytes as a field.
func (b LE) Field() mip.Field { return mip.Field(b) }

// WantIMU is the sample encoded by IMUFields.
func WantIMU() nav.ImuSample {
	return nav.ImuSample{
		Accel:         nav.Vector3{X: 1, Y: 2, Z: 3},
		Gyro:          nav.Vector3{X: 0.5, Y: -0.25, Z: 0.125},
		Mag:           nav.Vector3{X: 0.21, Y: -0.04, Z: 0.43},
		Baro:          101.325,
		DeltaTheta:    nav.Vector3{X: 0.001, Y: -0.002, Z: 0.003},
		DeltaVelocity: nav.Vector3{X: 0.0098, Y: 0.0001, Z: -0.0097},
		Quat:          nav.Quaternion{Q0: 0.5, Q1: -0.5, Q2: 0.5, Q3: -0.5},
		EulerAngles:   nav.Vector3{X: 0.1, Y: -0.2, Z: 3.1},
		TOW:           345600.25,
		Week:          2345,
	}
}

// IMUFields encodes WantIMU as the nine IMU fields in streaming order.
func IMUFields() []mip.TaggedField {
	s := WantIMU()
	return []mip.TaggedField{
		{Tag: nav.TagIMUAccel, Data: LE(nil).Vec(s.Accel).Field()},
		{Tag: nav.TagIMUGyro, Data: LE(nil).Vec(s.Gyro).Field()},
		{Tag: nav.TagIMUMag, Data: LE(nil).Vec(s.Mag).Field()},
		{Tag: nav.TagIMUBaro, Data: LE(nil).F32(s.Baro).Field()},
		{Tag: nav.TagIMUDeltaTheta, Data: LE(nil).Vec(s.DeltaTheta).Field()},
		{Tag: nav.TagIMUDeltaVelocity, Data: LE(nil).Vec(s.DeltaVelocity).Field()},
		{Tag: nav.TagIMUQuaternion, Data: LE(nil).F32(s.Quat.Q0).F32(s.Quat.Q1).F32(s.Quat.Q2).F32(s.Quat.Q3).Field()},
		{Tag: nav.TagIMUEulerAngles, Data: LE(nil).Vec(s.EulerAngles).Field()},
		// TOW, week, then a flags word the sample does not use.
		{Tag: nav.TagIMUGNSSTime, Data: LE(nil).F64(s.TOW).I16(s.Week).I16(0x0003).Field()},
	}
}

// WantGNSS is the fix encoded by GNSSFields.
func WantGNSS() nav.GnssFix {
	return nav.GnssFix{
		Position: nav.Position{
			Latitude: 52.3676, Longitude: 4.9041, EllipsoidAlt: 45.52, MSLAlt: 2.31,
			HorizontalAccuracy: 1.5, VerticalAccuracy: 2.25, Flags: 0x1F,
		},
		ECEFPosition: nav.ECEFPosition{X: 3888960.25, Y: 333594.5, Z: 5026756.75, Accuracy: 1.75, Flags: 0x03},
		NEDVelocity: nav.NEDVelocity{
			North: 1.25, East: -0.5, Down: 0.05, Speed: 1.35, GroundSpeed: 1.346,
			Heading: 338.2, SpeedAccuracy: 0.2, HeadingAccuracy: 4.5, Flags: 0x3F,
		},
		ECEFVelocity: nav.ECEFVelocity{X: -0.75, Y: 0.5, Z: 1.125, Accuracy: 0.3, Flags: 0x03},
		DOP: nav.DOP{
			GDOP: 1.9, PDOP: 1.6, HDOP: 0.9, VDOP: 1.3, TDOP: 0.95, NDOP: 0.6, EDOP: 0.7, Flags: 0x7F,
		},
		Time:    nav.GNSSTime{TOW: 345600.5, Week: 2345, Flags: 0x03},
		FixInfo: nav.FixInfo{FixType: 0, SVs: 14, FixFlags: 0x0003, Valid: 0x0007},
	}
}

// GNSSFields encodes WantGNSS as the seven GNSS fields.
func GNSSFields() []mip.TaggedField {
	g := WantGNSS()
	return []mip.TaggedField{
		{Tag: nav.TagGNSSPosition, Data: LE(nil).
			F64(g.Position.Latitude).F64(g.Position.Longitude).
			F64(g.Position.EllipsoidAlt).F64(g.Position.MSLAlt).
			F32(g.Position.HorizontalAccuracy).F32(g.Position.VerticalAccuracy).
			I16(g.Position.Flags).Field()},
		{Tag: nav.TagGNSSECEFPosition, Data: LE(nil).
			F64(g.ECEFPosition.X).F64(g.ECEFPosition.Y).F64(g.ECEFPosition.Z).
			F32(g.ECEFPosition.Accuracy).I16(g.ECEFPosition.Flags).Field()},
		{Tag: nav.TagGNSSNEDVelocity, Data: LE(nil).
			F32(g.NEDVelocity.North).F32(g.NEDVelocity.East).F32(g.NEDVelocity.Down).
			F32(g.NEDVelocity.Speed).F32(g.NEDVelocity.GroundSpeed).F32(g.NEDVelocity.Heading).
			F32(g.NEDVelocity.SpeedAccuracy).F32(g.NEDVelocity.HeadingAccuracy).
			I16(g.NEDVelocity.Flags).Field()},
		{Tag: nav.TagGNSSECEFVelocity, Data: LE(nil).
			F32(g.ECEFVelocity.X).F32(g.ECEFVelocity.Y).F32(g.ECEFVelocity.Z).
			F32(g.ECEFVelocity.Accuracy).I16(g.ECEFVelocity.Flags).Field()},
		{Tag: nav.TagGNSSDOP, Data: LE(nil).
			F32(g.DOP.GDOP).F32(g.DOP.PDOP).F32(g.DOP.HDOP).F32(g.DOP.VDOP).
			F32(g.DOP.TDOP).F32(g.DOP.NDOP).F32(g.DOP.EDOP).I16(g.DOP.Flags).Field()},
		{Tag: nav.TagGNSSTime, Data: LE(nil).F64(g.Time.TOW).I16(g.Time.Week).I16(g.Time.Flags).Field()},
		{Tag: nav.TagGNSSFixInfo, Data: LE(nil).
			I8(int8(g.FixInfo.FixType)).I8(int8(g.FixInfo.SVs)).
			I16(g.FixInfo.FixFlags).I16(g.FixInfo.Valid).Field()},
	}
}

// Packet builds a packet from fields, failing the test on duplicate tags.
func Packet(t testing.TB, descriptor uint8, fields []mip.TaggedField) *mip.Packet {
	t.Helper()
	pkt, err := mip.NewPacket(descriptor, fields...)
	if err != nil {
		t.Fatalf("NewPacket() error = %v", err)
	}
	return pkt
}

// Frame encodes fields as a wire frame, failing the test on error.
func Frame(t testing.TB, descriptor uint8, fields []mip.TaggedField) []byte {
	t.Helper()
	b, err := mip.Encode(descriptor, fields...)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return b
}

// Without returns a copy of fields with tag removed.
func Without(fields []mip.TaggedField, tag uint8) []mip.TaggedField {
	out := make([]mip.TaggedField, 0, len(fields))
	for _, f := range fields {
		if f.Tag != tag {
			out = append(out, f)
		}
	}
	return out
}

// Truncated returns a copy of fields with tag's data cut to n bytes.
func Truncated(fields []mip.TaggedField, tag uint8, n int) []mip.TaggedField {
	out := make([]mip.TaggedField, len(fields))
	copy(out, fields)
	for i, f := range out {
		if f.Tag == tag {
			out[i].Data = append(mip.Field(nil), f.Data[:n]...)
		}
	}
	return out
}

// Replaced returns a copy of fields with tag's data swapped for data.
func Replaced(fields []mip.TaggedField, tag uint8, data mip.Field) []mip.TaggedField {
	out := make([]mip.TaggedField, len(fields))
	copy(out, fields)
	for i, f := range out {
		if f.Tag == tag {
			out[i].Data = data
		}
	}
	return out
}
