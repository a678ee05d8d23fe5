package nav

import (
	"github.com/banshee-data/navlog/internal/mip"
)

// GNSS data field tags.
const (
	TagGNSSPosition     uint8 = 0x03
	TagGNSSECEFPosition uint8 = 0x04
	TagGNSSNEDVelocity  uint8 = 0x05
	TagGNSSECEFVelocity uint8 = 0x06
	TagGNSSDOP          uint8 = 0x07
	TagGNSSTime         uint8 = 0x09
	TagGNSSFixInfo      uint8 = 0x0B
)

// GNSSTags lists the fields a GNSS packet must carry.
var GNSSTags = []uint8{
	TagGNSSPosition,
	TagGNSSECEFPosition,
	TagGNSSNEDVelocity,
	TagGNSSECEFVelocity,
	TagGNSSDOP,
	TagGNSSTime,
	TagGNSSFixInfo,
}

// Position is the geodetic position block (field 0x03).
type Position struct {
	Latitude           float64 // degrees
	Longitude          float64 // degrees
	EllipsoidAlt       float64 // metres
	MSLAlt             float64 // metres
	HorizontalAccuracy float32
	VerticalAccuracy   float32
	Flags              int16
}

// ECEFPosition is the earth-centred position block (field 0x04).
type ECEFPosition struct {
	X, Y, Z  float64
	Accuracy float32
	Flags    int16
}

// NEDVelocity is the north-east-down velocity block (field 0x05).
type NEDVelocity struct {
	North           float32
	East            float32
	Down            float32
	Speed           float32
	GroundSpeed     float32
	Heading         float32
	SpeedAccuracy   float32
	HeadingAccuracy float32
	Flags           int16
}

// ECEFVelocity is the earth-centred velocity block (field 0x06).
type ECEFVelocity struct {
	X, Y, Z  float32
	Accuracy float32
	Flags    int16
}

// DOP is the dilution of precision block (field 0x07).
type DOP struct {
	GDOP, PDOP, HDOP, VDOP, TDOP, NDOP, EDOP float32
	Flags                                    int16
}

// GNSSTime is the GNSS time block (field 0x09).
type GNSSTime struct {
	TOW   float64
	Week  int16
	Flags int16
}

// FixInfo is the fix quality block (field 0x0B). FixType and SVs are single
// signed bytes on the wire and are sign-extended.
type FixInfo struct {
	FixType  int16
	SVs      int16
	FixFlags int16
	Valid    int16
}

// GnssFix is one decoded GNSS data packet.
type GnssFix struct {
	Position     Position
	ECEFPosition ECEFPosition
	NEDVelocity  NEDVelocity
	ECEFVelocity ECEFVelocity
	DOP          DOP
	Time         GNSSTime
	FixInfo      FixInfo
}

// AssembleGNSS decodes every GNSS field of pkt with the same all-or-nothing
// policy as AssembleIMU.
func AssembleGNSS(pkt *mip.Packet) (GnssFix, error) {
	a := &assembler{pkt: pkt}
	fix := GnssFix{
		Position: Position{
			Latitude:           read[float64](a, TagGNSSPosition, 0),
			Longitude:          read[float64](a, TagGNSSPosition, 8),
			EllipsoidAlt:       read[float64](a, TagGNSSPosition, 16),
			MSLAlt:             read[float64](a, TagGNSSPosition, 24),
			HorizontalAccuracy: read[float32](a, TagGNSSPosition, 32),
			VerticalAccuracy:   read[float32](a, TagGNSSPosition, 36),
			Flags:              read[int16](a, TagGNSSPosition, 40),
		},
		ECEFPosition: ECEFPosition{
			X:        read[float64](a, TagGNSSECEFPosition, 0),
			Y:        read[float64](a, TagGNSSECEFPosition, 8),
			Z:        read[float64](a, TagGNSSECEFPosition, 16),
			Accuracy: read[float32](a, TagGNSSECEFPosition, 24),
			Flags:    read[int16](a, TagGNSSECEFPosition, 28),
		},
		NEDVelocity: NEDVelocity{
			North:           read[float32](a, TagGNSSNEDVelocity, 0),
			East:            read[float32](a, TagGNSSNEDVelocity, 4),
			Down:            read[float32](a, TagGNSSNEDVelocity, 8),
			Speed:           read[float32](a, TagGNSSNEDVelocity, 12),
			GroundSpeed:     read[float32](a, TagGNSSNEDVelocity, 16),
			Heading:         read[float32](a, TagGNSSNEDVelocity, 20),
			SpeedAccuracy:   read[float32](a, TagGNSSNEDVelocity, 24),
			HeadingAccuracy: read[float32](a, TagGNSSNEDVelocity, 28),
			Flags:           read[int16](a, TagGNSSNEDVelocity, 32),
		},
		ECEFVelocity: ECEFVelocity{
			X:        read[float32](a, TagGNSSECEFVelocity, 0),
			Y:        read[float32](a, TagGNSSECEFVelocity, 4),
			Z:        read[float32](a, TagGNSSECEFVelocity, 8),
			Accuracy: read[float32](a, TagGNSSECEFVelocity, 12),
			Flags:    read[int16](a, TagGNSSECEFVelocity, 16),
		},
		DOP: DOP{
			GDOP:  read[float32](a, TagGNSSDOP, 0),
			PDOP:  read[float32](a, TagGNSSDOP, 4),
			HDOP:  read[float32](a, TagGNSSDOP, 8),
			VDOP:  read[float32](a, TagGNSSDOP, 12),
			TDOP:  read[float32](a, TagGNSSDOP, 16),
			NDOP:  read[float32](a, TagGNSSDOP, 20),
			EDOP:  read[float32](a, TagGNSSDOP, 24),
			Flags: read[int16](a, TagGNSSDOP, 28),
		},
		Time: GNSSTime{
			TOW:   read[float64](a, TagGNSSTime, 0),
			Week:  read[int16](a, TagGNSSTime, 8),
			Flags: read[int16](a, TagGNSSTime, 10),
		},
		FixInfo: FixInfo{
			FixType:  int16(read[int8](a, TagGNSSFixInfo, 0)),
			SVs:      int16(read[int8](a, TagGNSSFixInfo, 1)),
			FixFlags: read[int16](a, TagGNSSFixInfo, 2),
			Valid:    read[int16](a, TagGNSSFixInfo, 4),
		},
	}
	if a.err != nil {
		return GnssFix{}, a.err
	}
	return fix, nil
}
