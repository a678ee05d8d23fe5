package nav

import (
	"github.com/banshee-data/navlog/internal/mip"
)

// IMU data field tags.
const (
	TagIMUAccel         uint8 = 0x04
	TagIMUGyro          uint8 = 0x05
	TagIMUMag           uint8 = 0x06
	TagIMUDeltaTheta    uint8 = 0x07
	TagIMUDeltaVelocity uint8 = 0x08
	TagIMUQuaternion    uint8 = 0x0A
	TagIMUEulerAngles   uint8 = 0x0C
	TagIMUGNSSTime      uint8 = 0x12
	TagIMUBaro          uint8 = 0x17
)

// IMUTags lists the fields an IMU packet must carry, in the order the device
// is asked to stream them.
var IMUTags = []uint8{
	TagIMUAccel,
	TagIMUGyro,
	TagIMUMag,
	TagIMUBaro,
	TagIMUDeltaTheta,
	TagIMUDeltaVelocity,
	TagIMUQuaternion,
	TagIMUEulerAngles,
	TagIMUGNSSTime,
}

// ImuSample is one decoded IMU data packet.
type ImuSample struct {
	Accel         Vector3
	Gyro          Vector3
	Mag           Vector3
	Baro          float32
	DeltaTheta    Vector3
	DeltaVelocity Vector3
	Quat          Quaternion
	EulerAngles   Vector3
	TOW           float64 // seconds into the GNSS week
	Week          int16
}

// AssembleIMU decodes every IMU field of pkt. If any field is missing or
// too short, the zero sample is returned with a *MissingFieldError or
// *FieldDecodeError naming the first offending tag.
func AssembleIMU(pkt *mip.Packet) (ImuSample, error) {
	a := &assembler{pkt: pkt}
	s := ImuSample{
		Accel:         vector3(a, TagIMUAccel),
		Gyro:          vector3(a, TagIMUGyro),
		Mag:           vector3(a, TagIMUMag),
		Baro:          read[float32](a, TagIMUBaro, 0),
		DeltaTheta:    vector3(a, TagIMUDeltaTheta),
		DeltaVelocity: vector3(a, TagIMUDeltaVelocity),
		Quat:          quaternion(a, TagIMUQuaternion),
		EulerAngles:   vector3(a, TagIMUEulerAngles),
		// Both come from the same GNSS time field.
		TOW:  read[float64](a, TagIMUGNSSTime, 0),
		Week: read[int16](a, TagIMUGNSSTime, 8),
	}
	if a.err != nil {
		return ImuSample{}, a.err
	}
	return s, nil
}
