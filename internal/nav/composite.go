package nav

import (
	"fmt"

	"github.com/banshee-data/navlog/internal/mip"
)

// Vector3 is a 12-byte triple of float32 at offsets 0, 4 and 8.
type Vector3 struct {
	X, Y, Z float32
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Quaternion is a 16-byte quadruple of float32 at offsets 0, 4, 8 and 12.
type Quaternion struct {
	Q0, Q1, Q2, Q3 float32
}

func (q Quaternion) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", q.Q0, q.Q1, q.Q2, q.Q3)
}

// DecodeVector3 reads a Vector3 from the start of f.
func DecodeVector3(f mip.Field) (Vector3, error) {
	var v Vector3
	var err error
	if v.X, err = Extract[float32](f, 0); err != nil {
		return Vector3{}, err
	}
	if v.Y, err = Extract[float32](f, 4); err != nil {
		return Vector3{}, err
	}
	if v.Z, err = Extract[float32](f, 8); err != nil {
		return Vector3{}, err
	}
	return v, nil
}

// DecodeQuaternion reads a Quaternion from the start of f.
func DecodeQuaternion(f mip.Field) (Quaternion, error) {
	var q Quaternion
	var err error
	if q.Q0, err = Extract[float32](f, 0); err != nil {
		return Quaternion{}, err
	}
	if q.Q1, err = Extract[float32](f, 4); err != nil {
		return Quaternion{}, err
	}
	if q.Q2, err = Extract[float32](f, 8); err != nil {
		return Quaternion{}, err
	}
	if q.Q3, err = Extract[float32](f, 12); err != nil {
		return Quaternion{}, err
	}
	return q, nil
}
