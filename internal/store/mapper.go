package store

import (
	"github.com/banshee-data/navlog/internal/nav"
)

// Column describes one column of an insert. Composite columns group Arity
// consecutive arguments into a single structured value whose fields all have
// SQL type ElemType.
type Column struct {
	Name     string
	Type     string
	ElemType string
	Arity    int
}

// Composite reports whether the column holds a structured row value.
func (c Column) Composite() bool { return c.Arity > 1 }

// Row is one record ready to insert: the table, its columns in schema order
// and the flat argument list those columns consume, in the same order.
type Row struct {
	Table   string
	Columns []Column
	Args    []any
}

// Table names.
const (
	TableIMU  = "imu_data"
	TableGNSS = "gnss_data"
)

const (
	sqlReal     = "real"
	sqlDouble   = "double precision"
	sqlSmallint = "smallint"
)

func scalar(name, typ string) Column { return Column{Name: name, Type: typ, Arity: 1} }

func vector3(name string) Column {
	return Column{Name: name, Type: "real3d", ElemType: sqlReal, Arity: 3}
}

func quaternion(name string) Column {
	return Column{Name: name, Type: "quaternion", ElemType: sqlReal, Arity: 4}
}

var imuColumns = []Column{
	vector3("accel"),
	vector3("gyro"),
	vector3("mag"),
	scalar("baro", sqlReal),
	vector3("delta_theta"),
	vector3("delta_velocity"),
	quaternion("quat"),
	vector3("euler_angles"),
	scalar("tow", sqlDouble),
	scalar("week", sqlSmallint),
}

var gnssColumns = []Column{
	scalar("latitude", sqlDouble),
	scalar("longitude", sqlDouble),
	scalar("ellipsoid_alt", sqlDouble),
	scalar("msl_alt", sqlDouble),
	scalar("horizontal_accuracy", sqlReal),
	scalar("vertical_accuracy", sqlReal),
	scalar("llh_flags", sqlSmallint),

	scalar("ecefp_x", sqlDouble),
	scalar("ecefp_y", sqlDouble),
	scalar("ecefp_z", sqlDouble),
	scalar("ecefp_accuracy", sqlReal),
	scalar("ecefp_flags", sqlSmallint),

	scalar("ned_north", sqlReal),
	scalar("ned_east", sqlReal),
	scalar("ned_down", sqlReal),
	scalar("ned_speed", sqlReal),
	scalar("ned_ground_speed", sqlReal),
	scalar("ned_heading", sqlReal),
	scalar("ned_speed_accuracy", sqlReal),
	scalar("ned_heading_accuracy", sqlReal),
	scalar("ned_flags", sqlSmallint),

	scalar("ecefv_x", sqlReal),
	scalar("ecefv_y", sqlReal),
	scalar("ecefv_z", sqlReal),
	scalar("ecefv_accuracy", sqlReal),
	scalar("ecefv_flags", sqlSmallint),

	scalar("gdop", sqlReal),
	scalar("pdop", sqlReal),
	scalar("hdop", sqlReal),
	scalar("vdop", sqlReal),
	scalar("tdop", sqlReal),
	scalar("ndop", sqlReal),
	scalar("edop", sqlReal),
	scalar("dop_flags", sqlSmallint),

	scalar("tow", sqlDouble),
	scalar("week", sqlSmallint),
	scalar("time_flags", sqlSmallint),

	scalar("fix_type", sqlSmallint),
	scalar("svs", sqlSmallint),
	scalar("fix_flags", sqlSmallint),
	scalar("fix_valid", sqlSmallint),
}

func vec(v nav.Vector3) []any { return []any{v.X, v.Y, v.Z} }

// IMURow maps a sample to its imu_data row: 25 arguments over 10 columns.
func IMURow(s nav.ImuSample) Row {
	args := make([]any, 0, 25)
	args = append(args, vec(s.Accel)...)
	args = append(args, vec(s.Gyro)...)
	args = append(args, vec(s.Mag)...)
	args = append(args, s.Baro)
	args = append(args, vec(s.DeltaTheta)...)
	args = append(args, vec(s.DeltaVelocity)...)
	args = append(args, s.Quat.Q0, s.Quat.Q1, s.Quat.Q2, s.Quat.Q3)
	args = append(args, vec(s.EulerAngles)...)
	args = append(args, s.TOW, s.Week)
	return Row{Table: TableIMU, Columns: imuColumns, Args: args}
}

// GNSSRow maps a fix to its gnss_data row: 41 scalar arguments.
func GNSSRow(f nav.GnssFix) Row {
	p, ep, nv, ev, d, tm, fi := f.Position, f.ECEFPosition, f.NEDVelocity, f.ECEFVelocity, f.DOP, f.Time, f.FixInfo
	return Row{
		Table:   TableGNSS,
		Columns: gnssColumns,
		Args: []any{
			p.Latitude, p.Longitude, p.EllipsoidAlt, p.MSLAlt, p.HorizontalAccuracy, p.VerticalAccuracy, p.Flags,
			ep.X, ep.Y, ep.Z, ep.Accuracy, ep.Flags,
			nv.North, nv.East, nv.Down, nv.Speed, nv.GroundSpeed, nv.Heading, nv.SpeedAccuracy, nv.HeadingAccuracy, nv.Flags,
			ev.X, ev.Y, ev.Z, ev.Accuracy, ev.Flags,
			d.GDOP, d.PDOP, d.HDOP, d.VDOP, d.TDOP, d.NDOP, d.EDOP, d.Flags,
			tm.TOW, tm.Week, tm.Flags,
			fi.FixType, fi.SVs, fi.FixFlags, fi.Valid,
		},
	}
}

// Arity returns the number of arguments the row's columns consume.
func (r Row) Arity() int {
	n := 0
	for _, c := range r.Columns {
		n += c.Arity
	}
	return n
}
