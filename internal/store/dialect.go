package store

import (
	"fmt"
	"math"
	"strings"
)

// Dialect renders inserts for one storage engine.
type Dialect interface {
	// Name is the database/sql driver name.
	Name() string
	// Placeholder returns the parameter marker for the n-th (1-based)
	// argument of a statement.
	Placeholder(n int, sqlType string) string
	// Composite renders a structured value from already rendered
	// placeholders.
	Composite(c Column, placeholders []string) string
	// Bind converts a row argument into the value handed to the driver.
	Bind(arg any) any
}

// Postgres stores vectors and quaternions in the composite types real3d and
// quaternion.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Placeholder(n int, sqlType string) string {
	return fmt.Sprintf("$%d::%s", n, sqlType)
}

func (Postgres) Composite(c Column, placeholders []string) string {
	return fmt.Sprintf("ROW(%s)::%s", strings.Join(placeholders, ", "), c.Type)
}

// Bind passes arguments through; real and double precision hold NaN and
// infinities natively.
func (Postgres) Bind(arg any) any { return arg }

// SQLite has no composite types; structured values are stored as JSON
// arrays, keeping one column per vector.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Placeholder(int, string) string { return "?" }

func (SQLite) Composite(_ Column, placeholders []string) string {
	return fmt.Sprintf("json_array(%s)", strings.Join(placeholders, ", "))
}

// Bind stores non-finite floats as text tokens: SQLite turns a bound NaN
// into NULL and JSON has no spelling for NaN or infinity. Read them back
// with Float32Value, Float64Value or Float32Array.
func (SQLite) Bind(arg any) any {
	switch v := arg.(type) {
	case float32:
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return formatNonFinite32(v)
		}
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return formatNonFinite64(v)
		}
	}
	return arg
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "postgresql":
		return Postgres{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q: expected postgres or sqlite", driver)
	}
}

// InsertSQL renders the INSERT statement for a row's columns.
func InsertSQL(d Dialect, table string, columns []Column) string {
	names := make([]string, len(columns))
	values := make([]string, len(columns))
	n := 1
	for i, c := range columns {
		names[i] = c.Name
		if !c.Composite() {
			values[i] = d.Placeholder(n, c.Type)
			n++
			continue
		}
		ph := make([]string, c.Arity)
		for j := range ph {
			ph[j] = d.Placeholder(n, c.ElemType)
			n++
		}
		values[i] = d.Composite(c, ph)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), strings.Join(values, ", "))
}
