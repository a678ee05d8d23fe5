// Package store persists decoded navigation records to a relational
// database. Postgres is the production target; SQLite is supported for
// bench work and tests.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DB wraps a database handle with the dialect used to render inserts.
type DB struct {
	*sql.DB
	dialect Dialect
	source  string

	mu      sync.Mutex
	inserts map[string]string
}

// Open connects to the database named by driver ("postgres" or "sqlite")
// and dsn. The schema is not touched; call MigrateUp.
func Open(driver, dsn string) (*DB, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.Name(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.Name(), err)
	}
	if d.Name() == "sqlite" {
		// One writer; avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}
	return &DB{DB: db, dialect: d, source: dsn, inserts: make(map[string]string)}, nil
}

// Dialect returns the dialect this database renders inserts with.
func (db *DB) Dialect() Dialect { return db.dialect }

func (db *DB) insertSQL(row Row) string {
	db.mu.Lock()
	defer db.mu.Unlock()
	q, ok := db.inserts[row.Table]
	if !ok {
		q = InsertSQL(db.dialect, row.Table, row.Columns)
		db.inserts[row.Table] = q
	}
	return q
}

// Insert writes one row. Failures are returned as *WriteError.
func (db *DB) Insert(ctx context.Context, row Row) error {
	if row.Arity() != len(row.Args) {
		return &WriteError{Table: row.Table, Err: fmt.Errorf("row has %d args, columns need %d", len(row.Args), row.Arity())}
	}
	args := make([]any, len(row.Args))
	for i, a := range row.Args {
		args[i] = db.dialect.Bind(a)
	}
	if _, err := db.ExecContext(ctx, db.insertSQL(row), args...); err != nil {
		return &WriteError{Table: row.Table, Err: err, Transient: isTransient(err)}
	}
	return nil
}

// RunStats summarises one ingestion run.
type RunStats struct {
	Packets      uint64 `json:"packets"`
	IMURows      uint64 `json:"imu_rows"`
	GNSSRows     uint64 `json:"gnss_rows"`
	Ignored      uint64 `json:"ignored"`
	DecodeErrors uint64 `json:"decode_errors"`
	WriteErrors  uint64 `json:"write_errors"`
}

// BeginRun records the start of an ingestion run.
func (db *DB) BeginRun(ctx context.Context, id uuid.UUID, source string) error {
	q := fmt.Sprintf("INSERT INTO ingest_runs (id, source, started_at) VALUES (%s, %s, %s)",
		db.dialect.Placeholder(1, "uuid"), db.dialect.Placeholder(2, "text"), db.dialect.Placeholder(3, "timestamptz"))
	if _, err := db.ExecContext(ctx, q, id.String(), source, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a run.
func (db *DB) FinishRun(ctx context.Context, id uuid.UUID, stats RunStats) error {
	ph := func(n int, typ string) string { return db.dialect.Placeholder(n, typ) }
	q := fmt.Sprintf(`UPDATE ingest_runs SET
			finished_at = %s, packets = %s, imu_rows = %s, gnss_rows = %s,
			ignored = %s, decode_errors = %s, write_errors = %s
		WHERE id = %s`,
		ph(1, "timestamptz"), ph(2, "bigint"), ph(3, "bigint"), ph(4, "bigint"),
		ph(5, "bigint"), ph(6, "bigint"), ph(7, "bigint"), ph(8, "uuid"))
	_, err := db.ExecContext(ctx, q,
		time.Now().UTC(), int64(stats.Packets), int64(stats.IMURows), int64(stats.GNSSRows),
		int64(stats.Ignored), int64(stats.DecodeErrors), int64(stats.WriteErrors), id.String())
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	return nil
}

// Run is one row of ingest_runs.
type Run struct {
	ID         string       `json:"id"`
	Source     string       `json:"source"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt sql.NullTime `json:"finished_at"`
	RunStats
}

// RecentRuns returns the latest runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	q := fmt.Sprintf(`SELECT id, source, started_at, finished_at, packets, imu_rows, gnss_rows,
			ignored, decode_errors, write_errors
		FROM ingest_runs ORDER BY started_at DESC LIMIT %s`, db.dialect.Placeholder(1, "integer"))
	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var packets, imu, gnss, ignored, decodeErrs, writeErrs int64
		if err := rows.Scan(&r.ID, &r.Source, &r.StartedAt, &r.FinishedAt,
			&packets, &imu, &gnss, &ignored, &decodeErrs, &writeErrs); err != nil {
			return nil, err
		}
		r.RunStats = RunStats{
			Packets: uint64(packets), IMURows: uint64(imu), GNSSRows: uint64(gnss),
			Ignored: uint64(ignored), DecodeErrors: uint64(decodeErrs), WriteErrors: uint64(writeErrs),
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Count returns the number of rows in table.
func (db *DB) Count(ctx context.Context, table string) (int64, error) {
	switch table {
	case TableIMU, TableGNSS, "ingest_runs":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int64
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}
