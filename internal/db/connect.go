package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:autocheck.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/autocheck?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS grading_runs (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  created_by TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  config_yaml TEXT NOT NULL,
  questions_json TEXT NOT NULL,
  weights_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_results (
  run_id TEXT NOT NULL REFERENCES grading_runs(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  submission_id TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  scores_json TEXT NOT NULL,
  penalty REAL NOT NULL DEFAULT 1,
  total INTEGER NOT NULL,
  PRIMARY KEY (run_id, submission_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,    -- BIGSERIAL in Postgres
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,                         -- e.g., RunGraded
  key TEXT NOT NULL,                         -- natural key: run id
  data TEXT NOT NULL,                        -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS grading_runs (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  created_by TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL,
  config_yaml TEXT NOT NULL,
  questions_json TEXT NOT NULL,
  weights_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_results (
  run_id TEXT NOT NULL REFERENCES grading_runs(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  submission_id TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  scores_json TEXT NOT NULL,
  penalty DOUBLE PRECISION NOT NULL DEFAULT 1,
  total INTEGER NOT NULL,
  PRIMARY KEY (run_id, submission_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
