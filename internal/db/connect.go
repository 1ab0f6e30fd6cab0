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

// Open opens a DB and ensures the OTP schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:quizgate.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/quizgate?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
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
CREATE TABLE IF NOT EXISTS otp_records (
  test_id TEXT NOT NULL,
  otp TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  used INTEGER NOT NULL DEFAULT 0,
  used_at TEXT,
  PRIMARY KEY (test_id, otp)
);

CREATE TABLE IF NOT EXISTS otp_map (
  otp TEXT PRIMARY KEY,
  test_id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT ''
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS otp_records (
  test_id TEXT NOT NULL,
  otp TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  used BOOLEAN NOT NULL DEFAULT FALSE,
  used_at TEXT,
  PRIMARY KEY (test_id, otp)
);

CREATE TABLE IF NOT EXISTS otp_map (
  otp TEXT PRIMARY KEY,
  test_id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT ''
);
`
