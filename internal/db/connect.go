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
			dsn = "file:mailstudy.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/mailstudy?sslmode=disable"
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
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  email_id TEXT NOT NULL,
  participant_id TEXT NOT NULL,
  mode TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS submissions_participant_idx
  ON submissions(participant_id, email_id);

CREATE TABLE IF NOT EXISTS solutions (
  email_id TEXT NOT NULL,
  question_id TEXT NOT NULL,
  entry_json TEXT NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (email_id, question_id)
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  email_id TEXT NOT NULL,
  participant_id TEXT NOT NULL,
  mode TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS submissions_participant_idx
  ON submissions(participant_id, email_id);

CREATE TABLE IF NOT EXISTS solutions (
  email_id TEXT NOT NULL,
  question_id TEXT NOT NULL,
  entry_json TEXT NOT NULL,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY (email_id, question_id)
);
`
