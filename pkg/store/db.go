// Package store persists reference entries, build runs and rendered training
// examples in sqlite. Persistence is optional; the CSV output is the primary
// artifact and the database exists for auditing runs after the fact.
package store

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS reference_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	symptoms TEXT NOT NULL DEFAULT '',
	code TEXT NOT NULL DEFAULT '',
	treatments TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS corpus_runs (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	reference_count INTEGER NOT NULL DEFAULT 0,
	outcome_count INTEGER NOT NULL DEFAULT 0,
	matched_count INTEGER NOT NULL DEFAULT 0,
	synthetic_versions INTEGER NOT NULL DEFAULT 0,
	example_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS training_examples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES corpus_runs(id),
	input_text TEXT NOT NULL,
	target TEXT NOT NULL,
	source TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_training_examples_run ON training_examples(run_id);
`

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Open opens (creating if needed) the sqlite database at path and applies
// migrations.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := InitDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
