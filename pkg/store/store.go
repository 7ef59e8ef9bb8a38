package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arclinic/medsynth/pkg/dataset"
	"github.com/arclinic/medsynth/pkg/refdata"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Run is one dataset build, identified by a UUID so runs from different
// machines can be merged without id collisions.
type Run struct {
	ID                string
	CreatedAt         time.Time
	ReferenceCount    int
	OutcomeCount      int
	MatchedCount      int
	SyntheticVersions int
	ExampleCount      int
}

// NewRun allocates a run record with a fresh UUID. The record is not persisted
// until CreateRun.
func NewRun(referenceCount, outcomeCount, matchedCount, syntheticVersions int) Run {
	return Run{
		ID:                uuid.NewString(),
		CreatedAt:         time.Now().UTC(),
		ReferenceCount:    referenceCount,
		OutcomeCount:      outcomeCount,
		MatchedCount:      matchedCount,
		SyntheticVersions: syntheticVersions,
	}
}

// UpsertReferenceEntry inserts a reference disease or refreshes its fields,
// returning the row id. Empty incoming fields never clobber existing data.
func UpsertReferenceEntry(db DBExecutor, e refdata.Entry) (int64, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return 0, fmt.Errorf("reference entry name must be non-empty")
	}

	var id int64
	query := `INSERT INTO reference_entries (name, symptoms, code, treatments)
			  VALUES (?, ?, ?, ?)
			  ON CONFLICT(name)
			  DO UPDATE SET
			    symptoms = COALESCE(NULLIF(excluded.symptoms, ''), reference_entries.symptoms),
				code = COALESCE(NULLIF(excluded.code, ''), reference_entries.code),
				treatments = COALESCE(NULLIF(excluded.treatments, ''), reference_entries.treatments)
			  RETURNING id`

	err := db.QueryRow(query, name, e.Symptoms, e.Code, e.Treatments).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert reference entry: %w", err)
	}
	return id, nil
}

// ListReferenceEntries returns every stored reference disease in name order.
func ListReferenceEntries(db DBExecutor) ([]refdata.Entry, error) {
	rows, err := db.Query(`SELECT name, symptoms, code, treatments FROM reference_entries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []refdata.Entry
	for rows.Next() {
		var e refdata.Entry
		if err := rows.Scan(&e.Name, &e.Symptoms, &e.Code, &e.Treatments); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRun persists a run record.
func CreateRun(db DBExecutor, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id must be non-empty")
	}
	_, err := db.Exec(
		`INSERT INTO corpus_runs (id, created_at, reference_count, outcome_count, matched_count, synthetic_versions, example_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.ReferenceCount, run.OutcomeCount, run.MatchedCount, run.SyntheticVersions, run.ExampleCount,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// GetRun loads a run record by id.
func GetRun(db DBExecutor, id string) (Run, error) {
	var r Run
	err := db.QueryRow(
		`SELECT id, created_at, reference_count, outcome_count, matched_count, synthetic_versions, example_count
		 FROM corpus_runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.CreatedAt, &r.ReferenceCount, &r.OutcomeCount, &r.MatchedCount, &r.SyntheticVersions, &r.ExampleCount)
	if err != nil {
		return Run{}, err
	}
	return r, nil
}

// FinishRun records the final example count for a run.
func FinishRun(db DBExecutor, id string, exampleCount int) error {
	res, err := db.Exec(`UPDATE corpus_runs SET example_count = ? WHERE id = ?`, exampleCount, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finish run: no run with id %s", id)
	}
	return nil
}

// InsertExample stores one rendered training example for a run.
func InsertExample(db DBExecutor, runID string, ex dataset.TrainingExample) error {
	if runID == "" {
		return fmt.Errorf("run id must be non-empty")
	}
	_, err := db.Exec(
		`INSERT INTO training_examples (run_id, input_text, target, source) VALUES (?, ?, ?, ?)`,
		runID, ex.InputText, ex.Target, ex.Source,
	)
	return err
}

// ExamplesByRun returns the stored examples for a run in insertion order.
func ExamplesByRun(db DBExecutor, runID string) ([]dataset.TrainingExample, error) {
	rows, err := db.Query(
		`SELECT input_text, target, source FROM training_examples WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dataset.TrainingExample
	for rows.Next() {
		var ex dataset.TrainingExample
		if err := rows.Scan(&ex.InputText, &ex.Target, &ex.Source); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountExamplesBySource returns per-provenance example counts for a run.
func CountExamplesBySource(db DBExecutor, runID string) (map[string]int, error) {
	rows, err := db.Query(
		`SELECT source, COUNT(*) FROM training_examples WHERE run_id = ? GROUP BY source`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return nil, err
		}
		out[src] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
