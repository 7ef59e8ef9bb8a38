package main_test

import (
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const referenceFixture = `[
	{"Name": "Diabetes", "Symptoms": "fatigue, increased thirst", "Code": "E11", "Treatments": "insulin"},
	{"Name": "Asthma", "Symptoms": "wheezing, shortness of breath", "Code": "J45", "Treatments": "inhaler"}
]`

const outcomesFixture = `Disease,Outcome Variable,Symptoms,Age,Gender,Blood Pressure,Cholesterol Level
Diabetes Type 2,Positive,fatigue,55,Female,140/90 (High),High
Diabetes,Negative,,40,Male,Normal,Normal
Unrelated Zebra Syndrome,Positive,,20,Male,Normal,Normal
`

func buildCLI(t *testing.T, tmp string) string {
	t.Helper()
	bin := filepath.Join(tmp, "medsynth.bin")
	build := exec.Command("go", "build", "-o", bin, "github.com/arclinic/medsynth/cmd/medsynth")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("failed to build CLI: %v", err)
	}
	return bin
}

func writeFixtures(t *testing.T, tmp string) (refPath, outcomesPath string) {
	t.Helper()
	refPath = filepath.Join(tmp, "reference.json")
	if err := os.WriteFile(refPath, []byte(referenceFixture), 0o644); err != nil {
		t.Fatalf("write reference fixture: %v", err)
	}
	outcomesPath = filepath.Join(tmp, "outcomes.csv")
	if err := os.WriteFile(outcomesPath, []byte(outcomesFixture), 0o644); err != nil {
		t.Fatalf("write outcomes fixture: %v", err)
	}
	return refPath, outcomesPath
}

func TestCLI_BuildOffline(t *testing.T) {
	tmp := t.TempDir()
	bin := buildCLI(t, tmp)
	refPath, outcomesPath := writeFixtures(t, tmp)

	outPath := filepath.Join(tmp, "train.csv")
	dbPath := filepath.Join(tmp, "runs.db")
	heuristicsPath := filepath.Join(tmp, "heuristics.json")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, "build",
		"--reference", refPath,
		"--outcomes", outcomesPath,
		"--heuristics", heuristicsPath,
		"--out", outPath,
		"--db", dbPath,
		"--versions", "3",
		"--profile-seed", "7",
	)
	cmd.Dir = tmp
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		t.Fatalf("cli timed out, output:\n%s", out)
	}
	if err != nil {
		t.Fatalf("cli failed: %v\noutput:\n%s", err, out)
	}
	if !strings.Contains(string(out), "build complete") {
		t.Fatalf("expected completion log, got:\n%s", out)
	}

	// Default heuristics config is materialized for editing.
	if _, err := os.Stat(heuristicsPath); err != nil {
		t.Fatalf("heuristics config not materialized: %v", err)
	}

	// CSV: header + 1 matched real row + 2 diseases * 3 synthetic versions.
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse output csv: %v", err)
	}
	if len(records) != 1+1+2*3 {
		t.Fatalf("expected header plus 7 rows, got %d records", len(records))
	}
	if records[0][0] != "input_text" || records[0][1] != "target" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	for _, rec := range records[1:] {
		if !strings.HasPrefix(rec[0], "The patient is a ") {
			t.Fatalf("unexpected input_text: %q", rec[0])
		}
		if rec[1] != "Diabetes" && rec[1] != "Asthma" {
			t.Fatalf("unexpected target: %q", rec[1])
		}
	}

	// The run is recorded with its example count.
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	var exampleCount int
	if err := db.QueryRow("SELECT example_count FROM corpus_runs").Scan(&exampleCount); err != nil {
		t.Fatalf("query run: %v", err)
	}
	if exampleCount != 7 {
		t.Fatalf("expected 7 recorded examples, got %d", exampleCount)
	}
	var stored int
	if err := db.QueryRow("SELECT COUNT(*) FROM training_examples").Scan(&stored); err != nil {
		t.Fatalf("query examples: %v", err)
	}
	if stored != 7 {
		t.Fatalf("expected 7 stored examples, got %d", stored)
	}
}

func TestCLI_Unmatched(t *testing.T) {
	tmp := t.TempDir()
	bin := buildCLI(t, tmp)
	refPath, outcomesPath := writeFixtures(t, tmp)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, "unmatched",
		"--reference", refPath,
		"--outcomes", outcomesPath,
	)
	cmd.Dir = tmp
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("cli failed: %v\noutput:\n%s", err, out)
	}
	// Diabetes is matched by the positive outcome row; Asthma is not.
	if !strings.Contains(string(out), "asthma") {
		t.Fatalf("expected asthma in unmatched report, got:\n%s", out)
	}
	if !strings.Contains(string(out), "1 of 2 reference diseases unmatched") {
		t.Fatalf("expected unmatched summary, got:\n%s", out)
	}
}

func TestCLI_MissingReferenceFails(t *testing.T) {
	tmp := t.TempDir()
	bin := buildCLI(t, tmp)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, "fetch-reference",
		"--reference", filepath.Join(tmp, "missing.json"),
	)
	cmd.Dir = tmp
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure for missing reference without url, output:\n%s", out)
	}
}
