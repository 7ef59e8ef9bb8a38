// Package refdata loads the canonical disease-symptom reference dataset used
// for matching and synthetic generation. The dataset arrives either as a local
// CSV/JSON file or is fetched once from a remote dataset endpoint and cached
// on disk.
package refdata

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one canonical disease with its symptom description.
// Code and Treatments are carried through when the source provides them.
type Entry struct {
	Name       string `json:"Name"`
	Symptoms   string `json:"Symptoms"`
	Code       string `json:"Code,omitempty"`
	Treatments string `json:"Treatments,omitempty"`
}

// Load reads a reference dataset, dispatching on file extension.
// .json loads via LoadJSON; everything else is treated as CSV.
func Load(path string) ([]Entry, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(path)
	}
	return LoadCSV(path)
}

// LoadCSV reads entries from a CSV file with at least Name and Symptoms
// columns. Header matching is case-insensitive.
func LoadCSV(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read reference header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameIdx, ok := cols["name"]
	if !ok {
		return nil, fmt.Errorf("reference dataset %s: missing Name column", path)
	}
	sympIdx, hasSymp := cols["symptoms"]
	codeIdx, hasCode := cols["code"]
	treatIdx, hasTreat := cols["treatments"]

	var entries []Entry
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read reference row: %w", err)
		}
		e := Entry{Name: field(rec, nameIdx)}
		if hasSymp {
			e.Symptoms = field(rec, sympIdx)
		}
		if hasCode {
			e.Code = field(rec, codeIdx)
		}
		if hasTreat {
			e.Treatments = field(rec, treatIdx)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadJSON reads entries from a JSON file. Two shapes are accepted: the
// dataset-server style wrapper {"rows": [{"row": {...}}, ...]} and a plain
// array of entries.
func LoadJSON(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference dataset: %w", err)
	}
	defer f.Close()

	var wrapper struct {
		Rows []struct {
			Row Entry `json:"row"`
		} `json:"rows"`
	}
	dec := json.NewDecoder(f)
	if err := dec.Decode(&wrapper); err == nil && len(wrapper.Rows) > 0 {
		entries := make([]Entry, 0, len(wrapper.Rows))
		for _, r := range wrapper.Rows {
			entries = append(entries, r.Row)
		}
		return entries, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var entries []Entry
	dec = json.NewDecoder(f)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("parse reference dataset as wrapper or array: %w", err)
	}
	return entries, nil
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
