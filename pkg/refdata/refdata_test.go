package refdata

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "ref.csv",
		"Code,Name,Symptoms,Treatments\n"+
			"A01,Diabetes,\"fatigue, thirst\",insulin\n"+
			"A02,Migraine,headache,\n")
	entries, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "Diabetes" || entries[0].Symptoms != "fatigue, thirst" || entries[0].Code != "A01" || entries[0].Treatments != "insulin" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Name != "Migraine" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestLoadCSV_CaseInsensitiveHeader(t *testing.T) {
	path := writeFile(t, "ref.csv", "name,symptoms\nFlu,fever\n")
	entries, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "Flu" || entries[0].Symptoms != "fever" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLoadCSV_MissingNameColumn(t *testing.T) {
	path := writeFile(t, "ref.csv", "Disease,Symptoms\nFlu,fever\n")
	if _, err := LoadCSV(path); err == nil {
		t.Fatal("expected error for missing Name column")
	}
}

func TestLoadJSON_WrapperShape(t *testing.T) {
	path := writeFile(t, "ref.json",
		`{"rows":[{"row":{"Name":"Diabetes","Symptoms":"fatigue, thirst"}},{"row":{"Name":"Asthma","Symptoms":"wheezing"}}]}`)
	entries, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "Diabetes" || entries[1].Symptoms != "wheezing" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLoadJSON_ArrayShape(t *testing.T) {
	path := writeFile(t, "ref.json",
		`[{"Name":"Diabetes","Symptoms":"fatigue"},{"Name":"Asthma","Symptoms":"wheezing"}]`)
	entries, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if len(entries) != 2 || entries[1].Name != "Asthma" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLoadJSON_Garbage(t *testing.T) {
	path := writeFile(t, "ref.json", `not json at all`)
	if _, err := LoadJSON(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_DispatchesOnExtension(t *testing.T) {
	jsonPath := writeFile(t, "ref.json", `[{"Name":"Flu","Symptoms":"fever"}]`)
	entries, err := Load(jsonPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "Flu" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	csvPath := writeFile(t, "ref.csv", "Name,Symptoms\nFlu,fever\n")
	entries, err = Load(csvPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].Symptoms != "fever" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
