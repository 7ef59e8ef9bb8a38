package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteCSV writes the two-column training dataset with every field quoted,
// header included. encoding/csv only quotes fields that need it, and the
// downstream training loader expects uniform quoting, so the quoting is done
// here. The file is written to a temp path and renamed into place so readers
// never observe a partial dataset.
func WriteCSV(path string, examples []TrainingExample) error {
	var sb strings.Builder
	sb.WriteString(quoteRecord("input_text", "target"))
	for _, ex := range examples {
		sb.WriteString(quoteRecord(ex.InputText, ex.Target))
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dataset dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize dataset: %w", err)
	}
	return nil
}

func quoteRecord(fields ...string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",") + "\n"
}
