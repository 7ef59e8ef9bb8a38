package refdata

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// EnsureDataset checks that the reference dataset exists at path. If not, it
// downloads it from url (decompressing gzip payloads) and writes it atomically.
// An existing file is never re-fetched.
func EnsureDataset(ctx context.Context, path, url string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if url == "" {
		return fmt.Errorf("reference dataset missing at %s and no download url configured", path)
	}
	return download(ctx, url, path)
}

func download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "medsynth-cli")
	req.Header.Set("Accept", "application/json, text/csv;q=0.9, */*;q=0.5")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download reference dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download reference dataset: status %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if isGzip(resp, url) {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	// Write to a temp file first so a failed download never leaves a partial
	// dataset behind.
	tmp := destPath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("write dataset file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, destPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize dataset file: %w", err)
	}
	return nil
}

func isGzip(resp *http.Response, url string) bool {
	if strings.Contains(resp.Header.Get("Content-Type"), "gzip") {
		return true
	}
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		// net/http strips this header when it decompressed the body itself;
		// seeing it here means the payload is still compressed.
		return !resp.Uncompressed
	}
	return strings.HasSuffix(url, ".gz")
}
