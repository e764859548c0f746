package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveFile writes res into dir under res.Name and returns the path. Data is
// written to a temporary file first, so a failed save leaves nothing behind.
func SaveFile(dir string, res *Result) (string, error) {
	if res == nil || len(res.PNG) == 0 {
		return "", fmt.Errorf("export: save: empty result")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create output directory: %w", err)
	}

	path := filepath.Join(dir, res.Name)
	tmp, err := os.CreateTemp(dir, "."+res.Name+".*")
	if err != nil {
		return "", fmt.Errorf("export: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(res.PNG); err != nil {
		tmp.Close()
		return "", fmt.Errorf("export: write %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("export: write %q: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("export: save %q: %w", path, err)
	}
	return path, nil
}
