package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PurgeContents removes everything inside dir, hidden entries included,
// and leaves dir itself in place. A missing dir is not an error. Paths in
// protected are refused outright.
func PurgeContents(dir string, protected []string) (int, error) {
	clean := filepath.Clean(dir)
	if !filepath.IsAbs(clean) {
		return 0, fmt.Errorf("refusing to purge relative path %q", dir)
	}
	for _, p := range protected {
		if clean == filepath.Clean(p) {
			return 0, fmt.Errorf("refusing to purge protected path %q", clean)
		}
	}

	entries, err := os.ReadDir(clean)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", clean, err)
	}

	removed := 0
	for _, e := range entries {
		target := filepath.Join(clean, e.Name())
		if err := os.RemoveAll(target); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", target, err)
		}
		removed++
	}
	return removed, nil
}
