package paths

import (
	"os"
	"path/filepath"
)

// FindProjectRoot walks upward from the directory containing filePath
// looking for any of markers. The nearest ancestor directory containing a
// marker wins; if none is found, fallbackRoot (the workspace root) is
// returned, per C1 / §4.1.
func FindProjectRoot(filePath string, markers []string, fallbackRoot string) string {
	dir := filePath
	if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
		dir = filepath.Dir(filePath)
	} else if err != nil {
		dir = filepath.Dir(filePath)
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return fallbackRoot
	}

	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return fallbackRoot
}
