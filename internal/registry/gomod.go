package registry

import (
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// GoModulePath reads the module path out of the go.mod at projectRoot, for
// richer `status` display than a bare "found go.mod" boolean. It
// returns "" if projectRoot has no go.mod or it fails to parse.
func GoModulePath(projectRoot string) string {
	path := filepath.Join(projectRoot, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	f, err := modfile.Parse(path, data, nil)
	if err != nil || f.Module == nil {
		return ""
	}
	return f.Module.Mod.Path
}
