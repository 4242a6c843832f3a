//go:build windows

package paths

import "fmt"

// socketPath returns the named pipe path for a workspace hash on Windows.
func socketPath(_stateDir, hash string) string {
	return fmt.Sprintf(`\\.\pipe\cli-lsp-client-%s`, hash)
}
