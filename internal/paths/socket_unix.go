//go:build !windows

package paths

import "path/filepath"

// socketPath returns the unix domain socket path for a workspace hash.
// Kept short (the hash is truncated in Workspace.Hash) because unix socket
// paths are limited to ~104 bytes on most platforms (sun_path).
func socketPath(stateDir, hash string) string {
	return filepath.Join(stateDir, hash+".sock")
}
