// Package paths derives the per-workspace identity a daemon is addressed by:
// its socket, log, PID and updater-state files, all rooted under a
// user-local state directory and named by a stable hash of the canonical
// workspace path.
package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is the canonical absolute path a daemon is keyed on.
type Workspace string

// Canonicalize resolves dir (default: cwd) to an absolute, symlink-free path.
func Canonicalize(dir string) (Workspace, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not determine working directory: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("could not get absolute path for %q: %w", dir, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Non-existent directories still get a stable identity from the
		// absolute path; EvalSymlinks failing here is not fatal.
		resolved = abs
	}
	return Workspace(resolved), nil
}

// Hash returns a stable, deterministic identifier for the workspace, used as
// the filename stem for all derived state paths.
func (w Workspace) Hash() string {
	sum := sha256.Sum256([]byte(w))
	return hex.EncodeToString(sum[:])[:16]
}

// StateDir returns the user-local directory all daemon state lives under.
func StateDir() (string, error) {
	if dir := os.Getenv("CLI_LSP_CLIENT_STATE_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("could not determine a state directory: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "cli-lsp-client"), nil
}

// Daemons returns the registry directory holding one PID file per live
// daemon (C8).
func Daemons() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "daemons"), nil
}

// Paths bundles every derived file path for a single workspace's daemon.
type Paths struct {
	Workspace  Workspace
	Hash       string
	SocketPath string
	LogPath    string
	PIDPath    string
	UpdatePath string
}

// ForWorkspace computes all derived paths for a workspace, creating the
// containing state directory if necessary.
func ForWorkspace(ws Workspace) (*Paths, error) {
	dir, err := StateDir()
	if err != nil {
		return nil, wrapStateDirErr(err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create state directory %q: %w", dir, err)
	}

	hash := ws.Hash()
	return &Paths{
		Workspace:  ws,
		Hash:       hash,
		SocketPath: socketPath(dir, hash),
		LogPath:    filepath.Join(dir, hash+".log"),
		PIDPath:    filepath.Join(dir, hash+".pid"),
		UpdatePath: filepath.Join(dir, hash+".update.json"),
	}, nil
}

func wrapStateDirErr(err error) error {
	return fmt.Errorf("could not resolve state directory: %w", err)
}
