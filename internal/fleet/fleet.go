// Package fleet implements the cross-daemon registry (§4.8): one PID file
// per live daemon under the user state directory, used by `list` and
// `stop-all` to enumerate every daemon regardless of which workspace
// started this particular client process.
package fleet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/eli0shin/cli-lsp-client/internal/paths"
)

// Entry is one daemon's registration record (§4.8: "workspace path, PID,
// socket path, start time, and version").
type Entry struct {
	Hash      string    `json:"hash"`
	Workspace string    `json:"workspace"`
	PID       int       `json:"pid"`
	Socket    string    `json:"socket"`
	StartedAt time.Time `json:"startedAt"`
	Version   string    `json:"version"`
}

func entryPath(daemonsDir, hash string) string {
	return filepath.Join(daemonsDir, hash+".json")
}

// Register writes e's entry file, called by a daemon on startup.
func Register(e Entry) error {
	dir, err := paths.Daemons()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating daemon registry %s: %w", dir, err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal fleet entry: %w", err)
	}
	tmp := entryPath(dir, e.Hash) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing fleet entry: %w", err)
	}
	return os.Rename(tmp, entryPath(dir, e.Hash))
}

// Unregister removes hash's entry file, called by a daemon on clean
// shutdown.
func Unregister(hash string) error {
	dir, err := paths.Daemons()
	if err != nil {
		return err
	}
	err = os.Remove(entryPath(dir, hash))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// alive reports whether pid refers to a running process, by sending signal
// 0 (no-op existence probe, POSIX convention).
func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func socketReachable(socketPath string) bool {
	_, err := os.Stat(socketPath)
	return err == nil
}

// List returns every registered daemon, oldest-started first, garbage
// collecting any entry whose PID or socket is no longer live (§4.8 "Stale
// entries... are garbage-collected on read").
func List() ([]Entry, error) {
	dir, err := paths.Daemons()
	if err != nil {
		return nil, err
	}
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading daemon registry: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		if !alive(e.PID) || !socketReachable(e.Socket) {
			_ = Unregister(e.Hash)
			continue
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].StartedAt.Before(entries[j].StartedAt) })

	ordered := orderedmap.New[string, Entry]()
	for _, e := range entries {
		ordered.Set(e.Hash, e)
	}
	out := make([]Entry, 0, ordered.Len())
	for pair := ordered.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out, nil
}

// StopAll lists every live daemon and invokes stop for each, returning the
// first per-daemon error (later ones are not reported). The caller supplies stop (typically a socket round
// trip sending the "stop" command) so this package stays free of transport
// concerns.
func StopAll(stop func(Entry) error) error {
	entries, err := List()
	if err != nil {
		return err
	}
	var firstErr error
	for _, e := range entries {
		if err := stop(e); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stopping daemon for %s: %w", e.Workspace, err)
		}
	}
	return firstErr
}
