// Package logging sets up the daemon's append-only log file and hands out
// component-prefixed *log.Logger values, matching the teacher's one-line,
// prefixed log.Printf texture rather than a structured logging library.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Open appends to (creating if necessary) the daemon log file at path,
// returning the open handle so the caller can close it on shutdown.
func Open(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return f, nil
}

// New builds a *log.Logger writing to w, prefixed with component in the
// same "[name] " shape the session manager uses for per-instance client
// loggers.
func New(w io.Writer, component string) *log.Logger {
	return log.New(w, fmt.Sprintf("[%s] ", component), log.LstdFlags)
}

// Discard is a logger that writes nowhere, used by tests that need a
// logger but must not touch the daemon log file.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}
