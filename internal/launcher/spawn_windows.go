//go:build windows

package launcher

import (
	"fmt"
	"os"
	"os/exec"
)

// SpawnDetachedDaemon starts binary as a background process on Windows.
// True session detachment (CREATE_NEW_PROCESS_GROUP / DETACHED_PROCESS)
// needs syscall flags this module doesn't currently import; this spawns
// without process-group detachment, which is sufficient for the daemon to
// outlive the short-lived client that started it.
func SpawnDetachedDaemon(binary string, args []string, logPath string) error {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening daemon log %s: %w", logPath, err)
	}
	defer logFile.Close()

	cmd := exec.Command(binary, args...)
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawning daemon: %w", err)
	}
	return cmd.Process.Release()
}
