package fleet

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterListUnregisterRoundTrip(t *testing.T) {
	t.Setenv("CLI_LSP_CLIENT_STATE_DIR", t.TempDir())

	socket := t.TempDir() + "/x.sock"
	require.NoError(t, os.WriteFile(socket, nil, 0o600))

	e := Entry{
		Hash:      "abc123",
		Workspace: "/tmp/work",
		PID:       os.Getpid(),
		Socket:    socket,
		StartedAt: time.Unix(1700000000, 0).UTC(),
		Version:   "test",
	}
	require.NoError(t, Register(e))

	got, err := List()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "abc123", got[0].Hash)
	assert.Equal(t, "/tmp/work", got[0].Workspace)

	require.NoError(t, Unregister("abc123"))
	got, err = List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListGarbageCollectsDeadProcess(t *testing.T) {
	t.Setenv("CLI_LSP_CLIENT_STATE_DIR", t.TempDir())

	socket := t.TempDir() + "/x.sock"
	require.NoError(t, os.WriteFile(socket, nil, 0o600))

	// pid 0 is never a real process in our alive() check.
	e := Entry{Hash: "dead", Workspace: "/tmp/dead", PID: 0, Socket: socket, StartedAt: time.Now()}
	require.NoError(t, Register(e))

	got, err := List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStopAllInvokesStopForEveryLiveEntry(t *testing.T) {
	t.Setenv("CLI_LSP_CLIENT_STATE_DIR", t.TempDir())

	socket := t.TempDir() + "/x.sock"
	require.NoError(t, os.WriteFile(socket, nil, 0o600))
	require.NoError(t, Register(Entry{Hash: "a", Workspace: "/a", PID: os.Getpid(), Socket: socket, StartedAt: time.Now()}))

	var stopped []string
	err := StopAll(func(e Entry) error {
		stopped = append(stopped, e.Hash)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, stopped)
}
