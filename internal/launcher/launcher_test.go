package launcher

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectOrSpawnReturnsExistingConnectionWithoutSpawning(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "test.sock")
	l, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	defer l.Close()
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	spawned := false
	conn, err := ConnectOrSpawn(context.Background(), socketPath, func() error {
		spawned = true
		return nil
	})
	require.NoError(t, err)
	conn.Close()
	assert.False(t, spawned)
}

func TestConnectOrSpawnPollsAfterSpawn(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "test.sock")

	go func() {
		time.Sleep(150 * time.Millisecond)
		l, err := net.Listen("unix", socketPath)
		if err != nil {
			return
		}
		defer l.Close()
		c, err := l.Accept()
		if err == nil {
			c.Close()
		}
	}()

	conn, err := ConnectOrSpawn(context.Background(), socketPath, func() error { return nil })
	require.NoError(t, err)
	conn.Close()
}

func TestConnectOrSpawnFailsWhenSpawnErrors(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "test.sock")
	_, err := ConnectOrSpawn(context.Background(), socketPath, func() error {
		return errors.New("exec failed")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionRefused)
}
