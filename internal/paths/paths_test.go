package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsStableAndDeterministic(t *testing.T) {
	ws := Workspace("/home/user/project")

	h1 := ws.Hash()
	h2 := ws.Hash()
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 16)

	other := Workspace("/home/user/other-project")
	assert.NotEqual(t, h1, other.Hash())
}

func TestForWorkspaceDerivesDistinctPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLI_LSP_CLIENT_STATE_DIR", dir)

	p, err := ForWorkspace(Workspace("/some/workspace"))
	require.NoError(t, err)

	assert.NotEqual(t, p.SocketPath, p.LogPath)
	assert.NotEqual(t, p.LogPath, p.PIDPath)
	assert.Contains(t, p.SocketPath, p.Hash)
	assert.Contains(t, p.LogPath, p.Hash)
	assert.Contains(t, p.PIDPath, p.Hash)

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestFindProjectRootWalksUpward(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	file := filepath.Join(nested, "main.go")
	require.NoError(t, os.WriteFile(file, []byte("package main\n"), 0o644))

	got := FindProjectRoot(file, []string{"go.mod"}, root)
	assert.Equal(t, root, got)
}

func TestFindProjectRootFallsBackToWorkspace(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "main.py")
	require.NoError(t, os.WriteFile(file, []byte("x = 1\n"), 0o644))

	got := FindProjectRoot(file, []string{"pyproject.toml", "setup.py"}, root)
	assert.Equal(t, root, got)
}
