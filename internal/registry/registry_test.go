package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByExtensionResolvesBuiltins(t *testing.T) {
	r := New(nil)

	d, ok := r.ByExtension(".go")
	require.True(t, ok)
	assert.Equal(t, "gopls", d.ID)

	d, ok = r.ByExtension(".py")
	require.True(t, ok)
	assert.Equal(t, "pyright", d.ID)

	_, ok = r.ByExtension(".rs")
	assert.False(t, ok)
}

func TestByLanguageIDResolvesBuiltins(t *testing.T) {
	r := New(nil)
	d, ok := r.ByLanguageID("typescript")
	require.True(t, ok)
	assert.Equal(t, "typescript-language-server", d.ID)
}

func TestNewOverridesReplaceByID(t *testing.T) {
	r := New([]Descriptor{
		{ID: "gopls", LanguageID: "go", FileExtensions: []string{".go"}, Command: "/custom/gopls"},
	})
	d, ok := r.ByExtension(".go")
	require.True(t, ok)
	assert.Equal(t, "/custom/gopls", d.Command)
	assert.Len(t, r.All(), 4)
}

func TestNewOverridesAppendUnknownID(t *testing.T) {
	r := New([]Descriptor{
		{ID: "rust-analyzer", LanguageID: "rust", FileExtensions: []string{".rs"}, Command: "rust-analyzer"},
	})
	d, ok := r.ByExtension(".rs")
	require.True(t, ok)
	assert.Equal(t, "rust-analyzer", d.ID)
	assert.Len(t, r.All(), 5)
}

func TestGoModulePathReadsModuleDirective(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/widget\n\ngo 1.21\n"), 0o644)
	require.NoError(t, err)

	assert.Equal(t, "example.com/widget", GoModulePath(dir))
}

func TestGoModulePathEmptyWhenAbsent(t *testing.T) {
	assert.Equal(t, "", GoModulePath(t.TempDir()))
}
