package session

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eli0shin/cli-lsp-client/internal/lsp"
	"github.com/eli0shin/cli-lsp-client/internal/registry"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestEnsureServerReturnsNoDescriptorForUnknownExtension(t *testing.T) {
	m := New(t.TempDir(), registry.New(nil), discardLogger())

	inst, err := m.EnsureServer(context.Background(), "main.rs")
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrNoDescriptor)
}

func TestInstanceKeyDistinguishesRootsAndDescriptors(t *testing.T) {
	assert.NotEqual(t, instanceKey("gopls", "/a"), instanceKey("gopls", "/b"))
	assert.NotEqual(t, instanceKey("gopls", "/a"), instanceKey("pyright", "/a"))
	assert.Equal(t, instanceKey("gopls", "/a"), instanceKey("gopls", "/a"))
}

func TestListInstancesPreservesInsertionOrder(t *testing.T) {
	m := New(t.TempDir(), registry.New(nil), discardLogger())

	first := newInstance(registry.Descriptor{ID: "gopls"}, "/a", fakeExitedClient())
	second := newInstance(registry.Descriptor{ID: "pyright"}, "/b", fakeExitedClient())

	m.mu.Lock()
	m.instances.Set(instanceKey("gopls", "/a"), first)
	m.instances.Set(instanceKey("pyright", "/b"), second)
	m.mu.Unlock()

	got := m.ListInstances()
	require.Len(t, got, 2)
	assert.Equal(t, "gopls", got[0].Descriptor.ID)
	assert.Equal(t, "pyright", got[1].Descriptor.ID)
}

func TestStatusSnapshotReportsEveryInstance(t *testing.T) {
	m := New(t.TempDir(), registry.New(nil), discardLogger())

	inst := newInstance(registry.Descriptor{ID: "gopls", LanguageID: "go"}, "/a", fakeExitedClient())
	m.mu.Lock()
	m.instances.Set(instanceKey("gopls", "/a"), inst)
	m.mu.Unlock()

	snap := m.StatusSnapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "gopls", snap[0].DescriptorID)
	assert.Equal(t, "go", snap[0].LanguageID)
	assert.Equal(t, "/a", snap[0].Root)
}

func TestActiveDescriptorIDsOmitsNonReadyInstances(t *testing.T) {
	m := New(t.TempDir(), registry.New(nil), discardLogger())

	inst := newInstance(registry.Descriptor{ID: "gopls"}, "/a", fakeExitedClient())
	m.mu.Lock()
	m.instances.Set(instanceKey("gopls", "/a"), inst)
	m.mu.Unlock()

	assert.Empty(t, m.ActiveDescriptorIDs())
}

// fakeExitedClient builds a Client wired to a closed pipe pair so its state
// is immediately observable without spawning a real process.
func fakeExitedClient() *lsp.Client {
	r, w := io.Pipe()
	_ = w.Close()
	_ = r.Close()
	c, err := lsp.NewClientForTest(w, r, discardLogger())
	if err != nil {
		panic(err)
	}
	return c
}
