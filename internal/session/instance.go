package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eli0shin/cli-lsp-client/internal/lsp"
	"github.com/eli0shin/cli-lsp-client/internal/registry"
)

// Instance is a ServerInstance (§3): one live language-server subprocess
// plus the bookkeeping the session manager needs to reuse or retire it.
// The pending-request table and diagnostics cache it describes live inside
// lsp.Client; Instance adds the workspace-level layer on top: which root it
// serves, when it was last touched, and how many documents are open.
type Instance struct {
	Descriptor registry.Descriptor
	Root       string
	Client     *lsp.Client
	StartedAt  time.Time

	// ModulePath is the Go module path declared at Root's go.mod, for
	// descriptors whose LanguageID is "go" — richer `status` display than a
	// bare "found go.mod" boolean (§3); `statusline` does not show it. Empty for every
	// other language, or if Root has no parseable go.mod.
	ModulePath string

	openDocs atomic.Int64

	activityMu   sync.RWMutex
	lastActivity time.Time
}

func newInstance(desc registry.Descriptor, root string, client *lsp.Client) *Instance {
	now := time.Now()
	modulePath := ""
	if desc.LanguageID == "go" {
		modulePath = registry.GoModulePath(root)
	}
	return &Instance{
		Descriptor:   desc,
		Root:         root,
		Client:       client,
		StartedAt:    now,
		ModulePath:   modulePath,
		lastActivity: now,
	}
}

func (inst *Instance) touch() {
	inst.activityMu.Lock()
	inst.lastActivity = time.Now()
	inst.activityMu.Unlock()
}

// LastActivity reports when a document was last opened or closed on this
// instance.
func (inst *Instance) LastActivity() time.Time {
	inst.activityMu.RLock()
	defer inst.activityMu.RUnlock()
	return inst.lastActivity
}

// OpenDocumentCount reports how many documents are currently open, used by
// the daemon's idle-shutdown check (§4.6: "no server instance has open
// documents").
func (inst *Instance) OpenDocumentCount() int64 {
	return inst.openDocs.Load()
}

// Ready reports whether the underlying client has completed its
// initialize/initialized handshake.
func (inst *Instance) Ready() bool {
	return inst.Client.State() == lsp.StateReady
}

// Exited reports whether the underlying client's process has terminated.
func (inst *Instance) Exited() bool {
	return inst.Client.State() == lsp.StateExited
}

// OpenDocument opens filePath on this instance's client and tracks the open
// count, touching last-activity.
func (inst *Instance) OpenDocument(ctx context.Context, filePath string) (*lsp.OpenFile, error) {
	of, err := inst.Client.OpenDocument(ctx, filePath, inst.Descriptor.LanguageID)
	if err != nil {
		return nil, err
	}
	inst.openDocs.Add(1)
	inst.touch()
	return of, nil
}

// CloseDocument closes filePath, idempotent like lsp.Client.CloseDocument.
// Callers that open via OpenDocument must always pair it with CloseDocument,
// even on an error path, to keep the open-document count accurate.
func (inst *Instance) CloseDocument(ctx context.Context, filePath string) error {
	err := inst.Client.CloseDocument(ctx, filePath)
	if inst.openDocs.Load() > 0 {
		inst.openDocs.Add(-1)
	}
	inst.touch()
	return err
}

// Shutdown tears down the underlying client.
func (inst *Instance) Shutdown(ctx context.Context) error {
	return inst.Client.Shutdown(ctx)
}
