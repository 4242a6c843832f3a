// Package session implements the session manager (§4.4): it owns every
// ServerInstance for a workspace, ensuring at most one live instance per
// (project root, descriptor) pair and handling the initialize/initialized
// handshake, crash recovery, and shutdown.
package session

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/singleflight"

	"github.com/eli0shin/cli-lsp-client/internal/lsp"
	"github.com/eli0shin/cli-lsp-client/internal/paths"
	"github.com/eli0shin/cli-lsp-client/internal/registry"
)

// Manager is the session manager for one workspace. All of its exported
// methods are safe for concurrent use.
type Manager struct {
	workspaceRoot string
	registry      *registry.Registry
	logger        *log.Logger

	mu        sync.RWMutex
	instances *orderedmap.OrderedMap[string, *Instance]

	sf singleflight.Group
}

// New builds a Manager rooted at workspaceRoot, looking up descriptors in
// reg and logging to logger (nil uses log.Default()).
func New(workspaceRoot string, reg *registry.Registry, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		workspaceRoot: workspaceRoot,
		registry:      reg,
		logger:        logger,
		instances:     orderedmap.New[string, *Instance](),
	}
}

func instanceKey(descID, root string) string {
	return descID + "@" + root
}

// EnsureServer returns a Ready instance able to serve filePath, spawning one
// if necessary. Concurrent calls for the same (root, descriptor) collapse
// into a single spawn via singleflight, satisfying the §3/§8 invariant that
// at most one non-Exited ServerInstance exists per (workspace, descriptor.id).
func (m *Manager) EnsureServer(ctx context.Context, filePath string) (*Instance, error) {
	ext := filepath.Ext(filePath)
	desc, ok := m.registry.ByExtension(ext)
	if !ok {
		return nil, ErrNoDescriptor
	}

	root := paths.FindProjectRoot(filePath, desc.RootMarkers, m.workspaceRoot)
	key := instanceKey(desc.ID, root)

	if inst, ok := m.lookup(key); ok {
		return inst, nil
	}

	v, err, _ := m.sf.Do(key, func() (any, error) {
		if inst, ok := m.lookup(key); ok {
			return inst, nil
		}
		inst, err := m.spawn(ctx, desc, root)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.instances.Set(key, inst)
		m.mu.Unlock()
		return inst, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Instance), nil
}

func (m *Manager) lookup(key string) (*Instance, bool) {
	m.mu.RLock()
	inst, ok := m.instances.Get(key)
	m.mu.RUnlock()
	if !ok || inst.Exited() {
		return nil, false
	}
	return inst, true
}

func (m *Manager) spawn(ctx context.Context, desc registry.Descriptor, root string) (*Instance, error) {
	command, found := desc.Available()
	if !found {
		return nil, fmt.Errorf("%w: %s", lsp.ErrServerSpawnFailed, command)
	}

	clientLogger := log.New(m.logger.Writer(), fmt.Sprintf("[%s] ", desc.ID), log.LstdFlags)
	client, err := lsp.NewClient(command, desc.Args, clientLogger)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "spawning %s", desc.ID)
	}

	if _, err := client.Initialize(ctx, root, desc.InitializationOptions); err != nil {
		client.Kill()
		return nil, pkgerrors.Wrapf(err, "initializing %s at %s", desc.ID, root)
	}

	inst := newInstance(desc, root, client)
	go m.watchExit(inst)
	m.logger.Printf("spawned %s for %s (pid-backed client ready)", desc.ID, root)
	return inst, nil
}

// watchExit logs unexpected exits for visibility; the next EnsureServer call
// naturally spawns a fresh instance because lookup skips Exited entries —
// no retry loop lives here (§4.4 "There is no in-process retry").
func (m *Manager) watchExit(inst *Instance) {
	<-inst.Client.Done()
	m.logger.Printf("%s instance at %s exited", inst.Descriptor.ID, inst.Root)
}

// ListInstances returns every known instance, oldest spawn first, including
// ones that have since exited (callers use Exited() to filter).
func (m *Manager) ListInstances() []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Instance, 0, m.instances.Len())
	for pair := m.instances.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Shutdown tears down every instance, used on daemon stop and idle
// shutdown.
func (m *Manager) Shutdown(ctx context.Context) {
	for _, inst := range m.ListInstances() {
		if inst.Exited() {
			continue
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := inst.Shutdown(shutdownCtx); err != nil {
			m.logger.Printf("shutdown %s: %v", inst.Descriptor.ID, err)
		}
		cancel()
	}
	m.mu.Lock()
	m.instances = orderedmap.New[string, *Instance]()
	m.mu.Unlock()
}

// HasOpenDocuments reports whether any live instance has an open document,
// used by the daemon's idle-shutdown check.
func (m *Manager) HasOpenDocuments() bool {
	for _, inst := range m.ListInstances() {
		if !inst.Exited() && inst.OpenDocumentCount() > 0 {
			return true
		}
	}
	return false
}
