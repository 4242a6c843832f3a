package lsp

import (
	"encoding/json"
	"time"

	"github.com/eli0shin/cli-lsp-client/internal/protocol"
)

func (c *Client) handleDiagnostics(params protocol.RawJSON) {
	var p protocol.PublishDiagnosticsParams
	if err := json.Unmarshal(params, &p); err != nil {
		c.logger.Printf("malformed publishDiagnostics params: %v", err)
		return
	}

	version := 0
	if p.Version != nil {
		version = *p.Version
	}

	c.diagMu.Lock()
	c.diagnostics[p.URI] = p.Diagnostics
	c.diagAt[p.URI] = time.Now()
	waiters := c.diagWaiters[p.URI]
	c.diagMu.Unlock()

	for _, ch := range waiters {
		select {
		case ch <- version:
		default:
		}
	}

	c.logger.Printf("diagnostics for %s: %d item(s) at version %d", p.URI, len(p.Diagnostics), version)
}

// Diagnostics returns a copy of the cached diagnostics for uri.
func (c *Client) Diagnostics(uri protocol.DocumentUri) []protocol.Diagnostic {
	c.diagMu.RLock()
	defer c.diagMu.RUnlock()
	cached := c.diagnostics[uri]
	out := make([]protocol.Diagnostic, len(cached))
	copy(out, cached)
	return out
}

// LastDiagnosticsAt reports when diagnostics for uri last changed.
func (c *Client) LastDiagnosticsAt(uri protocol.DocumentUri) (time.Time, bool) {
	c.diagMu.RLock()
	defer c.diagMu.RUnlock()
	t, ok := c.diagAt[uri]
	return t, ok
}

// ClearDiagnostics drops the cached diagnostics for uri, called on didClose.
func (c *Client) ClearDiagnostics(uri protocol.DocumentUri) {
	c.diagMu.Lock()
	defer c.diagMu.Unlock()
	delete(c.diagnostics, uri)
	delete(c.diagAt, uri)
}

// SubscribeDiagnostics registers a channel that receives the document
// version of every publishDiagnostics batch for uri (0 if the server
// omitted a version), until the caller UnsubscribeDiagnostics. Per §5's
// ordering guarantee, callers must subscribe BEFORE sending didOpen so a
// fast server's first batch is never missed.
func (c *Client) SubscribeDiagnostics(uri protocol.DocumentUri) chan int {
	ch := make(chan int, 1)
	c.diagMu.Lock()
	c.diagWaiters[uri] = append(c.diagWaiters[uri], ch)
	c.diagMu.Unlock()
	return ch
}

// UnsubscribeDiagnostics removes a channel previously returned by
// SubscribeDiagnostics.
func (c *Client) UnsubscribeDiagnostics(uri protocol.DocumentUri, ch chan int) {
	c.diagMu.Lock()
	defer c.diagMu.Unlock()
	waiters := c.diagWaiters[uri]
	for i, w := range waiters {
		if w == ch {
			c.diagWaiters[uri] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(c.diagWaiters[uri]) == 0 {
		delete(c.diagWaiters, uri)
	}
}
