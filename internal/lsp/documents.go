package lsp

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/eli0shin/cli-lsp-client/internal/protocol"
)

var documentVersion atomic.Int64

// OpenDocument sends textDocument/didOpen for filePath and tracks it as
// open. Per §3, OpenDocument is short-lived: the caller is expected to
// CloseDocument it again on every exit path.
func (c *Client) OpenDocument(ctx context.Context, filePath, languageID string) (*OpenFile, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}

	uri := protocol.DocumentUri("file://" + filePath)
	version := int(documentVersion.Add(1))

	err = c.Notify(ctx, "textDocument/didOpen", protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: languageID,
			Version:    version,
			Text:       string(content),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("didOpen %s: %w", filePath, err)
	}

	of := &OpenFile{URI: uri, Version: version}
	c.openFilesMu.Lock()
	c.openFiles[filePath] = of
	c.openFilesMu.Unlock()

	return of, nil
}

// CloseDocument sends textDocument/didClose. Idempotent: closing an
// already-closed (or never-opened) path is a no-op.
func (c *Client) CloseDocument(ctx context.Context, filePath string) error {
	c.openFilesMu.Lock()
	of, ok := c.openFiles[filePath]
	if ok {
		delete(c.openFiles, filePath)
	}
	c.openFilesMu.Unlock()
	if !ok {
		return nil
	}

	c.ClearDiagnostics(of.URI)

	return c.Notify(ctx, "textDocument/didClose", protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: of.URI},
	})
}

// Initialize performs the initialize/initialized handshake against
// projectRoot and installs default server-request/notification handlers.
// The client transitions Starting -> Initializing -> Ready.
func (c *Client) Initialize(ctx context.Context, projectRoot string, initOptions any) (*protocol.InitializeResult, error) {
	c.setState(StateInitializing)

	rootURI := protocol.DocumentUri("file://" + projectRoot)
	params := protocol.InitializeParams{
		ProcessID:  os.Getpid(),
		ClientInfo: &protocol.ClientInfo{Name: "cli-lsp-client", Version: "0.1.0"},
		RootURI:    rootURI,
		Capabilities: protocol.ClientCapabilities{
			TextDocument: protocol.TextDocumentClientCapabilities{
				Synchronization:    protocol.TextDocumentSyncClientCapabilities{DidSave: true},
				Hover:              protocol.HoverClientCapabilities{ContentFormat: []string{"markdown", "plaintext"}},
				DocumentSymbol:     protocol.DocumentSymbolClientCapabilities{HierarchicalDocumentSymbolSupport: true},
				PublishDiagnostics: protocol.PublishDiagnosticsClientCapabilities{},
			},
		},
		InitializationOptions: initOptions,
		Trace:                 "off",
	}

	var result protocol.InitializeResult
	if err := c.Call(ctx, "initialize", params, &result); err != nil {
		c.setState(StateExited)
		return nil, fmt.Errorf("%w: %v", ErrServerInitFailed, err)
	}

	if err := c.Notify(ctx, "initialized", protocol.InitializedParams{}); err != nil {
		c.setState(StateExited)
		return nil, fmt.Errorf("%w: sending initialized: %v", ErrServerInitFailed, err)
	}

	c.installDefaultServerRequestHandlers()
	c.setState(StateReady)
	return &result, nil
}

// Shutdown sends the LSP shutdown request followed by the exit
// notification, then waits for the process to exit, escalating to SIGTERM
// and finally SIGKILL. Safe to call more than once.
func (c *Client) Shutdown(ctx context.Context) error {
	if c.State() == StateExited {
		return nil
	}
	c.setState(StateShuttingDown)

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownRequestTimeout)
	defer cancel()
	if err := c.Call(shutdownCtx, "shutdown", nil, nil); err != nil {
		c.logger.Printf("shutdown request failed (continuing): %v", err)
	}

	exitCtx, exitCancel := context.WithTimeout(ctx, shutdownRequestTimeout)
	defer exitCancel()
	if err := c.Notify(exitCtx, "exit", nil); err != nil {
		c.logger.Printf("exit notification failed (continuing): %v", err)
	}

	if c.stdin != nil {
		_ = c.stdin.Close()
	}

	return c.waitOrKill()
}
