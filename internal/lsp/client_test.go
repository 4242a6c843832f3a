package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/eli0shin/cli-lsp-client/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer wires a Client to an in-memory pipe pair and lets tests act as
// the language-server process on the other end: reading frames the client
// sends and writing frames back.
type fakeServer struct {
	t       *testing.T
	r       *bufio.Reader
	w       io.WriteCloser
	readMsg chan protocol.Message
}

func newFakeServer(t *testing.T) (*Client, *fakeServer) {
	clientReadEnd, serverWriteEnd := io.Pipe()
	serverReadEnd, clientWriteEnd := io.Pipe()

	c := newClient(clientWriteEnd, bufio.NewReader(clientReadEnd), nil)
	go c.readLoop()

	fs := &fakeServer{
		t:       t,
		r:       bufio.NewReader(serverReadEnd),
		w:       serverWriteEnd,
		readMsg: make(chan protocol.Message, 16),
	}
	go fs.pump()

	return c, fs
}

func (fs *fakeServer) pump() {
	for {
		raw, err := readFrame(fs.r)
		if err != nil {
			close(fs.readMsg)
			return
		}
		var msg protocol.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			fs.t.Logf("fakeServer: malformed frame: %v", err)
			continue
		}
		fs.readMsg <- msg
	}
}

func (fs *fakeServer) next(t *testing.T) protocol.Message {
	t.Helper()
	select {
	case msg, ok := <-fs.readMsg:
		require.True(t, ok, "fake server pump closed before a message arrived")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client message")
		return protocol.Message{}
	}
}

func (fs *fakeServer) respond(t *testing.T, id protocol.RawJSON, result any) {
	t.Helper()
	resultJSON, err := json.Marshal(result)
	require.NoError(t, err)
	msg := protocol.Message{JSONRPC: "2.0", ID: id, Result: resultJSON}
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, writeFrame(fs.w, payload))
}

func (fs *fakeServer) notify(t *testing.T, method string, params any) {
	t.Helper()
	msg, err := protocol.NewNotification(method, params)
	require.NoError(t, err)
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, writeFrame(fs.w, payload))
}

func TestCallReceivesMatchingResponse(t *testing.T) {
	c, fs := newFakeServer(t)

	type result struct {
		Ok bool `json:"ok"`
	}
	done := make(chan error, 1)
	var got result
	go func() {
		done <- c.Call(context.Background(), "workspace/symbol", map[string]any{"query": "x"}, &got)
	}()

	req := fs.next(t)
	assert.Equal(t, "workspace/symbol", req.Method)
	fs.respond(t, req.ID, result{Ok: true})

	require.NoError(t, <-done)
	assert.True(t, got.Ok)
}

func TestCallSurfacesServerError(t *testing.T) {
	c, fs := newFakeServer(t)

	done := make(chan error, 1)
	go func() {
		done <- c.Call(context.Background(), "textDocument/hover", nil, nil)
	}()

	req := fs.next(t)
	msg := protocol.Message{
		JSONRPC: "2.0",
		ID:      req.ID,
		Error:   &protocol.ResponseError{Code: -32602, Message: "bad params"},
	}
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, writeFrame(fs.w, payload))

	err = <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad params")
}

func TestCallTimesOutOnContextCancellation(t *testing.T) {
	c, fs := newFakeServer(t)
	_ = fs

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Call(ctx, "textDocument/hover", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestServerExitFailsAllPendingCalls(t *testing.T) {
	c, fs := newFakeServer(t)

	done := make(chan error, 1)
	go func() {
		done <- c.Call(context.Background(), "textDocument/hover", nil, nil)
	}()
	fs.next(t)

	require.NoError(t, fs.w.Close())

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerExited)
	assert.Equal(t, StateExited, c.State())
}

func TestHandleServerRequestDispatchesRegisteredHandler(t *testing.T) {
	c, fs := newFakeServer(t)

	c.RegisterServerRequestHandler("workspace/configuration", func(_ protocol.RawJSON) (any, error) {
		return []any{map[string]any{}}, nil
	})

	require.NoError(t, fs.notifyRequest(t, "workspace/configuration", map[string]any{"items": []any{map[string]any{}}}))

	resp := fs.next(t)
	require.NotNil(t, resp.Result)
	var result []map[string]any
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Len(t, result, 1)
}

func TestHandleServerRequestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	c, fs := newFakeServer(t)
	_ = c

	require.NoError(t, fs.notifyRequest(t, "some/unregisteredMethod", nil))

	resp := fs.next(t)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestDiagnosticsSubscribeReceivesPublishedBatch(t *testing.T) {
	c, fs := newFakeServer(t)

	uri := protocol.DocumentUri("file:///tmp/x.go")
	ch := c.SubscribeDiagnostics(uri)
	defer c.UnsubscribeDiagnostics(uri, ch)

	fs.notify(t, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI: uri,
		Diagnostics: []protocol.Diagnostic{
			{Message: "unused variable", Severity: protocol.SeverityWarning},
		},
	})

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for diagnostics signal")
	}

	got := c.Diagnostics(uri)
	require.Len(t, got, 1)
	assert.Equal(t, "unused variable", got[0].Message)
}

func TestDiagnosticsSubscribeSignalsCarryDocumentVersion(t *testing.T) {
	c, fs := newFakeServer(t)

	uri := protocol.DocumentUri("file:///tmp/x.go")
	ch := c.SubscribeDiagnostics(uri)
	defer c.UnsubscribeDiagnostics(uri, ch)

	version := 7
	fs.notify(t, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:     uri,
		Version: &version,
	})

	select {
	case v := <-ch:
		assert.Equal(t, 7, v)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for diagnostics signal")
	}
}

// notifyRequest sends a request frame (with an id) from the fake server to
// the client, the inverse direction of a normal Call, exercising
// handleServerRequest.
func (fs *fakeServer) notifyRequest(t *testing.T, method string, params any) error {
	t.Helper()
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return err
	}
	msg := protocol.Message{
		JSONRPC: "2.0",
		ID:      protocol.NewRequestID(1),
		Method:  method,
		Params:  paramsJSON,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return writeFrame(fs.w, payload)
}
