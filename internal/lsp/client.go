package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eli0shin/cli-lsp-client/internal/protocol"
	pkgerrors "github.com/pkg/errors"
)

// State is the readiness of a language-server subprocess (§3 ServerInstance).
type State int32

const (
	StateStarting State = iota
	StateInitializing
	StateReady
	StateShuttingDown
	StateExited
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "Starting"
	case StateInitializing:
		return "Initializing"
	case StateReady:
		return "Ready"
	case StateShuttingDown:
		return "ShuttingDown"
	case StateExited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// NotificationHandler handles a server-initiated notification.
type NotificationHandler func(params protocol.RawJSON)

// ServerRequestHandler answers a server-initiated request.
type ServerRequestHandler func(params protocol.RawJSON) (any, error)

type pendingRequest struct {
	method string
	ch     chan rpcResponse
}

type rpcResponse struct {
	result protocol.RawJSON
	err    error
}

// OpenFile tracks a document this client has told the server about via
// textDocument/didOpen. Transient: callers open a file for the lifetime of
// one request and close it again, per §3 "OpenDocument... is transient".
type OpenFile struct {
	URI     protocol.DocumentUri
	Version int
}

// Client manages one language-server subprocess: framed JSON-RPC I/O,
// request/response correlation, and the diagnostics cache/waiter fan-out.
type Client struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	writeMu sync.Mutex
	nextID  atomic.Int64

	pendingMu sync.Mutex
	pending   map[string]*pendingRequest

	notifMu       sync.RWMutex
	notifHandlers map[string]NotificationHandler

	serverReqMu       sync.RWMutex
	serverReqHandlers map[string]ServerRequestHandler

	diagMu      sync.RWMutex
	diagnostics map[protocol.DocumentUri][]protocol.Diagnostic
	diagAt      map[protocol.DocumentUri]time.Time
	// diagWaiters fans a publishDiagnostics batch out to every subscriber of
	// its URI; each signal carries the notification's document version (0 if
	// the server omitted one) so a waiter can tell its own didOpen's
	// diagnostics apart from a concurrent caller's (§4.5 step 3).
	diagWaiters map[protocol.DocumentUri][]chan int

	openFilesMu sync.Mutex
	openFiles   map[string]*OpenFile

	state atomic.Int32

	logger *log.Logger

	exitOnce sync.Once
	exitCh   chan struct{}
}

// NewClient spawns command as a child process and starts its reader loop.
// The returned Client is in StateStarting; callers must still call
// Initialize before sending document requests.
func NewClient(command string, args []string, logger *log.Logger) (*Client, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = os.Environ()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create stderr pipe")
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerSpawnFailed, err)
	}

	c := newClient(stdin, bufio.NewReader(stdout), logger)
	c.cmd = cmd

	go c.drainStderr(stderr)
	go c.readLoop()

	return c, nil
}

// newClient builds a Client around already-open stdin/stdout streams,
// without spawning a process. Used by NewClient and directly by tests that
// wire io.Pipe() ends for fast, process-free transport tests.
func newClient(stdin io.WriteCloser, stdout *bufio.Reader, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		stdin:             stdin,
		stdout:            stdout,
		pending:           make(map[string]*pendingRequest),
		notifHandlers:     make(map[string]NotificationHandler),
		serverReqHandlers: make(map[string]ServerRequestHandler),
		diagnostics:       make(map[protocol.DocumentUri][]protocol.Diagnostic),
		diagAt:            make(map[protocol.DocumentUri]time.Time),
		diagWaiters:       make(map[protocol.DocumentUri][]chan int),
		openFiles:         make(map[string]*OpenFile),
		logger:            logger,
		exitCh:            make(chan struct{}),
	}
}

func (c *Client) drainStderr(stderr io.ReadCloser) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		c.logger.Printf("server stderr: %s", scanner.Text())
	}
}

// State reports the client's current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Done is closed once the reader loop observes EOF or a fatal framing error.
func (c *Client) Done() <-chan struct{} {
	return c.exitCh
}

// Pid reports the child process id, or 0 if the client was built around an
// already-open stream pair (tests) rather than a spawned process.
func (c *Client) Pid() int {
	if c.cmd == nil || c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// RegisterNotificationHandler installs a handler for a specific
// server-to-client notification method (e.g. window/showMessage).
func (c *Client) RegisterNotificationHandler(method string, h NotificationHandler) {
	c.notifMu.Lock()
	defer c.notifMu.Unlock()
	c.notifHandlers[method] = h
}

// RegisterServerRequestHandler installs a handler for a specific
// server-to-client request method (e.g. workspace/configuration).
func (c *Client) RegisterServerRequestHandler(method string, h ServerRequestHandler) {
	c.serverReqMu.Lock()
	defer c.serverReqMu.Unlock()
	c.serverReqHandlers[method] = h
}

// Call sends a request and blocks for its response, a context deadline, or
// the client exiting — exactly one of those three settles the wait, per §8.
// The pending-request entry is inserted before the frame is flushed so a
// fast server's response can never race ahead of bookkeeping.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	id := c.nextID.Add(1)
	msg, err := protocol.NewRequest(id, method, params)
	if err != nil {
		return err
	}
	key := protocol.IDString(msg.ID)

	ch := make(chan rpcResponse, 1)
	c.pendingMu.Lock()
	c.pending[key] = &pendingRequest{method: method, ch: ch}
	c.pendingMu.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil {
		c.removePending(key)
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	c.writeMu.Lock()
	werr := writeFrame(c.stdin, payload)
	c.writeMu.Unlock()
	if werr != nil {
		c.removePending(key)
		return fmt.Errorf("send %s request: %w", method, werr)
	}

	select {
	case resp := <-ch:
		if resp.err != nil {
			return resp.err
		}
		if result != nil && len(resp.result) > 0 && string(resp.result) != "null" {
			if err := json.Unmarshal(resp.result, result); err != nil {
				return fmt.Errorf("unmarshal %s result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.removePending(key)
		go func() {
			_ = c.Notify(context.Background(), "$/cancelRequest", map[string]any{"id": id})
		}()
		return fmt.Errorf("%w: %s", ErrTimeout, method)
	case <-c.exitCh:
		c.removePending(key)
		return fmt.Errorf("%w: %s", ErrServerExited, method)
	}
}

func (c *Client) removePending(key string) {
	c.pendingMu.Lock()
	delete(c.pending, key)
	c.pendingMu.Unlock()
}

// Notify sends a fire-and-forget notification (no id, no response).
func (c *Client) Notify(_ context.Context, method string, params any) error {
	msg, err := protocol.NewNotification(method, params)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s notification: %w", method, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := writeFrame(c.stdin, payload); err != nil {
		return fmt.Errorf("send %s notification: %w", method, err)
	}
	return nil
}

// readLoop is the single dedicated reader: it owns all message dispatch so
// that response delivery, server-request handling and notification routing
// never race with each other.
func (c *Client) readLoop() {
	defer c.shutdownOnExit()

	for {
		raw, err := readFrame(c.stdout)
		if err != nil {
			if err != io.EOF {
				c.logger.Printf("transport read error: %v", err)
			}
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) dispatch(raw []byte) {
	switch protocol.Classify(raw) {
	case protocol.KindResponse:
		c.handleResponse(raw)
	case protocol.KindRequest:
		c.handleServerRequest(raw)
	case protocol.KindNotification:
		c.handleNotification(raw)
	default:
		c.logger.Printf("dropping unclassifiable frame: %s", string(raw))
	}
}

func (c *Client) handleResponse(raw []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Printf("malformed response frame: %v", err)
		return
	}
	key := protocol.IDString(msg.ID)

	c.pendingMu.Lock()
	pr, ok := c.pending[key]
	if ok {
		delete(c.pending, key)
	}
	c.pendingMu.Unlock()

	if !ok {
		return
	}
	if msg.Error != nil {
		pr.ch <- rpcResponse{err: msg.Error}
		return
	}
	pr.ch <- rpcResponse{result: msg.Result}
}

func (c *Client) handleNotification(raw []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Printf("malformed notification frame: %v", err)
		return
	}

	if msg.Method == "textDocument/publishDiagnostics" {
		c.handleDiagnostics(msg.Params)
		return
	}

	c.notifMu.RLock()
	h, ok := c.notifHandlers[msg.Method]
	c.notifMu.RUnlock()
	if ok {
		h(msg.Params)
	}
}

func (c *Client) handleServerRequest(raw []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Printf("malformed server request frame: %v", err)
		return
	}

	c.serverReqMu.RLock()
	h, ok := c.serverReqHandlers[msg.Method]
	c.serverReqMu.RUnlock()

	var resp protocol.Message
	resp.JSONRPC = "2.0"
	resp.ID = msg.ID

	if !ok {
		resp.Error = &protocol.ResponseError{Code: -32601, Message: "method not found: " + msg.Method}
	} else {
		result, err := h(msg.Params)
		if err != nil {
			resp.Error = &protocol.ResponseError{Code: -32603, Message: err.Error()}
		} else {
			resultJSON, merr := json.Marshal(result)
			if merr != nil {
				resp.Error = &protocol.ResponseError{Code: -32603, Message: merr.Error()}
			} else {
				resp.Result = resultJSON
			}
		}
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.Printf("marshal server-request response: %v", err)
		return
	}
	c.writeMu.Lock()
	werr := writeFrame(c.stdin, payload)
	c.writeMu.Unlock()
	if werr != nil {
		c.logger.Printf("write server-request response: %v", werr)
	}
}

// shutdownOnExit transitions the client to Exited, fails every outstanding
// request with ErrServerExited, and closes Done() exactly once — whether
// the process died on its own or Close() tore it down deliberately.
func (c *Client) shutdownOnExit() {
	c.exitOnce.Do(func() {
		c.setState(StateExited)
		close(c.exitCh)

		c.pendingMu.Lock()
		pending := c.pending
		c.pending = make(map[string]*pendingRequest)
		c.pendingMu.Unlock()
		for _, pr := range pending {
			pr.ch <- rpcResponse{err: ErrServerExited}
		}
	})
}
