// Package daemonserver implements the daemon's socket listener (§4.6): one
// unix-domain socket (Windows named pipes are not supported; see Bind), a
// per-connection framed request/response loop, and the idle-shutdown timer.
package daemonserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eli0shin/cli-lsp-client/internal/session"
)

// Request is the client->daemon wire message (§6): one JSON object per
// connection. The client keeps the connection open until it reads back a
// Response; json.Decoder frames on the single value, so no half-close is
// needed to mark the end of the request.
type Request struct {
	Command    string   `json:"command"`
	Args       []string `json:"args"`
	ConfigFile string   `json:"configFile,omitempty"`
}

// Response is the daemon->client wire message (§6).
type Response struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandlerFunc answers one dispatched command.
type HandlerFunc func(ctx context.Context, args []string, configFile string) (any, error)

// ErrAlreadyRunning is returned by Bind when a live daemon already owns the
// socket.
var ErrAlreadyRunning = errors.New("a daemon is already running for this workspace")

// Server owns the socket listener and dispatches requests to registered
// handlers. Handlers run concurrently with each other; per-ServerInstance
// serialization happens inside the session manager / lsp.Client, not here
// (§5 "handlers must be safe to run concurrently").
type Server struct {
	SocketPath  string
	Manager     *session.Manager
	Logger      *log.Logger
	IdleTimeout time.Duration
	StartedAt   time.Time

	handlers map[string]HandlerFunc

	listener net.Listener

	lastRequestMu sync.Mutex
	lastRequest   time.Time

	openConns atomic.Int64

	idleShutdown atomic.Bool
}

// New builds a Server. Handlers are registered with Handle before Serve.
func New(socketPath string, mgr *session.Manager, logger *log.Logger, idleTimeout time.Duration) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		SocketPath:  socketPath,
		Manager:     mgr,
		Logger:      logger,
		IdleTimeout: idleTimeout,
		StartedAt:   time.Now(),
		handlers:    make(map[string]HandlerFunc),
	}
}

// Handle registers a handler for a command name.
func (s *Server) Handle(command string, h HandlerFunc) {
	s.handlers[command] = h
}

// Bind claims the socket path, probing for a live daemon first (§4.6 "on
// EADDRINUSE, probe") and clearing a stale socket file left by a daemon
// that crashed without cleaning up. Unix domain sockets only; a Windows
// named-pipe listener would need a library outside this module's stack and
// is left as a follow-up (paths.socketPath already derives the pipe name).
func Bind(socketPath string) (net.Listener, error) {
	if conn, err := net.DialTimeout("unix", socketPath, 200*time.Millisecond); err == nil {
		conn.Close()
		return nil, ErrAlreadyRunning
	}
	_ = os.Remove(socketPath)

	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", socketPath, err)
	}
	return l, nil
}

// Serve accepts connections until ctx is cancelled, Stop is called, or the
// idle-shutdown timer fires. It returns nil for any of those clean-exit
// paths.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.listener = l
	s.touch()

	idleDone := make(chan struct{})
	go s.watchIdle(ctx, idleDone)
	defer close(idleDone)

	for {
		conn, err := l.Accept()
		if err != nil {
			if s.idleShutdown.Load() {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.touch()
		s.openConns.Add(1)
		go s.handleConn(ctx, conn)
	}
}

// Stop closes the listener, causing Serve to return.
func (s *Server) Stop() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *Server) touch() {
	s.lastRequestMu.Lock()
	s.lastRequest = time.Now()
	s.lastRequestMu.Unlock()
}

func (s *Server) idleSince() time.Duration {
	s.lastRequestMu.Lock()
	defer s.lastRequestMu.Unlock()
	return time.Since(s.lastRequest)
}

// watchIdle shuts the listener down once no request has arrived for
// IdleTimeout and no server instance has an open document (§4.6).
func (s *Server) watchIdle(ctx context.Context, done <-chan struct{}) {
	if s.IdleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.openConns.Load() > 0 {
				continue
			}
			if s.idleSince() < s.IdleTimeout {
				continue
			}
			if s.Manager.HasOpenDocuments() {
				continue
			}
			s.Logger.Printf("idle for %s with no open documents, shutting down", s.IdleTimeout)
			s.idleShutdown.Store(true)
			s.Stop()
			return
		}
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.openConns.Add(-1)
	defer conn.Close()

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		s.writeResponse(conn, Response{Success: false, Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	h, ok := s.handlers[req.Command]
	if !ok {
		s.writeResponse(conn, Response{Success: false, Error: fmt.Sprintf("unknown command: %s", req.Command)})
		return
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The client keeps its socket fully open until it has read a response
	// (sendRequest in main.go never half-closes); a client that aborts
	// mid-request instead closes the whole connection, which this read
	// observes and turns into cancellation at the handler's next
	// suspension point (§5).
	done := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		if _, err := conn.Read(buf); err != nil {
			select {
			case <-done:
			default:
				cancel()
			}
		}
	}()

	result, err := h(connCtx, req.Args, req.ConfigFile)
	close(done)
	if err != nil {
		s.writeResponse(conn, Response{Success: false, Error: err.Error()})
		return
	}
	s.writeResponse(conn, Response{Success: true, Result: result})
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.Logger.Printf("writing response: %v", err)
	}
}
