package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/eli0shin/cli-lsp-client/internal/config"
	"github.com/eli0shin/cli-lsp-client/internal/daemonserver"
	"github.com/eli0shin/cli-lsp-client/internal/fleet"
	"github.com/eli0shin/cli-lsp-client/internal/handlers"
	"github.com/eli0shin/cli-lsp-client/internal/launcher"
	"github.com/eli0shin/cli-lsp-client/internal/logging"
	"github.com/eli0shin/cli-lsp-client/internal/paths"
	"github.com/eli0shin/cli-lsp-client/internal/registry"
	"github.com/eli0shin/cli-lsp-client/internal/session"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	configFile, args := extractConfigFile(os.Args[2:])

	var err error
	switch cmd {
	case "daemon":
		err = runDaemon(configFile)
	case "start":
		err = runStart(args)
	case "stop":
		err = runStop()
	case "stop-all":
		err = runStopAll()
	case "list":
		err = runList()
	case "status":
		err = runSimpleRequest("status", nil, configFile)
	case "statusline":
		err = runStatusline(configFile)
	case "diagnostics":
		err = runDiagnostics(args, configFile)
	case "hover":
		err = runHover(args, configFile)
	case "logs":
		err = runLogs(args)
	case "restart":
		err = runRestart(configFile)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		// §7: a findings exit code (diagnostics' code 2) is not a failure —
		// stderr must equal exactly the diagnostic lines already printed by
		// runDiagnostics, nothing appended.
		if exitErr, ok := err.(exitCodeError); ok {
			os.Exit(exitErr.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cli-lsp-client <daemon|start|stop|stop-all|list|status|statusline|diagnostics|hover|logs|restart> [args...]")
}

// exitCodeError lets a handler request a specific process exit code (used
// by `diagnostics`'s "findings, not failure" code 2).
type exitCodeError struct {
	code int
	msg  string
}

func (e exitCodeError) Error() string { return e.msg }

// extractConfigFile pulls --config-file (or --config-file=value) out of
// args, since it's a global flag accepted on every request command (§6).
func extractConfigFile(args []string) (string, []string) {
	var configFile string
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--config-file" && i+1 < len(args):
			configFile = args[i+1]
			i++
		case strings.HasPrefix(a, "--config-file="):
			configFile = strings.TrimPrefix(a, "--config-file=")
		default:
			rest = append(rest, a)
		}
	}
	return configFile, rest
}

func currentWorkspacePaths() (paths.Workspace, *paths.Paths, error) {
	ws, err := paths.Canonicalize("")
	if err != nil {
		return "", nil, err
	}
	p, err := paths.ForWorkspace(ws)
	if err != nil {
		return "", nil, err
	}
	return ws, p, nil
}

// --- daemon process ---

func runDaemon(configFile string) error {
	ws, p, err := currentWorkspacePaths()
	if err != nil {
		return err
	}

	logFile, err := logging.Open(p.LogPath)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logging.New(logFile, "daemon")

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Printf("failed to load config file %s: %v (using defaults)", configFile, err)
		cfg = config.Default()
	}

	reg := registry.New(nil)
	mgr := session.New(string(ws), reg, logging.New(logFile, "session"))

	l, err := daemonserver.Bind(p.SocketPath)
	if err != nil {
		return err
	}

	srv := daemonserver.New(p.SocketPath, mgr, logger, cfg.IdleShutdown())
	registerHandlers(srv, mgr, cfg)

	entry := fleet.Entry{
		Hash:      ws.Hash(),
		Workspace: string(ws),
		PID:       os.Getpid(),
		Socket:    p.SocketPath,
		StartedAt: time.Now(),
		Version:   version,
	}
	if err := fleet.Register(entry); err != nil {
		logger.Printf("failed to register in fleet: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, shutting down", sig)
		srv.Stop()
		cancel()
	}()

	logger.Printf("daemon listening on %s for workspace %s", p.SocketPath, ws)
	serveErr := srv.Serve(ctx, l)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	mgr.Shutdown(shutdownCtx)
	shutdownCancel()

	_ = fleet.Unregister(ws.Hash())
	_ = os.Remove(p.SocketPath)
	_ = os.Remove(p.PIDPath)

	logger.Printf("daemon shutdown complete")
	return serveErr
}

func registerHandlers(srv *daemonserver.Server, mgr *session.Manager, cfg config.Config) {
	srv.Handle("status", func(ctx context.Context, args []string, _ string) (any, error) {
		return handlers.Status(mgr, srv.StartedAt), nil
	})
	srv.Handle("statusline", func(ctx context.Context, args []string, _ string) (any, error) {
		return handlers.Statusline(mgr), nil
	})
	srv.Handle("diagnostics", func(ctx context.Context, args []string, _ string) (any, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("diagnostics: missing file argument")
		}
		res, err := handlers.Diagnostics(ctx, mgr, args[0], cfg.DiagTimeout(), cfg.Quiescence())
		if err != nil {
			return nil, err
		}
		return map[string]any{"lines": res.Lines, "exitCode": res.ExitCode}, nil
	})
	srv.Handle("hover", func(ctx context.Context, args []string, _ string) (any, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("hover: expected <file> <symbol>")
		}
		text, err := handlers.Hover(ctx, mgr, args[0], args[1])
		if err != nil {
			return nil, err
		}
		return map[string]any{"text": text}, nil
	})
	srv.Handle("stop", func(ctx context.Context, args []string, _ string) (any, error) {
		go func() {
			time.Sleep(50 * time.Millisecond)
			srv.Stop()
		}()
		return map[string]any{"stopping": true}, nil
	})
}

// --- client-side commands ---

func runStart(args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	ws, err := paths.Canonicalize(dir)
	if err != nil {
		return err
	}
	p, err := paths.ForWorkspace(ws)
	if err != nil {
		return err
	}
	if _, err := launcher.Dial(p.SocketPath); err == nil {
		return nil
	}
	return spawnDaemonFor(p)
}

func spawnDaemonFor(p *paths.Paths) error {
	bin := os.Getenv("CLI_LSP_CLIENT_BIN_PATH")
	if bin == "" {
		var err error
		bin, err = os.Executable()
		if err != nil {
			return fmt.Errorf("resolving own binary path: %w", err)
		}
	}
	if err := os.Chdir(string(p.Workspace)); err != nil {
		return fmt.Errorf("changing to workspace %s: %w", p.Workspace, err)
	}
	return launcher.SpawnDetachedDaemon(bin, []string{"daemon"}, p.LogPath)
}

func dialForCWD() (net.Conn, *paths.Paths, error) {
	_, p, err := currentWorkspacePaths()
	if err != nil {
		return nil, nil, err
	}
	conn, err := launcher.ConnectOrSpawn(context.Background(), p.SocketPath, func() error {
		return spawnDaemonFor(p)
	})
	return conn, p, err
}

// sendRequest encodes req, reads back one Response, and closes conn.
// json.Decoder consumes exactly one value from the stream, so framing never
// depends on the client half-closing its write side; keeping the connection
// fully open until the response arrives is what lets the daemon tell a
// genuine client abort (full close) apart from normal in-flight waiting.
func sendRequest(conn net.Conn, req daemonserver.Request) (daemonserver.Response, error) {
	defer conn.Close()
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return daemonserver.Response{}, fmt.Errorf("sending request: %w", err)
	}
	var resp daemonserver.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return daemonserver.Response{}, fmt.Errorf("reading response: %w", err)
	}
	return resp, nil
}

func runSimpleRequest(command string, args []string, configFile string) error {
	conn, _, err := dialForCWD()
	if err != nil {
		return err
	}
	resp, err := sendRequest(conn, daemonserver.Request{Command: command, Args: args, ConfigFile: configFile})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}
	body, err := json.MarshalIndent(resp.Result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(body))
	return nil
}

func runStatusline(configFile string) error {
	conn, _, err := dialForCWD()
	if err != nil {
		return err
	}
	resp, err := sendRequest(conn, daemonserver.Request{Command: "statusline", ConfigFile: configFile})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}
	fmt.Println(resp.Result)
	return nil
}

func runStop() error {
	conn, _, err := dialForCWD()
	if err != nil {
		// No daemon reachable is a clean no-op for stop.
		return nil
	}
	_, err = sendRequest(conn, daemonserver.Request{Command: "stop"})
	return err
}

func runStopAll() error {
	return fleet.StopAll(func(e fleet.Entry) error {
		conn, err := net.Dial("unix", e.Socket)
		if err != nil {
			return err
		}
		_, err = sendRequest(conn, daemonserver.Request{Command: "stop"})
		return err
	})
}

func runList() error {
	entries, err := fleet.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s\t%d\t%s\n", e.Workspace, e.PID, e.Socket)
	}
	return nil
}

func runDiagnostics(args []string, configFile string) error {
	if len(args) < 1 {
		return fmt.Errorf("diagnostics: missing file argument")
	}
	conn, _, err := dialForCWD()
	if err != nil {
		return err
	}
	resp, err := sendRequest(conn, daemonserver.Request{Command: "diagnostics", Args: args, ConfigFile: configFile})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		return fmt.Errorf("malformed diagnostics response")
	}
	lines, _ := result["lines"].([]any)
	for _, l := range lines {
		fmt.Fprintln(os.Stderr, l)
	}
	exitCode := 0
	if ec, ok := result["exitCode"].(float64); ok {
		exitCode = int(ec)
	}
	if exitCode != 0 {
		return exitCodeError{code: exitCode, msg: fmt.Sprintf("%d diagnostic(s) found", len(lines))}
	}
	return nil
}

func runHover(args []string, configFile string) error {
	if len(args) < 2 {
		return fmt.Errorf("hover: expected <file> <symbol>")
	}
	conn, _, err := dialForCWD()
	if err != nil {
		return err
	}
	resp, err := sendRequest(conn, daemonserver.Request{Command: "hover", Args: args, ConfigFile: configFile})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok {
		return fmt.Errorf("malformed hover response")
	}
	fmt.Println(result["text"])
	return nil
}

func runLogs(args []string) error {
	_, p, err := currentWorkspacePaths()
	if err != nil {
		return err
	}
	tail := 0
	for i := 0; i < len(args); i++ {
		if args[i] == "--tail" && i+1 < len(args) {
			tail, _ = strconv.Atoi(args[i+1])
			i++
		}
	}
	if tail <= 0 {
		fmt.Println(p.LogPath)
		return nil
	}
	return printTail(p.LogPath, tail)
}

func printTail(path string, n int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}

func runRestart(configFile string) error {
	if err := runStop(); err != nil {
		log.Printf("stop before restart failed (continuing): %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	return runStart(nil)
}
