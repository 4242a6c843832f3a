package lsp

import "errors"

// Error kinds from spec §7. Transport-level failures fail every outstanding
// request on the affected instance and mark it Exited; handler-level
// failures (returned to callers) never tear down the daemon.
var (
	ErrTimeout          = errors.New("lsp: request timed out")
	ErrServerExited     = errors.New("lsp: server process exited")
	ErrProtocol         = errors.New("lsp: malformed message framing")
	ErrServerSpawnFailed = errors.New("lsp: failed to spawn server process")
	ErrServerInitFailed  = errors.New("lsp: server initialization failed")
)
