package launcher

import "errors"

// ErrConnectionRefused and ErrDaemonStartTimeout are the §7 error kinds a
// client-side launch can fail with.
var (
	ErrConnectionRefused  = errors.New("connection refused: no daemon socket")
	ErrDaemonStartTimeout = errors.New("timed out waiting for daemon to start")
)
