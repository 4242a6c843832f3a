package session

import "errors"

// ErrNoDescriptor is returned by EnsureServer when a file's extension has no
// matching ServerDescriptor in the registry (§7 NoDescriptor).
var ErrNoDescriptor = errors.New("no language server registered for this file type")
