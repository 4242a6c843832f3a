package handlers

import (
	"strings"
	"time"

	"github.com/eli0shin/cli-lsp-client/internal/session"
)

// StatusReport is the JSON body the `status` command prints.
type StatusReport struct {
	UptimeSeconds float64                  `json:"uptimeSeconds"`
	Instances     []session.InstanceStatus `json:"instances"`
}

// Status builds the report for the `status` command, given when the daemon
// started.
func Status(mgr *session.Manager, daemonStartedAt time.Time) StatusReport {
	return StatusReport{
		UptimeSeconds: time.Since(daemonStartedAt).Seconds(),
		Instances:     mgr.StatusSnapshot(),
	}
}

// Statusline renders the space-separated active server ids for `statusline`
// (§6).
func Statusline(mgr *session.Manager) string {
	return strings.Join(mgr.ActiveDescriptorIDs(), " ")
}
