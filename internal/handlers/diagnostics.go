// Package handlers implements the request handlers C5 exposes on top of the
// transport (C2) and session manager (C4): diagnostics, hover, status and
// statusline. The lifecycle commands (start, stop, stop-all, list, logs)
// are handled in main.go, not here.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/eli0shin/cli-lsp-client/internal/protocol"
	"github.com/eli0shin/cli-lsp-client/internal/registry"
	"github.com/eli0shin/cli-lsp-client/internal/session"
)

// DefaultDiagTimeout and DefaultQuiescence are the §4.5/§9 fallbacks; the
// config layer can override both.
const (
	DefaultDiagTimeout = 5 * time.Second
	DefaultQuiescence  = 400 * time.Millisecond
)

// DiagnosticsResult is the outcome of a `diagnostics <file>` call.
type DiagnosticsResult struct {
	Lines    []string
	ExitCode int
}

// Diagnostics implements §4.5's diagnostics operation: open the file, wait
// for the server's diagnostics to settle (first batch or quiescence window,
// per the descriptor's ReadyKind), close the file, and format the result.
func Diagnostics(ctx context.Context, mgr *session.Manager, filePath string, diagTimeout, quiescence time.Duration) (*DiagnosticsResult, error) {
	if diagTimeout <= 0 {
		diagTimeout = DefaultDiagTimeout
	}
	if quiescence <= 0 {
		quiescence = DefaultQuiescence
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", filePath, err)
	}

	inst, err := mgr.EnsureServer(ctx, absPath)
	if errors.Is(err, session.ErrNoDescriptor) {
		// §7: NoDescriptor for diagnostics is a success with no diagnostics.
		return &DiagnosticsResult{ExitCode: 0}, nil
	}
	if err != nil {
		return nil, err
	}

	uri := protocol.DocumentUri("file://" + absPath)

	// Subscribe before didOpen (§5 ordering guarantee): a fast server's
	// first batch must never race ahead of the waiter.
	ch := inst.Client.SubscribeDiagnostics(uri)
	defer inst.Client.UnsubscribeDiagnostics(uri, ch)

	of, err := inst.OpenDocument(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", absPath, err)
	}
	defer inst.CloseDocument(context.Background(), absPath)

	waitForDiagnostics(ctx, uri, ch, of.Version, inst.Descriptor.ReadyKind, diagTimeout, quiescence)

	diags := inst.Client.Diagnostics(uri)
	sortDiagnostics(diags)

	lines := make([]string, 0, len(diags))
	for _, d := range diags {
		lines = append(lines, formatDiagnostic(d))
	}

	exitCode := 0
	if len(diags) > 0 {
		exitCode = 2
	}
	return &DiagnosticsResult{Lines: lines, ExitCode: exitCode}, nil
}

// waitForDiagnostics blocks until diagTimeout elapses or the descriptor's
// ready predicate is satisfied by a notification whose document version
// equals expectedVersion (§4.5 step 3): ReadyOnFirstBatch returns on the
// first such signal, ReadyOnQuiescence waits until quiescence has passed
// since the most recent one. A signal for any other version is a batch
// meant for a different (concurrent, or since-superseded) open of the same
// URI and is ignored; a server that never versions its notifications (0)
// can't be filtered this way and every signal is treated as a match.
func waitForDiagnostics(ctx context.Context, uri protocol.DocumentUri, ch <-chan int, expectedVersion int, kind registry.ReadyKind, diagTimeout, quiescence time.Duration) {
	deadline := time.NewTimer(diagTimeout)
	defer deadline.Stop()

	quiet := time.NewTimer(diagTimeout)
	if !quiet.Stop() {
		<-quiet.C
	}
	defer quiet.Stop()
	quietArmed := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case v := <-ch:
			if v != 0 && v != expectedVersion {
				continue
			}
			if kind == registry.ReadyOnFirstBatch {
				return
			}
			if quietArmed && !quiet.Stop() {
				select {
				case <-quiet.C:
				default:
				}
			}
			quiet.Reset(quiescence)
			quietArmed = true
		case <-quiet.C:
			if quietArmed {
				return
			}
		}
	}
}

func formatDiagnostic(d protocol.Diagnostic) string {
	code := ""
	if d.Code != nil {
		code = fmt.Sprintf(" [%v]", d.Code)
	}
	return fmt.Sprintf("[%s] %s at line %d, column %d: %s%s",
		d.Source,
		severityLabel(d.Severity),
		d.Range.Start.Line+1,
		d.Range.Start.Character+1,
		d.Message,
		code,
	)
}

func severityLabel(s protocol.DiagnosticSeverity) string {
	switch s {
	case protocol.SeverityError:
		return "ERROR"
	case protocol.SeverityWarning:
		return "WARNING"
	case protocol.SeverityInformation:
		return "INFO"
	case protocol.SeverityHint:
		return "HINT"
	default:
		return "UNKNOWN"
	}
}
