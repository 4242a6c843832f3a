package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eli0shin/cli-lsp-client/internal/protocol"
	"github.com/eli0shin/cli-lsp-client/internal/session"
)

// NoHoverMessage is the literal fallback text §4.5 step 4 requires when no
// hover content was found for the requested symbol.
const NoHoverMessage = "No hover information found for the symbol."

// Hover implements §4.5's hover operation: resolve symbol to one or more
// positions via documentSymbol, request hover at each, and aggregate
// non-empty results in document order.
func Hover(ctx context.Context, mgr *session.Manager, filePath, symbol string) (string, error) {
	inst, err := mgr.EnsureServer(ctx, filePath)
	if errors.Is(err, session.ErrNoDescriptor) {
		return NoHoverMessage, nil
	}
	if err != nil {
		return "", err
	}

	uri := protocol.DocumentUri("file://" + filePath)

	if _, err := inst.OpenDocument(ctx, filePath); err != nil {
		return "", fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer inst.CloseDocument(context.Background(), filePath)

	symbols, err := inst.Client.DocumentSymbols(ctx, uri)
	if err != nil {
		return "", fmt.Errorf("documentSymbol %s: %w", filePath, err)
	}

	var entries []string
	for _, sym := range symbols {
		if sym.Name != symbol {
			continue
		}
		pos := sym.SelectionRange.Start
		hov, err := inst.Client.Hover(ctx, uri, pos)
		if err != nil || hov == nil {
			continue
		}
		text := protocol.HoverText(*hov)
		if text == "" {
			continue
		}
		entries = append(entries, fmt.Sprintf("Location: %s:%d:%d\n%s", filePath, pos.Line+1, pos.Character+1, text))
	}

	if len(entries) == 0 {
		return NoHoverMessage, nil
	}
	return strings.Join(entries, "\n\n"), nil
}
