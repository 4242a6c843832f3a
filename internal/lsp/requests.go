package lsp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eli0shin/cli-lsp-client/internal/protocol"
)

// Hover requests textDocument/hover at pos.
func (c *Client) Hover(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) (*protocol.Hover, error) {
	params := protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
	}
	var raw protocol.RawJSON
	if err := c.Call(ctx, "textDocument/hover", params, &raw); err != nil {
		return nil, fmt.Errorf("textDocument/hover: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var hover protocol.Hover
	if err := json.Unmarshal(raw, &hover); err != nil {
		return nil, fmt.Errorf("unmarshal hover result: %w", err)
	}
	return &hover, nil
}

// DocumentSymbols requests textDocument/documentSymbol and normalizes the
// two possible result shapes (hierarchical DocumentSymbol or flat
// SymbolInformation) down to a single flat list with resolved positions,
// which is all hover/diagnostics-adjacent callers need.
func (c *Client) DocumentSymbols(ctx context.Context, uri protocol.DocumentUri) ([]ResolvedSymbol, error) {
	params := protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}
	var raw protocol.RawJSON
	if err := c.Call(ctx, "textDocument/documentSymbol", params, &raw); err != nil {
		return nil, fmt.Errorf("textDocument/documentSymbol: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var hierarchical []protocol.DocumentSymbol
	if err := json.Unmarshal(raw, &hierarchical); err == nil && looksHierarchical(raw) {
		var out []ResolvedSymbol
		for _, sym := range hierarchical {
			out = append(out, flattenDocumentSymbol(sym)...)
		}
		return out, nil
	}

	var flat []protocol.SymbolInformation
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("unmarshal documentSymbol result: %w", err)
	}
	out := make([]ResolvedSymbol, 0, len(flat))
	for _, sym := range flat {
		out = append(out, ResolvedSymbol{
			Name:           sym.Name,
			Kind:           sym.Kind,
			SelectionRange: sym.Location.Range,
		})
	}
	return out, nil
}

// ResolvedSymbol is a flattened, position-bearing symbol independent of
// which documentSymbol shape the server returned.
type ResolvedSymbol struct {
	Name           string
	Kind           protocol.SymbolKind
	SelectionRange protocol.Range
}

func flattenDocumentSymbol(sym protocol.DocumentSymbol) []ResolvedSymbol {
	out := []ResolvedSymbol{{Name: sym.Name, Kind: sym.Kind, SelectionRange: sym.SelectionRange}}
	for _, child := range sym.Children {
		out = append(out, flattenDocumentSymbol(child)...)
	}
	return out
}

// looksHierarchical guards against encoding/json happily decoding a flat
// SymbolInformation array into []DocumentSymbol with zero-valued fields
// (both are JSON objects, so a naive Unmarshal never errors) by checking
// for a field unique to each shape.
func looksHierarchical(raw []byte) bool {
	var probe []struct {
		SelectionRange *protocol.Range `json:"selectionRange"`
		Location       *protocol.Location `json:"location"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || len(probe) == 0 {
		return false
	}
	return probe[0].SelectionRange != nil && probe[0].Location == nil
}
