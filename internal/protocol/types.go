// Package protocol holds the LSP/JSON-RPC wire types the daemon speaks to
// language-server subprocesses, plus the dynamic-JSON envelope used to
// demultiplex responses, server-initiated requests and notifications.
//
// The LSP message families are unschematised at the boundary: params/result
// stay as opaque json.RawMessage and are decoded per-method only where this
// repo actually needs the fields (documentSymbol, publishDiagnostics,
// hover), per the source's "Dynamic JSON" design note.
package protocol

import "encoding/json"

// RawJSON defers decoding of a polymorphic LSP field until the call site
// knows which shape to expect.
type RawJSON = json.RawMessage

// DocumentUri is a file:// URI identifying a text document.
type DocumentUri string

// TextDocumentIdentifier identifies a text document.
type TextDocumentIdentifier struct {
	URI DocumentUri `json:"uri"`
}

// Position is a zero-based line/character (UTF-16 code unit) position.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a start/end pair of positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location is a range inside a specific document.
type Location struct {
	URI   DocumentUri `json:"uri"`
	Range Range       `json:"range"`
}

// --- Initialize ---

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type InitializeParams struct {
	ProcessID             int                `json:"processId"`
	ClientInfo            *ClientInfo        `json:"clientInfo,omitempty"`
	RootURI               DocumentUri        `json:"rootUri"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	InitializationOptions any                `json:"initializationOptions,omitempty"`
	Trace                 string             `json:"trace,omitempty"`
}

type ClientCapabilities struct {
	Workspace    WorkspaceClientCapabilities    `json:"workspace,omitempty"`
	TextDocument TextDocumentClientCapabilities `json:"textDocument,omitempty"`
}

type WorkspaceClientCapabilities struct {
	ApplyEdit              bool                                 `json:"applyEdit,omitempty"`
	DidChangeConfiguration DidChangeConfigurationCapabilities    `json:"didChangeConfiguration,omitempty"`
	Symbol                 *WorkspaceSymbolClientCapabilities   `json:"symbol,omitempty"`
}

type DidChangeConfigurationCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
}

type TextDocumentClientCapabilities struct {
	Synchronization    TextDocumentSyncClientCapabilities  `json:"synchronization,omitempty"`
	Hover              HoverClientCapabilities             `json:"hover,omitempty"`
	DocumentSymbol     DocumentSymbolClientCapabilities     `json:"documentSymbol,omitempty"`
	PublishDiagnostics PublishDiagnosticsClientCapabilities `json:"publishDiagnostics,omitempty"`
}

type TextDocumentSyncClientCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
	DidSave             bool `json:"didSave,omitempty"`
}

type HoverClientCapabilities struct {
	DynamicRegistration bool     `json:"dynamicRegistration,omitempty"`
	ContentFormat       []string `json:"contentFormat,omitempty"`
}

type SymbolKindOptions struct {
	ValueSet []SymbolKind `json:"valueSet,omitempty"`
}

type WorkspaceSymbolClientCapabilities struct {
	DynamicRegistration bool               `json:"dynamicRegistration,omitempty"`
	SymbolKind          *SymbolKindOptions `json:"symbolKind,omitempty"`
}

type DocumentSymbolClientCapabilities struct {
	DynamicRegistration               bool               `json:"dynamicRegistration,omitempty"`
	HierarchicalDocumentSymbolSupport bool               `json:"hierarchicalDocumentSymbolSupport,omitempty"`
	SymbolKind                        *SymbolKindOptions `json:"symbolKind,omitempty"`
}

type PublishDiagnosticsClientCapabilities struct {
	RelatedInformation bool `json:"relatedInformation,omitempty"`
	VersionSupport     bool `json:"versionSupport,omitempty"`
}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

type ServerCapabilities struct {
	HoverProvider           bool `json:"hoverProvider,omitempty"`
	DocumentSymbolProvider  bool `json:"documentSymbolProvider,omitempty"`
	WorkspaceSymbolProvider bool `json:"workspaceSymbolProvider,omitempty"`
}

type InitializedParams struct{}

// --- Text document synchronization ---

type TextDocumentItem struct {
	URI        DocumentUri `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int         `json:"version"`
	Text       string      `json:"text"`
}

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// --- Diagnostics ---

type DiagnosticSeverity int

const (
	SeverityError       DiagnosticSeverity = 1
	SeverityWarning     DiagnosticSeverity = 2
	SeverityInformation DiagnosticSeverity = 3
	SeverityHint        DiagnosticSeverity = 4
)

// Diagnostic mirrors the LSP Diagnostic shape. Code is kept as `any` since
// servers disagree on whether it is numeric or a rule-name string.
type Diagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity,omitempty"`
	Code     any                `json:"code,omitempty"`
	Source   string             `json:"source,omitempty"`
	Message  string             `json:"message"`
}

type PublishDiagnosticsParams struct {
	URI         DocumentUri  `json:"uri"`
	Version     *int         `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// --- Hover ---

type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

type HoverParams struct {
	TextDocumentPositionParams
}

type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// MarkedString is the legacy (pre-3.0) hover content shape, still sent by
// some servers instead of MarkupContent: either a plain string or
// {language, value}.
type MarkedString struct {
	Language string `json:"language,omitempty"`
	Value    string `json:"value,omitempty"`
}

// Hover's `contents` field is famously polymorphic across LSP versions:
// MarkupContent, a bare string, a MarkedString, or an array of either. It is
// kept as raw JSON here and decoded by HoverText in hover.go.
type Hover struct {
	Contents RawJSON `json:"contents"`
	Range    *Range  `json:"range,omitempty"`
}

// --- Document symbols ---

type SymbolKind int

const (
	SKFile          SymbolKind = 1
	SKModule        SymbolKind = 2
	SKNamespace     SymbolKind = 3
	SKPackage       SymbolKind = 4
	SKClass         SymbolKind = 5
	SKMethod        SymbolKind = 6
	SKProperty      SymbolKind = 7
	SKField         SymbolKind = 8
	SKConstructor   SymbolKind = 9
	SKEnum          SymbolKind = 10
	SKInterface     SymbolKind = 11
	SKFunction      SymbolKind = 12
	SKVariable      SymbolKind = 13
	SKConstant      SymbolKind = 14
	SKString        SymbolKind = 15
	SKNumber        SymbolKind = 16
	SKBoolean       SymbolKind = 17
	SKArray         SymbolKind = 18
	SKObject        SymbolKind = 19
	SKKey           SymbolKind = 20
	SKNull          SymbolKind = 21
	SKEnumMember    SymbolKind = 22
	SKStruct        SymbolKind = 23
	SKEvent         SymbolKind = 24
	SKOperator      SymbolKind = 25
	SKTypeParameter SymbolKind = 26
)

type DocumentSymbolParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DocumentSymbol is the hierarchical document symbol shape
// (textDocument/documentSymbol with hierarchicalDocumentSymbolSupport).
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           SymbolKind       `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// SymbolInformation is the flat, pre-3.10 document/workspace symbol shape.
type SymbolInformation struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	Location      Location   `json:"location"`
	ContainerName string     `json:"containerName,omitempty"`
}
