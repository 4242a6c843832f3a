package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eli0shin/cli-lsp-client/internal/protocol"
)

func TestSortDiagnosticsOrdersByLineColumnSeverityThenSource(t *testing.T) {
	diags := []protocol.Diagnostic{
		{Range: protocol.Range{Start: protocol.Position{Line: 2, Character: 0}}, Severity: protocol.SeverityError, Source: "b"},
		{Range: protocol.Range{Start: protocol.Position{Line: 1, Character: 5}}, Severity: protocol.SeverityWarning, Source: "a"},
		{Range: protocol.Range{Start: protocol.Position{Line: 1, Character: 1}}, Severity: protocol.SeverityError, Source: "a"},
		{Range: protocol.Range{Start: protocol.Position{Line: 1, Character: 1}}, Severity: protocol.SeverityWarning, Source: "a"},
	}
	sortDiagnostics(diags)

	assert.Equal(t, 1, int(diags[0].Range.Start.Line))
	assert.Equal(t, 1, int(diags[0].Range.Start.Character))
	assert.Equal(t, protocol.SeverityError, diags[0].Severity)

	assert.Equal(t, 1, int(diags[1].Range.Start.Line))
	assert.Equal(t, 1, int(diags[1].Range.Start.Character))
	assert.Equal(t, protocol.SeverityWarning, diags[1].Severity)

	assert.Equal(t, 1, int(diags[2].Range.Start.Line))
	assert.Equal(t, 5, int(diags[2].Range.Start.Character))

	assert.Equal(t, 2, int(diags[3].Range.Start.Line))
}

func TestFormatDiagnosticMatchesWireFormat(t *testing.T) {
	d := protocol.Diagnostic{
		Range:    protocol.Range{Start: protocol.Position{Line: 5, Character: 13}},
		Severity: protocol.SeverityError,
		Source:   "compiler",
		Message:  `cannot use "hello world" (untyped string constant) as int value in variable declaration`,
		Code:     "IncompatibleAssign",
	}
	got := formatDiagnostic(d)
	want := `[compiler] ERROR at line 6, column 14: cannot use "hello world" (untyped string constant) as int value in variable declaration [IncompatibleAssign]`
	assert.Equal(t, want, got)
}

func TestSeverityLabelMapsAllFourLevels(t *testing.T) {
	assert.Equal(t, "ERROR", severityLabel(protocol.SeverityError))
	assert.Equal(t, "WARNING", severityLabel(protocol.SeverityWarning))
	assert.Equal(t, "INFO", severityLabel(protocol.SeverityInformation))
	assert.Equal(t, "HINT", severityLabel(protocol.SeverityHint))
}
