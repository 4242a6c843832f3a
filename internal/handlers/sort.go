package handlers

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/eli0shin/cli-lsp-client/internal/protocol"
)

// sourceCollator gives the (line, column, severity, source) ordering in
// §4.5 step 5 a locale-stable tiebreak on Source instead of a raw byte
// comparison, so e.g. diacritic-bearing source names from non-English
// language servers sort predictably.
var sourceCollator = collate.New(language.Und)

// sortDiagnostics orders diags in place by (line, column, severity, source),
// the total order §8 requires of diagnostic output.
func sortDiagnostics(diags []protocol.Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line < b.Range.Start.Line
		}
		if a.Range.Start.Character != b.Range.Start.Character {
			return a.Range.Start.Character < b.Range.Start.Character
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		return sourceCollator.CompareString(a.Source, b.Source) < 0
	})
}
