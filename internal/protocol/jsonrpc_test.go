package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDistinguishesMessageFamilies(t *testing.T) {
	assert.Equal(t, KindResponse, Classify([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)))
	assert.Equal(t, KindRequest, Classify([]byte(`{"jsonrpc":"2.0","id":2,"method":"workspace/configuration"}`)))
	assert.Equal(t, KindNotification, Classify([]byte(`{"jsonrpc":"2.0","method":"textDocument/publishDiagnostics"}`)))
	assert.Equal(t, KindUnknown, Classify([]byte(`{"jsonrpc":"2.0"}`)))
}

func TestIDStringHandlesStringAndNumericIDs(t *testing.T) {
	assert.Equal(t, "42", IDString([]byte("42")))
	assert.Equal(t, "abc", IDString([]byte(`"abc"`)))
}

func TestNewRequestRoundTripsParams(t *testing.T) {
	msg, err := NewRequest(7, "textDocument/hover", HoverParams{
		TextDocumentPositionParams: TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: "file:///a.go"},
			Position:     Position{Line: 1, Character: 5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2.0", msg.JSONRPC)
	assert.Equal(t, "textDocument/hover", msg.Method)
	assert.Equal(t, "7", IDString(msg.ID))
}

func TestNewNotificationHasNoID(t *testing.T) {
	msg, err := NewNotification("textDocument/didOpen", DidOpenTextDocumentParams{})
	require.NoError(t, err)
	assert.Empty(t, msg.ID)
	assert.Equal(t, "textDocument/didOpen", msg.Method)
}

func TestHoverTextHandlesAllShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"markup", `{"kind":"markdown","value":"func add(a, b int) int"}`, "func add(a, b int) int"},
		{"plain string", `"just text"`, "just text"},
		{"marked string", `{"language":"go","value":"x int"}`, "x int"},
		{"array", `[{"language":"go","value":"a"},{"language":"go","value":"b"}]`, "a\n\nb"},
		{"null", `null`, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := HoverText(Hover{Contents: RawJSON(c.raw)})
			assert.Equal(t, c.want, got)
		})
	}
}
