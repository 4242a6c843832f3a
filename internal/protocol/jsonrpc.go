package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Message is a JSON-RPC 2.0 envelope covering all three LSP message
// families (request, response, notification). ID is kept as RawJSON because
// JSON-RPC ids may be a string or a number and the two must round-trip
// byte-for-byte back to the server.
type Message struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      RawJSON        `json:"id,omitempty"`
	Method  string         `json:"method,omitempty"`
	Params  RawJSON        `json:"params,omitempty"`
	Result  RawJSON        `json:"result,omitempty"`
	Error   *ResponseError `json:"error,omitempty"`
}

// ResponseError is a JSON-RPC 2.0 error object.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("LSP error %d: %s", e.Code, e.Message)
}

// Kind classifies a raw frame without fully unmarshaling it, using gjson to
// peek at the `method` and `id` fields — the "Dynamic JSON" design note
// calls for routing on a tagged variant before committing to a per-method
// decode.
type Kind int

const (
	KindUnknown Kind = iota
	KindResponse
	KindRequest
	KindNotification
)

// Classify inspects a raw JSON-RPC frame and reports which of the three LSP
// message families it belongs to. It does not inspect a response's error
// field.
func Classify(raw []byte) Kind {
	method := gjson.GetBytes(raw, "method")
	id := gjson.GetBytes(raw, "id")

	switch {
	case !method.Exists() && id.Exists():
		return KindResponse
	case method.Exists() && id.Exists():
		return KindRequest
	case method.Exists():
		return KindNotification
	default:
		return KindUnknown
	}
}

// IDString normalizes a JSON-RPC id (string or number on the wire) to a
// string key suitable for a pending-request table.
func IDString(raw []byte) string {
	r := gjson.ParseBytes(raw)
	if r.Type == gjson.Number {
		return r.Raw
	}
	return r.String()
}

// NewRequestID encodes an int64 request id as a JSON-RPC id (a bare JSON
// number, matching what every LSP server expects).
func NewRequestID(id int64) RawJSON {
	return RawJSON(fmt.Sprintf("%d", id))
}

// NewRequest builds a request Message, marshaling params.
func NewRequest(id int64, method string, params any) (*Message, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params for %s: %w", method, err)
	}
	return &Message{
		JSONRPC: "2.0",
		ID:      NewRequestID(id),
		Method:  method,
		Params:  paramsJSON,
	}, nil
}

// NewNotification builds a notification Message (no id, no response
// expected).
func NewNotification(method string, params any) (*Message, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params for %s: %w", method, err)
	}
	return &Message{
		JSONRPC: "2.0",
		Method:  method,
		Params:  paramsJSON,
	}, nil
}
