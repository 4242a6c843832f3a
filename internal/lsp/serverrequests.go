package lsp

import (
	"encoding/json"

	"github.com/eli0shin/cli-lsp-client/internal/protocol"
	"github.com/tidwall/sjson"
)

// installDefaultServerRequestHandlers wires the minimal, always-valid
// responses spec §4.2 requires for server-initiated requests the core
// doesn't otherwise act on: an empty configuration, an accepted progress
// token, and a no-op capability registration acknowledgement. The
// workspace/configuration reply (one empty object per requested item) is
// built with sjson; the other replies are plain Go values.
func (c *Client) installDefaultServerRequestHandlers() {
	c.RegisterServerRequestHandler("workspace/configuration", func(params protocol.RawJSON) (any, error) {
		var req struct {
			Items []json.RawMessage `json:"items"`
		}
		_ = json.Unmarshal(params, &req)

		out := "[]"
		for range req.Items {
			var err error
			out, err = sjson.SetRaw(out, "-1", "{}")
			if err != nil {
				return []any{}, nil
			}
		}
		var result []any
		_ = json.Unmarshal([]byte(out), &result)
		return result, nil
	})

	c.RegisterServerRequestHandler("window/workDoneProgress/create", func(_ protocol.RawJSON) (any, error) {
		return struct{}{}, nil
	})

	c.RegisterServerRequestHandler("client/registerCapability", func(_ protocol.RawJSON) (any, error) {
		return nil, nil
	})

	c.RegisterServerRequestHandler("client/unregisterCapability", func(_ protocol.RawJSON) (any, error) {
		return nil, nil
	})

	c.RegisterNotificationHandler("window/showMessage", func(params protocol.RawJSON) {
		var msg struct {
			Type    int    `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(params, &msg); err == nil {
			c.logger.Printf("server message: %s", msg.Message)
		}
	})

	c.RegisterNotificationHandler("window/logMessage", func(params protocol.RawJSON) {
		var msg struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(params, &msg); err == nil {
			c.logger.Printf("server log: %s", msg.Message)
		}
	})
}
