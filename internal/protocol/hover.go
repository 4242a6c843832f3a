package protocol

import "encoding/json"

// HoverText extracts the human-readable text from a Hover's polymorphic
// `contents` field, regardless of which of the four shapes the server used.
func HoverText(h Hover) string {
	if len(h.Contents) == 0 || string(h.Contents) == "null" {
		return ""
	}

	var markup MarkupContent
	if err := json.Unmarshal(h.Contents, &markup); err == nil && markup.Value != "" {
		return markup.Value
	}

	var plain string
	if err := json.Unmarshal(h.Contents, &plain); err == nil {
		return plain
	}

	var marked MarkedString
	if err := json.Unmarshal(h.Contents, &marked); err == nil && marked.Value != "" {
		return marked.Value
	}

	var list []json.RawMessage
	if err := json.Unmarshal(h.Contents, &list); err == nil {
		var parts []string
		for _, item := range list {
			parts = append(parts, HoverText(Hover{Contents: item}))
		}
		return joinNonEmpty(parts, "\n\n")
	}

	return ""
}

func joinNonEmpty(parts []string, sep string) string {
	var out string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
