package mindmap

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/promptmap/promptmap/pkg/errors"
)

// Decode parses and validates raw JSON into a Document.
//
// The input must be an object whose only top-level key is RootKey, with an
// object-shaped node value. Any other top-level key, a non-object root, or a
// malformed nested node yields a SCHEMA_INVALID error naming the failed
// constraint; the caller gets no document.
//
// If the input is not syntactically valid JSON, one repair pass removes
// trailing commas before closing braces and brackets and the result is parsed
// again. If it still fails, Decode returns ENCODING_INVALID.
//
// Decode is pure: it never mutates its input and has no side effects. Missing
// or non-string "text" values decode to the empty string; placeholder
// substitution happens at render time.
func Decode(raw []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		repaired := repairTrailingCommas(raw)
		if err2 := json.Unmarshal(repaired, &top); err2 != nil {
			return nil, errors.Wrap(errors.ErrCodeEncoding, err2, "document is not valid JSON")
		}
		raw = repaired
	}

	rootRaw, ok := top[RootKey]
	if !ok {
		return nil, errors.New(errors.ErrCodeSchema, "missing root key %q", RootKey)
	}
	if len(top) != 1 {
		for k := range top {
			if k != RootKey {
				return nil, errors.New(errors.ErrCodeSchema, "unexpected top-level key %q", k)
			}
		}
	}

	root, err := decodeNode(rootRaw, "root")
	if err != nil {
		return nil, err
	}
	return &Document{Root: root}, nil
}

// rawNode mirrors the wire shape of one node with deferred field decoding,
// so type mismatches can be reported per field.
type rawNode struct {
	Text     json.RawMessage   `json:"text"`
	Children []json.RawMessage `json:"children"`
}

func decodeNode(raw json.RawMessage, path string) (*Node, error) {
	// Unmarshalling null into a struct is a no-op, so it has to be rejected
	// before the shape check or a null node would pass as an empty object.
	if string(bytes.TrimSpace(raw)) == "null" {
		return nil, errors.New(errors.ErrCodeSchema, "node %s is not an object", path)
	}

	var rn rawNode
	if err := json.Unmarshal(raw, &rn); err != nil {
		return nil, errors.New(errors.ErrCodeSchema, "node %s is not an object", path)
	}

	n := &Node{}

	// text: missing, null, or non-string values stay empty. The render engine
	// substitutes a placeholder so the document remains structurally valid.
	if len(rn.Text) > 0 && string(rn.Text) != "null" {
		var s string
		if err := json.Unmarshal(rn.Text, &s); err == nil {
			n.Text = s
		}
	}

	for i, childRaw := range rn.Children {
		child, err := decodeNode(childRaw, fmt.Sprintf("%s/%d", path, i))
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}

	return n, nil
}

// repairTrailingCommas removes commas that directly precede a closing brace
// or bracket, outside of string literals. This is the one mechanical fix-up
// applied to malformed model output; anything else is a hard failure.
func repairTrailingCommas(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
			out = append(out, c)
		case ',':
			// Look ahead past whitespace; drop the comma if a closer follows.
			j := i + 1
			for j < len(raw) && isSpace(raw[j]) {
				j++
			}
			if j < len(raw) && (raw[j] == '}' || raw[j] == ']') {
				continue
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
