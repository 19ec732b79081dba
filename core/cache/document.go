package cache

import (
	"encoding/json"
	"fmt"
)

// Document is a parsed JSON object. It is never modified after parsing; a reload
// builds a new Document and swaps it in.
type Document struct {
	raw  []byte
	root map[string]any
}

// ParseDocument parses raw JSON and requires an object at the root.
func ParseDocument(raw []byte) (*Document, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	root, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidShape, jsonKind(v))
	}
	return &Document{raw: raw, root: root}, nil
}

// Root returns the top-level object. Callers must not modify it.
func (d *Document) Root() map[string]any {
	if d == nil {
		return nil
	}
	return d.root
}

// Size is the length in bytes of the source the document was parsed from.
func (d *Document) Size() int64 {
	if d == nil {
		return 0
	}
	return int64(len(d.raw))
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
