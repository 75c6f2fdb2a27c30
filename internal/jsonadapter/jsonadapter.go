// Package jsonadapter implements the Object Adapter: a single-record
// wrapper around the Repair Engine for JSON normalization, including the
// contact-specific name-splitting rule the engine itself does not know
// about (it belongs to the adapter, not the coercer, per spec.md §4.4).
package jsonadapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ingresskit/repair/internal/coerce"
	"github.com/ingresskit/repair/internal/engine"
	"github.com/ingresskit/repair/internal/resolver"
	"github.com/ingresskit/repair/internal/schema"
	"github.com/ingresskit/repair/internal/trace"
)

// ErrInvalidJSON / ErrNotAnObject are the structural errors for the JSON
// normalization endpoint (spec.md §7's invalid_json).
var (
	ErrInvalidJSON = fmt.Errorf("invalid_json")
	ErrNotAnObject = fmt.Errorf("invalid_json: expected a JSON object")
)

var nameKeySlugs = map[string]bool{
	"name":      true,
	"full_name": true,
	"fullname":  true,
}

// ParseOrderedObject decodes a top-level JSON object, preserving the order
// its keys appeared in the input (the standard library's map[string]any
// decode does not), so trace order can reflect input order per spec.md §5.
// Scalar values are stringified; nested objects/arrays are re-encoded as
// compact JSON text, since the engine's coercers operate on strings.
func ParseOrderedObject(data []byte) (keys []string, values []string, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, ErrInvalidJSON
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, nil, ErrNotAnObject
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, ErrInvalidJSON
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, ErrInvalidJSON
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, ErrInvalidJSON
		}

		keys = append(keys, key)
		values = append(values, stringifyRaw(raw))
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, ErrInvalidJSON
	}

	return keys, values, nil
}

func stringifyRaw(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return trimFloat(t, raw)
	case bool:
		return fmt.Sprintf("%v", t)
	default:
		return string(raw)
	}
}

// trimFloat prefers the original JSON number text when it parses cleanly,
// avoiding float64 precision artifacts on large integers.
func trimFloat(f float64, raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s != "" {
		return s
	}
	return fmt.Sprintf("%v", f)
}

// Normalize runs the Object Adapter: resolves keys against s, coerces each
// value, and — for the contacts schema specifically — splits a bare "name"
// input into first_name/last_name when neither was already resolved.
func Normalize(s schema.Schema, keys []string, values []string) (engine.Record, []trace.Entry) {
	rec, entries := engine.RepairObject(s, keys, values)

	if s.Name == "contacts" {
		rec, entries = applyNameSplit(keys, values, rec, entries)
	}

	return rec, entries
}

func applyNameSplit(keys []string, values []string, rec engine.Record, entries []trace.Entry) (engine.Record, []trace.Entry) {
	if rec["first_name"].Present || rec["last_name"].Present {
		return rec, entries
	}

	for i, k := range keys {
		if !nameKeySlugs[resolver.Slug(k)] {
			continue
		}
		first, last, entry := coerce.SplitName(values[i])
		if first == "" && last == "" {
			continue
		}
		if first != "" {
			rec["first_name"] = engine.FieldValue{Value: first, Present: true}
		}
		if last != "" {
			rec["last_name"] = engine.FieldValue{Value: last, Present: true}
		}
		entries = append(entries, entry)
		break
	}

	return rec, entries
}
