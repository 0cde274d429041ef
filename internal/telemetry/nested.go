package telemetry

import "encoding/json"

// Lookup walks path through v and returns the value found, or def when v is
// nil, any intermediate key is missing, or an intermediate value is not an
// object. When v (or an intermediate value) is a string it is parsed once as
// JSON before traversal; history blobs are occasionally double-encoded.
func Lookup(v any, def any, path ...string) any {
	cur := decodeIfString(v)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return def
		}
		next, ok := m[key]
		if !ok || next == nil {
			return def
		}
		cur = decodeIfString(next)
	}
	if cur == nil {
		return def
	}
	return cur
}

// decodeIfString attempts a single JSON parse of string values so that
// stringified objects traverse like real ones. Non-JSON strings pass through
// unchanged.
func decodeIfString(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return v
	}
	// A bare JSON string ("abc") decodes to itself; keep the original to
	// avoid infinite re-parsing by callers.
	if _, isStr := parsed.(string); isStr {
		return v
	}
	return parsed
}

// LookupString returns the string at path, or def.
func LookupString(v any, def string, path ...string) string {
	got := Lookup(v, def, path...)
	if s, ok := got.(string); ok {
		return s
	}
	return def
}

// LookupInt returns the integer at path, or def. JSON numbers arrive as
// float64 after a generic decode.
func LookupInt(v any, def int, path ...string) int {
	switch got := Lookup(v, def, path...).(type) {
	case int:
		return got
	case int64:
		return int(got)
	case float64:
		return int(got)
	case json.Number:
		if n, err := got.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}

// LookupInt64 returns the 64-bit integer at path, or def.
func LookupInt64(v any, def int64, path ...string) int64 {
	switch got := Lookup(v, def, path...).(type) {
	case int:
		return int64(got)
	case int64:
		return got
	case float64:
		return int64(got)
	case json.Number:
		if n, err := got.Int64(); err == nil {
			return n
		}
	}
	return def
}

// LookupBool returns the boolean at path, or def.
func LookupBool(v any, def bool, path ...string) bool {
	if b, ok := Lookup(v, def, path...).(bool); ok {
		return b
	}
	return def
}
