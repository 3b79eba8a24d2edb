package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/reassign/internal/ir"
)

// marshalFields converts fields to canonical JSON TEXT for storage.
// Canonical output keeps identical field sets byte-identical on disk.
func marshalFields(fields ir.Object) (string, error) {
	if fields == nil {
		fields = ir.Object{}
	}
	data, err := ir.MarshalCanonical(fields)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return string(data), nil
}

// unmarshalFields parses stored JSON TEXT into fields.
// ir.Object.UnmarshalJSON keeps full int64 precision.
func unmarshalFields(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return ir.Object{}, nil
	}
	var obj ir.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return obj, nil
}

// explicitID extracts a caller-supplied identity from fields.
func explicitID(fields ir.Object) (int64, bool, error) {
	v, ok := fields[ir.IDKey]
	if !ok || ir.IsNull(v) {
		return 0, false, nil
	}
	switch val := v.(type) {
	case ir.Int:
		return int64(val), true, nil
	case ir.String:
		n, err := strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("id %q is not an integer", string(val))
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("id must be an integer, got %T", v)
	}
}

// jsonPath builds the json_extract path for a top-level field.
func jsonPath(key string) (string, error) {
	if strings.ContainsAny(key, `"\`) {
		return "", fmt.Errorf("unsupported lookup key %q", key)
	}
	return `$."` + key + `"`, nil
}

// keyStrings renders lookup values in their textual comparison form.
// Values with no key form (lists, objects, null) are dropped. Booleans
// also carry the 1/0 text json_extract produces for them; callers
// re-check candidates with ir.Record.MatchesKey.
func keyStrings(values []ir.Value) []any {
	out := make([]any, 0, len(values))
	seen := make(map[string]bool, len(values))
	add := func(s string) {
		if seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, v := range values {
		s, ok := ir.KeyString(v)
		if !ok {
			continue
		}
		add(s)
		if b, isBool := v.(ir.Bool); isBool {
			if b {
				add("1")
			} else {
				add("0")
			}
		}
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
