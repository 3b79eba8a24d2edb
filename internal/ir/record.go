package ir

import (
	"fmt"
	"strconv"
)

// IDKey is the lookup key that addresses a record's primary identity
// rather than one of its fields.
const IDKey = "id"

// Record is a persisted entity: a type name, a store-assigned identity,
// and its attribute set.
type Record struct {
	Type   string `json:"type"`
	ID     int64  `json:"id"`
	Fields Object `json:"fields"`
}

// Ref returns the "Type:ID" form used in logs and CLI flags.
func (r Record) Ref() string {
	return r.Type + ":" + strconv.FormatInt(r.ID, 10)
}

// Key returns the value r carries under key. The IDKey resolves to the
// record identity; any other key reads Fields.
func (r Record) Key(key string) (Value, bool) {
	if key == IDKey {
		return Int(r.ID), true
	}
	v, ok := r.Fields[key]
	if !ok || IsNull(v) {
		return nil, false
	}
	return v, true
}

// MatchesKey reports whether r's value under key equals want when both
// are compared in their KeyString form.
func (r Record) MatchesKey(key string, want Value) bool {
	have, ok := r.Key(key)
	if !ok {
		return false
	}
	hs, ok := KeyString(have)
	if !ok {
		return false
	}
	ws, ok := KeyString(want)
	if !ok {
		return false
	}
	return hs == ws
}

// ParseRef parses a "Type:ID" reference.
func ParseRef(ref string) (string, int64, error) {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] != ':' {
			continue
		}
		typ := ref[:i]
		if typ == "" {
			return "", 0, fmt.Errorf("parse ref %q: missing type", ref)
		}
		id, err := strconv.ParseInt(ref[i+1:], 10, 64)
		if err != nil {
			return "", 0, fmt.Errorf("parse ref %q: %w", ref, err)
		}
		return typ, id, nil
	}
	return "", 0, fmt.Errorf("parse ref %q: expected Type:ID", ref)
}
