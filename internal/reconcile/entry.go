package reconcile

import (
	"github.com/roach88/reassign/internal/ir"
)

// Reserved payload keys.
const (
	DestroyKey = "_destroy"
	DeleteKey  = "_delete"

	// NestedSuffix marks a field holding a nested payload for one of the
	// child's own relationships, e.g. "toys_attributes".
	NestedSuffix = "_attributes"
)

// Entry is one normalized payload entry. It is built fresh for every
// Reconcile call and discarded afterwards.
type Entry struct {
	// Index is the entry's position in the submitted payload.
	Index int

	// LookupValue matches the entry to an existing child. Nil when absent.
	LookupValue ir.Value

	// Destroy and Delete are the `_destroy` / `_delete` flags.
	Destroy bool
	Delete  bool

	// Fields are the remaining attributes, without the lookup key and flags.
	Fields ir.Object

	// Nested holds payloads for the child's own declared relationships,
	// split out of Fields by the reconciler.
	Nested []Nested
}

// HasLookup reports whether the entry carries a lookup value.
func (e Entry) HasLookup() bool {
	return e.LookupValue != nil
}

// lookupString is the KeyString form of the lookup value.
func (e Entry) lookupString() string {
	s, _ := ir.KeyString(e.LookupValue)
	return s
}

// Nested is a grandchild payload addressed to one of the child's
// relationships.
type Nested struct {
	Relation string
	Payload  ir.Value
}

// Payload is a normalized nested payload.
type Payload struct {
	// Many is true when the payload was a sequence (or an indexed map).
	Many    bool
	Entries []Entry
}

// Truthy reports whether v is one of the accepted flag values:
// true, 1, "1", "true". Everything else, including unparseable values, is
// false.
func Truthy(v ir.Value) bool {
	switch val := v.(type) {
	case ir.Bool:
		return bool(val)
	case ir.Int:
		return val == 1
	case ir.String:
		return val == "1" || val == "true"
	default:
		return false
	}
}
