package reconcile

import (
	"github.com/roach88/reassign/internal/ir"
)

// ActionKind is the decision taken for one payload entry.
type ActionKind string

const (
	// KindDestroy deletes the associated child from the store.
	KindDestroy ActionKind = "destroy"

	// KindDetach unlinks the associated child; the record is kept.
	KindDetach ActionKind = "detach"

	// KindUpdate writes fields onto an existing child and associates it.
	KindUpdate ActionKind = "update"

	// KindCreateWithLookup creates a child carrying the unmatched lookup value.
	KindCreateWithLookup ActionKind = "create_with_lookup"

	// KindCreate creates a new child from fields.
	KindCreate ActionKind = "create"

	// KindReject fails the call with RECORD_NOT_FOUND.
	KindReject ActionKind = "reject"

	// KindSkip leaves everything unchanged: a flag addressed a child that is
	// not associated with this parent.
	KindSkip ActionKind = "skip"
)

// Action is a resolved payload entry.
type Action struct {
	Kind  ActionKind
	Entry Entry

	// Child is the existing child acted on (destroy, detach, update).
	Child ir.Record

	// Fields are written on update, or used to build the child on create.
	Fields ir.Object
}

// mutates reports whether the action changes the store or the association.
func (a Action) mutates() bool {
	return a.Kind != KindSkip && a.Kind != KindReject
}
