package reconcile

import (
	"strconv"
	"strings"

	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/relation"
)

// Resolve classifies every payload entry against the relationship's
// current state. It is pure: current is the parent's associated children
// (at most one for Single), found is every stored child matching one of the
// payload's lookup values.
//
// For each entry carrying a lookup value:
//
//  1. `_destroy` on an associated child      -> KindDestroy
//  2. `_delete` on an associated child       -> KindDetach
//  3. a flag on a stored child not linked    -> KindSkip
//  4. a stored child                         -> KindUpdate
//  5. no stored child, policy Create         -> KindCreateWithLookup
//  6. no stored child, policy Raise          -> KindReject
//
// Flags on lookup values matching no stored child fall through to 5 and 6.
// A KindCreateWithLookup under the "id" key must carry an integer
// identity, otherwise Resolve fails with INVALID_PAYLOAD_SHAPE.
//
// Entries without a lookup value become KindCreate, after guardSingular.
//
// For Collection payloads every lookup entry is resolved, in submission
// order, before any KindCreate action. Repeated lookup values collapse onto
// the first action for that value.
func Resolve(d relation.Descriptor, parent ir.Record, current, found []ir.Record, p Payload) ([]Action, error) {
	r := resolver{d: d, parent: parent, current: current, found: found}

	var lookups, creates []Action
	for _, e := range p.Entries {
		if !e.HasLookup() {
			a, err := r.resolveNew(e)
			if err != nil {
				return nil, err
			}
			creates = append(creates, a)
			continue
		}
		if merged := r.mergeRepeat(lookups, e); merged {
			continue
		}
		if destroyedEarlier(lookups, e) {
			lookups = append(lookups, Action{Kind: KindSkip, Entry: e})
			continue
		}
		a := r.resolveLookup(e)
		if a.Kind == KindCreateWithLookup {
			if err := checkIdentity(d, e); err != nil {
				return nil, err
			}
		}
		lookups = append(lookups, a)
	}

	return append(lookups, creates...), nil
}

type resolver struct {
	d       relation.Descriptor
	parent  ir.Record
	current []ir.Record
	found   []ir.Record
}

func (r *resolver) resolveLookup(e Entry) Action {
	associated, isAssociated := matchKey(r.current, r.d.LookupKey, e.LookupValue)
	stored, isStored := matchKey(r.found, r.d.LookupKey, e.LookupValue)
	if !isStored && isAssociated {
		stored, isStored = associated, true
	}

	switch {
	case e.Destroy && isAssociated:
		return Action{Kind: KindDestroy, Entry: e, Child: associated}
	case e.Delete && isAssociated:
		return Action{Kind: KindDetach, Entry: e, Child: associated}
	case (e.Destroy || e.Delete) && isStored:
		return Action{Kind: KindSkip, Entry: e, Child: stored}
	case isStored:
		return Action{Kind: KindUpdate, Entry: e, Child: stored, Fields: e.Fields}
	case r.d.NonexistentIDPolicy == relation.Create:
		fields := e.Fields.Clone()
		fields[r.d.LookupKey] = e.LookupValue
		return Action{Kind: KindCreateWithLookup, Entry: e, Fields: fields}
	default:
		return Action{Kind: KindReject, Entry: e}
	}
}

func (r *resolver) resolveNew(e Entry) (Action, error) {
	if e.Destroy || e.Delete {
		return Action{Kind: KindSkip, Entry: e}, nil
	}
	if err := guardSingular(r.d, r.parent, r.current); err != nil {
		return Action{}, err
	}
	return Action{Kind: KindCreate, Entry: e, Fields: e.Fields}, nil
}

// mergeRepeat folds a repeated, flag-free lookup entry into the earlier
// update or create for the same value, so the child is associated once.
// Later fields win.
func (r *resolver) mergeRepeat(lookups []Action, e Entry) bool {
	if e.Destroy || e.Delete {
		return false
	}
	key := e.lookupString()
	for i := range lookups {
		prev := &lookups[i]
		if prev.Entry.lookupString() != key {
			continue
		}
		if prev.Kind != KindUpdate && prev.Kind != KindCreateWithLookup {
			continue
		}
		merged := prev.Fields.Clone()
		for k, v := range e.Fields {
			merged[k] = v
		}
		prev.Fields = merged
		prev.Entry.Nested = append(prev.Entry.Nested, e.Nested...)
		return true
	}
	return false
}

// destroyedEarlier reports whether an earlier entry already destroyed the
// child e addresses.
func destroyedEarlier(lookups []Action, e Entry) bool {
	key := e.lookupString()
	for _, prev := range lookups {
		if prev.Kind == KindDestroy && prev.Entry.lookupString() == key {
			return true
		}
	}
	return false
}

// checkIdentity rejects a lookup value that cannot become the identity of
// a new record.
func checkIdentity(d relation.Descriptor, e Entry) error {
	if d.LookupKey != ir.IDKey {
		return nil
	}
	switch v := e.LookupValue.(type) {
	case ir.Int:
		return nil
	case ir.String:
		if _, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64); err == nil {
			return nil
		}
	}
	return shapeError(d, "entry %d: %s %q is not an integer identity", e.Index, ir.IDKey, e.lookupString())
}

func matchKey(records []ir.Record, key string, want ir.Value) (ir.Record, bool) {
	for _, rec := range records {
		if rec.MatchesKey(key, want) {
			return rec, true
		}
	}
	return ir.Record{}, false
}
