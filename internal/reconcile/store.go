package reconcile

import (
	"context"

	"github.com/roach88/reassign/internal/ir"
)

// Store is the entity store reconciliation reads from and writes to.
// Implemented by store.Store (SQLite).
//
// Lookup-key comparison is textual: Int(23) and String("23") match the
// same record. The key ir.IDKey addresses record identity.
type Store interface {
	// FindByKey returns every record of childType whose key matches one of
	// values, in identity order.
	FindByKey(ctx context.Context, childType, key string, values []ir.Value) ([]ir.Record, error)

	// FindOneByKey returns the first record of childType matching value.
	FindOneByKey(ctx context.Context, childType, key string, value ir.Value) (ir.Record, bool, error)

	// Create inserts a record. A fields entry under ir.IDKey requests that
	// identity explicitly.
	Create(ctx context.Context, childType string, fields ir.Object) (ir.Record, error)

	// UpdateFields merges fields into rec's stored attributes and returns
	// the updated record. Attributes not in fields are unchanged.
	UpdateFields(ctx context.Context, rec ir.Record, fields ir.Object) (ir.Record, error)

	// Delete removes rec and every association link that references it.
	Delete(ctx context.Context, rec ir.Record) error

	// CurrentAssociation returns the children linked to parent under
	// relation, in association order.
	CurrentAssociation(ctx context.Context, parent ir.Record, relation string) ([]ir.Record, error)

	// SetAssociation replaces the links of parent under relation with
	// children, in order. Unlinked children are not deleted.
	SetAssociation(ctx context.Context, parent ir.Record, relation string, children []ir.Record) error

	// ReleaseChild unlinks child under relation from every parent of
	// keep's type other than keep.
	ReleaseChild(ctx context.Context, keep ir.Record, relation string, child ir.Record) error
}

// Recorder is implemented by stores that keep an audit log of applied
// actions. The reconciler records through it when available.
type Recorder interface {
	RecordMutation(ctx context.Context, m ir.Mutation) error
}
