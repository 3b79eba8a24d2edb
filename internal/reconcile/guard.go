package reconcile

import (
	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/relation"
)

// guardSingular refuses a lookup-less entry on a Single, Owned relationship
// that already holds a child. Creating a second child there would orphan
// the first.
func guardSingular(d relation.Descriptor, parent ir.Record, current []ir.Record) error {
	if d.Cardinality != relation.Single || d.Ownership != relation.Owned {
		return nil
	}
	if len(current) == 0 {
		return nil
	}
	return newRelationAlreadyExists(d, parent, current[0])
}
