package relation

import (
	"fmt"

	"github.com/roach88/reassign/internal/ir"
)

// Cardinality says whether a relationship holds one child or many.
type Cardinality string

const (
	Single     Cardinality = "single"
	Collection Cardinality = "collection"
)

// Ownership says how the child is linked to the parent.
//
// Owned children hang off a foreign key; JoinTable children are linked
// through a join row. In both cases a `_delete` entry only removes the link
// and a `_destroy` entry deletes the child record.
type Ownership string

const (
	Owned     Ownership = "owned"
	JoinTable Ownership = "join_table"
)

// NonexistentIDPolicy decides what happens to a payload entry whose lookup
// value matches no stored child.
type NonexistentIDPolicy string

const (
	Raise  NonexistentIDPolicy = "raise"
	Create NonexistentIDPolicy = "create"
)

// Descriptor is the immutable configuration of one reassignable
// relationship.
type Descriptor struct {
	ParentType          string              `json:"parent_type"`
	Name                string              `json:"name"`
	ChildType           string              `json:"child_type"`
	Cardinality         Cardinality         `json:"cardinality"`
	Ownership           Ownership           `json:"ownership"`
	LookupKey           string              `json:"lookup_key"`
	NonexistentIDPolicy NonexistentIDPolicy `json:"nonexistent_id"`
}

// AllowDestroy is always true: `_destroy` entries are honored on every
// reassignable relationship and cannot be switched off.
func (d Descriptor) AllowDestroy() bool {
	return true
}

// String returns "Parent.name".
func (d Descriptor) String() string {
	return d.ParentType + "." + d.Name
}

// Options are the declaration-time settings of a relationship. Zero values
// select the defaults: Owned, lookup by "id", Raise on unknown lookup values.
type Options struct {
	ChildType           string
	Cardinality         Cardinality
	Ownership           Ownership
	LookupKey           string
	NonexistentIDPolicy NonexistentIDPolicy
}

func newDescriptor(parentType, name string, opts Options) (Descriptor, error) {
	d := Descriptor{
		ParentType:          parentType,
		Name:                name,
		ChildType:           opts.ChildType,
		Cardinality:         opts.Cardinality,
		Ownership:           opts.Ownership,
		LookupKey:           opts.LookupKey,
		NonexistentIDPolicy: opts.NonexistentIDPolicy,
	}

	if d.Ownership == "" {
		d.Ownership = Owned
	}
	if d.LookupKey == "" {
		d.LookupKey = ir.IDKey
	}
	if d.NonexistentIDPolicy == "" {
		d.NonexistentIDPolicy = Raise
	}

	switch {
	case parentType == "":
		return Descriptor{}, fmt.Errorf("%w: parent type is required", ErrInvalidOption)
	case name == "":
		return Descriptor{}, fmt.Errorf("%w: relationship name is required", ErrInvalidOption)
	case d.ChildType == "":
		return Descriptor{}, fmt.Errorf("%w: %s: child type is required", ErrInvalidOption, d)
	}

	if !ValidCardinalities[d.Cardinality] {
		return Descriptor{}, fmt.Errorf("%w: %s: cardinality %q", ErrInvalidOption, d, d.Cardinality)
	}
	if !ValidOwnerships[d.Ownership] {
		return Descriptor{}, fmt.Errorf("%w: %s: ownership %q", ErrInvalidOption, d, d.Ownership)
	}
	if !ValidPolicies[d.NonexistentIDPolicy] {
		return Descriptor{}, fmt.Errorf("%w: %s: nonexistent id policy %q", ErrInvalidOption, d, d.NonexistentIDPolicy)
	}

	return d, nil
}

// ValidCardinalities lists the accepted Cardinality values.
var ValidCardinalities = map[Cardinality]bool{
	Single:     true,
	Collection: true,
}

// ValidOwnerships lists the accepted Ownership values.
var ValidOwnerships = map[Ownership]bool{
	Owned:     true,
	JoinTable: true,
}

// ValidPolicies lists the accepted NonexistentIDPolicy values.
var ValidPolicies = map[NonexistentIDPolicy]bool{
	Raise:  true,
	Create: true,
}
