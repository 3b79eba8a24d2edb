package relation

import (
	"fmt"
	"sort"
)

type key struct {
	parentType string
	name       string
}

// Registry holds every declared reassignable relationship.
//
// Declare is only valid before Seal. After Seal the registry is read-only
// and safe for concurrent lookups.
type Registry struct {
	byKey    map[key]Descriptor
	byParent map[string][]string
	order    []key
	sealed   bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:    make(map[key]Descriptor),
		byParent: make(map[string][]string),
	}
}

// Declare registers a reassignable relationship and returns its
// descriptor. Each (parentType, name) pair may be declared exactly once.
func (r *Registry) Declare(parentType, name string, opts Options) (Descriptor, error) {
	if r.sealed {
		return Descriptor{}, fmt.Errorf("declare %s.%s: %w", parentType, name, ErrSealed)
	}

	d, err := newDescriptor(parentType, name, opts)
	if err != nil {
		return Descriptor{}, err
	}

	k := key{parentType: parentType, name: name}
	if _, exists := r.byKey[k]; exists {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrDuplicateDeclaration, d)
	}

	r.byKey[k] = d
	r.byParent[parentType] = append(r.byParent[parentType], name)
	r.order = append(r.order, k)
	return d, nil
}

// MustDeclare is Declare for static setup code; it panics on error.
func (r *Registry) MustDeclare(parentType, name string, opts Options) Descriptor {
	d, err := r.Declare(parentType, name, opts)
	if err != nil {
		panic(err)
	}
	return d
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Lookup returns the descriptor for parentType.name.
func (r *Registry) Lookup(parentType, name string) (Descriptor, error) {
	d, ok := r.byKey[key{parentType: parentType, name: name}]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, parentType, name)
	}
	return d, nil
}

// Has reports whether parentType.name is declared.
func (r *Registry) Has(parentType, name string) bool {
	_, ok := r.byKey[key{parentType: parentType, name: name}]
	return ok
}

// RelationsOf returns the relationship names declared on parentType, sorted.
func (r *Registry) RelationsOf(parentType string) []string {
	names := append([]string(nil), r.byParent[parentType]...)
	sort.Strings(names)
	return names
}

// All returns every descriptor in declaration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// Len returns the number of declared relationships.
func (r *Registry) Len() int {
	return len(r.order)
}
