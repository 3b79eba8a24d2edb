package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/relation"
)

// DefaultMaxDepth bounds how deep nested relationship payloads recurse.
const DefaultMaxDepth = 8

// Reconciler applies nested payloads to declared relationships.
// A Reconciler is bound to one Store; create one per transaction.
type Reconciler struct {
	registry *relation.Registry
	store    Store
	logger   *slog.Logger
	ids      RequestIDGenerator
	maxDepth int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// WithRequestIDs sets the request ID generator. Default: UUIDv7Generator.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(r *Reconciler) {
		r.ids = g
	}
}

// WithMaxDepth limits nested relationship recursion.
func WithMaxDepth(n int) Option {
	return func(r *Reconciler) {
		r.maxDepth = n
	}
}

// New creates a Reconciler over registry and store. registry must be
// sealed before the first Reconcile.
func New(registry *relation.Registry, store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		registry: registry,
		store:    store,
		logger:   slog.Default(),
		ids:      UUIDv7Generator{},
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result describes one reconciled relationship.
type Result struct {
	RequestID string              `json:"request_id"`
	Parent    ir.Record           `json:"parent"`
	Relation  relation.Descriptor `json:"relation"`

	// Children is the association after reconciliation.
	Children []ir.Record `json:"children"`

	// Applied lists the actions carried out, in order.
	Applied []Applied `json:"applied"`

	// Nested holds results of grandchild payloads, in application order.
	Nested []*Result `json:"nested,omitempty"`
}

// Reconcile applies raw, the nested payload for parent's relationship
// relationName.
//
// The whole payload, grandchild payloads included, is checked before
// anything is read or written: unknown relationships, INVALID_PAYLOAD_SHAPE
// and payloads nested deeper than the max depth never reach the store.
// RECORD_NOT_FOUND and RELATION_ALREADY_EXISTS are detected before the
// writes of the relationship they belong to, but grandchild payloads are
// resolved after their parent's writes. Run Reconcile inside a transaction
// (store.Store.WithTx) so that any error leaves the store unchanged.
//
// The registry must be sealed; otherwise ErrRegistryNotSealed is returned.
func (r *Reconciler) Reconcile(ctx context.Context, parent ir.Record, relationName string, raw any) (*Result, error) {
	if !r.registry.Sealed() {
		return nil, ErrRegistryNotSealed
	}
	if err := r.validate(parent.Type, parent.Ref(), relationName, raw, 0); err != nil {
		return nil, err
	}

	rn := &run{requestID: r.ids.Generate()}
	res, err := r.reconcile(ctx, rn, parent, relationName, raw)
	if err != nil {
		return nil, err
	}
	r.logger.Info("reconciled",
		"request_id", rn.requestID,
		"parent", parent.Ref(),
		"relation", relationName,
		"mutations", rn.seq,
	)
	return res, nil
}

// validate checks raw and every payload nested in it without touching the
// store. parentRef names the parent in errors; for children that do not
// exist yet it is only their type.
func (r *Reconciler) validate(parentType, parentRef, relationName string, raw any, depth int) error {
	d, err := r.registry.Lookup(parentType, relationName)
	if err != nil {
		return err
	}

	payload, err := Normalize(raw, d)
	if err != nil {
		return withRef(err, parentRef)
	}
	r.splitNested(d, &payload)

	for _, e := range payload.Entries {
		if e.HasLookup() && d.NonexistentIDPolicy == relation.Create {
			if err := checkIdentity(d, e); err != nil {
				return withRef(err, parentRef)
			}
		}
		if len(e.Nested) == 0 {
			continue
		}
		if depth >= r.maxDepth {
			return fmt.Errorf("%s: nested payload exceeds max depth %d", d, r.maxDepth)
		}

		ref := d.ChildType
		if e.HasLookup() && d.LookupKey == ir.IDKey {
			ref = d.ChildType + ":" + e.lookupString()
		}
		for _, n := range e.Nested {
			if err := r.validate(d.ChildType, ref, n.Relation, n.Payload, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Reconciler) reconcile(ctx context.Context, rn *run, parent ir.Record, relationName string, raw any) (*Result, error) {
	d, err := r.registry.Lookup(parent.Type, relationName)
	if err != nil {
		return nil, err
	}

	payload, err := Normalize(raw, d)
	if err != nil {
		return nil, withParent(err, parent)
	}
	r.splitNested(d, &payload)

	current, err := r.store.CurrentAssociation(ctx, parent, d.Name)
	if err != nil {
		return nil, fmt.Errorf("read association %s: %w", d, err)
	}

	found, err := r.findCandidates(ctx, d, payload)
	if err != nil {
		return nil, err
	}

	actions, err := Resolve(d, parent, current, found, payload)
	if err != nil {
		return nil, withParent(err, parent)
	}
	for _, a := range actions {
		if a.Kind == KindReject {
			return nil, newRecordNotFound(d, parent, a.Entry.lookupString())
		}
	}

	m := &mutator{
		store:   r.store,
		logger:  r.logger,
		run:     rn,
		d:       d,
		parent:  parent,
		members: append([]ir.Record(nil), current...),
	}
	if rec, ok := r.store.(Recorder); ok {
		m.recorder = rec
	}

	applied, err := m.apply(ctx, actions)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RequestID: rn.requestID,
		Parent:    parent,
		Relation:  d,
		Children:  m.members,
		Applied:   applied,
	}

	if err := r.reconcileNested(ctx, rn, actions, applied, res); err != nil {
		return nil, err
	}
	return res, nil
}

// findCandidates loads the stored children addressed by the payload's
// lookup values.
func (r *Reconciler) findCandidates(ctx context.Context, d relation.Descriptor, p Payload) ([]ir.Record, error) {
	var values []ir.Value
	for _, e := range p.Entries {
		if e.HasLookup() {
			values = append(values, e.LookupValue)
		}
	}
	if len(values) == 0 {
		return nil, nil
	}

	if d.Cardinality == relation.Single {
		rec, ok, err := r.store.FindOneByKey(ctx, d.ChildType, d.LookupKey, values[0])
		if err != nil {
			return nil, fmt.Errorf("find %s by %s: %w", d.ChildType, d.LookupKey, err)
		}
		if !ok {
			return nil, nil
		}
		return []ir.Record{rec}, nil
	}

	found, err := r.store.FindByKey(ctx, d.ChildType, d.LookupKey, values)
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", d.ChildType, d.LookupKey, err)
	}
	return found, nil
}

// splitNested moves fields addressed to the child type's own declared
// relationships out of Fields into Nested. "toys_attributes" and "toys"
// (when it holds a mapping or sequence) both address relationship "toys".
// Everything else stays in Fields and is stored as given.
func (r *Reconciler) splitNested(d relation.Descriptor, p *Payload) {
	if len(r.registry.RelationsOf(d.ChildType)) == 0 {
		return
	}
	for i := range p.Entries {
		e := &p.Entries[i]
		for _, k := range e.Fields.SortedKeys() {
			v := e.Fields[k]
			name, ok := r.nestedRelation(d.ChildType, k, v)
			if !ok {
				continue
			}
			e.Nested = append(e.Nested, Nested{Relation: name, Payload: v})
			delete(e.Fields, k)
		}
		sort.SliceStable(e.Nested, func(a, b int) bool { return e.Nested[a].Relation < e.Nested[b].Relation })
	}
}

func (r *Reconciler) nestedRelation(childType, key string, v ir.Value) (string, bool) {
	if name, ok := strings.CutSuffix(key, NestedSuffix); ok && r.registry.Has(childType, name) {
		return name, true
	}
	switch v.(type) {
	case ir.Object, ir.List:
		if r.registry.Has(childType, key) {
			return key, true
		}
	}
	return "", false
}

// reconcileNested applies grandchild payloads to every child that was
// created or updated.
func (r *Reconciler) reconcileNested(ctx context.Context, rn *run, actions []Action, applied []Applied, res *Result) error {
	byIndex := make(map[int]Applied, len(applied))
	for _, a := range applied {
		byIndex[a.Index] = a
	}

	for _, a := range actions {
		if len(a.Entry.Nested) == 0 {
			continue
		}
		if a.Kind != KindUpdate && a.Kind != KindCreate && a.Kind != KindCreateWithLookup {
			continue
		}
		done, ok := byIndex[a.Entry.Index]
		if !ok {
			continue
		}

		for _, n := range a.Entry.Nested {
			nested, err := r.reconcile(ctx, rn, done.Child, n.Relation, n.Payload)
			if err != nil {
				return err
			}
			res.Nested = append(res.Nested, nested)
		}
	}
	return nil
}

func withParent(err error, parent ir.Record) error {
	return withRef(err, parent.Ref())
}

func withRef(err error, ref string) error {
	var re *Error
	if errors.As(err, &re) && re.Parent == "" {
		re.Parent = ref
	}
	return err
}
