package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/relation"
)

// Applied is one action as it was carried out.
type Applied struct {
	Kind  ActionKind `json:"action"`
	Index int        `json:"entry"`
	Child ir.Record  `json:"child"`
}

// mutator applies resolved actions for one relationship of one parent.
// members starts as the current association and is only ever edited by
// explicit actions, so children absent from the payload stay linked.
// An Owned child taken over by an update leaves its previous parent.
type mutator struct {
	store    Store
	recorder Recorder
	logger   *slog.Logger
	run      *run

	d       relation.Descriptor
	parent  ir.Record
	members []ir.Record
}

func (m *mutator) apply(ctx context.Context, actions []Action) ([]Applied, error) {
	applied := make([]Applied, 0, len(actions))

	for _, a := range actions {
		if !a.mutates() {
			m.logger.Debug("skipping entry",
				"request_id", m.run.requestID,
				"parent", m.parent.Ref(),
				"relation", m.d.Name,
				"entry", a.Entry.Index,
				"lookup", a.Entry.lookupString(),
			)
			continue
		}

		child, err := m.applyOne(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("%s %s entry %d: %w", a.Kind, m.d, a.Entry.Index, err)
		}

		if err := m.record(ctx, a.Kind, child); err != nil {
			return nil, err
		}
		applied = append(applied, Applied{Kind: a.Kind, Index: a.Entry.Index, Child: child})
	}

	if err := m.store.SetAssociation(ctx, m.parent, m.d.Name, m.members); err != nil {
		return nil, fmt.Errorf("set association %s: %w", m.d, err)
	}
	return applied, nil
}

func (m *mutator) applyOne(ctx context.Context, a Action) (ir.Record, error) {
	switch a.Kind {
	case KindDestroy:
		if err := m.store.Delete(ctx, a.Child); err != nil {
			return ir.Record{}, err
		}
		m.remove(a.Child)
		return a.Child, nil

	case KindDetach:
		m.remove(a.Child)
		return a.Child, nil

	case KindUpdate:
		child := a.Child
		if len(a.Fields) > 0 {
			updated, err := m.store.UpdateFields(ctx, child, a.Fields)
			if err != nil {
				return ir.Record{}, err
			}
			child = updated
		}
		if m.d.Ownership == relation.Owned {
			if err := m.store.ReleaseChild(ctx, m.parent, m.d.Name, child); err != nil {
				return ir.Record{}, err
			}
		}
		m.associate(child)
		return child, nil

	case KindCreate, KindCreateWithLookup:
		child, err := m.store.Create(ctx, m.d.ChildType, a.Fields)
		if err != nil {
			return ir.Record{}, err
		}
		m.associate(child)
		return child, nil

	default:
		return ir.Record{}, fmt.Errorf("unexpected action %q", a.Kind)
	}
}

// associate links child. For Single it replaces the previous child, which
// is unlinked but never destroyed. For Collection an already linked child
// is refreshed in place, otherwise appended.
func (m *mutator) associate(child ir.Record) {
	if m.d.Cardinality == relation.Single {
		m.members = []ir.Record{child}
		return
	}
	for i, existing := range m.members {
		if existing.ID == child.ID {
			m.members[i] = child
			return
		}
	}
	m.members = append(m.members, child)
}

func (m *mutator) remove(child ir.Record) {
	kept := m.members[:0]
	for _, existing := range m.members {
		if existing.ID != child.ID {
			kept = append(kept, existing)
		}
	}
	m.members = kept
}

func (m *mutator) record(ctx context.Context, kind ActionKind, child ir.Record) error {
	seq := m.run.next()
	m.logger.Debug("applied",
		"request_id", m.run.requestID,
		"seq", seq,
		"parent", m.parent.Ref(),
		"relation", m.d.Name,
		"action", string(kind),
		"child_id", child.ID,
	)

	if m.recorder == nil {
		return nil
	}
	err := m.recorder.RecordMutation(ctx, ir.Mutation{
		RequestID:  m.run.requestID,
		Seq:        seq,
		ParentType: m.parent.Type,
		ParentID:   m.parent.ID,
		Relation:   m.d.Name,
		Action:     string(kind),
		ChildType:  child.Type,
		ChildID:    child.ID,
	})
	if err != nil {
		return fmt.Errorf("record mutation: %w", err)
	}
	return nil
}
