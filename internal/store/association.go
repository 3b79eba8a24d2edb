package store

import (
	"context"
	"fmt"

	"github.com/roach88/reassign/internal/ir"
)

// CurrentAssociation returns the children linked to parent under
// relation, ordered by position.
// Returns an empty slice (not nil) if nothing is linked.
func (s *Store) CurrentAssociation(ctx context.Context, parent ir.Record, relation string) ([]ir.Record, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT e.type, e.id, e.fields
		FROM associations a
		JOIN entities e ON e.type = a.child_type AND e.id = a.child_id
		WHERE a.parent_type = ? AND a.parent_id = ? AND a.relation = ?
		ORDER BY a.position ASC, a.child_id ASC
	`, parent.Type, parent.ID, relation)
	if err != nil {
		return nil, fmt.Errorf("read association %s.%s: %w", parent.Ref(), relation, err)
	}

	children, err := collectRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("read association %s.%s: %w", parent.Ref(), relation, err)
	}
	return children, nil
}

// SetAssociation replaces the links of parent under relation with
// children, in order. Records that lose their link are not deleted.
// Duplicate children are linked once, at their first position.
func (s *Store) SetAssociation(ctx context.Context, parent ir.Record, relation string, children []ir.Record) error {
	return s.atomic(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			DELETE FROM associations
			WHERE parent_type = ? AND parent_id = ? AND relation = ?
		`, parent.Type, parent.ID, relation)
		if err != nil {
			return fmt.Errorf("set association %s.%s: clear: %w", parent.Ref(), relation, err)
		}

		for pos, child := range children {
			_, err := q.ExecContext(ctx, `
				INSERT INTO associations
				(parent_type, parent_id, relation, child_type, child_id, position)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT DO NOTHING
			`, parent.Type, parent.ID, relation, child.Type, child.ID, pos)
			if err != nil {
				return fmt.Errorf("set association %s.%s: link %s: %w", parent.Ref(), relation, child.Ref(), err)
			}
		}
		return nil
	})
}

// Link appends child to parent's relation unless it is already linked.
// Used by setup code and the CLI; reconciliation goes through SetAssociation.
func (s *Store) Link(ctx context.Context, parent ir.Record, relation string, child ir.Record) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO associations
		(parent_type, parent_id, relation, child_type, child_id, position)
		SELECT ?, ?, ?, ?, ?, COALESCE(MAX(position), -1) + 1
		FROM associations
		WHERE parent_type = ? AND parent_id = ? AND relation = ?
		ON CONFLICT DO NOTHING
	`, parent.Type, parent.ID, relation, child.Type, child.ID, parent.Type, parent.ID, relation)
	if err != nil {
		return fmt.Errorf("link %s.%s -> %s: %w", parent.Ref(), relation, child.Ref(), err)
	}
	return nil
}

// ReleaseChild removes child's links under relation from every parent of
// keep's type except keep itself. Owned children belong to one parent at a
// time; reassigning one releases it first.
func (s *Store) ReleaseChild(ctx context.Context, keep ir.Record, relation string, child ir.Record) error {
	_, err := s.q.ExecContext(ctx, `
		DELETE FROM associations
		WHERE parent_type = ? AND relation = ?
		  AND child_type = ? AND child_id = ?
		  AND parent_id <> ?
	`, keep.Type, relation, child.Type, child.ID, keep.ID)
	if err != nil {
		return fmt.Errorf("release %s from %s.%s: %w", child.Ref(), keep.Type, relation, err)
	}
	return nil
}
