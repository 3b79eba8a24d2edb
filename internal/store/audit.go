package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/reassign/internal/ir"
)

// RecordMutation appends an applied action to the audit log.
// Uses ON CONFLICT(request_id, seq) DO NOTHING so replays of the same
// request are idempotent.
func (s *Store) RecordMutation(ctx context.Context, m ir.Mutation) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO mutations
		(request_id, seq, parent_type, parent_id, relation, action, child_type, child_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id, seq) DO NOTHING
	`,
		m.RequestID,
		m.Seq,
		m.ParentType,
		m.ParentID,
		m.Relation,
		m.Action,
		m.ChildType,
		m.ChildID,
	)
	if err != nil {
		return fmt.Errorf("record mutation: %w", err)
	}
	return nil
}

// ReadMutations returns the audit log of one request, ordered by seq.
// Returns an empty slice (not nil) if the request applied nothing.
func (s *Store) ReadMutations(ctx context.Context, requestID string) ([]ir.Mutation, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT request_id, seq, parent_type, parent_id, relation, action, child_type, child_id
		FROM mutations
		WHERE request_id = ?
		ORDER BY seq ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("read mutations: %w", err)
	}
	return collectMutations(rows)
}

// ReadMutationsForParent returns every mutation applied under parent, in
// the order they were recorded.
func (s *Store) ReadMutationsForParent(ctx context.Context, parent ir.Record) ([]ir.Mutation, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT request_id, seq, parent_type, parent_id, relation, action, child_type, child_id
		FROM mutations
		WHERE parent_type = ? AND parent_id = ?
		ORDER BY rowid ASC
	`, parent.Type, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("read mutations for %s: %w", parent.Ref(), err)
	}
	return collectMutations(rows)
}

func collectMutations(rows *sql.Rows) ([]ir.Mutation, error) {
	defer rows.Close()

	mutations := []ir.Mutation{}
	for rows.Next() {
		var m ir.Mutation
		if err := rows.Scan(
			&m.RequestID, &m.Seq, &m.ParentType, &m.ParentID,
			&m.Relation, &m.Action, &m.ChildType, &m.ChildID,
		); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		mutations = append(mutations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mutations: %w", err)
	}
	return mutations, nil
}
