package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/reassign/internal/ir"
)

// Create inserts a record of type typ. A value under the "id" field
// requests that identity; otherwise the next free id for typ is used.
// Returns ErrConflict if the requested identity is taken.
func (s *Store) Create(ctx context.Context, typ string, fields ir.Object) (ir.Record, error) {
	if typ == "" {
		return ir.Record{}, fmt.Errorf("create: type is required")
	}

	fields = fields.Clone()
	id, explicit, err := explicitID(fields)
	if err != nil {
		return ir.Record{}, fmt.Errorf("create %s: %w", typ, err)
	}
	delete(fields, ir.IDKey)

	fieldsJSON, err := marshalFields(fields)
	if err != nil {
		return ir.Record{}, fmt.Errorf("create %s: %w", typ, err)
	}

	if !explicit {
		err := s.q.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM entities WHERE type = ?`, typ,
		).Scan(&id)
		if err != nil {
			return ir.Record{}, fmt.Errorf("create %s: next id: %w", typ, err)
		}
	}

	result, err := s.q.ExecContext(ctx, `
		INSERT INTO entities (type, id, fields)
		VALUES (?, ?, ?)
		ON CONFLICT(type, id) DO NOTHING
	`, typ, id, fieldsJSON)
	if err != nil {
		return ir.Record{}, fmt.Errorf("create %s: %w", typ, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return ir.Record{}, fmt.Errorf("create %s: rows affected: %w", typ, err)
	}
	if rows == 0 {
		return ir.Record{}, fmt.Errorf("create %s:%d: %w", typ, id, ErrConflict)
	}

	return ir.Record{Type: typ, ID: id, Fields: fields}, nil
}

// Get retrieves a record by type and id.
// Returns ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, typ string, id int64) (ir.Record, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT type, id, fields FROM entities WHERE type = ? AND id = ?`, typ, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Record{}, fmt.Errorf("get %s:%d: %w", typ, id, ErrNotFound)
	}
	if err != nil {
		return ir.Record{}, fmt.Errorf("get %s:%d: %w", typ, id, err)
	}
	return rec, nil
}

// List returns every record of type typ ordered by id.
// Returns an empty slice (not nil) if there are none.
func (s *Store) List(ctx context.Context, typ string) ([]ir.Record, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT type, id, fields FROM entities WHERE type = ? ORDER BY id ASC`, typ)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", typ, err)
	}
	return collectRecords(rows)
}

// FindByKey returns every record of type typ whose key matches one of
// values, ordered by id. Comparison is textual.
func (s *Store) FindByKey(ctx context.Context, typ, key string, values []ir.Value) ([]ir.Record, error) {
	keys := keyStrings(values)
	if len(keys) == 0 {
		return []ir.Record{}, nil
	}

	var column string
	args := []any{typ}
	if key == ir.IDKey {
		column = "CAST(id AS TEXT)"
	} else {
		path, err := jsonPath(key)
		if err != nil {
			return nil, fmt.Errorf("find %s by %s: %w", typ, key, err)
		}
		column = "CAST(json_extract(fields, ?) AS TEXT)"
		args = append(args, path)
	}
	args = append(args, keys...)

	rows, err := s.q.QueryContext(ctx, fmt.Sprintf(`
		SELECT type, id, fields FROM entities
		WHERE type = ? AND %s IN (%s)
		ORDER BY id ASC
	`, column, placeholders(len(keys))), args...)
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", typ, key, err)
	}

	candidates, err := collectRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", typ, key, err)
	}

	// SQLite renders JSON booleans as 1/0; re-check in ir terms.
	matched := candidates[:0]
	for _, rec := range candidates {
		for _, v := range values {
			if rec.MatchesKey(key, v) {
				matched = append(matched, rec)
				break
			}
		}
	}
	return matched, nil
}

// FindOneByKey returns the lowest-id record of type typ whose key
// matches value.
func (s *Store) FindOneByKey(ctx context.Context, typ, key string, value ir.Value) (ir.Record, bool, error) {
	recs, err := s.FindByKey(ctx, typ, key, []ir.Value{value})
	if err != nil {
		return ir.Record{}, false, err
	}
	if len(recs) == 0 {
		return ir.Record{}, false, nil
	}
	return recs[0], true, nil
}

// UpdateFields merges fields into the stored attributes of rec.
// The "id" field is ignored: identity never changes.
// Returns ErrNotFound if rec no longer exists.
func (s *Store) UpdateFields(ctx context.Context, rec ir.Record, fields ir.Object) (ir.Record, error) {
	current, err := s.Get(ctx, rec.Type, rec.ID)
	if err != nil {
		return ir.Record{}, fmt.Errorf("update: %w", err)
	}

	merged := current.Fields.Clone()
	for k, v := range fields {
		if k == ir.IDKey {
			continue
		}
		merged[k] = v
	}

	fieldsJSON, err := marshalFields(merged)
	if err != nil {
		return ir.Record{}, fmt.Errorf("update %s: %w", rec.Ref(), err)
	}

	_, err = s.q.ExecContext(ctx,
		`UPDATE entities SET fields = ? WHERE type = ? AND id = ?`,
		fieldsJSON, rec.Type, rec.ID)
	if err != nil {
		return ir.Record{}, fmt.Errorf("update %s: %w", rec.Ref(), err)
	}

	current.Fields = merged
	return current, nil
}

// Delete removes rec together with every association that references it,
// as parent or as child. Returns ErrNotFound if rec does not exist.
func (s *Store) Delete(ctx context.Context, rec ir.Record) error {
	return s.atomic(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			DELETE FROM associations
			WHERE (child_type = ? AND child_id = ?) OR (parent_type = ? AND parent_id = ?)
		`, rec.Type, rec.ID, rec.Type, rec.ID)
		if err != nil {
			return fmt.Errorf("delete %s: unlink: %w", rec.Ref(), err)
		}

		result, err := q.ExecContext(ctx,
			`DELETE FROM entities WHERE type = ? AND id = ?`, rec.Type, rec.ID)
		if err != nil {
			return fmt.Errorf("delete %s: %w", rec.Ref(), err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete %s: rows affected: %w", rec.Ref(), err)
		}
		if n == 0 {
			return fmt.Errorf("delete %s: %w", rec.Ref(), ErrNotFound)
		}
		return nil
	})
}

// atomic runs fn in the current transaction, or in a new one when the
// Store is not transaction-scoped.
func (s *Store) atomic(ctx context.Context, fn func(q querier) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.WithTx(ctx, func(tx *Store) error {
		return fn(tx.tx)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ir.Record, error) {
	var (
		rec        ir.Record
		fieldsJSON string
	)
	if err := row.Scan(&rec.Type, &rec.ID, &fieldsJSON); err != nil {
		return ir.Record{}, err
	}
	fields, err := unmarshalFields(fieldsJSON)
	if err != nil {
		return ir.Record{}, fmt.Errorf("%s:%d: %w", rec.Type, rec.ID, err)
	}
	rec.Fields = fields
	return rec, nil
}

// collectRecords scans and closes rows. Returns an empty slice, not nil.
func collectRecords(rows *sql.Rows) ([]ir.Record, error) {
	defer rows.Close()

	records := []ir.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
