package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/reassign/internal/ir"
)

// createTestStore creates a new file-backed store under t.TempDir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustCreate creates a record or fails the test.
func mustCreate(t *testing.T, s *Store, typ string, fields ir.Object) ir.Record {
	t.Helper()
	rec, err := s.Create(context.Background(), typ, fields)
	if err != nil {
		t.Fatalf("Create(%s) failed: %v", typ, err)
	}
	return rec
}

// childIDs returns the ids of recs in order.
func childIDs(recs []ir.Record) []int64 {
	ids := make([]int64, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}
