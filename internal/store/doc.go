// Package store provides the SQLite-backed entity store used by
// reconciliation.
//
// The store holds three tables:
//   - entities: typed records (type, id, fields as canonical JSON)
//   - associations: ordered parent -> child links per relationship name
//   - mutations: append-only audit log of applied reconciliation actions
//
// *Store satisfies reconcile.Store and reconcile.Recorder.
//
// # Critical Patterns
//
// Identity per type:
//   - PRIMARY KEY(type, id); ids are assigned as MAX(id)+1 per type unless
//     the caller supplies one under the "id" field
//
// Textual key comparison:
//   - Lookups compare keys as text so Int(23) and String("23") match
//
// Deterministic results:
//   - Associations are read ORDER BY position, child_id
//   - Entity lookups are read ORDER BY id
//   - Mutations are read ORDER BY seq
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Use WithTx to run a whole reconciliation atomically.
package store
