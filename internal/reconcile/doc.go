// Package reconcile applies a nested payload to one declared parent-child
// relationship without replacing the whole child set.
//
// Each payload entry is classified and applied on its own:
//
//   - lookup value + `_destroy`  -> the associated child is deleted
//   - lookup value + `_delete`   -> the associated child is unlinked, kept in the store
//   - lookup value               -> the stored child is updated and associated
//   - unknown lookup value       -> RecordNotFound, or created when the
//     relationship's nonexistent-id policy is Create
//   - no lookup value            -> a new child is created
//
// Children already associated but not mentioned in the payload stay
// associated. A Single, Owned relationship that already holds a child
// refuses a payload with no lookup value (RelationAlreadyExists) instead of
// silently orphaning the existing child.
//
// # Pipeline
//
//	Normalize -> Resolve -> check rejects -> mutator.apply -> nested relationships
//
// Normalize and Resolve are pure. Every error before mutator.apply leaves
// the store untouched; errors during apply are left to the caller's
// transaction (see store.Store.WithTx) to roll back.
//
// Reconciliation is synchronous and holds no locks. Callers serialize
// concurrent reconciliations of the same parent themselves.
package reconcile
