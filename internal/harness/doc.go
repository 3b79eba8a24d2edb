// Package harness provides conformance testing for relationship
// reconciliation.
//
// A scenario declares relationships in CUE, seeds an in-memory store,
// applies nested payloads through the reconciler and checks the final
// store state. Every step runs in its own transaction, exactly as the
// apply command does, so a failing step leaves nothing behind.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: destroy_child
//	description: "What this scenario validates"
//	declarations: |
//	  relation: Person: pets: {
//	      child:       "Pet"
//	      cardinality: "collection"
//	  }
//	setup:
//	  records:
//	    - type: Person
//	      fields: { name: Alice }
//	    - type: Pet
//	      fields: { name: Spot }
//	  links:
//	    - parent: Person:1
//	      relation: pets
//	      children: [Pet:1]
//	steps:
//	  - parent: Person:1
//	    relation: pets
//	    payload: [{ id: 1, _destroy: true }]
//	    expect_error: RECORD_NOT_FOUND   # optional
//	assertions:
//	  - type: association
//	    parent: Person:1
//	    relation: pets
//	    children: []
//	  - type: missing
//	    record: Pet:1
//
// # Assertion Types
//
//   - association: the parent's children for a relation, in order
//   - exists: the record is in the store
//   - missing: the record is not in the store
//   - field: a stored field equals a value (compared as canonical JSON)
//
// # Deterministic Testing
//
// Step i runs under request ID "req-{i+1}" and record ids are assigned per
// type starting at 1, so the mutation trace of a scenario is reproducible
// and can be compared against golden files in testdata/golden.
package harness
