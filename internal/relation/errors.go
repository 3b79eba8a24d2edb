package relation

import "errors"

var (
	// ErrDuplicateDeclaration is returned when a (parent type, name) pair is
	// declared twice.
	ErrDuplicateDeclaration = errors.New("relation: duplicate declaration")

	// ErrUnknownRelation is returned by Lookup for undeclared relationships.
	ErrUnknownRelation = errors.New("relation: unknown relationship")

	// ErrInvalidOption is returned when declaration options are malformed.
	ErrInvalidOption = errors.New("relation: invalid option")

	// ErrSealed is returned by Declare after Seal.
	ErrSealed = errors.New("relation: registry is sealed")
)
