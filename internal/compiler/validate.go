package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/reassign/internal/relation"
)

// Validation error codes (E100-E199)
const (
	ErrMissingChildType     = "E101" // child type is required
	ErrInvalidCardinality   = "E102" // cardinality must be single or collection
	ErrInvalidOwnership     = "E103" // ownership must be owned or join_table
	ErrInvalidPolicy        = "E104" // nonexistent_id must be raise or create
	ErrDuplicateDeclaration = "E105" // Parent.name declared twice
	ErrReservedName         = "E106" // name or lookup key collides with a reserved payload key
	ErrInvalidTypeName      = "E107" // parent or child type is not an identifier
)

// ValidationError represents a declaration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// typeNamePattern matches record type names: a letter followed by letters,
// digits or underscores.
var typeNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// reservedKeys cannot be relationship names or lookup keys because the
// reconciler strips them from every payload entry.
var reservedKeys = map[string]bool{
	"_destroy": true,
	"_delete":  true,
}

// Validate checks compiled declarations.
// Returns all errors found (does not fail-fast).
func Validate(decls []Declaration) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(decls))

	for _, d := range decls {
		line := 0
		if d.Pos.IsValid() {
			line = d.Pos.Line()
		}
		add := func(field, code, format string, args ...any) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.%s", d, field),
				Message: fmt.Sprintf(format, args...),
				Code:    code,
				Line:    line,
			})
		}

		if seen[d.String()] {
			add("name", ErrDuplicateDeclaration, "relationship %s declared more than once", d)
		}
		seen[d.String()] = true

		if !typeNamePattern.MatchString(d.ParentType) {
			add("parent", ErrInvalidTypeName, "invalid parent type %q", d.ParentType)
		}

		switch {
		case strings.TrimSpace(d.Options.ChildType) == "":
			add("child", ErrMissingChildType, "child type is required")
		case !typeNamePattern.MatchString(d.Options.ChildType):
			add("child", ErrInvalidTypeName, "invalid child type %q", d.Options.ChildType)
		}

		if !relation.ValidCardinalities[d.Options.Cardinality] {
			add("cardinality", ErrInvalidCardinality,
				"invalid cardinality %q, must be \"single\" or \"collection\"", d.Options.Cardinality)
		}
		if d.Options.Ownership != "" && !relation.ValidOwnerships[d.Options.Ownership] {
			add("ownership", ErrInvalidOwnership,
				"invalid ownership %q, must be \"owned\" or \"join_table\"", d.Options.Ownership)
		}
		if d.Options.NonexistentIDPolicy != "" && !relation.ValidPolicies[d.Options.NonexistentIDPolicy] {
			add("nonexistent_id", ErrInvalidPolicy,
				"invalid nonexistent_id %q, must be \"raise\" or \"create\"", d.Options.NonexistentIDPolicy)
		}

		if isReserved(d.Name) {
			add("name", ErrReservedName, "relationship name %q is a reserved payload key", d.Name)
		}
		if isReserved(d.Options.LookupKey) {
			add("lookup_key", ErrReservedName, "lookup key %q is a reserved payload key", d.Options.LookupKey)
		}
	}

	return errs
}

// isReserved reports whether key is a flag key or carries the nested
// payload suffix.
func isReserved(key string) bool {
	return reservedKeys[key] || strings.HasSuffix(key, "_attributes")
}
