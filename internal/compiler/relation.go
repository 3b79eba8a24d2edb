package compiler

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/reassign/internal/relation"
)

// RelationField is the top-level CUE field holding relationship
// declarations: relation: <ParentType>: <name>: {...}
const RelationField = "relation"

// Declaration is one compiled relationship declaration, ready to be
// registered.
type Declaration struct {
	ParentType string           `json:"parent_type"`
	Name       string           `json:"name"`
	Options    relation.Options `json:"options"`
	Pos        token.Pos        `json:"-"`
}

// String returns "Parent.name".
func (d Declaration) String() string {
	return d.ParentType + "." + d.Name
}

var knownFields = map[string]bool{
	"child":          true,
	"cardinality":    true,
	"ownership":      true,
	"lookup_key":     true,
	"nonexistent_id": true,
}

// CompileRelation parses one declaration. Uses CUE SDK's Go API directly
// (not CLI subprocess).
//
// The CUE value should be the declaration struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`relation: Person: pets: { child: "Pet", cardinality: "collection" }`)
//	decl, err := CompileRelation(v.LookupPath(cue.ParsePath("relation.Person.pets")))
//
// Parent type and relationship name are taken from the last two path
// labels.
func CompileRelation(v cue.Value) (*Declaration, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	labels := v.Path().Selectors()
	if len(labels) < 2 {
		return nil, &CompileError{
			Field:   "relation",
			Message: "declaration must be addressed as <ParentType>.<name>",
			Pos:     v.Pos(),
		}
	}
	decl := &Declaration{
		ParentType: unquote(labels[len(labels)-2]),
		Name:       unquote(labels[len(labels)-1]),
		Pos:        v.Pos(),
	}
	field := func(f string) string { return fmt.Sprintf("%s.%s", decl, f) }

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		if !knownFields[iter.Selector().String()] {
			return nil, &CompileError{
				Field:   field(iter.Selector().String()),
				Message: "unknown field",
				Pos:     iter.Value().Pos(),
			}
		}
	}

	child, ok, err := optionalString(v, "child")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &CompileError{
			Field:   field("child"),
			Message: "child type is required",
			Pos:     v.Pos(),
		}
	}
	decl.Options.ChildType = child

	cardinality, ok, err := optionalString(v, "cardinality")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &CompileError{
			Field:   field("cardinality"),
			Message: `cardinality is required ("single" or "collection")`,
			Pos:     v.Pos(),
		}
	}
	decl.Options.Cardinality = relation.Cardinality(cardinality)

	ownership, _, err := optionalString(v, "ownership")
	if err != nil {
		return nil, err
	}
	decl.Options.Ownership = relation.Ownership(ownership)

	decl.Options.LookupKey, _, err = optionalString(v, "lookup_key")
	if err != nil {
		return nil, err
	}

	policy, _, err := optionalString(v, "nonexistent_id")
	if err != nil {
		return nil, err
	}
	decl.Options.NonexistentIDPolicy = relation.NonexistentIDPolicy(policy)

	return decl, nil
}

// CompileRelations parses every declaration under the top-level relation
// field of v. Declarations come back in source order.
// A value with no relation field yields no declarations.
func CompileRelations(v cue.Value) ([]Declaration, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath(RelationField))
	if !root.Exists() {
		return []Declaration{}, nil
	}

	parents, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	decls := []Declaration{}
	for parents.Next() {
		names, err := parents.Value().Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for names.Next() {
			decl, err := CompileRelation(names.Value())
			if err != nil {
				return nil, err
			}
			decls = append(decls, *decl)
		}
	}
	return decls, nil
}

// Register declares every decl in reg, stopping at the first failure.
func Register(reg *relation.Registry, decls []Declaration) error {
	for _, d := range decls {
		if _, err := reg.Declare(d.ParentType, d.Name, d.Options); err != nil {
			return &CompileError{Field: d.String(), Message: err.Error(), Pos: d.Pos, Err: err}
		}
	}
	return nil
}

// SortDeclarations orders decls by parent type, then name.
func SortDeclarations(decls []Declaration) {
	sort.SliceStable(decls, func(i, j int) bool {
		if decls[i].ParentType != decls[j].ParentType {
			return decls[i].ParentType < decls[j].ParentType
		}
		return decls[i].Name < decls[j].Name
	})
}

// optionalString reads a concrete string field. Absent fields report
// ok=false; present but non-string or non-concrete fields are errors.
func optionalString(v cue.Value, name string) (string, bool, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return "", false, nil
	}
	s, err := f.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func unquote(sel cue.Selector) string {
	if sel.IsString() {
		return sel.Unquoted()
	}
	return sel.String()
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos

	// Err is the underlying cause, when there is one.
	Err error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
