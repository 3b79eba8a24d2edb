package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/reassign/internal/relation"
)

func decl(parent, name string, opts relation.Options) Declaration {
	return Declaration{ParentType: parent, Name: name, Options: opts}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	errs := Validate([]Declaration{
		decl("Person", "pets", relation.Options{ChildType: "Pet", Cardinality: relation.Collection}),
		decl("Person", "family", relation.Options{
			ChildType: "Family", Cardinality: relation.Single,
			Ownership: relation.JoinTable, LookupKey: "name", NonexistentIDPolicy: relation.Create,
		}),
	})
	assert.Empty(t, errs)
}

func TestValidateReportsAllErrors(t *testing.T) {
	errs := Validate([]Declaration{
		decl("Person", "pets", relation.Options{
			Cardinality:         "many",
			Ownership:           "shared",
			NonexistentIDPolicy: "ignore",
		}),
	})

	assert.ElementsMatch(t, []string{
		ErrMissingChildType, ErrInvalidCardinality, ErrInvalidOwnership, ErrInvalidPolicy,
	}, codes(errs))
}

func TestValidateDuplicate(t *testing.T) {
	d := decl("Person", "pets", relation.Options{ChildType: "Pet", Cardinality: relation.Collection})
	errs := Validate([]Declaration{d, d})

	assert.Equal(t, []string{ErrDuplicateDeclaration}, codes(errs))
	assert.Contains(t, errs[0].Error(), "Person.pets")
}

func TestValidateReservedNames(t *testing.T) {
	tests := []struct {
		name string
		d    Declaration
	}{
		{"destroy flag as name", decl("Person", "_destroy", relation.Options{ChildType: "Pet", Cardinality: relation.Collection})},
		{"attributes suffix", decl("Person", "pets_attributes", relation.Options{ChildType: "Pet", Cardinality: relation.Collection})},
		{"delete flag as lookup key", decl("Person", "pets", relation.Options{ChildType: "Pet", Cardinality: relation.Collection, LookupKey: "_delete"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []string{ErrReservedName}, codes(Validate([]Declaration{tt.d})))
		})
	}
}

func TestValidateTypeNames(t *testing.T) {
	errs := Validate([]Declaration{
		decl("person record", "pets", relation.Options{ChildType: "Pet-Type", Cardinality: relation.Collection}),
	})
	assert.Equal(t, []string{ErrInvalidTypeName, ErrInvalidTypeName}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "Person.pets.child", Message: "child type is required", Code: ErrMissingChildType}
	assert.Equal(t, "[E101] Person.pets.child: child type is required", err.Error())

	err.Line = 4
	assert.Equal(t, "[E101] line 4: Person.pets.child: child type is required", err.Error())
}
