package relation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareAppliesDefaults(t *testing.T) {
	r := NewRegistry()

	d, err := r.Declare("Person", "pets", Options{ChildType: "Pet", Cardinality: Collection})
	require.NoError(t, err)

	assert.Equal(t, "Person", d.ParentType)
	assert.Equal(t, "pets", d.Name)
	assert.Equal(t, "Pet", d.ChildType)
	assert.Equal(t, Collection, d.Cardinality)
	assert.Equal(t, Owned, d.Ownership)
	assert.Equal(t, "id", d.LookupKey)
	assert.Equal(t, Raise, d.NonexistentIDPolicy)
	assert.True(t, d.AllowDestroy())
	assert.Equal(t, "Person.pets", d.String())
}

func TestDeclareKeepsExplicitOptions(t *testing.T) {
	r := NewRegistry()

	d, err := r.Declare("Person", "clubs", Options{
		ChildType:           "Club",
		Cardinality:         Collection,
		Ownership:           JoinTable,
		LookupKey:           "name",
		NonexistentIDPolicy: Create,
	})
	require.NoError(t, err)

	assert.Equal(t, JoinTable, d.Ownership)
	assert.Equal(t, "name", d.LookupKey)
	assert.Equal(t, Create, d.NonexistentIDPolicy)
}

func TestDeclareRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	r.MustDeclare("Person", "pets", Options{ChildType: "Pet", Cardinality: Collection})

	_, err := r.Declare("Person", "pets", Options{ChildType: "Pet", Cardinality: Single})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateDeclaration))

	d, err := r.Lookup("Person", "pets")
	require.NoError(t, err)
	assert.Equal(t, Collection, d.Cardinality, "first declaration must survive")
}

func TestDeclareSameNameOnDifferentParents(t *testing.T) {
	r := NewRegistry()
	r.MustDeclare("Person", "office", Options{ChildType: "Office", Cardinality: Single})
	r.MustDeclare("Company", "office", Options{ChildType: "Office", Cardinality: Single})

	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Has("Company", "office"))
}

func TestDeclareValidation(t *testing.T) {
	tests := []struct {
		name       string
		parentType string
		relName    string
		opts       Options
		contains   string
	}{
		{"missing parent", "", "pets", Options{ChildType: "Pet", Cardinality: Collection}, "parent type"},
		{"missing name", "Person", "", Options{ChildType: "Pet", Cardinality: Collection}, "relationship name"},
		{"missing child", "Person", "pets", Options{Cardinality: Collection}, "child type"},
		{"missing cardinality", "Person", "pets", Options{ChildType: "Pet"}, "cardinality"},
		{"bad cardinality", "Person", "pets", Options{ChildType: "Pet", Cardinality: "many"}, "cardinality"},
		{"bad ownership", "Person", "pets", Options{ChildType: "Pet", Cardinality: Collection, Ownership: "through"}, "ownership"},
		{"bad policy", "Person", "pets", Options{ChildType: "Pet", Cardinality: Collection, NonexistentIDPolicy: "ignore"}, "policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			_, err := r.Declare(tt.parentType, tt.relName, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidOption))
			assert.Contains(t, err.Error(), tt.contains)
			assert.Equal(t, 0, r.Len())
		})
	}
}

func TestMustDeclarePanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() {
		r.MustDeclare("Person", "pets", Options{})
	})
}

func TestLookupUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("Person", "pets")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownRelation))
	assert.Contains(t, err.Error(), "Person.pets")
}

func TestSealBlocksDeclare(t *testing.T) {
	r := NewRegistry()
	r.MustDeclare("Person", "pets", Options{ChildType: "Pet", Cardinality: Collection})
	r.Seal()

	assert.True(t, r.Sealed())
	_, err := r.Declare("Person", "office", Options{ChildType: "Office", Cardinality: Single})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSealed))

	_, err = r.Lookup("Person", "pets")
	assert.NoError(t, err, "lookups still work after seal")
}

func TestRelationsOfAndAll(t *testing.T) {
	r := NewRegistry()
	r.MustDeclare("Person", "pets", Options{ChildType: "Pet", Cardinality: Collection})
	r.MustDeclare("Person", "family", Options{ChildType: "Family", Cardinality: Single})
	r.MustDeclare("Pet", "toys", Options{ChildType: "Toy", Cardinality: Collection})

	assert.Equal(t, []string{"family", "pets"}, r.RelationsOf("Person"))
	assert.Empty(t, r.RelationsOf("Toy"))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "Person.pets", all[0].String())
	assert.Equal(t, "Person.family", all[1].String())
	assert.Equal(t, "Pet.toys", all[2].String())
}
