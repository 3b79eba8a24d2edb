package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reassign/internal/relation"
)

func TestCompileSourceAndBuildRegistry(t *testing.T) {
	decls, err := CompileSource(`
		relation: Person: pets: {
			child:       "Pet"
			cardinality: "collection"
		}
		relation: Person: family: {
			child:       "Family"
			cardinality: "single"
		}
	`, "inline.cue")
	require.NoError(t, err)
	require.Len(t, decls, 2)

	reg, err := BuildRegistry(decls)
	require.NoError(t, err)
	assert.True(t, reg.Sealed())
	assert.Equal(t, []string{"family", "pets"}, reg.RelationsOf("Person"))

	d, err := reg.Lookup("Person", "pets")
	require.NoError(t, err)
	assert.Equal(t, relation.Collection, d.Cardinality)
	assert.Equal(t, relation.Owned, d.Ownership)
}

func TestCompileSourceSyntaxError(t *testing.T) {
	_, err := CompileSource(`relation: Person: {`, "broken.cue")
	require.Error(t, err)
}

func TestBuildRegistryJoinsValidationErrors(t *testing.T) {
	_, err := BuildRegistry([]Declaration{
		decl("Person", "_destroy", relation.Options{ChildType: "Pet", Cardinality: relation.Collection}),
		decl("Person", "pets", relation.Options{ChildType: "pet-type", Cardinality: relation.Collection}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrReservedName)
	assert.Contains(t, err.Error(), ErrInvalidTypeName)
}
