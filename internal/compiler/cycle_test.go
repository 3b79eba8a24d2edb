package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reassign/internal/relation"
)

func edge(parent, name, child string) Declaration {
	return decl(parent, name, relation.Options{ChildType: child, Cardinality: relation.Collection})
}

func TestAnalyzeCycles_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(nil))
}

func TestAnalyzeCycles_DAG(t *testing.T) {
	warnings := AnalyzeCycles([]Declaration{
		edge("Person", "pets", "Pet"),
		edge("Pet", "toys", "Toy"),
		edge("Person", "toys", "Toy"),
		edge("Toy", "sigil", "Sigil"),
	})
	assert.Empty(t, warnings)
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	warnings := AnalyzeCycles([]Declaration{
		edge("Person", "mentor", "Person"),
	})

	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"Person", "Person"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "Self-referencing")
}

func TestAnalyzeCycles_TwoNodeCycle(t *testing.T) {
	warnings := AnalyzeCycles([]Declaration{
		edge("Person", "pets", "Pet"),
		edge("Pet", "owners", "Person"),
	})

	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"Person", "Pet", "Person"}, warnings[0].Path)
	assert.Equal(t, "Relationship cycle: Person -> Pet -> Person", warnings[0].Message)
}

func TestAnalyzeCycles_ThreeNodeCycleDeterministic(t *testing.T) {
	decls := []Declaration{
		edge("Toy", "owner", "Person"),
		edge("Pet", "toys", "Toy"),
		edge("Person", "pets", "Pet"),
	}

	for i := 0; i < 5; i++ {
		warnings := AnalyzeCycles(decls)
		require.Len(t, warnings, 1)
		assert.Equal(t, []string{"Person", "Pet", "Toy", "Person"}, warnings[0].Path)
	}
}

func TestAnalyzeCycles_SeparateCycles(t *testing.T) {
	warnings := AnalyzeCycles([]Declaration{
		edge("B", "self", "B"),
		edge("A", "x", "C"),
		edge("C", "y", "A"),
		edge("A", "z", "D"),
	})

	require.Len(t, warnings, 2)
	assert.Equal(t, "A", warnings[0].Path[0])
	assert.Equal(t, "B", warnings[1].Path[0])
}
