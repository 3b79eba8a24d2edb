package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/relation"
)

var (
	petsRel = relation.Descriptor{
		ParentType: "Person", Name: "pets", ChildType: "Pet",
		Cardinality: relation.Collection, Ownership: relation.Owned,
		LookupKey: ir.IDKey, NonexistentIDPolicy: relation.Raise,
	}
	familyRel = relation.Descriptor{
		ParentType: "Person", Name: "family", ChildType: "Family",
		Cardinality: relation.Single, Ownership: relation.Owned,
		LookupKey: ir.IDKey, NonexistentIDPolicy: relation.Raise,
	}
)

func TestNormalize_SequenceOfMappings(t *testing.T) {
	p, err := Normalize([]any{
		map[string]any{"id": 1, "name": "Spot"},
		map[string]any{"name": "Rex"},
	}, petsRel)
	require.NoError(t, err)

	assert.True(t, p.Many)
	require.Len(t, p.Entries, 2)

	assert.Equal(t, 0, p.Entries[0].Index)
	assert.Equal(t, ir.Int(1), p.Entries[0].LookupValue)
	assert.Equal(t, ir.Object{"name": ir.String("Spot")}, p.Entries[0].Fields)

	assert.Equal(t, 1, p.Entries[1].Index)
	assert.False(t, p.Entries[1].HasLookup())
	assert.Equal(t, ir.Object{"name": ir.String("Rex")}, p.Entries[1].Fields)
}

func TestNormalize_SingleMapping(t *testing.T) {
	p, err := Normalize(map[string]any{"name": "Partridge"}, familyRel)
	require.NoError(t, err)

	assert.False(t, p.Many)
	require.Len(t, p.Entries, 1)
	assert.Equal(t, ir.Object{"name": ir.String("Partridge")}, p.Entries[0].Fields)
}

func TestNormalize_IndexedMappingForCollection(t *testing.T) {
	p, err := Normalize(map[string]any{
		"10": map[string]any{"name": "c"},
		"2":  map[string]any{"name": "b"},
		"0":  map[string]any{"name": "a"},
	}, petsRel)
	require.NoError(t, err)

	require.Len(t, p.Entries, 3)
	assert.Equal(t, ir.String("a"), p.Entries[0].Fields["name"])
	assert.Equal(t, ir.String("b"), p.Entries[1].Fields["name"])
	assert.Equal(t, ir.String("c"), p.Entries[2].Fields["name"])
}

func TestNormalize_CardinalityMismatch(t *testing.T) {
	_, err := Normalize([]any{map[string]any{"name": "x"}}, familyRel)
	require.Error(t, err)
	assert.True(t, IsInvalidPayloadShape(err))

	_, err = Normalize(map[string]any{"name": "x"}, petsRel)
	require.Error(t, err)
	assert.True(t, IsInvalidPayloadShape(err))
}

func TestNormalize_RejectsMalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		d    relation.Descriptor
	}{
		{"scalar payload", "Spot", petsRel},
		{"null payload", nil, familyRel},
		{"mixed sequence", []any{map[string]any{"name": "a"}, "b"}, petsRel},
		{"float attribute", []any{map[string]any{"weight": 1.5}}, petsRel},
		{"non-scalar lookup", []any{map[string]any{"id": []any{1}}}, petsRel},
		{"keys collide after normalization", map[string]any{"name": "a", " name ": "b"}, familyRel},
		{"unsupported type", struct{}{}, familyRel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw, tt.d)
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidPayloadShape, CodeOf(err))

			var re *Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.d.Name, re.Relation)
		})
	}
}

func TestNormalize_ExtractsFlags(t *testing.T) {
	p, err := Normalize([]any{
		map[string]any{"id": 1, "_destroy": "1"},
		map[string]any{"id": 2, "_delete": true},
		map[string]any{"id": 3, "_destroy": "yes", "_delete": 0},
	}, petsRel)
	require.NoError(t, err)

	assert.True(t, p.Entries[0].Destroy)
	assert.False(t, p.Entries[0].Delete)
	assert.True(t, p.Entries[1].Delete)
	assert.False(t, p.Entries[2].Destroy)
	assert.False(t, p.Entries[2].Delete)

	for _, e := range p.Entries {
		assert.NotContains(t, e.Fields, DestroyKey)
		assert.NotContains(t, e.Fields, DeleteKey)
	}
}

func TestNormalize_BlankLookupIsAbsent(t *testing.T) {
	p, err := Normalize([]any{
		map[string]any{"id": nil, "name": "a"},
		map[string]any{"id": "  ", "name": "b"},
	}, petsRel)
	require.NoError(t, err)

	for _, e := range p.Entries {
		assert.False(t, e.HasLookup())
		assert.NotContains(t, e.Fields, "id")
	}
}

func TestNormalize_CustomLookupKey(t *testing.T) {
	d := petsRel
	d.LookupKey = "tag"

	p, err := Normalize([]any{map[string]any{"tag": "A-1", "id": 7}}, d)
	require.NoError(t, err)

	assert.Equal(t, ir.String("A-1"), p.Entries[0].LookupValue)
	assert.Equal(t, ir.Int(7), p.Entries[0].Fields["id"])
}

func TestNormalize_NFCKeys(t *testing.T) {
	decomposed := "cafe\u0301"
	p, err := Normalize(map[string]any{decomposed: "x"}, familyRel)
	require.NoError(t, err)

	assert.Contains(t, p.Entries[0].Fields, "caf\u00e9")
}

func TestNormalize_NormalizesOneLevelDeep(t *testing.T) {
	p, err := Normalize(map[string]any{
		"toys_attributes": []any{map[string]any{" name ": "ball"}},
	}, familyRel)
	require.NoError(t, err)

	toys, ok := p.Entries[0].Fields["toys_attributes"].(ir.List)
	require.True(t, ok)
	assert.Equal(t, ir.Object{"name": ir.String("ball")}, toys[0])
}

func TestNormalize_AcceptsIRValues(t *testing.T) {
	p, err := Normalize(ir.List{ir.Object{"id": ir.String("4")}}, petsRel)
	require.NoError(t, err)
	assert.Equal(t, ir.String("4"), p.Entries[0].LookupValue)
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    ir.Value
		want bool
	}{
		{ir.Bool(true), true},
		{ir.Int(1), true},
		{ir.String("1"), true},
		{ir.String("true"), true},
		{ir.Bool(false), false},
		{ir.Int(0), false},
		{ir.Int(2), false},
		{ir.String("TRUE"), false},
		{ir.String("yes"), false},
		{ir.Null{}, false},
		{nil, false},
		{ir.List{ir.Bool(true)}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Truthy(tt.v), "Truthy(%#v)", tt.v)
	}
}
