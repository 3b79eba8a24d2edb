package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKey(t *testing.T) {
	rec := Record{Type: "Pet", ID: 4, Fields: Object{"name": String("Spot"), "owner": Null{}}}

	v, ok := rec.Key("id")
	require.True(t, ok)
	assert.Equal(t, Int(4), v)

	v, ok = rec.Key("name")
	require.True(t, ok)
	assert.Equal(t, String("Spot"), v)

	_, ok = rec.Key("owner")
	assert.False(t, ok, "null field is not a key value")

	_, ok = rec.Key("missing")
	assert.False(t, ok)
}

func TestRecordMatchesKeyStringCompares(t *testing.T) {
	rec := Record{Type: "Pet", ID: 23, Fields: Object{"tag": Int(7)}}

	assert.True(t, rec.MatchesKey("id", Int(23)))
	assert.True(t, rec.MatchesKey("id", String("23")))
	assert.False(t, rec.MatchesKey("id", String("024")))
	assert.True(t, rec.MatchesKey("tag", String("7")))
	assert.False(t, rec.MatchesKey("tag", List{Int(7)}))
	assert.False(t, rec.MatchesKey("name", String("Spot")))
}

func TestRecordRef(t *testing.T) {
	assert.Equal(t, "Person:12", Record{Type: "Person", ID: 12}.Ref())
}

func TestParseRef(t *testing.T) {
	typ, id, err := ParseRef("Person:12")
	require.NoError(t, err)
	assert.Equal(t, "Person", typ)
	assert.Equal(t, int64(12), id)

	typ, id, err = ParseRef("ns:Person:3")
	require.NoError(t, err)
	assert.Equal(t, "ns:Person", typ)
	assert.Equal(t, int64(3), id)

	for _, bad := range []string{"Person", ":3", "Person:x", ""} {
		_, _, err := ParseRef(bad)
		assert.Error(t, err, bad)
	}
}
