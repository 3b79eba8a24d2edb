package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Bool(true)
	var _ Value = List{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestObjectSortedKeysRFC8785Order(t *testing.T) {
	obj := Object{"a": Int(1), "A": Int(2), "aa": Int(3), "aA": Int(4), "Aa": Int(5), "AA": Int(6)}

	// 'A' = 65, 'a' = 97
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestObjectSortedKeysSurrogatePairs(t *testing.T) {
	// U+1F600 encodes as a surrogate pair starting 0xD83D, which sorts
	// before U+FB01 (0xFB01) in UTF-16 but after it in UTF-8.
	obj := Object{"\U0001F600": Int(1), "\ufb01": Int(2)}

	assert.Equal(t, []string{"\U0001F600", "\ufb01"}, obj.SortedKeys())
}

func TestNewObjectLaterPairWins(t *testing.T) {
	obj := NewObject(O("name", String("a")), O("name", String("b")), O("id", Int(1)))

	assert.Equal(t, Object{"name": String("b"), "id": Int(1)}, obj)
}

func TestObjectCloneIsShallow(t *testing.T) {
	orig := Object{"name": String("Spot")}
	clone := orig.Clone()
	clone["name"] = String("Rex")

	assert.Equal(t, String("Spot"), orig["name"])
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(Null{}))
	assert.False(t, IsNull(String("")))
	assert.False(t, IsNull(Int(0)))
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
		ok   bool
	}{
		{"string", String("23"), "23", true},
		{"int", Int(23), "23", true},
		{"negative int", Int(-7), "-7", true},
		{"bool", Bool(true), "true", true},
		{"null", Null{}, "", false},
		{"list", List{Int(1)}, "", false},
		{"object", Object{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeyString(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromNativeScalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"string", "Spot", String("Spot")},
		{"bool", true, Bool(true)},
		{"int", 5, Int(5)},
		{"int64", int64(-5), Int(-5)},
		{"uint8", uint8(7), Int(7)},
		{"integral float", float64(23), Int(23)},
		{"json number", json.Number("42"), Int(42)},
		{"value passthrough", String("x"), String("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromNative(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromNativeRejectsFloats(t *testing.T) {
	_, err := FromNative(1.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are not allowed")

	_, err = FromNative(json.Number("2.5"))
	require.Error(t, err)
}

func TestFromNativeNested(t *testing.T) {
	in := map[string]any{
		"name": "Partridge",
		"pets": []any{
			map[string]any{"id": 1},
			map[any]any{"name": "Rex"},
		},
	}

	got, err := FromNative(in)
	require.NoError(t, err)

	want := Object{
		"name": String("Partridge"),
		"pets": List{
			Object{"id": Int(1)},
			Object{"name": String("Rex")},
		},
	}
	assert.Equal(t, want, got)
}

func TestFromNativeRejectsNonStringKeys(t *testing.T) {
	_, err := FromNative(map[any]any{1: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keys must be strings")
}

func TestFromNativeReportsPath(t *testing.T) {
	_, err := FromNative(map[string]any{"pets": []any{"ok", struct{}{}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `["pets"]`)
	assert.Contains(t, err.Error(), "[1]")
}

func TestToNativeRoundTrip(t *testing.T) {
	v := Object{
		"name":  String("Spot"),
		"age":   Int(3),
		"good":  Bool(true),
		"owner": Null{},
		"toys":  List{Object{"name": String("ball")}},
	}

	back, err := FromNative(ToNative(v))
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestUnmarshalValueKeepsInt64Precision(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"id": 9007199254740993}`))
	require.NoError(t, err)
	assert.Equal(t, Object{"id": Int(9007199254740993)}, v)
}

func TestUnmarshalValueNullBecomesNull(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"owner": null}`))
	require.NoError(t, err)
	assert.Equal(t, Object{"owner": Null{}}, v)
}

func TestObjectJSONRoundTrip(t *testing.T) {
	obj := Object{"b": Int(2), "a": String("x")}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":2}`, string(data))

	var back Object
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, obj, back)
}

func TestObjectUnmarshalJSONRejectsArray(t *testing.T) {
	var obj Object
	err := json.Unmarshal([]byte(`[1,2]`), &obj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected JSON object")
}
