package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    any
	}{
		{"json_object", `{"name": "Rex"}`, map[string]any{"name": "Rex"}},
		{"yaml_sequence", "- name: Rex\n- id: 2\n", []any{map[string]any{"name": "Rex"}, map[string]any{"id": 2}}},
		{"scalar", "42\n", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readDocument(writeFile(t, dir, tt.name, tt.content), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadDocumentStdin(t *testing.T) {
	got, err := readDocument("-", strings.NewReader(`[{"_destroy": true, "id": 1}]`))
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"_destroy": true, "id": 1}}, got)
}

func TestReadDocumentErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := readDocument(dir+"/missing.json", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")

	_, err = readDocument(writeFile(t, dir, "empty.json", ""), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")

	_, err = readDocument(writeFile(t, dir, "bad.json", `{"name": `), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}
