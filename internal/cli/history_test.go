package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryForParent(t *testing.T) {
	env := newCLIEnv(t)
	env.seed(t, "Person", `{"name": "Alice"}`)

	first := writeFile(t, env.dir, "first.json", `[{"name": "Rex"}]`)
	second := writeFile(t, env.dir, "second.json", `[{"id": 1, "_destroy": true}]`)
	for _, p := range []string{first, second} {
		_, _, err := env.run(t, "apply", "--parent", "Person:1", "--relation", "pets", p)
		require.NoError(t, err)
	}

	stdout, _, err := env.run(t, "--format", "json", "history", "--parent", "Person:1")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Parent    string `json:"parent"`
			Mutations []struct {
				Action  string `json:"action"`
				ChildID int64  `json:"child_id"`
			} `json:"mutations"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "Person:1", resp.Data.Parent)
	require.Len(t, resp.Data.Mutations, 2)
	assert.Equal(t, "create", resp.Data.Mutations[0].Action)
	assert.Equal(t, "destroy", resp.Data.Mutations[1].Action)
	assert.Equal(t, int64(1), resp.Data.Mutations[1].ChildID)
}

func TestHistoryUnknownRequest(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "history", "no-such-request")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No mutations recorded.")
}

func TestHistoryArgumentErrors(t *testing.T) {
	env := newCLIEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"neither", []string{"history"}},
		{"both", []string{"history", "req", "--parent", "Person:1"}},
		{"bad_parent", []string{"history", "--parent", "Person"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := env.run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stdout, "✗ E008:")
		})
	}
}
