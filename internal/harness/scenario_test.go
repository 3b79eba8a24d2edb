package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petsDecl = `declarations: |
  relation: Person: pets: {
      child:       "Pet"
      cardinality: "collection"
  }
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
`+petsDecl+`
max_depth: 2
setup:
  records:
    - type: Person
      fields: { name: Alice }
    - type: Pet
      fields: { id: 7, name: Spot }
  links:
    - parent: Person:1
      relation: pets
      children: [Pet:7]
steps:
  - parent: Person:1
    relation: pets
    payload:
      - { id: 7, _destroy: true }
    expect_error: RECORD_NOT_FOUND
assertions:
  - type: missing
    record: Pet:7
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Contains(t, scenario.Declarations, "relation: Person: pets")
	assert.Equal(t, 2, scenario.MaxDepth)
	require.Len(t, scenario.Setup.Records, 2)
	assert.Equal(t, "Pet", scenario.Setup.Records[1].Type)
	assert.Equal(t, 7, scenario.Setup.Records[1].Fields["id"])
	require.Len(t, scenario.Setup.Links, 1)
	assert.Equal(t, []string{"Pet:7"}, scenario.Setup.Links[0].Children)
	require.Len(t, scenario.Steps, 1)
	assert.Equal(t, "RECORD_NOT_FOUND", scenario.Steps[0].ExpectError)

	payload, ok := scenario.Steps[0].Payload.([]any)
	require.True(t, ok, "payload should decode as a sequence, got %T", scenario.Steps[0].Payload)
	assert.Len(t, payload, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "Unknown top-level key"
`+petsDecl+`
step:
  - parent: Person:1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_ValidationErrors(t *testing.T) {
	step := `
steps:
  - parent: Person:1
    relation: pets
    payload: []
`
	assertion := `
assertions:
  - type: exists
    record: Person:1
`
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: "description: d\n" + petsDecl + step + assertion,
			want:    "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\n" + petsDecl + step + assertion,
			want:    "description is required",
		},
		{
			name:    "missing declarations",
			content: "name: n\ndescription: d\n" + step + assertion,
			want:    "declarations are required",
		},
		{
			name:    "missing steps",
			content: "name: n\ndescription: d\n" + petsDecl + assertion,
			want:    "steps list is required",
		},
		{
			name:    "missing assertions",
			content: "name: n\ndescription: d\n" + petsDecl + step,
			want:    "assertions list is required",
		},
		{
			name: "bad step parent",
			content: "name: n\ndescription: d\n" + petsDecl + `
steps:
  - parent: Person
    relation: pets
    payload: []
` + assertion,
			want: "steps[0]: parent",
		},
		{
			name: "missing payload",
			content: "name: n\ndescription: d\n" + petsDecl + `
steps:
  - parent: Person:1
    relation: pets
` + assertion,
			want: "steps[0]: payload is required",
		},
		{
			name: "setup record without type",
			content: "name: n\ndescription: d\n" + petsDecl + `
setup:
  records:
    - fields: { name: Alice }
` + step + assertion,
			want: "setup.records[0]: type is required",
		},
		{
			name: "unknown assertion type",
			content: "name: n\ndescription: d\n" + petsDecl + step + `
assertions:
  - type: trace_contains
`,
			want: `unknown assertion type "trace_contains"`,
		},
		{
			name: "field assertion without field",
			content: "name: n\ndescription: d\n" + petsDecl + step + `
assertions:
  - type: field
    record: Pet:1
`,
			want: "field is required",
		},
		{
			name: "association without relation",
			content: "name: n\ndescription: d\n" + petsDecl + step + `
assertions:
  - type: association
    parent: Person:1
`,
			want: "relation is required for association",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ShippedScenarios(t *testing.T) {
	files, err := FindScenarioFiles("testdata/scenarios", "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			scenario, err := LoadScenario(f)
			require.NoError(t, err)
			assert.Equal(t, scenario.Name+".yaml", filepath.Base(f),
				"scenario name should match its file name")
		})
	}
}
