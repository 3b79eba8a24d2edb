package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suiteScenario = `
name: %s
description: "Create one pet"
declarations: |
  relation: Person: pets: {
      child:       "Pet"
      cardinality: "collection"
  }
setup:
  records:
    - type: Person
      fields: { name: Alice }
steps:
  - parent: Person:1
    relation: pets
    payload:
      - { name: Spot }
assertions:
  - type: association
    parent: Person:1
    relation: pets
    children: [%s]
`

func writeSuite(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, children := range scenarios {
		content := []byte(fmt.Sprintf(suiteScenario, name, children))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), content, 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a scenario"), 0644))
	return dir
}

func TestFindScenarioFiles(t *testing.T) {
	dir := writeSuite(t, map[string]string{"pets_a": "Pet:1", "pets_b": "Pet:1", "other": "Pet:1"})

	files, err := FindScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = FindScenarioFiles(dir, "pets_*")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "pets_a.yaml", filepath.Base(files[0]))

	_, err = FindScenarioFiles(dir, "[")
	require.Error(t, err)
}

func TestRunSuite_Counts(t *testing.T) {
	dir := writeSuite(t, map[string]string{"passes": "Pet:1", "fails": "Pet:2"})

	result, err := RunSuite(dir, "", SuiteOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)

	byName := map[string]Outcome{}
	for _, o := range result.Outcomes {
		byName[o.Name] = o
	}
	assert.True(t, byName["passes"].Pass)
	assert.Equal(t, 1, byName["passes"].Mutations)
	assert.False(t, byName["fails"].Pass)
	assert.NotEmpty(t, byName["fails"].Errors)
}

func TestRunFile_LoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0644))

	out := RunFile(path, SuiteOptions{})
	assert.False(t, out.Pass)
	assert.Equal(t, "broken.yaml", out.Name)
	assert.Contains(t, out.Errors[0], "failed to load scenario")
}

func TestRunFile_GoldenLifecycle(t *testing.T) {
	dir := writeSuite(t, map[string]string{"golden_pets": "Pet:1"})
	path := filepath.Join(dir, "golden_pets.yaml")
	goldenDir := DefaultGoldenDir(dir)

	// Missing golden file: assertions alone decide.
	out := RunFile(path, SuiteOptions{GoldenDir: goldenDir})
	assert.True(t, out.Pass, "errors: %v", out.Errors)

	out = RunFile(path, SuiteOptions{GoldenDir: goldenDir, Update: true})
	require.True(t, out.Pass, "errors: %v", out.Errors)
	assert.True(t, out.GoldenUpdated)

	data, err := os.ReadFile(filepath.Join(goldenDir, "golden_pets.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action":"create"`)

	out = RunFile(path, SuiteOptions{GoldenDir: goldenDir})
	assert.True(t, out.Pass, "errors: %v", out.Errors)

	require.NoError(t, os.WriteFile(filepath.Join(goldenDir, "golden_pets.golden"), []byte("{}"), 0644))
	out = RunFile(path, SuiteOptions{GoldenDir: goldenDir})
	assert.False(t, out.Pass)
	assert.Contains(t, out.Errors[0], "trace does not match golden file")
}

func TestRunSuite_ShippedScenarios(t *testing.T) {
	result, err := RunSuite("testdata/scenarios", "", SuiteOptions{GoldenDir: "testdata/golden"})
	require.NoError(t, err)
	for _, o := range result.Outcomes {
		assert.True(t, o.Pass, "%s: %v", o.Name, o.Errors)
	}
	assert.Equal(t, result.Total, result.Passed)
}
