package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const petsDecls = `relation: Person: pets: {
	child:       "Pet"
	cardinality: "collection"
}

relation: Person: house: {
	child:       "House"
	cardinality: "single"
}
`

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// cliEnv is a temp directory holding a database and declarations.
type cliEnv struct {
	dir   string
	db    string
	decls string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	return &cliEnv{
		dir:   dir,
		db:    filepath.Join(dir, "app.db"),
		decls: writeFile(t, dir, "decls.cue", petsDecls),
	}
}

// run executes the root command with the env's --db and --decls flags
// prepended, returning stdout, stderr and the error.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runRoot(t, append([]string{"--db", e.db, "--decls", e.decls}, args...)...)
}

func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// seed creates records through the create command.
func (e *cliEnv) seed(t *testing.T, typ string, fields ...string) {
	t.Helper()
	for i, f := range fields {
		path := writeFile(t, e.dir, typ+"-seed-"+string(rune('a'+i))+".json", f)
		_, _, err := e.run(t, "create", "--type", typ, path)
		require.NoError(t, err)
	}
}
