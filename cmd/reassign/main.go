// Command reassign applies nested attribute payloads to declared
// parent/child relationships.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/reassign/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
