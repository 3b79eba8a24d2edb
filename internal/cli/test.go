package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/reassign/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // golden trace directory
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run YAML conformance scenarios, each against a fresh in-memory database.

Every scenario carries its own declarations, setup, steps and assertions.
The mutation trace is compared against {golden-dir}/{name}.golden when
that file exists. The golden directory defaults to the "golden" directory
next to the scenarios directory.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  reassign test ./testdata/scenarios
  reassign test ./testdata/scenarios --filter "single_*"
  reassign test ./testdata/scenarios --update
  reassign test ./testdata/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden trace directory (default: <scenarios-dir>/../golden)")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := harness.FindScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = harness.DefaultGoldenDir(scenariosDir)
	}
	suiteOpts := harness.SuiteOptions{
		GoldenDir:  goldenDir,
		Update:     opts.Update,
		RunOptions: []harness.Option{harness.WithLogger(opts.Logger(cmd))},
	}

	result := &harness.SuiteResult{Outcomes: []harness.Outcome{}}
	w := cmd.OutOrStdout()
	for _, path := range files {
		outcome := harness.RunFile(path, suiteOpts)
		result.Add(outcome)
		if opts.Format != "json" {
			writeOutcomeText(cmd, outcome)
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}

	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}
	return outputTestText(cmd, result)
}

func writeOutcomeText(cmd *cobra.Command, o harness.Outcome) {
	w := cmd.OutOrStdout()
	switch {
	case o.Pass && o.GoldenUpdated:
		fmt.Fprintf(w, "✓ %s (golden updated)\n", o.Name)
	case o.Pass:
		fmt.Fprintf(w, "✓ %s\n", o.Name)
	default:
		fmt.Fprintf(w, "✗ %s\n", o.Name)
		for _, e := range o.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

// outputTestJSON outputs the suite result as JSON.
func outputTestJSON(cmd *cobra.Command, result *harness.SuiteResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := encodeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the suite summary as text.
func outputTestText(cmd *cobra.Command, result *harness.SuiteResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
