package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/store"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Type string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create --type <Type> <fields-file>",
		Short: "Create a record",
		Long: `Create a record of the given type from a JSON or YAML mapping of fields.

An "id" field requests that identity; otherwise the next free id for the
type is used. Use "-" to read the fields from stdin.

Examples:
  reassign create --db ./app.db --type Person person.yaml
  echo '{"name": "Alice"}' | reassign create --db ./app.db --type Person -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "record type (required)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runCreate(opts *CreateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if err := opts.requireDatabase(); err != nil {
		return err
	}

	doc, err := readDocument(path, cmd.InOrStdin())
	if err != nil {
		_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read fields", err)
	}
	v, err := ir.FromNative(doc)
	if err != nil {
		_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid fields", err)
	}
	fields, ok := v.(ir.Object)
	if !ok {
		msg := fmt.Sprintf("fields must be a mapping, got %T", doc)
		_ = formatter.Error(ErrCodeBadInput, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	rec, err := st.Create(context.Background(), opts.Type, fields)
	if err != nil {
		code := ErrCodeWriteFailed
		if errors.Is(err, store.ErrConflict) {
			code = ErrCodeConflict
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to create record", err)
	}
	formatter.VerboseLog("Created %s in %s", rec.Ref(), opts.Database)

	if opts.Format == "json" {
		return encodeJSON(formatter.Writer, CLIResponse{Status: "ok", Data: rec})
	}
	fmt.Fprintf(formatter.Writer, "✓ Created %s\n", formatRecord(rec))
	return nil
}
