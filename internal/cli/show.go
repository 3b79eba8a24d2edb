package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Parent   string
	Relation string
}

// ShowResult is the current association of one parent relationship.
type ShowResult struct {
	Parent   ir.Record   `json:"parent"`
	Relation string      `json:"relation"`
	Children []ir.Record `json:"children"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show --parent <Type:ID> --relation <name>",
		Short: "Show a parent's current children",
		Long: `Print the children currently linked to a parent through a relationship.

When --decls is set the relationship must be declared on the parent's type.

Examples:
  reassign show --db ./app.db --parent Person:1 --relation pets
  reassign show --db ./app.db --decls ./decls --parent Person:1 --relation pets --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Parent, "parent", "", "parent record as Type:ID (required)")
	_ = cmd.MarkFlagRequired("parent")
	cmd.Flags().StringVar(&opts.Relation, "relation", "", "relationship name (required)")
	_ = cmd.MarkFlagRequired("relation")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if err := opts.requireDatabase(); err != nil {
		return err
	}

	parentType, parentID, err := ir.ParseRef(opts.Parent)
	if err != nil {
		_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --parent", err)
	}

	if opts.Declarations != "" {
		registry, err := LoadRegistry(opts.Declarations)
		if err != nil {
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			}
			return WrapExitError(ExitCommandError, "failed to load declarations", err)
		}
		if !registry.Has(parentType, opts.Relation) {
			msg := fmt.Sprintf("%s has no relation %q", parentType, opts.Relation)
			_ = formatter.Error(ErrCodeUnknownRelation, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	parent, err := st.Get(ctx, parentType, parentID)
	if err != nil {
		if store.IsNotFound(err) {
			_ = formatter.Error(ErrCodeNoRecord, fmt.Sprintf("parent %s not found", opts.Parent), nil)
			return WrapExitError(ExitCommandError, "parent not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to read parent", err)
	}

	children, err := st.CurrentAssociation(ctx, parent, opts.Relation)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read association", err)
	}
	if children == nil {
		children = []ir.Record{}
	}

	result := ShowResult{Parent: parent, Relation: opts.Relation, Children: children}
	if opts.Format == "json" {
		return encodeJSON(formatter.Writer, CLIResponse{Status: "ok", Data: result})
	}

	fmt.Fprintf(formatter.Writer, "%s.%s (%d child(ren))\n", parent.Ref(), opts.Relation, len(children))
	for _, c := range children {
		fmt.Fprintf(formatter.Writer, "  %s\n", formatRecord(c))
	}
	return nil
}
