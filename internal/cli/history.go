package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Parent string
}

// HistoryResult lists audit log entries.
type HistoryResult struct {
	RequestID string        `json:"request_id,omitempty"`
	Parent    string        `json:"parent,omitempty"`
	Mutations []ir.Mutation `json:"mutations"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [request-id]",
		Short: "Show the mutation audit log",
		Long: `Show mutations recorded by apply, either for one request or for
every request that touched a parent (--parent).

Examples:
  reassign history --db ./app.db 01928c6e-7d5a-7b3c-9a4e-2f1d8c3b5a6e
  reassign history --db ./app.db --parent Person:1 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			requestID := ""
			if len(args) == 1 {
				requestID = args[0]
			}
			return runHistory(opts, requestID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Parent, "parent", "", "list mutations for a parent record (Type:ID)")

	return cmd
}

func runHistory(opts *HistoryOptions, requestID string, cmd *cobra.Command) error {
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
	if (requestID == "") == (opts.Parent == "") {
		msg := "exactly one of a request id or --parent is required"
		_ = formatter.Error(ErrCodeBadInput, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	result := HistoryResult{RequestID: requestID, Parent: opts.Parent}
	if requestID != "" {
		result.Mutations, err = st.ReadMutations(ctx, requestID)
	} else {
		typ, id, perr := ir.ParseRef(opts.Parent)
		if perr != nil {
			_ = formatter.Error(ErrCodeBadInput, perr.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid --parent", perr)
		}
		result.Mutations, err = st.ReadMutationsForParent(ctx, ir.Record{Type: typ, ID: id})
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read audit log", err)
	}
	if result.Mutations == nil {
		result.Mutations = []ir.Mutation{}
	}
	formatter.VerboseLog("Read %d mutation(s) from %s", len(result.Mutations), opts.Database)

	if opts.Format == "json" {
		return encodeJSON(formatter.Writer, CLIResponse{Status: "ok", Data: result, RequestID: requestID})
	}

	if len(result.Mutations) == 0 {
		fmt.Fprintln(formatter.Writer, "No mutations recorded.")
		return nil
	}
	for _, m := range result.Mutations {
		fmt.Fprintf(formatter.Writer, "%s #%d %s:%d.%s %s %s:%d\n",
			m.RequestID, m.Seq, m.ParentType, m.ParentID, m.Relation, m.Action, m.ChildType, m.ChildID)
	}
	return nil
}
