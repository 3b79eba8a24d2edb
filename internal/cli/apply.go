package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/reconcile"
	"github.com/roach88/reassign/internal/relation"
	"github.com/roach88/reassign/internal/store"
)

// ErrCodeUnknownRelation is reported when --relation is not declared on
// the parent's type.
const ErrCodeUnknownRelation = "UNKNOWN_RELATION"

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Parent   string
	Relation string

	// RequestIDs allows overriding the request ID generator (for testing).
	// If nil, defaults to reconcile.UUIDv7Generator.
	RequestIDs reconcile.RequestIDGenerator
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply --parent <Type:ID> --relation <name> <payload-file>",
		Short: "Apply a nested payload to a relationship",
		Long: `Reconcile a parent's relationship against a nested attribute payload.

The payload is a JSON or YAML mapping (single relationships) or a
sequence of mappings (collections). Entries carrying the lookup key
address existing children; "_destroy" deletes an associated child and
"_delete" only unlinks it. Children not mentioned stay linked.

The whole reconciliation runs in one transaction: any error leaves the
database unchanged. Use "-" to read the payload from stdin.

Exit codes:
  0 - Payload applied
  1 - Payload rejected (RECORD_NOT_FOUND, RELATION_ALREADY_EXISTS, INVALID_PAYLOAD_SHAPE)
  2 - Command error (bad flags, missing database or parent record)

Examples:
  reassign apply --db ./app.db --decls ./decls --parent Person:1 --relation pets pets.yaml
  reassign apply --config reassign.yaml --parent Person:1 --relation family - --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Parent, "parent", "", "parent record as Type:ID (required)")
	_ = cmd.MarkFlagRequired("parent")
	cmd.Flags().StringVar(&opts.Relation, "relation", "", "relationship name (required)")
	_ = cmd.MarkFlagRequired("relation")

	return cmd
}

func runApply(opts *ApplyOptions, path string, cmd *cobra.Command) error {
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

	registry, err := LoadRegistry(opts.Declarations)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		}
		return WrapExitError(ExitCommandError, "failed to load declarations", err)
	}
	formatter.VerboseLog("Loaded %d relation(s) from %s", registry.Len(), opts.Declarations)

	payload, err := readDocument(path, cmd.InOrStdin())
	if err != nil {
		_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read payload", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	logger := opts.Logger(cmd)
	recOpts := []reconcile.Option{reconcile.WithLogger(logger)}
	if opts.RequestIDs != nil {
		recOpts = append(recOpts, reconcile.WithRequestIDs(opts.RequestIDs))
	}

	var result *reconcile.Result
	err = st.WithTx(ctx, func(tx *store.Store) error {
		parent, err := tx.Get(ctx, parentType, parentID)
		if err != nil {
			return err
		}
		result, err = reconcile.New(registry, tx, recOpts...).Reconcile(ctx, parent, opts.Relation, payload)
		return err
	})
	if err != nil {
		return outputApplyError(formatter, opts, err)
	}

	if opts.Format == "json" {
		return encodeJSON(formatter.Writer, CLIResponse{
			Status:    "ok",
			Data:      result,
			RequestID: result.RequestID,
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ Reconciled %s.%s (request %s)\n", result.Parent.Ref(), result.Relation.Name, result.RequestID)
	writeResultText(formatter.Writer, result, "  ")
	return nil
}

// writeResultText prints applied actions and the resulting association,
// then nested results indented one level deeper.
func writeResultText(w io.Writer, res *reconcile.Result, indent string) {
	if len(res.Applied) == 0 {
		fmt.Fprintf(w, "%s(no changes)\n", indent)
	}
	for _, a := range res.Applied {
		fmt.Fprintf(w, "%s%-18s %s\n", indent, a.Kind, a.Child.Ref())
	}

	refs := make([]string, len(res.Children))
	for i, c := range res.Children {
		refs[i] = c.Ref()
	}
	fmt.Fprintf(w, "%s%s.%s = [%s]\n", indent, res.Parent.Ref(), res.Relation.Name, strings.Join(refs, ", "))

	for _, nested := range res.Nested {
		writeResultText(w, nested, indent+"  ")
	}
}

// outputApplyError reports a failed reconciliation. Rejected payloads exit
// with ExitFailure; everything else is a command error.
func outputApplyError(formatter *OutputFormatter, opts *ApplyOptions, err error) error {
	var re *reconcile.Error
	switch {
	case errors.As(err, &re):
		details := map[string]string{}
		if re.Parent != "" {
			details["parent"] = re.Parent
		}
		if re.Relation != "" {
			details["relation"] = re.Relation
		}
		if re.LookupValue != "" {
			details["lookup_value"] = re.LookupValue
		}
		_ = formatter.Error(string(re.Code), re.Message, details)
		return WrapExitError(ExitFailure, "payload rejected", err)

	case errors.Is(err, relation.ErrUnknownRelation):
		_ = formatter.Error(ErrCodeUnknownRelation, err.Error(), nil)
		return WrapExitError(ExitCommandError, "unknown relation", err)

	case store.IsNotFound(err):
		_ = formatter.Error(ErrCodeNoRecord, fmt.Sprintf("parent %s not found", opts.Parent), nil)
		return WrapExitError(ExitCommandError, "parent not found", err)

	default:
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reconciliation failed", err)
	}
}
