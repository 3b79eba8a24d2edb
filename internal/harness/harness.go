package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/reassign/internal/compiler"
	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/reconcile"
	"github.com/roach88/reassign/internal/relation"
	"github.com/roach88/reassign/internal/store"
)

// CodeUnknownRelation is reported for steps naming a relationship that is
// not declared on the parent's type.
const CodeUnknownRelation = "UNKNOWN_RELATION"

// Harness is the scenario execution engine. Request IDs are deterministic
// ("req-1", "req-2", ... per step) so traces can be compared byte for byte.
type Harness struct {
	store    *store.Store
	registry *relation.Registry
	logger   *slog.Logger
	maxDepth int
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger routes reconciler logs to l. Default: discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// RequestID returns the request ID assigned to step i (zero-based).
func RequestID(i int) string {
	return fmt.Sprintf("req-%d", i+1)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Compile the scenario's declarations into a sealed registry
//  2. Create setup records and links
//  3. Apply each step in its own transaction; failed steps roll back
//  4. Evaluate assertions against the final store state
//
// The returned error covers problems with the scenario itself (bad
// declarations, setup failures); step and assertion failures are reported
// in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	decls, err := compiler.CompileSource(scenario.Declarations, scenario.Name+".cue")
	if err != nil {
		return nil, fmt.Errorf("failed to compile declarations: %w", err)
	}
	registry, err := compiler.BuildRegistry(decls)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth: scenario.MaxDepth,
	}
	for _, opt := range opts {
		opt(h)
	}

	ctx := context.Background()
	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		trace, err := h.executeStep(ctx, i, step, result)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.Steps = append(result.Steps, trace)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSetup creates setup records, then sets setup links.
func (h *Harness) executeSetup(ctx context.Context, setup Setup) error {
	for i, rec := range setup.Records {
		fields, err := toObject(rec.Fields)
		if err != nil {
			return fmt.Errorf("records[%d]: %w", i, err)
		}
		if _, err := h.store.Create(ctx, rec.Type, fields); err != nil {
			return fmt.Errorf("records[%d]: %w", i, err)
		}
	}

	for i, link := range setup.Links {
		parent, err := h.getRef(ctx, link.Parent)
		if err != nil {
			return fmt.Errorf("links[%d]: %w", i, err)
		}
		children := make([]ir.Record, 0, len(link.Children))
		for _, ref := range link.Children {
			child, err := h.getRef(ctx, ref)
			if err != nil {
				return fmt.Errorf("links[%d]: %w", i, err)
			}
			children = append(children, child)
		}
		if err := h.store.SetAssociation(ctx, parent, link.Relation, children); err != nil {
			return fmt.Errorf("links[%d]: %w", i, err)
		}
	}
	return nil
}

// executeStep applies one payload atomically and checks its expectation.
// Only store failures outside the reconciliation are returned as errors.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) (StepTrace, error) {
	requestID := RequestID(i)
	trace := StepTrace{RequestID: requestID, Mutations: []TraceMutation{}}

	opts := []reconcile.Option{
		reconcile.WithLogger(h.logger),
		reconcile.WithRequestIDs(reconcile.NewFixedGenerator(requestID)),
	}
	if h.maxDepth > 0 {
		opts = append(opts, reconcile.WithMaxDepth(h.maxDepth))
	}

	stepErr := h.store.WithTx(ctx, func(tx *store.Store) error {
		parent, err := getRef(ctx, tx, step.Parent)
		if err != nil {
			return err
		}
		_, err = reconcile.New(h.registry, tx, opts...).Reconcile(ctx, parent, step.Relation, step.Payload)
		return err
	})

	code := errorCode(stepErr)
	trace.Error = code
	switch {
	case stepErr == nil && step.ExpectError != "":
		result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got success", i, step.ExpectError))
	case stepErr != nil && code == "":
		result.AddError(fmt.Sprintf("steps[%d]: %v", i, stepErr))
	case stepErr != nil && code != step.ExpectError:
		result.AddError(fmt.Sprintf("steps[%d]: unexpected error: %v", i, stepErr))
	}

	muts, err := h.store.ReadMutations(ctx, requestID)
	if err != nil {
		return StepTrace{}, fmt.Errorf("read mutations: %w", err)
	}
	for _, m := range muts {
		trace.Mutations = append(trace.Mutations, TraceMutation{
			Seq:      m.Seq,
			Action:   m.Action,
			Parent:   ir.Record{Type: m.ParentType, ID: m.ParentID}.Ref(),
			Relation: m.Relation,
			Child:    ir.Record{Type: m.ChildType, ID: m.ChildID}.Ref(),
		})
	}
	return trace, nil
}

func (h *Harness) getRef(ctx context.Context, ref string) (ir.Record, error) {
	return getRef(ctx, h.store, ref)
}

func getRef(ctx context.Context, st *store.Store, ref string) (ir.Record, error) {
	typ, id, err := ir.ParseRef(ref)
	if err != nil {
		return ir.Record{}, err
	}
	rec, err := st.Get(ctx, typ, id)
	if err != nil {
		return ir.Record{}, fmt.Errorf("get %s: %w", ref, err)
	}
	return rec, nil
}

// errorCode maps a step error onto the code scenarios expect.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := reconcile.CodeOf(err); code != "" {
		return string(code)
	}
	if errors.Is(err, relation.ErrUnknownRelation) {
		return CodeUnknownRelation
	}
	return ""
}

func toObject(fields map[string]any) (ir.Object, error) {
	if fields == nil {
		return ir.Object{}, nil
	}
	v, err := ir.FromNative(fields)
	if err != nil {
		return nil, err
	}
	return v.(ir.Object), nil
}
