package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/reassign/internal/ir"
	"github.com/roach88/reassign/internal/store"
)

// AssertionContext provides the store the assertions read from.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
// Evaluation continues past failures so all problems are reported.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertAssociation:
		return assertAssociation(a, actx)
	case AssertExists:
		return assertExists(a, actx, true)
	case AssertMissing:
		return assertExists(a, actx, false)
	case AssertField:
		return assertField(a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertAssociation checks the parent's children, in order.
func assertAssociation(a Assertion, actx *AssertionContext) error {
	parent, err := getRef(actx.Ctx, actx.Store, a.Parent)
	if err != nil {
		return err
	}
	children, err := actx.Store.CurrentAssociation(actx.Ctx, parent, a.Relation)
	if err != nil {
		return err
	}

	actual := make([]string, len(children))
	for i, c := range children {
		actual[i] = c.Ref()
	}
	expected := a.Children
	if expected == nil {
		expected = []string{}
	}
	if strings.Join(actual, ",") != strings.Join(expected, ",") {
		return &AssertionError{
			Type:     AssertAssociation,
			Expected: fmt.Sprintf("%s.%s = %v", a.Parent, a.Relation, expected),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// assertExists checks whether the record is in the store.
func assertExists(a Assertion, actx *AssertionContext, want bool) error {
	_, err := getRef(actx.Ctx, actx.Store, a.Record)
	switch {
	case err == nil && want, store.IsNotFound(err) && !want:
		return nil
	case err != nil && !store.IsNotFound(err):
		return err
	}

	typ := AssertExists
	expected, actual := a.Record+" exists", "not found"
	if !want {
		typ = AssertMissing
		expected, actual = a.Record+" not found", "exists"
	}
	return &AssertionError{Type: typ, Expected: expected, Actual: actual}
}

// assertField compares one stored field in canonical JSON form, so 1 and
// "1" are different values.
func assertField(a Assertion, actx *AssertionContext) error {
	rec, err := getRef(actx.Ctx, actx.Store, a.Record)
	if err != nil {
		return err
	}

	want, err := ir.MarshalCanonical(a.Value)
	if err != nil {
		return fmt.Errorf("expected value: %w", err)
	}

	var have []byte
	if v, ok := rec.Key(a.Field); ok {
		if have, err = ir.MarshalCanonical(v); err != nil {
			return err
		}
	} else {
		have = []byte("null")
	}

	if string(have) != string(want) {
		return &AssertionError{
			Type:     AssertField,
			Expected: fmt.Sprintf("%s.%s = %s", a.Record, a.Field, want),
			Actual:   string(have),
		}
	}
	return nil
}
