package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/reassign/internal/ir"
)

// TraceSnapshot captures the mutation trace of a scenario execution.
type TraceSnapshot struct {
	ScenarioName string      `json:"scenario_name"`
	Steps        []StepTrace `json:"steps"`
}

// toCanonical converts a TraceSnapshot to an ir.Object so it serializes
// through ir.MarshalCanonical.
func (s *TraceSnapshot) toCanonical() ir.Object {
	steps := make(ir.List, len(s.Steps))
	for i, step := range s.Steps {
		muts := make(ir.List, len(step.Mutations))
		for j, m := range step.Mutations {
			muts[j] = ir.Object{
				"seq":      ir.Int(m.Seq),
				"action":   ir.String(m.Action),
				"parent":   ir.String(m.Parent),
				"relation": ir.String(m.Relation),
				"child":    ir.String(m.Child),
			}
		}
		obj := ir.Object{
			"request_id": ir.String(step.RequestID),
			"mutations":  muts,
		}
		if step.Error != "" {
			obj["error"] = ir.String(step.Error)
		}
		steps[i] = obj
	}

	return ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"steps":         steps,
	}
}

// MarshalTrace renders a result's trace as canonical JSON.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: scenarioName, Steps: result.Steps}
	return ir.MarshalCanonical(snapshot.toCanonical())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run. Trace mismatches fail t via
// goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
