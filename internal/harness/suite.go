package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Outcome is the verdict for one scenario file.
type Outcome struct {
	Name          string   `json:"name"`
	Path          string   `json:"path"`
	Pass          bool     `json:"pass"`
	Mutations     int      `json:"mutations"`
	GoldenUpdated bool     `json:"golden_updated,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Outcomes []Outcome `json:"scenarios"`
	Passed   int       `json:"passed"`
	Failed   int       `json:"failed"`
	Total    int       `json:"total"`
}

// SuiteOptions configures RunFile and RunSuite.
type SuiteOptions struct {
	// GoldenDir holds {scenario name}.golden traces. Empty disables
	// golden comparison.
	GoldenDir string

	// Update rewrites golden files instead of comparing against them.
	Update bool

	// RunOptions are passed to Run for every scenario.
	RunOptions []Option
}

// DefaultGoldenDir returns the golden directory next to a scenarios
// directory: testdata/scenarios -> testdata/golden.
func DefaultGoldenDir(scenariosDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(scenariosDir)), "golden")
}

// FindScenarioFiles finds all YAML scenario files under dir, sorted by
// path. filter is a filepath.Match pattern applied to the file name
// without extension.
func FindScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	return files, err
}

// RunFile loads, runs and checks one scenario file. Failures of any kind
// are reported in the Outcome rather than returned.
func RunFile(path string, opts SuiteOptions) Outcome {
	out := Outcome{Name: filepath.Base(path), Path: path}
	fail := func(format string, args ...any) Outcome {
		out.Pass = false
		out.Errors = append(out.Errors, fmt.Sprintf(format, args...))
		return out
	}

	scenario, err := LoadScenario(path)
	if err != nil {
		return fail("failed to load scenario: %v", err)
	}
	out.Name = scenario.Name

	result, err := Run(scenario, opts.RunOptions...)
	if err != nil {
		return fail("execution failed: %v", err)
	}
	out.Mutations = result.MutationCount()
	out.Errors = append(out.Errors, result.Errors...)
	out.Pass = result.Pass

	if opts.GoldenDir == "" {
		return out
	}

	trace, err := MarshalTrace(scenario.Name, result)
	if err != nil {
		return fail("failed to marshal trace: %v", err)
	}
	goldenPath := filepath.Join(opts.GoldenDir, scenario.Name+".golden")

	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0755); err != nil {
			return fail("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, trace, 0644); err != nil {
			return fail("failed to write golden file: %v", err)
		}
		out.GoldenUpdated = true
		return out
	}

	golden, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		// No golden file: assertions alone decide.
		return out
	}
	if err != nil {
		return fail("failed to read golden file: %v", err)
	}
	if !bytes.Equal(golden, trace) {
		return fail("trace does not match golden file %s (run with --update to regenerate)", goldenPath)
	}
	return out
}

// RunSuite runs every scenario file under dir matching filter.
func RunSuite(dir, filter string, opts SuiteOptions) (*SuiteResult, error) {
	files, err := FindScenarioFiles(dir, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find scenarios: %w", err)
	}

	result := &SuiteResult{Outcomes: make([]Outcome, 0, len(files))}
	for _, f := range files {
		result.Add(RunFile(f, opts))
	}
	return result, nil
}

// Add records an outcome and updates the counters.
func (r *SuiteResult) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Total++
	if o.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}
