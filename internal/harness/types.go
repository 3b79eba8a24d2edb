package harness

// TraceMutation is one audit row of a step, in the form kept in golden
// traces.
type TraceMutation struct {
	Seq      int64  `json:"seq"`
	Action   string `json:"action"`
	Parent   string `json:"parent"`
	Relation string `json:"relation"`
	Child    string `json:"child"`
}

// StepTrace is the outcome of one scenario step.
type StepTrace struct {
	RequestID string `json:"request_id"`

	// Error is the reconciliation error code the step failed with.
	Error string `json:"error,omitempty"`

	// Mutations is empty for failed steps: they roll back.
	Mutations []TraceMutation `json:"mutations"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step met its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Steps holds one trace per scenario step, in order.
	Steps []StepTrace `json:"steps"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// MutationCount returns the number of mutations across all steps.
func (r *Result) MutationCount() int {
	n := 0
	for _, s := range r.Steps {
		n += len(s.Mutations)
	}
	return n
}
