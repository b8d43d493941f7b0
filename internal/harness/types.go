package harness

import (
	"github.com/roach88/pathway/internal/pipe"
)

// Result contains the outcome of running a scenario.
type Result struct {
	// Pass is true if every step met its expectations and every assertion held.
	Pass bool

	// Steps holds one entry per executed step, in order.
	Steps []StepResult

	// Errors contains step and assertion failure messages.
	Errors []string
}

// StepResult captures what one step actually produced.
type StepResult struct {
	Name  string
	Query string

	// Columns, Rows, Plan and Table are empty when the step errored.
	Columns []string
	Rows    []pipe.Record
	Plan    string
	Table   string
	Stats   pipe.Stats

	// Err is the query error, expected or not.
	Err error
}

// NewResult creates a passing result with no steps.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Step returns the named step result.
func (r *Result) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}
