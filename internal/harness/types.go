package harness

import "github.com/roach88/rowgraph/internal/ir"

// TraceEvent records one scenario step: the statements the controller
// issued for it and what came back.
type TraceEvent struct {
	Step       int      `json:"step"`
	Op         string   `json:"op"`
	Statements []string `json:"statements"`

	// Result lists the identities the step returned, in order. Nil for
	// steps that return nothing, such as updates and removes.
	Result ir.IRArray `json:"result,omitempty"`

	// Error is the error kind of a failed step (see ErrorKind).
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order. Setup steps are not traced.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// StatementCount counts the statements of every event, or of the events
// of op when op is not empty.
func (r *Result) StatementCount(op string) int {
	n := 0
	for _, ev := range r.Trace {
		if op == "" || ev.Op == op {
			n += len(ev.Statements)
		}
	}
	return n
}
