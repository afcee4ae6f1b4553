package harness

import (
	"github.com/seancheick/Pharmaguide-sub006/internal/params"
)

// TraceEvent is one step of an executed scenario.
type TraceEvent struct {
	Step     int        `json:"step"`
	Action   string     `json:"action"` // "open" or "login"
	URL      string     `json:"url,omitempty"`
	Outcome  string     `json:"outcome"`
	Route    string     `json:"route,omitempty"`
	Screen   string     `json:"screen,omitempty"`
	Params   params.Map `json:"params,omitempty"`
	Failures []string   `json:"failures,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause matched.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Navigations counts navigator calls.
	Navigations int `json:"navigations"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
