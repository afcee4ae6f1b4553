package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
)

// canonicalEvent mirrors TraceEvent with params in canonical JSON.
type canonicalEvent struct {
	Step     int             `json:"step"`
	Action   string          `json:"action"`
	URL      string          `json:"url,omitempty"`
	Outcome  string          `json:"outcome"`
	Route    string          `json:"route,omitempty"`
	Screen   string          `json:"screen,omitempty"`
	Params   json.RawMessage `json:"params,omitempty"`
	Failures []string        `json:"failures,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// MarshalTrace renders a trace as JSON lines, one event per line, with
// parameters in canonical form.
func MarshalTrace(trace []TraceEvent) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, e := range trace {
		ce := canonicalEvent{
			Step:     e.Step,
			Action:   e.Action,
			URL:      e.URL,
			Outcome:  e.Outcome,
			Route:    e.Route,
			Screen:   e.Screen,
			Failures: e.Failures,
			Error:    e.Error,
		}
		if len(e.Params) > 0 {
			raw, err := params.MarshalCanonical(e.Params)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", e.Step, err)
			}
			ce.Params = raw
		}
		if err := enc.Encode(ce); err != nil {
			return nil, fmt.Errorf("step %d: %w", e.Step, err)
		}
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its trace with
// testdata/golden/<name>.golden.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace with a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalTrace(result.Trace)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
