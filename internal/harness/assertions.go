package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
)

// ExpectationError describes one mismatch between a step and its expect
// clause.
type ExpectationError struct {
	Step     int
	Field    string
	Expected string
	Actual   string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("steps[%d].expect.%s: expected %s, got %s", e.Step, e.Field, e.Expected, e.Actual)
}

// checkExpect returns one message per mismatched field.
func checkExpect(index int, want *Expect, got TraceEvent) []string {
	var errs []string
	mismatch := func(field, expected, actual string) {
		errs = append(errs, (&ExpectationError{
			Step:     index,
			Field:    field,
			Expected: expected,
			Actual:   actual,
		}).Error())
	}

	if want.Outcome != got.Outcome {
		mismatch("outcome", quote(want.Outcome), quote(got.Outcome))
	}
	if want.Route != "" && want.Route != got.Route {
		mismatch("route", quote(want.Route), quote(got.Route))
	}
	if want.Screen != "" && want.Screen != got.Screen {
		mismatch("screen", quote(want.Screen), quote(got.Screen))
	}
	if want.Params != nil {
		expected, err := params.MapFromAny(want.Params)
		if err != nil {
			mismatch("params", "valid parameters", err.Error())
		} else if !params.Equal(expected, got.Params) {
			mismatch("params", formatParams(expected), formatParams(got.Params))
		}
	}
	if want.Blocked != nil {
		blocked := slices.Clone(got.Failures)
		slices.Sort(blocked)
		expected := slices.Clone(want.Blocked)
		slices.Sort(expected)
		if !slices.Equal(expected, blocked) {
			mismatch("blocked_by", "["+strings.Join(expected, ",")+"]", "["+strings.Join(blocked, ",")+"]")
		}
	}
	return errs
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

func formatParams(m params.Map) string {
	b, err := params.MarshalCanonical(m)
	if err != nil {
		return fmt.Sprintf("%v", map[string]params.Value(m))
	}
	return string(b)
}
