package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return s
}

func TestRunWithGolden_AuthResume(t *testing.T) {
	scenario := loadTestScenario(t, "auth_resume.yaml")

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 7)
	assert.Equal(t, 6, result.Navigations, "external link never reaches the navigator")
}

func TestRun_CustomRoutes(t *testing.T) {
	scenario := loadTestScenario(t, "custom_routes.yaml")
	assert.Equal(t, filepath.Join("testdata", "scenarios", "routes.cue"), scenario.Routes)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ReportsMismatches(t *testing.T) {
	scenario := &Scenario{
		Name: "mismatch",
		Steps: []Step{
			{
				Open: "pharmaguide://product/1",
				Expect: &Expect{
					Outcome: "blocked",
					Screen:  "Wrong",
					Params:  map[string]any{"id": 1},
				},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], `steps[0].expect.outcome: expected "blocked", got "navigated"`)
	assert.Contains(t, result.Errors[1], `steps[0].expect.screen`)
	assert.Contains(t, result.Errors[2], `expected {"id":1}, got {"id":"1"}`)
}

func TestRun_LoginWithoutRedirect(t *testing.T) {
	scenario := &Scenario{
		Name:  "early_login",
		Steps: []Step{{Login: true}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "no pending auth redirect")
}

func TestRun_AuthenticatedSkipsRedirect(t *testing.T) {
	scenario := &Scenario{
		Name:          "signed_in",
		Authenticated: true,
		Steps: []Step{{
			Open:   "pharmaguide://profile",
			Expect: &Expect{Outcome: "navigated", Screen: "Profile"},
		}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnknownFallbackRoute(t *testing.T) {
	scenario := &Scenario{
		Name:          "bad_fallback",
		FallbackRoute: "nowhere",
		Steps:         []Step{{Open: "pharmaguide://"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestMarshalTrace(t *testing.T) {
	data, err := MarshalTrace([]TraceEvent{
		{Step: 0, Action: "open", URL: "pharmaguide://search?q=a<b", Outcome: "navigated", Screen: "Search"},
		{Step: 1, Action: "login", Outcome: "invalid", Error: "boom"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"step":0,"action":"open","url":"pharmaguide://search?q=a<b","outcome":"navigated","screen":"Search"}`+"\n"+
			`{"step":1,"action":"login","outcome":"invalid","error":"boom"}`+"\n",
		string(data))
}
