package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/seancheick/Pharmaguide-sub006/internal/deeplink"
)

// Scenario defaults.
const (
	DefaultScheme    = "pharmaguide://"
	DefaultAlternate = "https://pharmaguide.app"
	DefaultAuthRoute = "login"
)

// Scenario is one deep-link conformance test.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Routes is a CUE route file, relative to the scenario file. Empty
	// uses the built-in table.
	Routes string `yaml:"routes,omitempty"`

	Scheme        string   `yaml:"scheme,omitempty"`
	Alternates    []string `yaml:"alternates,omitempty"`
	AuthRoute     string   `yaml:"auth_route,omitempty"`
	FallbackRoute string   `yaml:"fallback_route,omitempty"`

	// Authenticated is the sign-in state before the first step.
	Authenticated bool `yaml:"authenticated,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step opens a URL or signs the user in. Exactly one of Open and Login
// is set.
type Step struct {
	Open   string  `yaml:"open,omitempty"`
	Login  bool    `yaml:"login,omitempty"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is matched against the step outcome. Empty fields are not
// checked; Params, when present, must match exactly.
type Expect struct {
	Outcome string         `yaml:"outcome"`
	Route   string         `yaml:"route,omitempty"`
	Screen  string         `yaml:"screen,omitempty"`
	Params  map[string]any `yaml:"params,omitempty"`
	Blocked []string       `yaml:"blocked_by,omitempty"`
}

var knownOutcomes = map[string]bool{
	string(deeplink.OutcomeNavigated):    true,
	string(deeplink.OutcomeAuthRedirect): true,
	string(deeplink.OutcomeBlocked):      true,
	string(deeplink.OutcomeFallback):     true,
	string(deeplink.OutcomeInvalid):      true,
	string(deeplink.OutcomeExternal):     true,
}

// LoadScenario reads a scenario file. Unknown fields are errors and a
// relative routes path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if s.Routes != "" && !filepath.IsAbs(s.Routes) {
		s.Routes = filepath.Join(filepath.Dir(path), s.Routes)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks required fields and step shapes.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Routes != "" {
		if _, err := os.Stat(s.Routes); err != nil {
			return fmt.Errorf("routes file not found: %s", s.Routes)
		}
	}
	for i, step := range s.Steps {
		if (step.Open == "") == !step.Login {
			return fmt.Errorf("steps[%d]: exactly one of open or login is required", i)
		}
		if step.Expect == nil {
			continue
		}
		if step.Expect.Outcome == "" {
			return fmt.Errorf("steps[%d].expect: outcome is required", i)
		}
		if !knownOutcomes[step.Expect.Outcome] {
			return fmt.Errorf("steps[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
		}
	}
	return nil
}

func (s *Scenario) scheme() string {
	if s.Scheme != "" {
		return s.Scheme
	}
	return DefaultScheme
}

func (s *Scenario) alternates() []string {
	if s.Alternates != nil {
		return s.Alternates
	}
	return []string{DefaultAlternate}
}

func (s *Scenario) authRoute() string {
	if s.AuthRoute != "" {
		return s.AuthRoute
	}
	return DefaultAuthRoute
}
