package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Failures []SuiteFailure `json:"failures,omitempty"`
}

// SuiteFailure records why one scenario failed.
type SuiteFailure struct {
	Path     string   `json:"path"`
	Scenario string   `json:"scenario,omitempty"`
	Errors   []string `json:"errors"`
}

// OK reports whether every scenario passed.
func (r *SuiteResult) OK() bool {
	return r.Failed == 0
}

// FindScenarios lists *.yaml and *.yml files in dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// RunDir loads and runs every scenario in dir. Load and setup failures
// count as scenario failures.
func RunDir(dir string) (*SuiteResult, error) {
	paths, err := FindScenarios(dir)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{}
	for _, path := range paths {
		result.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.fail(path, "", err.Error())
			continue
		}
		run, err := Run(scenario)
		if err != nil {
			result.fail(path, scenario.Name, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}
		if !run.Pass {
			result.fail(path, scenario.Name, run.Errors...)
			continue
		}
		result.Passed++
	}
	return result, nil
}

func (r *SuiteResult) fail(path, name string, errs ...string) {
	r.Failed++
	r.Failures = append(r.Failures, SuiteFailure{Path: path, Scenario: name, Errors: errs})
}
