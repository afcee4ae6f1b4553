package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seancheick/Pharmaguide-sub006/internal/harness"
)

// NewTestCommand creates the test command.
func NewTestCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run deep-link scenarios",
		Long: `Run every YAML scenario in a directory. Each scenario opens links
through the full navigation pipeline and checks the outcomes.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  deeplink test ./scenarios
  deeplink test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, cmd, args[0])
		},
	}
}

func runTests(opts *RootOptions, cmd *cobra.Command, dir string) error {
	f := opts.formatter(cmd)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("scenarios directory not found: %s", dir), nil)
	}

	result, err := harness.RunDir(dir)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if !result.OK() {
		if f.Format != "json" {
			fmt.Fprint(f.Writer, formatSuite(result))
		}
		return f.Fail(ExitFailure, ErrCodeScenarioFails,
			fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total), result)
	}
	return f.Success(result, formatSuite(result))
}

func formatSuite(r *harness.SuiteResult) string {
	if r.Total == 0 {
		return "No scenarios found.\n"
	}
	var b strings.Builder
	for _, fl := range r.Failures {
		fmt.Fprintf(&b, "FAIL %s\n", fl.Path)
		for _, e := range fl.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	fmt.Fprintf(&b, "%d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
	return b.String()
}
