package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Clear bool
}

// HistoryReport is the history command payload.
type HistoryReport struct {
	Routes  []string `json:"routes"`
	MaxSize int      `json:"maxSize"`
	Cleared bool     `json:"cleared,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Print or clear the persisted navigation history",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "remove the stored history")
	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := commandContext(cmd)

	e, err := opts.newEnv(cmd.ErrOrStderr())
	if err != nil {
		return reportSetup(f, err)
	}
	defer e.close()
	if err := e.openStore(ctx); err != nil {
		return reportSetup(f, err)
	}

	tracker := e.recovery().History()
	if opts.Clear {
		if err := tracker.Clear(ctx); err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		return f.Success(HistoryReport{Routes: []string{}, MaxSize: tracker.MaxSize(), Cleared: true}, "history cleared\n")
	}

	if err := tracker.Load(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	report := HistoryReport{Routes: tracker.Routes(), MaxSize: tracker.MaxSize()}
	return f.Success(report, formatHistory(report))
}

func formatHistory(r HistoryReport) string {
	if len(r.Routes) == 0 {
		return "no history recorded\n"
	}
	var b strings.Builder
	for i, name := range r.Routes {
		fmt.Fprintf(&b, "%3d  %s\n", i+1, name)
	}
	fmt.Fprintf(&b, "%d of %d entries\n", len(r.Routes), r.MaxSize)
	return b.String()
}
