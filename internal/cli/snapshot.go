package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seancheick/Pharmaguide-sub006/internal/recovery"
)

// SnapshotReport is the snapshot show payload. Verdict is "valid" or the
// rejection reason.
type SnapshotReport struct {
	Present  bool               `json:"present"`
	Snapshot *recovery.Snapshot `json:"snapshot,omitempty"`
	Verdict  string             `json:"verdict,omitempty"`
	Detail   string             `json:"detail,omitempty"`
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect or clear the persisted navigation snapshot",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show",
		Short:         "Print the stored snapshot and whether it would be restored",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotShow(opts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Remove the stored snapshot",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotClear(opts, cmd)
		},
	})

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runSnapshotShow(opts *RootOptions, cmd *cobra.Command) error {
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

	report := SnapshotReport{}
	snap, err := e.recovery().Peek(ctx)
	var rej *recovery.Rejection
	switch {
	case errors.As(err, &rej):
		report.Present = true
		report.Verdict = string(rej.Reason)
		report.Detail = rej.Detail
	case err != nil:
		return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	case snap != nil:
		report.Present = true
		report.Snapshot = snap
		check := recovery.Check{
			Now:         time.Now(),
			MaxAge:      e.cfg.Recovery.MaxAge,
			Version:     e.cfg.Recovery.Version,
			ValidRoutes: e.knownRoutes(),
		}
		report.Verdict = "valid"
		if rej := check.Validate(snap); rej != nil {
			report.Verdict = string(rej.Reason)
			report.Detail = rej.Detail
		}
	}
	return f.Success(report, formatSnapshot(report))
}

func runSnapshotClear(opts *RootOptions, cmd *cobra.Command) error {
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

	if err := e.recovery().Clear(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	return f.Success(map[string]bool{"cleared": true}, "snapshot cleared\n")
}

func formatSnapshot(r SnapshotReport) string {
	if !r.Present {
		return "no snapshot stored\n"
	}
	var b strings.Builder
	if s := r.Snapshot; s != nil {
		fmt.Fprintf(&b, "saved:         %s\n", s.Time().UTC().Format(time.RFC3339))
		fmt.Fprintf(&b, "version:       %s\n", s.Version)
		fmt.Fprintf(&b, "session:       %s\n", s.SessionID)
		if s.UserID != "" {
			fmt.Fprintf(&b, "user:          %s\n", s.UserID)
		}
		if s.State != nil {
			fmt.Fprintf(&b, "routes:        %s\n", strings.Join(s.State.RouteNames(), " > "))
		}
		fmt.Fprintf(&b, "navigations:   %d\n", s.Metadata.NavigationCount)
	}
	verdict := r.Verdict
	if r.Detail != "" {
		verdict += " (" + r.Detail + ")"
	}
	fmt.Fprintf(&b, "verdict:       %s\n", verdict)
	return b.String()
}
