package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seancheick/Pharmaguide-sub006/internal/deeplink"
	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/recovery"
)

// OpenOptions holds flags for the open command.
type OpenOptions struct {
	*RootOptions
	Authenticated bool
	Save          bool
}

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OpenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "open <url>",
		Short: "Dry-run the full navigation pipeline for a link",
		Long: `Run a link through resolution, the auth gate and route guards, and
print where the app would navigate.

With --save the resulting screen is written to the configured store as
the navigation snapshot, and the route is appended to the history.

Examples:
  deeplink open "pharmaguide://stack/42"
  deeplink open "pharmaguide://stack/42" --authenticated --save`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Authenticated, "authenticated", false, "treat the user as signed in")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "persist the navigation as the recovery snapshot")

	return cmd
}

func runOpen(opts *OpenOptions, cmd *cobra.Command, raw string) error {
	f := opts.formatter(cmd)
	ctx := commandContext(cmd)

	e, err := opts.newEnv(cmd.ErrOrStderr())
	if err != nil {
		return reportSetup(f, err)
	}
	defer e.close()

	svcOpts := []deeplink.Option{
		deeplink.WithAuthenticator(deeplink.AuthFunc(func(context.Context) bool {
			return opts.Authenticated
		})),
	}
	if opts.Save {
		mgr, err := openRecovery(ctx, e)
		if err != nil {
			return reportSetup(f, err)
		}
		svcOpts = append(svcOpts, deeplink.WithRecovery(mgr))
	}

	svc, err := e.service(nil, svcOpts...)
	if err != nil {
		return reportSetup(f, err)
	}
	svc.Initialize(deeplink.NavigatorFunc(func(_ context.Context, screen string, p params.Map) error {
		f.VerboseLog("navigate %s %v", screen, p)
		return nil
	}))

	res, err := svc.Open(ctx, raw)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), res)
	}

	if opts.Save {
		if res.Outcome == deeplink.OutcomeNavigated {
			svc.Commit(ctx, recovery.SingleRoute(res.Link.Route, res.Params))
		}
		if err := svc.Flush(ctx); err != nil {
			return reportSetup(f, WrapExitError(ExitCommandError, "failed to save snapshot", err))
		}
	}

	if err := f.Success(res, formatResult(res)); err != nil {
		return err
	}
	if res.Outcome == deeplink.OutcomeInvalid {
		return NewExitError(ExitFailure, "link did not resolve")
	}
	return nil
}

// openRecovery opens the store and a recovery manager with the persisted
// history loaded.
func openRecovery(ctx context.Context, e *env) (*recovery.Manager, error) {
	if err := e.openStore(ctx); err != nil {
		return nil, err
	}
	mgr := e.recovery()
	if err := mgr.History().Load(ctx); err != nil {
		e.logger.Warn("history load failed", zap.Error(err))
	}
	return mgr, nil
}

func formatResult(res deeplink.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "outcome:       %s\n", res.Outcome)
	if res.Link.Route != "" {
		fmt.Fprintf(&b, "route:         %s\n", res.Link.Route)
	}
	if res.Screen != "" {
		fmt.Fprintf(&b, "screen:        %s\n", res.Screen)
		b.WriteString(formatParams(res.Params))
	}
	if res.Link.Error != "" {
		fmt.Fprintf(&b, "error:         %s\n", res.Link.Error)
	}
	for _, fl := range res.Failures {
		fmt.Fprintf(&b, "blocked by:    %s (%s)\n", fl.Guard, fl.Reason)
	}
	return b.String()
}
