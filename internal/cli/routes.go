package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seancheick/Pharmaguide-sub006/internal/compiler"
)

// RouteInfo describes one registered route.
type RouteInfo struct {
	Name         string   `json:"name"`
	Path         string   `json:"path"`
	Screen       string   `json:"screen"`
	RequiresAuth bool     `json:"requiresAuth"`
	Guards       []string `json:"guards,omitempty"`
	Validator    string   `json:"validator,omitempty"`
}

// RoutesReport is the routes command payload.
type RoutesReport struct {
	Routes   []RouteInfo                `json:"routes"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.ShadowWarning   `json:"warnings,omitempty"`

	verbose bool
}

// NewRoutesCommand creates the routes command.
func NewRoutesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List and check the route table",
		Long: `List the compiled routes in match order, validate the table and
report routes shadowed by earlier registrations.

Exit codes:
  0 - Table valid (shadowing warnings do not fail)
  1 - Table has validation errors
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(opts, cmd)
		},
	}
}

func runRoutes(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	e, err := opts.newEnv(cmd.ErrOrStderr())
	if err != nil {
		return reportSetup(f, err)
	}
	defer e.close()

	report := RoutesReport{
		verbose:  opts.Verbose,
		Errors:   compiler.Validate(e.table, e.roles()),
		Warnings: compiler.AnalyzeShadowing(e.table),
	}
	for _, def := range e.table.Definitions() {
		info := RouteInfo{
			Name:         def.Name,
			Path:         def.Path,
			Screen:       def.Screen,
			RequiresAuth: def.RequiresAuth,
		}
		if !def.Validator.IsZero() {
			info.Validator = def.Validator.Describe()
		}
		for _, g := range def.Guards {
			info.Guards = append(info.Guards, g.Name)
		}
		report.Routes = append(report.Routes, info)
	}

	if len(report.Errors) > 0 {
		return f.Fail(ExitFailure, ErrCodeRouteTable,
			fmt.Sprintf("route table has %d error(s)", len(report.Errors)), report)
	}
	return f.Success(report, formatRoutes(report))
}

func formatRoutes(r RoutesReport) string {
	var b strings.Builder
	for _, info := range r.Routes {
		auth := ""
		if info.RequiresAuth {
			auth = " [auth]"
		}
		guards := ""
		if len(info.Guards) > 0 {
			guards = " guards=" + strings.Join(info.Guards, ",")
		}
		fmt.Fprintf(&b, "%-14s %-22s -> %s%s%s\n", info.Name, info.Path, info.Screen, auth, guards)
		if info.Validator != "" && r.verbose {
			fmt.Fprintf(&b, "%-14s validate %s\n", "", info.Validator)
		}
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "%s: %s\n", w.Level, w.Message)
	}
	fmt.Fprintf(&b, "%d route(s)\n", len(r.Routes))
	return b.String()
}
