package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/route"
)

// NewParseCommand creates the parse command.
func NewParseCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <url>",
		Short: "Resolve a link against the route table",
		Long: `Resolve a link and print the matched route, screen and parameters.

Exit codes:
  0 - Link resolved
  1 - Link did not resolve (unknown prefix, no match, invalid params)
  2 - Command error

Examples:
  deeplink parse "pharmaguide://product/123?ref=email"
  deeplink parse https://pharmaguide.app/search?q=zinc --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, cmd, args[0])
		},
	}
}

func runParse(opts *RootOptions, cmd *cobra.Command, raw string) error {
	f := opts.formatter(cmd)
	e, err := opts.newEnv(cmd.ErrOrStderr())
	if err != nil {
		return reportSetup(f, err)
	}
	defer e.close()

	link := e.resolver.Resolve(raw)
	if !link.Valid {
		return f.Fail(ExitFailure, ErrCodeInvalidLink, fmt.Sprintf("%s: %s", link.Code, link.Error), link)
	}
	return f.Success(link, formatLink(link))
}

func formatLink(link route.ParsedLink) string {
	var b strings.Builder
	fmt.Fprintf(&b, "route:         %s\n", link.Route)
	fmt.Fprintf(&b, "screen:        %s\n", link.Screen)
	fmt.Fprintf(&b, "requires auth: %t\n", link.RequiresAuth)
	b.WriteString(formatParams(link.Params))
	return b.String()
}

func formatParams(p params.Map) string {
	if len(p) == 0 {
		return "params:        (none)\n"
	}
	var b strings.Builder
	b.WriteString("params:\n")
	for _, k := range p.SortedKeys() {
		fmt.Fprintf(&b, "  %s = %s (%s)\n", k, p[k].String(), p[k].Kind())
	}
	return b.String()
}
