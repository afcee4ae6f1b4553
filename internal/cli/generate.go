package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Params []string // k=v pairs
	Web    bool
}

// GeneratedLink is the generate command payload.
type GeneratedLink struct {
	Route  string     `json:"route"`
	Params params.Map `json:"params"`
	URL    string     `json:"url"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <route>",
		Short: "Build a link for a route",
		Long: `Build the canonical app link (or, with --web, the shareable web link)
for a route. Path parameters are kept as strings. Other values are typed
the same way query values are: "true"/"false" become booleans and numeric
strings become numbers.

Examples:
  deeplink generate product --param id=123 --param ref=email
  deeplink generate interaction --param a=warfarin --param b=aspirin --web`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Web, "web", false, "generate the web link instead of the app link")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command, name string) error {
	f := opts.formatter(cmd)

	raw, err := parseParamFlags(opts.Params)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	e, err := opts.newEnv(cmd.ErrOrStderr())
	if err != nil {
		return reportSetup(f, err)
	}
	defer e.close()

	p := e.resolver.GenerationParams(name, raw)
	generate := e.resolver.Generate
	if opts.Web {
		generate = e.resolver.GenerateWeb
	}
	link, err := generate(name, p)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGenerate, err.Error(), nil)
	}
	return f.Success(GeneratedLink{Route: name, Params: p, URL: link}, link+"\n")
}

// parseParamFlags turns repeated key=value flags into raw pairs. Later
// keys win.
func parseParamFlags(pairs []string) (map[string]string, error) {
	p := map[string]string{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q: want key=value", pair)
		}
		p[k] = v
	}
	return p, nil
}
