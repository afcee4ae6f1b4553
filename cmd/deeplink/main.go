// Command deeplink resolves, generates and tests deep links and serves
// the web link redirector.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/seancheick/Pharmaguide-sub006/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// ExitErrors have already been reported by the command.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
