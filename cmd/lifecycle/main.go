// Command lifecycle runs the counter lifecycle demo.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lcerrors "github.com/vango-dev/lifecycle/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		var coded *lcerrors.Error
		if errors.As(err, &coded) {
			fmt.Fprint(os.Stderr, coded.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:   "lifecycle",
		Short: "Shared counter and component lifecycle demo",
		Long: `lifecycle shows how a shared counter propagates through components
built with a state-injecting wrapper, and in which order those
components mount and unmount when the count changes.

Commands:
  run     increment the counter a few times and print the lifecycle log
  serve   serve the demo over HTTP with live WebSocket updates`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&dir, "dir", "C", ".", "Directory containing lifecycle.yaml")

	root.AddCommand(
		runCmd(&dir),
		serveCmd(&dir),
		versionCmd(),
	)
	return root
}
