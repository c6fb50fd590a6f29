package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lifecycle/internal/config"
	"github.com/vango-dev/lifecycle/internal/errors"
	"github.com/vango-dev/lifecycle/pkg/component"
	"github.com/vango-dev/lifecycle/pkg/demo"
	"github.com/vango-dev/lifecycle/pkg/render"
	"github.com/vango-dev/lifecycle/pkg/store"
)

type runOptions struct {
	increments int
	html       bool
	unmount    bool
}

func runCmd(dir *string) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Increment the counter and print the lifecycle log",
		Long: `Mount the demo app, increment the shared counter and print every
mount and unmount line in the order it happened.

Examples:
  lifecycle run
  lifecycle run -n 1 --html
  lifecycle run --unmount`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(*dir)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("increments") {
				opts.increments = cfg.Demo.Increments
			}
			if opts.increments < 0 {
				return errors.New("E020").
					WithDetail(fmt.Sprintf("--increments must not be negative, got %d", opts.increments))
			}
			return runDemo(cmd.OutOrStdout(), cfg.Logger(os.Stderr), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.increments, "increments", "n", config.DefaultIncrements, "Number of increments (default from lifecycle.yaml)")
	cmd.Flags().BoolVar(&opts.html, "html", false, "Print the final rendered HTML")
	cmd.Flags().BoolVar(&opts.unmount, "unmount", false, "Unmount the app at the end")

	return cmd
}

func runDemo(out io.Writer, logger *slog.Logger, opts runOptions) error {
	s := store.NewCounter(store.WithLogger(logger))
	d := demo.New(s, out)
	root := component.NewRoot(component.WithLogger(logger))

	fmt.Fprintln(out, "== mount")
	if err := root.Mount(d.App, nil); err != nil {
		return err
	}

	for i := 1; i <= opts.increments; i++ {
		fmt.Fprintf(out, "== increment %d\n", i)
		root.Act(s.Increment)
	}

	if opts.html {
		html, err := render.NewRenderer(render.RendererConfig{Pretty: true}).RenderToString(root.Tree())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "== html")
		fmt.Fprint(out, html)
	}

	if opts.unmount {
		fmt.Fprintln(out, "== unmount")
		root.Unmount()
	}

	fmt.Fprintf(out, "== count %d\n", s.GetState().Count)
	return nil
}
