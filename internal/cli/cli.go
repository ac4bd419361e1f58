// Package cli wires the check and fix commands and maps run outcomes to
// exit codes: 0 clean, 1 findings, 2 usage or execution error.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pyfix/internal/app"
	"pyfix/internal/report"
)

const (
	ExitClean    = 0
	ExitFindings = 1
	ExitError    = 2
)

type Runner interface {
	Execute(ctx context.Context, req app.Request) (string, error)
}

type CLI struct {
	Runner  Runner
	Out     io.Writer
	Err     io.Writer
	Version string
}

func New(runner Runner, out io.Writer, errOut io.Writer, version string) *CLI {
	return &CLI{
		Runner:  runner,
		Out:     out,
		Err:     errOut,
		Version: version,
	}
}

func (c *CLI) Run(ctx context.Context, args []string) int {
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(c.Out)
	root.SetErr(c.Err)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitClean
	case errors.Is(err, app.ErrDiagnosticsFound):
		return ExitFindings
	default:
		fmt.Fprintf(c.Err, "error: %v\n", err)
		return ExitError
	}
}

func (c *CLI) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pyfix",
		Short:         "Check and fix Python import statements",
		Long:          "pyfix analyzes Python import statements: grouping, ordering, aliasing, unused names, and wildcard or relative imports. check reports findings; fix rewrites the import region in place.",
		Version:       c.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(c.modeCommand(app.ModeCheck, "check [path]",
		"Report import findings without modifying files"))
	root.AddCommand(c.modeCommand(app.ModeFix, "fix [path]",
		"Rewrite import regions, applying every safe fix"))
	return root
}

func (c *CLI) modeCommand(mode app.Mode, use, short string) *cobra.Command {
	var (
		format     string
		configPath string
		jobs       int
		dryRun     bool
	)

	command := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			parsedFormat, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			output, execErr := c.Runner.Execute(cmd.Context(), app.Request{
				Mode:       mode,
				Path:       path,
				Format:     parsedFormat,
				ConfigPath: configPath,
				DryRun:     dryRun,
				MaxWorkers: jobs,
			})
			if output != "" {
				fmt.Fprint(c.Out, output)
			}
			return execErr
		},
	}

	command.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, sarif, or diff")
	command.Flags().StringVar(&configPath, "config", "", "Explicit configuration file (.pyfix.yml)")
	command.Flags().IntVarP(&jobs, "jobs", "j", 0, "Maximum concurrent file analyses (0 = number of CPUs)")
	if mode == app.ModeFix {
		command.Flags().BoolVar(&dryRun, "dry-run", false, "Report the rewrite without writing files")
	}
	return command
}
