package main

import (
	"context"
	"io"
	"os"

	"pyfix/internal/app"
	"pyfix/internal/cli"
)

const version = "0.1.0"

var exitFunc = os.Exit

func run(args []string, out io.Writer, errOut io.Writer) int {
	runner := app.New()
	commandLine := cli.New(runner, out, errOut, version)
	return commandLine.Run(context.Background(), args)
}

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}
