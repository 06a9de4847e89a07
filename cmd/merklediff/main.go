package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
)

// Exit codes: the files are identical, the files differ, the comparison did not
// complete.
const (
	exitIdentical = 0
	exitDifferent = 1
	exitFailure   = 2
)

// errDifferent is returned by a command that completed and found differences.
var errDifferent = errors.New("files differ")

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitIdentical
	case errors.Is(err, errDifferent):
		return exitDifferent
	default:
		return exitFailure
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := &app{fs: afero.NewOsFs(), stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	err := app.rootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil && !errors.Is(err, errDifferent) {
		_, _ = fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}
