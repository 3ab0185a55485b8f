// Package main provides the CLI entry point for lottiemp4.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/lottiemp4/pkg/pipeline"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, l10n.T("Interrupted, shutting down..."))
		cancel()
	}()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Output goes to stdout and errOut.
func newApp(stdout, errOut io.Writer) *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, l10n.F("lottiemp4 version %s", c.App.Version))
	}

	return &cli.App{
		Name:        "lottiemp4",
		Usage:       l10n.T("Convert Lottie animations to MP4 video"),
		Description: l10n.T("lottiemp4 renders every frame of a Lottie animation and encodes it as H.264 or AV1 in an MP4 container."),
		Version:     version,
		Writer:      stdout,
		ErrWriter:   errOut,
		Commands: []*cli.Command{
			convertCommand(),
			inspectCommand(),
			probeCommand(),
		},
	}
}

// printError prints err followed by a platform hint when one applies.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, l10n.F("Error: %v", err))
	if hint := pipeline.Hint(err); hint != "" {
		fmt.Fprintln(w, l10n.T(hint))
	}
}
