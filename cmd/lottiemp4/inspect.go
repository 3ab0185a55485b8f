package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/lottiemp4/pkg/inspect"
)

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     l10n.T("Show the video track of an MP4 file"),
		ArgsUsage: "FILE.mp4",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New(l10n.T("exactly one input file is required"))
			}
			rep, err := inspect.File(c.Args().First())
			if err != nil {
				return err
			}
			printReport(c, rep)
			return nil
		},
	}
}

func printReport(c *cli.Context, rep inspect.Report) {
	w := c.App.Writer
	keys := rep.KeyframeIndices()
	idx := make([]string, len(keys))
	for i, k := range keys {
		idx[i] = fmt.Sprint(k)
	}

	fmt.Fprintf(w, "%-12s %s (%s)\n", l10n.T("Codec")+":", rep.Codec, rep.SampleType)
	fmt.Fprintf(w, "%-12s %dx%d\n", l10n.T("Dimensions")+":", rep.Width, rep.Height)
	fmt.Fprintf(w, "%-12s %d\n", l10n.T("Samples")+":", rep.SampleCount())
	fmt.Fprintf(w, "%-12s %s\n", l10n.T("Keyframes")+":", strings.Join(idx, ", "))
	fmt.Fprintf(w, "%-12s %d ms\n", l10n.T("Duration")+":", rep.DurationMs())
	if rep.Fragmented {
		fmt.Fprintf(w, "%-12s %d\n", l10n.T("Fragments")+":", rep.Fragments)
	}
}
