package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"shaderpipe/internal/diag"
	"shaderpipe/internal/diagfmt"
	"shaderpipe/internal/source"
)

type reportOptions struct {
	format    string
	color     bool
	quiet     bool
	timings   bool
	withNotes bool
	pathMode  diagfmt.PathMode
}

func readReportOptions(cmd *cobra.Command) (reportOptions, error) {
	var (
		opts reportOptions
		err  error
	)
	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return opts, err
	}
	switch opts.format {
	case "pretty", "json", "short":
	default:
		return opts, fmt.Errorf("unknown format: %s", opts.format)
	}
	if opts.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return opts, err
	}
	modeStr, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return opts, err
	}
	var ok bool
	if opts.pathMode, ok = diagfmt.ParsePathMode(modeStr); !ok {
		return opts, fmt.Errorf("invalid --path-mode value %q", modeStr)
	}
	if opts.color, err = useColor(cmd); err != nil {
		return opts, err
	}
	if opts.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return opts, err
	}
	if opts.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return opts, err
	}
	return opts, nil
}

func printDiagnostics(out io.Writer, bag *diag.Bag, fs *source.FileSet, opts reportOptions) error {
	switch opts.format {
	case "json":
		return diagfmt.JSON(out, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.pathMode,
			IncludeNotes:     opts.withNotes,
		})
	case "short":
		diagfmt.Short(out, bag, fs, opts.pathMode)
	default:
		if bag.Len() == 0 {
			return nil
		}
		diagfmt.Pretty(out, bag, fs, diagfmt.PrettyOpts{
			Color:     opts.color,
			Context:   1,
			PathMode:  opts.pathMode,
			ShowNotes: opts.withNotes || bag.HasErrors(),
		})
		if dropped := bag.Dropped(); dropped > 0 {
			fmt.Fprintf(out, "... %d more diagnostics not shown\n", dropped)
		}
	}
	return nil
}
