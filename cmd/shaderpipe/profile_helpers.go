package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shaderpipe/internal/prof"
)

// setupProfiling inspects persistent profiling flags and enables the
// corresponding profilers. It returns a cleanup function that reports
// write failures on stderr.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	var opts prof.Options
	var err error
	if opts.CPU, err = root.PersistentFlags().GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = root.PersistentFlags().GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Trace, err = root.PersistentFlags().GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if opts == (prof.Options{}) {
		return func() {}, nil
	}

	session, err := prof.Start(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start profiling: %w", err)
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}, nil
}

// instrument sets up tracing and profiling for a command run. The returned
// cleanup must run after the command finishes, whatever its outcome.
func instrument(cmd *cobra.Command) (func(failed bool), error) {
	stopTrace, err := setupTracing(cmd)
	if err != nil {
		return nil, err
	}
	stopProf, err := setupProfiling(cmd)
	if err != nil {
		stopTrace(true)
		return nil, err
	}
	return func(failed bool) {
		stopProf()
		stopTrace(failed)
	}, nil
}
