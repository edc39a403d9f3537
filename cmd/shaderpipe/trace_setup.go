package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shaderpipe/internal/trace"
)

type traceFlags struct {
	output    string
	level     trace.Level
	mode      trace.Mode
	ringSize  int
	heartbeat time.Duration
}

func readTraceFlags(cmd *cobra.Command) (traceFlags, error) {
	pf := cmd.Root().PersistentFlags()
	var (
		tf  traceFlags
		err error
	)
	if tf.output, err = pf.GetString("trace"); err != nil {
		return tf, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := pf.GetString("trace-level")
	if err != nil {
		return tf, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return tf, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	if tf.ringSize, err = pf.GetInt("trace-ring-size"); err != nil {
		return tf, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	if tf.heartbeat, err = pf.GetDuration("trace-heartbeat"); err != nil {
		return tf, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	if tf.level, err = trace.ParseLevel(levelStr); err != nil {
		return tf, fmt.Errorf("invalid trace level: %w", err)
	}
	// --trace без уровня включает фазы
	if tf.level == trace.LevelOff && tf.output != "" {
		tf.level = trace.LevelPhase
	}
	if tf.mode, err = trace.ParseMode(modeStr); err != nil {
		return tf, fmt.Errorf("invalid trace mode: %w", err)
	}
	return tf, nil
}

// setupTracing attaches a tracer to the command context. The cleanup
// receives whether the command failed; a ring-only tracer dumps its
// buffer to stderr in that case.
func setupTracing(cmd *cobra.Command) (func(failed bool), error) {
	tf, err := readTraceFlags(cmd)
	if err != nil {
		return nil, err
	}
	if tf.level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(bool) {}, nil
	}

	tracer, err := trace.New(trace.Config{
		Level:    tf.level,
		Mode:     tf.mode,
		Path:     tf.output,
		RingSize: tf.ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	stopPulse := trace.Pulse(tracer, tf.heartbeat)

	return func(failed bool) {
		stopPulse()
		// ring без потока печатаем только при ошибке
		if ring, ok := trace.RingOf(tracer); ok && failed && tf.mode == trace.ModeRing {
			if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}
