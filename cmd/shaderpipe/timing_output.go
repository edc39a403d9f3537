package main

import (
	"fmt"
	"io"
	"time"

	"shaderpipe/internal/buildpipeline"
	"shaderpipe/internal/observ"
)

var stageVerbs = map[buildpipeline.Stage]string{
	buildpipeline.StageResolve: "resolved",
	buildpipeline.StageCompile: "compiled",
	buildpipeline.StageWrite:   "written",
}

// printStageTimings prints the per-stage totals, summed over files.
func printStageTimings(out io.Writer, timings *buildpipeline.Timings) {
	if out == nil || timings == nil {
		return
	}
	for _, stage := range buildpipeline.Stages {
		if !timings.Has(stage) {
			continue
		}
		fmt.Fprintf(out, "%s %.1f ms\n", stageVerbs[stage], toMillis(timings.Duration(stage)))
	}
	fmt.Fprintf(out, "total %.1f ms (summed over files)\n", toMillis(timings.Sum(buildpipeline.Stages...)))
}

// printPhaseTimings prints the orchestrator phases of every file.
func printPhaseTimings(out io.Writer, report observ.Report) {
	if out == nil || len(report.Phases) == 0 {
		return
	}
	width := 0
	for _, p := range report.Phases {
		width = max(width, len(p.Name))
	}
	for _, p := range report.Phases {
		note := ""
		if p.Note != "" {
			note = " (" + p.Note + ")"
		}
		fmt.Fprintf(out, "  %-*s %8.2f ms%s\n", width, p.Name, p.DurationMS, note)
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
