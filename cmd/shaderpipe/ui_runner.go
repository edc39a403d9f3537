package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"shaderpipe/internal/buildpipeline"
	"shaderpipe/internal/ui"
)

type buildOutcome struct {
	result *buildpipeline.Result
	err    error
}

// runBuildWithUI runs the build in the background and renders its progress
// events until the event channel closes.
func runBuildWithUI(ctx context.Context, title string, files []string, req *buildpipeline.Request) (*buildpipeline.Result, error) {
	if req == nil {
		return nil, fmt.Errorf("missing build request")
	}
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Build(ctx, &reqCopy)
		outcomeCh <- buildOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// после ctrl+c или ошибки UI дочитываем события, чтобы сборка не встала
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
