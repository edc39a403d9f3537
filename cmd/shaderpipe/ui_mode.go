package main

import (
	"fmt"
	"os"
	"strings"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// minTUIShaders is the smallest build for which auto mode draws the
// progress view; one or two shaders finish before the first frame.
const minTUIShaders = 3

// shouldUseTUI reports whether the progress view should run for a build of
// shaders files. Auto mode needs a terminal on both stdout and stderr.
func shouldUseTUI(mode uiMode, shaders int) bool {
	switch mode {
	case uiModeOn:
		return shaders > 0
	case uiModeOff:
		return false
	default:
		return shaders >= minTUIShaders && isTerminal(os.Stdout) && isTerminal(os.Stderr)
	}
}
