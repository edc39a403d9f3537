package toolchain

import (
	"fmt"
	"strings"
)

// ToolInvocationError is a failed external tool run.
type ToolInvocationError struct {
	Tool     string
	Args     []string
	ExitCode int // -1 when the process did not exit normally
	Stderr   string
	Err      error
}

func (e *ToolInvocationError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.ExitCode > 0 {
		return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.ExitCode, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Tool, msg)
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }

// MissingToolError reports a tool that cannot be found.
type MissingToolError struct {
	Tool string
	Path string
	Err  error
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("%s not found (looked for %q): %v", e.Tool, e.Path, e.Err)
}

func (e *MissingToolError) Unwrap() error { return e.Err }
