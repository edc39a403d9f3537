package glsl

import (
	"fmt"
	"strings"
)

// UnsupportedSyntaxError reports a construct that cannot be rewritten safely.
type UnsupportedSyntaxError struct {
	Path   string
	Line   int // 1-based, in the include-flattened source
	Text   string
	Reason string
}

func (e *UnsupportedSyntaxError) Error() string {
	text := strings.Join(strings.Fields(e.Text), " ")
	if e.Path == "" {
		return fmt.Sprintf("line %d: unsupported syntax: %s: %q", e.Line, e.Reason, text)
	}
	return fmt.Sprintf("%s:%d: unsupported syntax: %s: %q", e.Path, e.Line, e.Reason, text)
}
