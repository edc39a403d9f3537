package reflection

import (
	"fmt"
	"strings"

	"shaderpipe/internal/shader"
)

// Error is the batch of problems found in one stage's reflection.
type Error struct {
	Path     string
	Stage    shader.Stage
	Messages []string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "invalid %s reflection", e.Stage)
	if len(e.Messages) == 1 {
		b.WriteString(": ")
		b.WriteString(e.Messages[0])
		return b.String()
	}
	fmt.Fprintf(&b, " (%d issues)", len(e.Messages))
	for _, m := range e.Messages {
		b.WriteString("\n  ")
		b.WriteString(m)
	}
	return b.String()
}
