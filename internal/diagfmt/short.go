package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"shaderpipe/internal/diag"
	"shaderpipe/internal/source"
)

// Short writes one line per diagnostic:
//
//	<severity> <CODE> <path>:<line>:<col> <message>
//
// Multi-line messages are folded so each entry stays on one line, which
// keeps the output greppable.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode) {
	for _, d := range bag.Items() {
		loc := "-"
		if f := fileOf(fs, d.Primary); f != nil {
			start, _ := fs.Resolve(d.Primary)
			loc = fmt.Sprintf("%s:%d:%d", displayPath(f, fs, mode), start.Line, start.Col)
		}
		fmt.Fprintf(w, "%s %s %s %s\n", strings.ToLower(d.Severity.String()), d.Code.ID(), loc, foldMessage(d.Message))
	}
}

func foldMessage(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
