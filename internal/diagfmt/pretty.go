package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"shaderpipe/internal/diag"
	"shaderpipe/internal/source"
)

type palette struct {
	err, warn, info, code, path, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgBlue, color.Bold),
		code:   mk(color.FgHiBlack),
		path:   mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed, color.Bold),
		note:   mk(color.FgCyan),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// затем строку исходника с подчёркиванием ^~~~ по Span и заметки.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		f := fileOf(fs, d.Primary)
		sev := p.severity(d.Severity)
		if f != nil {
			start, _ := fs.Resolve(d.Primary)
			fmt.Fprintf(w, "%s: ", p.path.Sprintf("%s:%d:%d", displayPath(f, fs, opts.PathMode), start.Line, start.Col))
		}
		fmt.Fprintf(w, "%s %s: %s\n", sev.Sprint(d.Severity.String()), p.code.Sprint(d.Code.ID()), d.Message)
		if f != nil {
			writeExcerpt(w, p, fs, f, d.Primary, int(opts.Context))
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			loc := ""
			if nf := fileOf(fs, n.Span); nf != nil {
				start, _ := fs.Resolve(n.Span)
				loc = fmt.Sprintf(" %s:%d:%d", displayPath(nf, fs, opts.PathMode), start.Line, start.Col)
			}
			fmt.Fprintf(w, "  %s%s: %s\n", p.note.Sprint("note"), loc, n.Msg)
		}
	}
}

// fileOf returns nil for spans without a location.
func fileOf(fs *source.FileSet, span source.Span) *source.File {
	if fs == nil || !span.Valid() {
		return nil
	}
	return fs.Get(span.File)
}

func writeExcerpt(w io.Writer, p palette, fs *source.FileSet, f *source.File, span source.Span, context int) {
	start, end := fs.Resolve(span)
	// пустой span указывает только на файл
	if start.Line == 0 || span.Empty() {
		return
	}
	first := max(int(start.Line)-context, 1)
	last := int(start.Line) + context
	width := len(fmt.Sprint(last))
	for n := first; n <= last; n++ {
		line := f.GetLine(uint32(n)) // #nosec G115 -- n is a line number of f
		if n > int(start.Line) && line == "" {
			break
		}
		line = strings.ReplaceAll(line, "\t", "    ")
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", width, n), line)
		if n != int(start.Line) {
			continue
		}
		// каретка выравнивается по ширине символов, а не байтов
		raw := f.GetLine(start.Line)
		col := min(int(start.Col)-1, len(raw))
		pad := runewidth.StringWidth(strings.ReplaceAll(raw[:col], "\t", "    "))
		endCol := len(raw)
		if end.Line == start.Line {
			endCol = min(int(end.Col)-1, len(raw))
		}
		marks := max(runewidth.StringWidth(raw[col:max(endCol, col)]), 1)
		underline := "^" + strings.Repeat("~", marks-1)
		fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), strings.Repeat(" ", pad), p.caret.Sprint(underline))
	}
}
