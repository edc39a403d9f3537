package glsl

import "strings"

// segKind classifies a source segment. Segments are cut after ';', '{',
// '}' and after every preprocessor line, so joining them gives back the
// input unchanged.
type segKind uint8

const (
	segBlank segKind = iota
	segDirective
	segLineDirective // #line stops the preamble search
	segPrecision     // precision <q> float;
	segUniform       // top-level uniform declaration outside any block
	segOther
)

type segment struct {
	text  string
	start int // byte offset in the scanned text
	kind  segKind
}

// trimmed returns the segment text without surrounding whitespace and the
// offset of the first non-space byte.
func (s segment) trimmed() (string, int) {
	t := strings.TrimLeft(s.text, " \t\r\n")
	lead := len(s.text) - len(t)
	return strings.TrimRight(t, " \t\r\n"), s.start + lead
}

// scanState is the splitter's line state.
type scanState uint8

const (
	stLineStart scanState = iota // only blanks seen on this line
	stCode
	stDirective
)

func splitSegments(text string) []segment {
	var (
		segs  []segment
		start int
		depth int
		state = stLineStart
	)
	emit := func(end int) {
		seg := segment{text: text[start:end], start: start}
		seg.kind = classify(seg, depth)
		segs = append(segs, seg)
		if seg.kind != segDirective && seg.kind != segLineDirective {
			switch text[end-1] {
			case '{':
				depth++
			case '}':
				if depth > 0 {
					depth--
				}
			}
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch state {
		case stLineStart:
			switch c {
			case ' ', '\t', '\r', '\n':
				continue
			case '#':
				state = stDirective
				continue
			}
			state = stCode
			fallthrough
		case stCode:
			switch c {
			case '\n':
				state = stLineStart
			case ';', '{', '}':
				emit(i + 1)
			}
		case stDirective:
			if c == '\n' {
				emit(i + 1)
				state = stLineStart
			}
		}
	}
	if start < len(text) {
		emit(len(text))
	}
	return segs
}

func classify(seg segment, depth int) segKind {
	t, _ := seg.trimmed()
	switch {
	case t == "":
		return segBlank
	case t[0] == '#':
		if strings.HasPrefix(strings.TrimLeft(t[1:], " \t"), "line") {
			return segLineDirective
		}
		return segDirective
	case depth > 0:
		return segOther
	case isPrecisionFloat(t):
		return segPrecision
	case strings.HasSuffix(t, ";") && !strings.ContainsRune(t, '{') && hasUniformQualifier(t):
		return segUniform
	}
	return segOther
}

func isPrecisionFloat(t string) bool {
	f := strings.Fields(strings.TrimSuffix(t, ";"))
	return len(f) == 3 && f[0] == "precision" && f[2] == "float"
}

var storageQualifiers = map[string]bool{
	"lowp": true, "mediump": true, "highp": true,
	"readonly": true, "writeonly": true, "coherent": true, "restrict": true, "volatile": true,
	"flat": true, "smooth": true, "invariant": true, "precise": true,
}

// hasUniformQualifier looks at the qualifiers in front of the type.
func hasUniformQualifier(t string) bool {
	i := 0
	if w, end := wordAt(t, 0); w == "layout" {
		close, _ := layoutEnd(t, end)
		if close < 0 {
			return false
		}
		i = close + 1
	}
	for {
		w, end := wordAt(t, i)
		switch {
		case w == "uniform":
			return true
		case storageQualifiers[w]:
			i = end
		default:
			return false
		}
	}
}

// patchIndex returns the index of the first segment that is neither blank
// nor a preprocessor directive. Injected declarations go there.
func patchIndex(segs []segment) int {
	for i, s := range segs {
		switch s.kind {
		case segBlank, segDirective:
			continue
		}
		return i
	}
	return len(segs)
}

// PatchOffset returns the byte offset just after the leading preprocessor
// lines of text, stopping at a #line directive.
func PatchOffset(text string) int {
	segs := splitSegments(text)
	i := patchIndex(segs)
	if i == len(segs) {
		return len(text)
	}
	return segs[i].start
}

// HasFloatPrecision reports whether text declares a top-level default float precision.
func HasFloatPrecision(text string) bool {
	for _, s := range splitSegments(text) {
		if s.kind == segPrecision {
			return true
		}
	}
	return false
}

// StripPrecision blanks top-level default precision statements, keeping
// line structure.
func StripPrecision(text string) string {
	segs := splitSegments(text)
	if !hasPrecision(segs) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, s := range segs {
		if s.kind != segPrecision {
			b.WriteString(s.text)
			continue
		}
		b.WriteString(strings.Repeat("\n", strings.Count(s.text, "\n")))
	}
	return b.String()
}
