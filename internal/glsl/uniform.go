package glsl

import (
	"fmt"
	"strings"

	"shaderpipe/internal/glsl/lex"
)

// uniformBlockPrefix names the blocks synthesised around loose uniforms.
const uniformBlockPrefix = GeneratedPrefix + "UB_"

// UniformBlockName returns the name of the n-th synthesised uniform block.
func UniformBlockName(n int) string {
	return fmt.Sprintf("%s%d", uniformBlockPrefix, n)
}

// wordAt skips blanks from i and returns the identifier found there with
// its end offset. A non-identifier yields "".
func wordAt(t string, i int) (string, int) {
	i = lex.SkipSpace(t, i)
	if i >= len(t) || !lex.IsIdentStart(t[i]) {
		return "", i
	}
	j := i + 1
	for j < len(t) && lex.IsIdentPart(t[j]) {
		j++
	}
	return t[i:j], j
}

// layoutEnd finds the ')' closing the layout group that starts at or after
// i. It returns -1 when there is no balanced group.
func layoutEnd(t string, i int) (int, bool) {
	i = lex.SkipSpace(t, i)
	if i >= len(t) || t[i] != '(' {
		return -1, false
	}
	depth := 0
	multiline := false
	for j := i; j < len(t); j++ {
		switch t[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j, multiline
			}
		case '\n':
			multiline = true
		}
	}
	return -1, multiline
}

type uniformDecl struct {
	layout     string
	qualifiers []string
	typ        string
	rest       string // declarators, without the trailing ';'
}

// parseUniform splits a trimmed top-level uniform declaration. On failure
// it returns a human-readable reason.
func parseUniform(t string) (uniformDecl, string) {
	var d uniformDecl
	i := 0
	if w, end := wordAt(t, 0); w == "layout" {
		close, multiline := layoutEnd(t, end)
		if close < 0 {
			return d, "unterminated layout qualifier"
		}
		if multiline {
			return d, "layout qualifier spans several lines"
		}
		d.layout = t[:close+1]
		i = close + 1
	}
	for {
		w, end := wordAt(t, i)
		if w == "" {
			return d, "missing uniform type"
		}
		i = end
		if w == "uniform" {
			continue
		}
		if storageQualifiers[w] {
			d.qualifiers = append(d.qualifiers, w)
			continue
		}
		d.typ = w
		break
	}
	d.rest = strings.TrimSpace(strings.TrimSuffix(t[i:], ";"))
	if d.rest == "" {
		return d, "missing uniform name"
	}
	return d, ""
}

// layoutHasSet reports whether a layout(...) group already names a set.
func layoutHasSet(layout string) bool {
	inner := layout[strings.IndexByte(layout, '(')+1 : len(layout)-1]
	for _, part := range strings.Split(inner, ",") {
		key, _, _ := strings.Cut(part, "=")
		if strings.TrimSpace(key) == "set" {
			return true
		}
	}
	return false
}

// IsOpaqueTypeName reports whether a GLSL type cannot live inside a block.
// Integer variants (isampler2D, uimage2D) carry a one-letter prefix.
func IsOpaqueTypeName(typ string) bool {
	if typ == "atomic_uint" || hasOpaquePrefix(typ) {
		return true
	}
	if strings.HasPrefix(typ, "i") || strings.HasPrefix(typ, "u") {
		return hasOpaquePrefix(typ[1:])
	}
	return false
}

var opaquePrefixes = []string{"sampler", "image", "texture", "subpassInput"}

func hasOpaquePrefix(typ string) bool {
	for _, p := range opaquePrefixes {
		if strings.HasPrefix(typ, p) {
			return true
		}
	}
	return false
}

// rewriteUniform wraps one loose uniform declaration. next is the number of
// the block to create and is advanced when a block is emitted.
func rewriteUniform(seg segment, next *int, set int, bindingSets bool) (string, string) {
	t, _ := seg.trimmed()
	lead := seg.text[:strings.Index(seg.text, t)]
	tail := seg.text[len(lead)+len(t):]

	d, reason := parseUniform(t)
	if reason != "" {
		return "", reason
	}
	setLayout := fmt.Sprintf("layout(set=%d)", set)

	if IsOpaqueTypeName(d.typ) {
		switch {
		case !bindingSets:
			return seg.text, ""
		case d.layout == "":
			return lead + setLayout + " " + t + tail, ""
		case layoutHasSet(d.layout):
			return seg.text, ""
		}
		// layout(rgba8) -> layout(rgba8, set=N)
		merged := fmt.Sprintf("%s, set=%d)", strings.TrimRight(d.layout[:len(d.layout)-1], " \t"), set)
		return lead + merged + t[len(d.layout):] + tail, ""
	}
	if strings.ContainsRune(d.rest, '=') {
		return "", "uniform initializer cannot be moved into a block"
	}

	var b strings.Builder
	b.WriteString(lead)
	switch {
	case d.layout != "":
		b.WriteString(d.layout)
		b.WriteByte(' ')
	case bindingSets:
		b.WriteString(setLayout)
		b.WriteByte(' ')
	}
	b.WriteString("uniform ")
	b.WriteString(UniformBlockName(*next))
	b.WriteString(" { ")
	for _, q := range d.qualifiers {
		b.WriteString(q)
		b.WriteByte(' ')
	}
	b.WriteString(d.typ)
	b.WriteByte(' ')
	b.WriteString(d.rest)
	b.WriteString("; };")
	b.WriteString(tail)
	*next++
	return b.String(), ""
}
