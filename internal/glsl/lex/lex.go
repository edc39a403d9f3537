// Package lex holds the lexical helpers shared by include resolution and
// source normalisation. Nothing here understands GLSL grammar beyond
// comments, identifiers and line structure.
package lex

import "strings"

// StripComments removes // and /* */ comments from src.
// Newlines inside block comments are kept so line numbers survive.
func StripComments(src string) string {
	if !strings.Contains(src, "/") {
		return src
	}
	var b strings.Builder
	b.Grow(len(src))

	i := 0
	for i < len(src) {
		c := src[i]
		if c == '/' && i+1 < len(src) {
			switch src[i+1] {
			case '/':
				// до конца строки, сам \n оставляем
				j := strings.IndexByte(src[i:], '\n')
				if j < 0 {
					return b.String()
				}
				i += j
				continue
			case '*':
				end := strings.Index(src[i+2:], "*/")
				body := src[i+2:]
				if end >= 0 {
					body = body[:end]
				}
				b.WriteString(strings.Repeat("\n", strings.Count(body, "\n")))
				if end < 0 {
					return b.String()
				}
				i += 2 + end + 2
				continue
			}
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// IsIdentStart reports whether c may start a GLSL identifier.
func IsIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsIdentPart reports whether c may continue a GLSL identifier.
func IsIdentPart(c byte) bool {
	return IsIdentStart(c) || (c >= '0' && c <= '9')
}

// Word is an identifier occurrence inside a text.
type Word struct {
	Text  string
	Start int
	End   int
}

// Words calls fn for every identifier in src, in order. Digits that follow a
// numeric literal are not reported as identifiers.
func Words(src string, fn func(w Word) bool) {
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case IsIdentStart(c):
			j := i + 1
			for j < len(src) && IsIdentPart(src[j]) {
				j++
			}
			if !fn(Word{Text: src[i:j], Start: i, End: j}) {
				return
			}
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(src) && (IsIdentPart(src[j]) || src[j] == '.') {
				j++
			}
			i = j
		default:
			i++
		}
	}
}

// ReplaceWord replaces whole-identifier occurrences of from with to.
// Occurrences that are part of a longer identifier are left alone.
func ReplaceWord(src, from, to string) string {
	if !strings.Contains(src, from) {
		return src
	}
	var (
		b    strings.Builder
		last int
	)
	Words(src, func(w Word) bool {
		if w.Text == from {
			b.WriteString(src[last:w.Start])
			b.WriteString(to)
			last = w.End
		}
		return true
	})
	if last == 0 {
		return src
	}
	b.WriteString(src[last:])
	return b.String()
}

// ContainsWord reports whether word occurs in src as a whole identifier.
func ContainsWord(src, word string) bool {
	if !strings.Contains(src, word) {
		return false
	}
	found := false
	Words(src, func(w Word) bool {
		if w.Text == word {
			found = true
			return false
		}
		return true
	})
	return found
}

// LineAt returns the 1-based line number of byte offset off in src.
func LineAt(src string, off int) int {
	if off > len(src) {
		off = len(src)
	}
	if off < 0 {
		off = 0
	}
	return strings.Count(src[:off], "\n") + 1
}

// SkipSpace returns the first index at or after i that is not a space, tab,
// carriage return or newline.
func SkipSpace(src string, i int) int {
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}
