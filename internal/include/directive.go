package include

import "strings"

// parseDirective recognises `#include "path"` and `#include <path>`.
// matched is false for lines that are not include directives at all;
// ok is false when the line is an include directive without a usable path.
func parseDirective(line string) (token string, matched, ok bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "#") {
		return "", false, false
	}
	s = strings.TrimLeft(s[1:], " \t")
	if !strings.HasPrefix(s, "include") {
		return "", false, false
	}
	s = s[len("include"):]
	if s != "" && s[0] != ' ' && s[0] != '\t' && s[0] != '"' && s[0] != '<' {
		// #includes, #include_next и т.п. не наши
		return "", false, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true, false
	}

	var closing byte
	switch s[0] {
	case '"':
		closing = '"'
	case '<':
		closing = '>'
	default:
		return "", true, false
	}
	end := strings.IndexByte(s[1:], closing)
	if end <= 0 {
		return "", true, false
	}
	if rest := strings.TrimSpace(s[end+2:]); rest != "" {
		return "", true, false
	}
	return s[1 : end+1], true, true
}
