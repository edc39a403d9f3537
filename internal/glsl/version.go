package glsl

import (
	"fmt"
	"regexp"
	"strconv"

	"shaderpipe/internal/glsl/lex"
)

// versionScanLimit bounds how far into the source a #version line is looked for.
const versionScanLimit = 128

var versionRe = regexp.MustCompile(`^\s*#[ \t]*version[ \t]+(\d+)(?:[ \t]+([A-Za-z]+))?[ \t]*(?:\r?\n|$)`)

type versionDirective struct {
	number  int
	profile string
	start   int // offset of '#'
	end     int // offset after the line terminator
}

func detectVersion(text string) (versionDirective, bool) {
	head := text
	if len(head) > versionScanLimit {
		head = head[:versionScanLimit]
	}
	m := versionRe.FindStringSubmatchIndex(head)
	if m == nil {
		return versionDirective{}, false
	}
	n, err := strconv.Atoi(head[m[2]:m[3]])
	if err != nil {
		return versionDirective{}, false
	}
	v := versionDirective{number: n, end: m[1]}
	if m[4] >= 0 {
		v.profile = head[m[4]:m[5]]
	}
	// начало директивы, без ведущих пробелов
	for i := m[0]; i < m[1]; i++ {
		if head[i] == '#' {
			v.start = i
			break
		}
	}
	return v, true
}

// IsES reports whether (version, profile) names a GLSL ES dialect.
// GLSL ES 1.00 is written without a profile suffix.
func IsES(version int, profile string) bool {
	return profile == "es" || version == 100
}

// IsModern reports whether the dialect has in/out qualifiers and texture().
func IsModern(version int, profile string) bool {
	if IsES(version, profile) {
		return version >= 300
	}
	return version >= 130
}

// VersionLine renders a #version directive with its newline.
func VersionLine(version int, profile string) string {
	if profile == "" || (profile == "es" && version < 300) {
		return fmt.Sprintf("#version %d\n", version)
	}
	return fmt.Sprintf("#version %d %s\n", version, profile)
}

// DetectVersion returns the explicit #version of src, if any.
func DetectVersion(src string) (version int, profile string, ok bool) {
	v, ok := detectVersion(lex.StripComments(src))
	if !ok {
		return 0, "", false
	}
	if v.profile == "" && v.number == 100 {
		v.profile = "es"
	}
	return v.number, v.profile, true
}
