// Package fallback splits texture-array samplers into one sampler per page
// for targets that cannot index sampler arrays, and records the split on
// the reflected bindings.
package fallback

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"shaderpipe/internal/glsl"
	"shaderpipe/internal/glsl/lex"
	"shaderpipe/internal/shader"
)

// SamplerInfo describes one split array sampler.
type SamplerInfo struct {
	Name      string
	PageCount int
}

// Result is the rewritten source.
type Result struct {
	Source        string
	ArraySamplers []SamplerInfo
}

var arrayDeclRe = regexp.MustCompile(`(?:\blayout\s*\([^)]*\)\s*)?\buniform\s+(?:(lowp|mediump|highp)\s+)?(sampler2DArray|texture2DArray)\s+([A-Za-z_]\w*)\s*(\[[^\]]*\])?\s*;`)

// SplitSamplerName returns the name of page i of an array sampler.
func SplitSamplerName(name string, i int) string {
	return name + "_" + strconv.Itoa(i)
}

// HelperName returns the lookup function that replaces texture() calls on
// an array sampler.
func HelperName(name string) string {
	return glsl.GeneratedPrefix + "texture_" + name
}

// Transform rewrites every array sampler in src. It reports false, with src
// unchanged, when there is nothing to split.
func Transform(src string, stage shader.Stage, maxPageCount int, path string) (Result, bool, error) {
	text := lex.StripComments(src)
	decls := arrayDeclRe.FindAllStringSubmatchIndex(text, -1)
	if len(decls) == 0 {
		return Result{Source: src}, false, nil
	}
	fail := func(off int, snippet, reason string) error {
		return &glsl.UnsupportedSyntaxError{Path: path, Line: lex.LineAt(text, off), Text: snippet, Reason: reason}
	}
	if maxPageCount <= 0 {
		return Result{}, false, fail(decls[0][0], text[decls[0][0]:decls[0][1]], "texture arrays need a positive max page count")
	}

	var (
		b        strings.Builder
		last     int
		samplers []SamplerInfo
	)
	for _, m := range decls {
		decl := text[m[0]:m[1]]
		if m[8] >= 0 {
			return Result{}, false, fail(m[0], decl, "arrays of texture arrays are not supported")
		}
		precision := ""
		if m[2] >= 0 {
			precision = text[m[2]:m[3]] + " "
		}
		name := text[m[6]:m[7]]
		b.WriteString(text[last:m[0]])
		b.WriteString(splitDecl(name, precision, stage, maxPageCount))
		// переводы строк внутри объявления сохраняем ради номеров строк
		b.WriteString(strings.Repeat("\n", strings.Count(decl, "\n")))
		last = m[1]
		samplers = append(samplers, SamplerInfo{Name: name, PageCount: maxPageCount})
	}
	b.WriteString(text[last:])
	text = b.String()

	for _, s := range samplers {
		var err error
		text, err = rewriteUses(text, s, fail)
		if err != nil {
			return Result{}, false, err
		}
	}
	return Result{Source: text, ArraySamplers: samplers}, true, nil
}

// splitDecl renders the page samplers and the lookup helper on one line.
func splitDecl(name, precision string, stage shader.Stage, pages int) string {
	var b strings.Builder
	for i := range pages {
		fmt.Fprintf(&b, "uniform %ssampler2D %s; ", precision, SplitSamplerName(name, i))
	}
	fmt.Fprintf(&b, "vec4 %s(vec3 coord) { int page = int(coord.z);", HelperName(name))
	for i := range pages {
		call := fmt.Sprintf("texture2D(%s, coord.st)", SplitSamplerName(name, i))
		if stage != shader.StageFragment {
			call = fmt.Sprintf("texture2DLod(%s, coord.st, 0.0)", SplitSamplerName(name, i))
		}
		if i == pages-1 {
			fmt.Fprintf(&b, " return %s; }", call)
			break
		}
		fmt.Fprintf(&b, " if (page == %d) return %s;", i, call)
	}
	return b.String()
}

type edit struct {
	start, end int
	repl       string
}

// rewriteUses replaces texture(name, c) with the helper call and name[N]
// with the page sampler. Any other use of name is an error.
func rewriteUses(text string, s SamplerInfo, fail func(int, string, string) error) (string, error) {
	var (
		edits []edit
		err   error
	)
	lex.Words(text, func(w lex.Word) bool {
		if w.Text != s.Name || isMemberAccess(text, w.Start) {
			return true
		}
		if e, ok := callEdit(text, w, s.Name); ok {
			edits = append(edits, e)
			return true
		}
		if e, idx, ok := indexEdit(text, w, s.Name); ok {
			if idx >= s.PageCount {
				err = fail(w.Start, text[w.Start:e.end], fmt.Sprintf("page %d is outside max page count %d", idx, s.PageCount))
				return false
			}
			edits = append(edits, e)
			return true
		}
		err = fail(w.Start, lineAround(text, w.Start), fmt.Sprintf("texture array '%s' is only supported in texture() calls and constant indexing", s.Name))
		return false
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	last := 0
	for _, e := range edits {
		b.WriteString(text[last:e.start])
		b.WriteString(e.repl)
		last = e.end
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

func isMemberAccess(text string, at int) bool {
	i := at - 1
	for i >= 0 && (text[i] == ' ' || text[i] == '\t') {
		i--
	}
	return i >= 0 && text[i] == '.'
}

// callEdit matches `texture(name,` or `texture2DArray(name,`.
func callEdit(text string, w lex.Word, name string) (edit, bool) {
	i := w.Start - 1
	for i >= 0 && isBlank(text[i]) {
		i--
	}
	if i < 0 || text[i] != '(' {
		return edit{}, false
	}
	j := i - 1
	for j >= 0 && isBlank(text[j]) {
		j--
	}
	end := j + 1
	for j >= 0 && lex.IsIdentPart(text[j]) {
		j--
	}
	fn := text[j+1 : end]
	if fn != "texture" && fn != "texture2DArray" {
		return edit{}, false
	}
	k := lex.SkipSpace(text, w.End)
	if k >= len(text) || text[k] != ',' {
		return edit{}, false
	}
	k++
	for k < len(text) && (text[k] == ' ' || text[k] == '\t') {
		k++
	}
	return edit{start: j + 1, end: k, repl: HelperName(name) + "("}, true
}

// indexEdit matches `name[N]` with a literal N.
func indexEdit(text string, w lex.Word, name string) (edit, int, bool) {
	i := lex.SkipSpace(text, w.End)
	if i >= len(text) || text[i] != '[' {
		return edit{}, 0, false
	}
	close := strings.IndexByte(text[i:], ']')
	if close < 0 {
		return edit{}, 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(text[i+1 : i+close]))
	if err != nil || n < 0 {
		return edit{}, 0, false
	}
	return edit{start: w.Start, end: i + close + 1, repl: SplitSamplerName(name, n)}, n, true
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func lineAround(text string, at int) string {
	start := strings.LastIndexByte(text[:at], '\n') + 1
	end := strings.IndexByte(text[at:], '\n')
	if end < 0 {
		return text[start:]
	}
	return text[start : at+end]
}

// Annotate records the page sampler name hashes on each array sampler's
// binding, in page order. It returns how many bindings were annotated.
func Annotate(table *shader.ResourceTable, samplers []SamplerInfo) int {
	n := 0
	for _, s := range samplers {
		r, ok := table.Resource(s.Name)
		if !ok {
			continue
		}
		r.NameIndirections = make([]uint64, s.PageCount)
		for i := range s.PageCount {
			r.NameIndirections[i] = shader.NameHash(SplitSamplerName(s.Name, i))
		}
		n++
	}
	return n
}
