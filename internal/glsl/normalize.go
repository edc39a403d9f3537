// Package glsl rewrites legacy GLSL into the dialect a target compiler
// accepts. It works on text only: comments are dropped, a #version line is
// guaranteed, legacy keywords and built-in outputs are renamed for modern
// profiles and loose uniforms are wrapped into blocks.
//
// Normalize is idempotent for a fixed set of options.
package glsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"shaderpipe/internal/glsl/lex"
	"shaderpipe/internal/shader"
)

// GeneratedPrefix starts every identifier the normalizer synthesises.
const GeneratedPrefix = "_SP_GENERATED_"

// FragColorPrefix names the outputs that replace gl_FragColor and gl_FragData.
const FragColorPrefix = GeneratedPrefix + "FragColor_"

// Options selects the target dialect.
type Options struct {
	// Version and Profile are used when the source has no #version line.
	Version int
	Profile string
	// MinVersion raises an explicit or default version that is lower.
	MinVersion int
	// WrapUniforms moves loose non-opaque uniforms into blocks. It only
	// applies to modern profiles.
	WrapUniforms bool
	// BindingSets adds layout(set=N) to wrapped blocks and opaque uniforms.
	BindingSets bool
	// LineMarkers emits a #line directive after the injected preamble.
	LineMarkers bool
	// Path is used in errors only.
	Path string
}

// Result is the normalized source.
type Result struct {
	Version  int
	Profile  string
	Text     string
	Explicit bool // the source carried its own #version line
	// FragOutputs is the number of generated fragment outputs.
	FragOutputs int
	// UniformBlocks is the number of synthesised uniform blocks.
	UniformBlocks int
}

// ES reports whether the result is a GLSL ES dialect.
func (r Result) ES() bool { return IsES(r.Version, r.Profile) }

// Modern reports whether the result uses in/out and texture().
func (r Result) Modern() bool { return IsModern(r.Version, r.Profile) }

// SetForStage returns the descriptor set used for a stage's resources.
func SetForStage(stage shader.Stage) int {
	if stage == shader.StageFragment {
		return 1
	}
	return 0
}

var keywordRenames = []struct {
	from, to string
	stage    shader.Stage
	all      bool
}{
	{from: "attribute", to: "in", stage: shader.StageVertex},
	{from: "varying", to: "out", stage: shader.StageVertex},
	{from: "varying", to: "in", stage: shader.StageFragment},
	{from: "texture2DLod", to: "textureLod", all: true},
	{from: "textureCubeLod", to: "textureLod", all: true},
	{from: "texture2DProj", to: "textureProj", all: true},
	{from: "texture2D", to: "texture", all: true},
	{from: "textureCube", to: "texture", all: true},
}

var fragDataRe = regexp.MustCompile(`\bgl_FragData\s*\[\s*(\d+)\s*\]`)

// Normalize rewrites src for the dialect described by opts.
func Normalize(src string, stage shader.Stage, opts Options) (Result, error) {
	text := lex.StripComments(src)
	if strings.TrimSpace(text) == "" {
		return Result{}, nil
	}

	var res Result
	prepended := 0
	if v, ok := detectVersion(text); ok {
		res.Version, res.Profile, res.Explicit = v.number, v.profile, true
		// 100 всегда ES, даже если версию придётся поднять
		if res.Profile == "" && res.Version == 100 {
			res.Profile = "es"
		}
		if opts.MinVersion > res.Version {
			res.Version = opts.MinVersion
			text = text[:v.start] + VersionLine(res.Version, res.Profile) + text[v.end:]
		}
	} else {
		res.Version, res.Profile = opts.Version, opts.Profile
		if opts.MinVersion > res.Version {
			res.Version = opts.MinVersion
		}
		if res.Version > 0 {
			text = VersionLine(res.Version, res.Profile) + text
			prepended = 1
		}
	}
	if res.Profile == "" && res.Version == 100 {
		res.Profile = "es"
	}

	modern := res.Modern()
	if modern {
		text = renameKeywords(text, stage)
		if stage == shader.StageFragment {
			text, res.FragOutputs = renameFragOutputs(text)
		}
	}

	segs := splitSegments(text)
	patch := patchIndex(segs)
	for patch < len(segs) && (segs[patch].kind == segPrecision || segs[patch].kind == segBlank) {
		patch++
	}
	preamble := buildPreamble(res, stage, hasPrecision(segs))
	// после precision вставляем с новой строки
	cut := 0
	if patch < len(segs) {
		seg := segs[patch]
		if seg.start > 0 && text[seg.start-1] != '\n' {
			if j := strings.IndexByte(seg.text, '\n'); j >= 0 && strings.TrimSpace(seg.text[:j]) == "" {
				cut = j + 1
			}
		}
	}
	if opts.LineMarkers {
		off := len(text)
		if patch < len(segs) {
			off = segs[patch].start + cut
		}
		if line := lex.LineAt(text, off) - prepended; line > 0 {
			preamble += "#line " + strconv.Itoa(line) + "\n"
		}
	}

	set := SetForStage(stage)
	var b strings.Builder
	b.Grow(len(text) + len(preamble))
	for i, seg := range segs {
		if i == patch {
			b.WriteString(seg.text[:cut])
			b.WriteString(preamble)
			seg.text, seg.start = seg.text[cut:], seg.start+cut
		}
		if seg.kind != segUniform || !modern || !opts.WrapUniforms {
			b.WriteString(seg.text)
			continue
		}
		out, reason := rewriteUniform(seg, &res.UniformBlocks, set, opts.BindingSets)
		if reason != "" {
			t, off := seg.trimmed()
			return Result{}, &UnsupportedSyntaxError{
				Path:   opts.Path,
				Line:   lex.LineAt(text, off) - prepended,
				Text:   t,
				Reason: reason,
			}
		}
		b.WriteString(out)
	}
	if patch == len(segs) {
		b.WriteString(preamble)
	}
	res.Text = b.String()
	return res, nil
}

func renameKeywords(text string, stage shader.Stage) string {
	for _, r := range keywordRenames {
		if r.all || r.stage == stage {
			text = lex.ReplaceWord(text, r.from, r.to)
		}
	}
	return text
}

// renameFragOutputs replaces gl_FragColor and gl_FragData[N] with named
// outputs and returns how many outputs are needed.
func renameFragOutputs(text string) (string, int) {
	count := 0
	text = fragDataRe.ReplaceAllStringFunc(text, func(m string) string {
		n, err := strconv.Atoi(fragDataRe.FindStringSubmatch(m)[1])
		if err != nil {
			return m
		}
		count = max(count, n+1)
		return FragColorPrefix + strconv.Itoa(n)
	})
	if lex.ContainsWord(text, "gl_FragColor") {
		text = lex.ReplaceWord(text, "gl_FragColor", FragColorPrefix+"0")
		count = max(count, 1)
	}
	return text, count
}

func hasPrecision(segs []segment) bool {
	for _, s := range segs {
		if s.kind == segPrecision {
			return true
		}
	}
	return false
}

// buildPreamble returns the declarations injected after the directives.
func buildPreamble(res Result, stage shader.Stage, precision bool) string {
	if stage != shader.StageFragment || res.FragOutputs == 0 {
		return ""
	}
	var b strings.Builder
	es := res.ES()
	if es && !precision {
		b.WriteString("precision mediump float;\n")
	}
	located := res.FragOutputs > 1 && ((es && res.Version >= 300) || (!es && res.Version >= 330))
	for i := range res.FragOutputs {
		if located {
			fmt.Fprintf(&b, "layout(location = %d) ", i)
		}
		fmt.Fprintf(&b, "out vec4 %s%d;\n", FragColorPrefix, i)
	}
	return b.String()
}
