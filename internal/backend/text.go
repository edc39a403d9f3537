package backend

import (
	"shaderpipe/internal/glsl"
	"shaderpipe/internal/shader"
)

// desktopShim lets ES precision qualifiers compile on desktop GL.
const desktopShim = "#ifndef GL_ES\n#define lowp\n#define mediump\n#define highp\n#endif\n"

// Supports reports whether lang can express stage.
func Supports(lang shader.Language, stage shader.Stage) bool {
	if stage != shader.StageCompute {
		return true
	}
	return lang != shader.LanguageGLESSM100
}

// computeMinVersion is the lowest GLSL version with compute shaders.
func computeMinVersion(es bool) int {
	if es {
		return 310
	}
	return 430
}

// Text renders a GLSL or GLES source variant. No external tool is involved.
func Text(m shader.Module, lang shader.Language, debug bool) ([]byte, error) {
	version, profile := lang.GLSLTarget()
	opts := glsl.Options{
		Version:      version,
		Profile:      profile,
		WrapUniforms: lang != shader.LanguageGLESSM100,
		LineMarkers:  debug,
		Path:         m.Path,
	}
	if m.Stage == shader.StageCompute {
		opts.MinVersion = computeMinVersion(glsl.IsES(version, profile))
	}
	res, err := glsl.Normalize(m.Source, m.Stage, opts)
	if err != nil {
		return nil, err
	}
	if res.Text == "" {
		return []byte{}, nil
	}

	text := res.Text
	var header string
	switch {
	case !res.ES():
		text = glsl.StripPrecision(text)
		header = desktopShim
	case m.Stage == shader.StageFragment && !glsl.HasFloatPrecision(text):
		header = "precision mediump float;\n"
	}
	if header != "" {
		off := glsl.PatchOffset(text)
		text = text[:off] + header + text[off:]
	}
	return []byte(text), nil
}
