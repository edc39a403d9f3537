package shader

import (
	"fmt"
	"strings"
)

// Language is a target shader language. The numeric order is the canonical
// order used when extra languages are appended to a platform's defaults.
type Language uint8

const (
	LanguageGLSLSM140 Language = iota + 1
	LanguageGLSLSM330
	LanguageGLESSM100
	LanguageGLESSM300
	LanguageSPIRV
	LanguageHLSL
	LanguageWGSL
)

// Languages lists every known language in canonical order.
var Languages = []Language{
	LanguageGLSLSM140,
	LanguageGLSLSM330,
	LanguageGLESSM100,
	LanguageGLESSM300,
	LanguageSPIRV,
	LanguageHLSL,
	LanguageWGSL,
}

func (l Language) String() string {
	switch l {
	case LanguageGLSLSM140:
		return "GLSL_SM140"
	case LanguageGLSLSM330:
		return "GLSL_SM330"
	case LanguageGLESSM100:
		return "GLES_SM100"
	case LanguageGLESSM300:
		return "GLES_SM300"
	case LanguageSPIRV:
		return "SPIRV"
	case LanguageHLSL:
		return "HLSL"
	case LanguageWGSL:
		return "WGSL"
	default:
		return "UNKNOWN"
	}
}

// ParseLanguage accepts the canonical names case-insensitively.
func ParseLanguage(s string) (Language, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for _, l := range Languages {
		if l.String() == want {
			return l, nil
		}
	}
	switch want {
	case "SPIR-V":
		return LanguageSPIRV, nil
	}
	return 0, fmt.Errorf("unknown shader language %q", s)
}

// IsText reports whether the language is emitted as GLSL source text
// without external tools.
func (l Language) IsText() bool {
	switch l {
	case LanguageGLSLSM140, LanguageGLSLSM330, LanguageGLESSM100, LanguageGLESSM300:
		return true
	}
	return false
}

// FromSPIRV reports whether the language is produced from SPIR-V bytes.
func (l Language) FromSPIRV() bool {
	return l == LanguageSPIRV || l == LanguageHLSL || l == LanguageWGSL
}

// RequiresSplitSamplers reports whether the language cannot address an
// array of samplers the way the runtime does.
func (l Language) RequiresSplitSamplers() bool {
	switch l {
	case LanguageGLESSM100, LanguageHLSL, LanguageWGSL:
		return true
	}
	return false
}

// GLSLTarget returns the #version number and profile of a text language.
func (l Language) GLSLTarget() (version int, profile string) {
	switch l {
	case LanguageGLSLSM140:
		return 140, ""
	case LanguageGLSLSM330:
		return 330, ""
	case LanguageGLESSM100:
		return 100, "es"
	case LanguageGLESSM300:
		return 300, "es"
	}
	return 0, ""
}
