package compiler

import (
	"slices"

	"shaderpipe/internal/shader"
)

var (
	desktopLanguages = []shader.Language{shader.LanguageGLSLSM330, shader.LanguageSPIRV}
	windowsLanguages = []shader.Language{shader.LanguageGLSLSM330, shader.LanguageSPIRV, shader.LanguageHLSL}
	iosLanguages     = []shader.Language{shader.LanguageGLESSM300, shader.LanguageSPIRV}
	androidLanguages = []shader.Language{shader.LanguageGLESSM300, shader.LanguageGLESSM100, shader.LanguageSPIRV}
	webLanguages     = []shader.Language{shader.LanguageGLESSM300, shader.LanguageGLESSM100}
	nxLanguages      = []shader.Language{shader.LanguageSPIRV}
)

// DefaultLanguages returns the languages a platform always receives.
func DefaultLanguages(p shader.Platform) ([]shader.Language, error) {
	var langs []shader.Language
	switch p {
	case shader.PlatformX86_64Linux, shader.PlatformArm64Linux,
		shader.PlatformX86_64MacOS, shader.PlatformArm64MacOS:
		langs = desktopLanguages
	case shader.PlatformX86Win32, shader.PlatformX86_64Win32:
		langs = windowsLanguages
	case shader.PlatformArm64IOS, shader.PlatformX86_64IOS:
		langs = iosLanguages
	case shader.PlatformArmv7Android, shader.PlatformArm64Android:
		langs = androidLanguages
	case shader.PlatformJSWeb, shader.PlatformWasmWeb, shader.PlatformWasmPthreadWeb:
		langs = webLanguages
	case shader.PlatformArm64NX64:
		langs = nxLanguages
	default:
		return nil, &UnsupportedPlatformError{Platform: p}
	}
	return slices.Clone(langs), nil
}

// SelectLanguages unions the requested languages into the platform
// defaults. Defaults keep their table order; extra languages follow in
// canonical order. Requesting languages never removes a default, with the
// one exception of ExcludeLegacyES dropping GLES_SM100.
func SelectLanguages(p shader.Platform, opts Options) ([]shader.Language, error) {
	langs, err := DefaultLanguages(p)
	if err != nil {
		return nil, err
	}
	for _, l := range shader.Languages {
		if slices.Contains(opts.TargetLanguages, l) && !slices.Contains(langs, l) {
			langs = append(langs, l)
		}
	}
	if opts.ExcludeLegacyES {
		langs = slices.DeleteFunc(langs, func(l shader.Language) bool { return l == shader.LanguageGLESSM100 })
	}
	return langs, nil
}

// UsesES reports whether the SPIR-V front end targets GLSL ES on p.
func UsesES(p shader.Platform) bool {
	switch p.OS() {
	case "ios", "android", "web":
		return true
	}
	return false
}

// NeedsSplitSamplers reports whether array samplers must be split for langs.
func NeedsSplitSamplers(langs []shader.Language, force bool) bool {
	return force || slices.ContainsFunc(langs, shader.Language.RequiresSplitSamplers)
}
