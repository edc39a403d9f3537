package compiler

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"shaderpipe/internal/backend"
	"shaderpipe/internal/reflection"
	"shaderpipe/internal/shader"
	"shaderpipe/internal/toolchain/tooltest"
)

const colorFragment = "uniform vec4 color; void main(){ gl_FragColor = color; }"

func fragment(src string) []shader.Module {
	return []shader.Module{{Stage: shader.StageFragment, Path: "color.fp", Source: src}}
}

func TestSelectLanguagesOnlyAdds(t *testing.T) {
	platforms := []shader.Platform{
		shader.PlatformX86_64Linux, shader.PlatformX86_64Win32, shader.PlatformArm64IOS,
		shader.PlatformArm64Android, shader.PlatformWasmWeb, shader.PlatformArm64NX64,
	}
	for _, p := range platforms {
		defaults, err := DefaultLanguages(p)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		got, err := SelectLanguages(p, Options{})
		if err != nil || !slices.Equal(got, defaults) {
			t.Errorf("%s: empty request = %v, want %v", p, got, defaults)
		}
		// every subset of the known languages
		for mask := 0; mask < 1<<len(shader.Languages); mask++ {
			var req []shader.Language
			for i, l := range shader.Languages {
				if mask&(1<<i) != 0 {
					req = append(req, l)
				}
			}
			got, err := SelectLanguages(p, Options{TargetLanguages: req})
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got[:len(defaults)], defaults) {
				t.Fatalf("%s %v: defaults not kept in front: %v", p, req, got)
			}
			for _, l := range req {
				if !slices.Contains(got, l) {
					t.Fatalf("%s %v: requested %s missing from %v", p, req, l, got)
				}
			}
		}
	}
}

func TestSelectLanguagesOrderAndExclusion(t *testing.T) {
	got, err := SelectLanguages(shader.PlatformArm64Android, Options{
		TargetLanguages: []shader.Language{shader.LanguageWGSL, shader.LanguageGLSLSM140},
		ExcludeLegacyES: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []shader.Language{shader.LanguageGLESSM300, shader.LanguageSPIRV, shader.LanguageGLSLSM140, shader.LanguageWGSL}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestUnknownPlatform(t *testing.T) {
	_, err := New(&tooltest.Fake{}).Compile(context.Background(), fragment(colorFragment), "riscv-plan9", Options{})
	var upe *UnsupportedPlatformError
	if !errors.As(err, &upe) || upe.Platform != "riscv-plan9" {
		t.Errorf("expected UnsupportedPlatformError, got %v", err)
	}
}

func TestInvalidModules(t *testing.T) {
	c := New(&tooltest.Fake{})
	mixed := []shader.Module{
		{Stage: shader.StageCompute, Path: "a.cp", Source: "void main(){}"},
		{Stage: shader.StageVertex, Path: "a.vp", Source: "void main(){}"},
	}
	for name, mods := range map[string][]shader.Module{"empty": nil, "mixed": mixed} {
		_, err := c.Compile(context.Background(), mods, shader.PlatformX86_64Linux, Options{})
		var ime *InvalidModulesError
		if !errors.As(err, &ime) {
			t.Errorf("%s: expected InvalidModulesError, got %v", name, err)
		}
	}
}

func TestWebTextVariantsNeedNoTools(t *testing.T) {
	fake := &tooltest.Fake{}
	res, err := New(fake).Compile(context.Background(), fragment(colorFragment), shader.PlatformJSWeb, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if fake.TotalCalls() != 0 {
		t.Errorf("text-only platform ran %d tool calls", fake.TotalCalls())
	}
	if len(res.Builds) != 2 {
		t.Fatalf("expected 2 builds, got %d", len(res.Builds))
	}
	es3 := string(res.Builds[0].Bytes)
	for _, want := range []string{"#version 300 es\n", "precision mediump float;", "out vec4 _SP_GENERATED_FragColor_0;", "uniform _SP_GENERATED_UB_0 { vec4 color; };"} {
		if !strings.Contains(es3, want) {
			t.Errorf("GLES_SM300 variant lacks %q:\n%s", want, es3)
		}
	}
	if len(res.Reflection) != 1 || len(res.Reflection[0].Table.Resources) != 0 {
		t.Errorf("expected one empty reflection table, got %+v", res.Reflection)
	}
}

func TestRequestedLanguageIsAdded(t *testing.T) {
	fake := &tooltest.Fake{}
	res, err := New(fake).Compile(context.Background(), fragment(colorFragment), shader.PlatformWasmWeb, Options{
		TargetLanguages: []shader.Language{shader.LanguageWGSL},
		SoftFail:        true,
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var langs []shader.Language
	for _, b := range res.Builds {
		langs = append(langs, b.Language)
	}
	want := []shader.Language{shader.LanguageGLESSM300, shader.LanguageGLESSM100, shader.LanguageWGSL}
	if !slices.Equal(langs, want) {
		t.Errorf("languages = %v, want %v", langs, want)
	}
	if fake.Calls(tooltest.OpWGSL) != 1 {
		t.Errorf("WGSL cross-compiled %d times", fake.Calls(tooltest.OpWGSL))
	}
	if src := fake.Sources(); len(src) != 1 || !strings.HasPrefix(string(src[0]), "#version 310 es\n") {
		t.Errorf("web front end must target GLSL ES 3.10: %q", src)
	}
}

func TestTextVariantsAreDeterministic(t *testing.T) {
	src := "varying vec2 uv;\nuniform vec4 a;\nuniform vec4 b;\nuniform sampler2D tex;\nvoid main(){ gl_FragColor = texture2D(tex, uv) * a + b; }\n"
	opts := Options{TargetLanguages: []shader.Language{shader.LanguageGLSLSM140, shader.LanguageGLESSM300, shader.LanguageGLESSM100}}
	c := New(&tooltest.Fake{})
	first, err := c.Compile(context.Background(), fragment(src), shader.PlatformX86_64Linux, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Compile(context.Background(), fragment(src), shader.PlatformX86_64Linux, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range first.Builds {
		if !b.Language.IsText() {
			continue
		}
		if !bytes.Equal(b.Bytes, second.Builds[i].Bytes) {
			t.Errorf("%s variant differs between runs", b.Language)
		}
	}
}

func TestSoftFailRecordsWarnings(t *testing.T) {
	fake := &tooltest.Fake{Fail: map[string]error{tooltest.OpHLSL: errors.New("unsupported construct")}}
	res, err := New(fake).Compile(context.Background(), fragment(colorFragment), shader.PlatformX86_64Win32, Options{SoftFail: true})
	if err != nil {
		t.Fatalf("soft mode must not fail: %v", err)
	}
	for _, b := range res.Builds {
		switch b.Language {
		case shader.LanguageHLSL:
			if len(b.Warnings) != 1 || !strings.HasPrefix(b.Warnings[0], "Compatibility issue:") {
				t.Errorf("HLSL warnings = %v", b.Warnings)
			}
		default:
			if !b.Usable() {
				t.Errorf("%s was affected by the HLSL failure: %v", b.Language, b.Warnings)
			}
		}
	}
	d, err := res.Descriptor()
	if err != nil {
		t.Fatalf("Descriptor: %v", err)
	}
	if len(d.Shaders) != 2 {
		t.Errorf("descriptor has %d shaders, want 2", len(d.Shaders))
	}
}

func TestSoftFailFrontEnd(t *testing.T) {
	fake := &tooltest.Fake{Fail: map[string]error{tooltest.OpOptimize: errors.New("bad module")}}
	res, err := New(fake).Compile(context.Background(), fragment(colorFragment), shader.PlatformX86_64Win32, Options{SoftFail: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range res.Builds {
		if b.Language.FromSPIRV() && (len(b.Warnings) != 1 || !strings.HasPrefix(b.Warnings[0], "Optimization pass failed:")) {
			t.Errorf("%s warnings = %v", b.Language, b.Warnings)
		}
	}
	if len(res.Reflection) != 0 {
		t.Error("no reflection expected without SPIR-V")
	}
}

func TestHardFailAborts(t *testing.T) {
	fake := &tooltest.Fake{Fail: map[string]error{tooltest.OpHLSL: errors.New("unsupported construct")}}
	_, err := New(fake).Compile(context.Background(), fragment(colorFragment), shader.PlatformX86_64Win32, Options{})
	var ce *backend.CompileError
	if !errors.As(err, &ce) || ce.Language != shader.LanguageHLSL || ce.Path != "color.fp" {
		t.Errorf("expected HLSL CompileError, got %v", err)
	}
}

func TestReflectionErrorsAreFatalInSoftMode(t *testing.T) {
	fake := &tooltest.Fake{Reflection: func([]byte) []byte {
		return []byte(`{"types": {"_1": {"name": "Empty", "members": []}}, "ubos": [{"type": "_1", "name": "Empty", "set": 1, "binding": 0}]}`)
	}}
	_, err := New(fake).Compile(context.Background(), fragment(colorFragment), shader.PlatformX86_64Linux, Options{SoftFail: true})
	var re *reflection.Error
	if !errors.As(err, &re) {
		t.Fatalf("expected reflection.Error, got %v", err)
	}
	if re.Path != "color.fp" || len(re.Messages) != 1 {
		t.Errorf("unexpected reflection error: %+v", re)
	}
}

func TestTextureArrayFallback(t *testing.T) {
	src := "#version 300 es\nprecision mediump float;\nin vec3 uv;\nuniform mediump sampler2DArray tex;\nout vec4 color;\nvoid main(){ color = texture(tex, uv); }\n"
	fake := &tooltest.Fake{Reflection: func([]byte) []byte {
		return []byte(`{"textures": [{"type": "sampler2DArray", "name": "tex", "set": 1, "binding": 0}]}`)
	}}
	res, err := New(fake).Compile(context.Background(), fragment(src), shader.PlatformX86_64Linux, Options{
		ForceSplitSamplers: true,
		MaxPageCount:       3,
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !res.VariantTextureArray {
		t.Error("VariantTextureArray not set")
	}
	b, ok := res.Reflection[0].Table.Resource("tex")
	if !ok || len(b.NameIndirections) != 3 {
		t.Fatalf("binding not annotated: %+v", b)
	}
	for i, name := range []string{"tex_0", "tex_1", "tex_2"} {
		if b.NameIndirections[i] != shader.NameHash(name) {
			t.Errorf("indirection %d is not %s", i, name)
		}
	}
	srcs := fake.Sources()
	if len(srcs) != 2 {
		t.Fatalf("expected canonical and variant front-end compiles, got %d", len(srcs))
	}
	if strings.Contains(string(srcs[0]), "tex_0") || !strings.Contains(string(srcs[1]), "tex_2") {
		t.Error("reflection must come from the untransformed source and variants from the split one")
	}
	if !strings.Contains(string(res.Builds[0].Bytes), "tex_1") {
		t.Errorf("text variant not split:\n%s", res.Builds[0].Bytes)
	}
}

func TestComputeSkipsLegacyES(t *testing.T) {
	mods := []shader.Module{{Stage: shader.StageCompute, Path: "blur.cp", Source: "layout(local_size_x = 8) in;\nvoid main(){}\n"}}
	fake := &tooltest.Fake{}
	res, err := New(fake).Compile(context.Background(), mods, shader.PlatformArm64Android, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, b := range res.Builds {
		switch b.Language {
		case shader.LanguageGLESSM100:
			if b.Usable() {
				t.Error("GLES_SM100 compute variant must be skipped")
			}
		case shader.LanguageGLESSM300:
			if !strings.HasPrefix(string(b.Bytes), "#version 310 es\n") {
				t.Errorf("compute text variant not raised to 310 es:\n%s", b.Bytes)
			}
		}
	}
	if src := fake.Sources(); len(src) != 1 || !strings.HasPrefix(string(src[0]), "#version 310 es\n") {
		t.Errorf("compute front end = %q", src)
	}
}

func TestUnsupportedSyntaxIsFatal(t *testing.T) {
	src := "uniform float scale = 2.0;\nvoid main(){ gl_FragColor = vec4(scale); }\n"
	fake := &tooltest.Fake{}
	_, err := New(fake).Compile(context.Background(), fragment(src), shader.PlatformX86_64Linux, Options{SoftFail: true})
	if err == nil || !strings.Contains(err.Error(), "color.fp:1") {
		t.Errorf("expected a located syntax error, got %v", err)
	}
}
