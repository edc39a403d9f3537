package backend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"shaderpipe/internal/glsl"
	"shaderpipe/internal/shader"
	"shaderpipe/internal/toolchain"
	"shaderpipe/internal/toolchain/tooltest"
)

const legacyFragment = "varying vec2 uv;\nuniform vec4 tint;\nuniform sampler2D tex;\nvoid main(){ gl_FragColor = texture2D(tex, uv) * tint; }\n"

func fragment(src string) shader.Module {
	return shader.Module{Stage: shader.StageFragment, Path: "sprite.fp", Source: src}
}

func TestTextVariants(t *testing.T) {
	m := fragment(legacyFragment)
	tests := []struct {
		lang    shader.Language
		want    []string
		notWant []string
	}{
		{
			lang:    shader.LanguageGLESSM100,
			want:    []string{"#version 100\n", "precision mediump float;\n", "gl_FragColor", "texture2D("},
			notWant: []string{"_SP_GENERATED_UB_"},
		},
		{
			lang:    shader.LanguageGLESSM300,
			want:    []string{"#version 300 es\n", "precision mediump float;\n", "in vec2 uv;", "uniform _SP_GENERATED_UB_0 { vec4 tint; };", "texture(tex, uv)"},
			notWant: []string{"gl_FragColor", "#define mediump"},
		},
		{
			lang:    shader.LanguageGLSLSM330,
			want:    []string{"#version 330\n", desktopShim, "out vec4 _SP_GENERATED_FragColor_0;"},
			notWant: []string{"layout(set="},
		},
	}
	for _, tt := range tests {
		out, err := Text(m, tt.lang, false)
		if err != nil {
			t.Fatalf("%s: %v", tt.lang, err)
		}
		text := string(out)
		for _, w := range tt.want {
			if !strings.Contains(text, w) {
				t.Errorf("%s: missing %q in\n%s", tt.lang, w, text)
			}
		}
		for _, w := range tt.notWant {
			if strings.Contains(text, w) {
				t.Errorf("%s: unexpected %q in\n%s", tt.lang, w, text)
			}
		}
	}
}

func TestTextHonoursExplicitVersion(t *testing.T) {
	m := fragment("#version 140\nuniform vec4 c;\nvoid main(){ gl_FragColor = c; }\n")
	out, err := Text(m, shader.LanguageGLSLSM330, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out), "#version 140\n") {
		t.Errorf("explicit version overridden:\n%s", out)
	}
}

func TestTextIsDeterministic(t *testing.T) {
	m := fragment(legacyFragment)
	for _, lang := range []shader.Language{shader.LanguageGLSLSM140, shader.LanguageGLESSM300} {
		a, err := Text(m, lang, true)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Text(m, lang, true)
		if err != nil {
			t.Fatal(err)
		}
		if string(a) != string(b) {
			t.Errorf("%s output differs between runs", lang)
		}
	}
}

func TestTextDesktopDropsPrecision(t *testing.T) {
	m := fragment("#version 330\nprecision highp float;\nout vec4 o;\nvoid main(){ o = vec4(1.0); }\n")
	out, err := Text(m, shader.LanguageGLSLSM330, false)
	if err != nil {
		t.Fatal(err)
	}
	if glsl.HasFloatPrecision(string(out)) {
		t.Errorf("precision statement kept next to the desktop shim:\n%s", out)
	}
}

func TestSupports(t *testing.T) {
	if Supports(shader.LanguageGLESSM100, shader.StageCompute) {
		t.Error("GLES_SM100 has no compute stage")
	}
	if !Supports(shader.LanguageGLESSM100, shader.StageVertex) || !Supports(shader.LanguageSPIRV, shader.StageCompute) {
		t.Error("Supports too strict")
	}
}

func TestSPIRVFrontEndTargets(t *testing.T) {
	fake := &tooltest.Fake{}
	b := New(fake)
	ctx := context.Background()

	spv, err := b.SPIRV(ctx, fragment(legacyFragment), true)
	if err != nil {
		t.Fatal(err)
	}
	text := string(spv)
	if !strings.HasPrefix(text, "SPV 310es fragment\n#version 310 es\n") {
		t.Fatalf("unexpected front-end input:\n%s", text)
	}
	if !strings.Contains(text, "layout(set=1) uniform _SP_GENERATED_UB_0 { vec4 tint; };") ||
		!strings.Contains(text, "layout(set=1) uniform sampler2D tex;") {
		t.Errorf("set qualifiers missing:\n%s", text)
	}
	if fake.Calls(tooltest.OpOptimize) != 1 {
		t.Error("optimizer not run")
	}

	compute := shader.Module{Stage: shader.StageCompute, Path: "blur.cp", Source: "void main(){}"}
	spv, err = b.SPIRV(ctx, compute, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(spv), "SPV 430 compute\n#version 430\n") {
		t.Errorf("compute not raised to 430:\n%s", spv)
	}
}

func TestSPIRVFrontEndRaisesExplicitES100(t *testing.T) {
	m := fragment("#version 100\nprecision mediump float;\nuniform vec4 c;\nvoid main(){ gl_FragColor = c; }\n")
	opts := FrontEndOptions(m, false)
	res, err := glsl.Normalize(m.Source, m.Stage, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.Text, "#version 310 es\n") || !res.ES() {
		t.Fatalf("ES profile lost while raising the version:\n%s", res.Text)
	}
	if got := std(res); got != "310es" {
		t.Errorf("std = %q, want 310es", got)
	}

	spv, err := New(&tooltest.Fake{}).SPIRV(context.Background(), m, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(spv), "SPV 310es fragment\n#version 310 es\n") {
		t.Errorf("unexpected front-end input:\n%s", spv)
	}
}

func TestToolFailureBecomesCompileError(t *testing.T) {
	toolErr := &toolchain.ToolInvocationError{Tool: toolchain.ToolSPIRVOpt, ExitCode: 1, Stderr: "bad id"}
	b := New(&tooltest.Fake{Fail: map[string]error{tooltest.OpOptimize: toolErr}})

	_, err := b.SPIRV(context.Background(), fragment(legacyFragment), false)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if ce.Step != StepOptimize || !strings.HasPrefix(ce.Warning(), "Optimization pass failed:") {
		t.Errorf("unexpected step/warning: %v %q", ce.Step, ce.Warning())
	}
	var tie *toolchain.ToolInvocationError
	if !errors.As(err, &tie) || !strings.Contains(ce.Error(), "bad id") {
		t.Errorf("tool stderr lost: %v", err)
	}
}

func TestWGSLValidationFailure(t *testing.T) {
	b := New(&tooltest.Fake{WGSL: "fn {"})
	_, err := b.WGSL(context.Background(), fragment(legacyFragment), []byte("spv"))
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Step != StepValidate {
		t.Fatalf("expected validation CompileError, got %v", err)
	}
	if !strings.HasPrefix(ce.Warning(), "WGSL validation failed:") {
		t.Errorf("warning prefix: %q", ce.Warning())
	}
}

func TestVariantDispatch(t *testing.T) {
	fake := &tooltest.Fake{}
	b := New(fake)
	out, err := b.Variant(context.Background(), fragment(legacyFragment), shader.LanguageHLSL, []byte("SPV"), false)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "// HLSL sm50\nSPV" {
		t.Errorf("HLSL variant = %q", out)
	}
	if fake.Calls(tooltest.OpCompile) != 0 {
		t.Error("HLSL must reuse the SPIR-V it is given")
	}
}
