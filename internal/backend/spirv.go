package backend

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gogpu/naga"

	"shaderpipe/internal/glsl"
	"shaderpipe/internal/shader"
	"shaderpipe/internal/toolchain"
	"shaderpipe/internal/trace"
)

// HLSLShaderModel is the shader model passed to spirv-cross.
const HLSLShaderModel = 50

// Backend compiles the SPIR-V derived languages through a Toolchain.
type Backend struct {
	tools toolchain.Toolchain
}

// New returns a Backend using tools.
func New(tools toolchain.Toolchain) *Backend {
	return &Backend{tools: tools}
}

// FrontEndOptions returns the normalizer options for the SPIR-V front end.
// es selects the ES profile when the source has no #version of its own.
func FrontEndOptions(m shader.Module, es bool) glsl.Options {
	opts := glsl.Options{Version: 140, WrapUniforms: true, BindingSets: true, Path: m.Path}
	if v, p, ok := glsl.DetectVersion(m.Source); ok {
		es = glsl.IsES(v, p)
	}
	if es {
		opts.Version, opts.Profile = 310, "es"
	}
	opts.MinVersion = opts.Version
	if m.Stage == shader.StageCompute {
		opts.MinVersion = computeMinVersion(es)
	}
	return opts
}

// std renders a glslc -std value.
func std(res glsl.Result) string {
	s := strconv.Itoa(res.Version)
	if res.ES() {
		s += "es"
	}
	return s
}

// SPIRV normalizes m for the front end, compiles and optimizes it.
func (b *Backend) SPIRV(ctx context.Context, m shader.Module, es bool) ([]byte, error) {
	res, err := glsl.Normalize(m.Source, m.Stage, FrontEndOptions(m, es))
	if err != nil {
		return nil, err
	}
	spv, err := b.tools.CompileSPIRV(ctx, []byte(res.Text), m.Stage, std(res))
	if err != nil {
		return nil, b.fail(m, shader.LanguageSPIRV, StepCompile, err)
	}
	opt, err := b.tools.OptimizeSPIRV(ctx, spv)
	if err != nil {
		return nil, b.fail(m, shader.LanguageSPIRV, StepOptimize, err)
	}
	return opt, nil
}

// Reflect extracts reflection JSON from compiled SPIR-V.
func (b *Backend) Reflect(ctx context.Context, m shader.Module, spv []byte) ([]byte, error) {
	data, err := b.tools.ReflectSPIRV(ctx, spv)
	if err != nil {
		return nil, b.fail(m, shader.LanguageSPIRV, StepReflect, err)
	}
	return data, nil
}

// HLSL cross-compiles SPIR-V to HLSL.
func (b *Backend) HLSL(ctx context.Context, m shader.Module, spv []byte) ([]byte, error) {
	out, err := b.tools.CrossCompileHLSL(ctx, spv, HLSLShaderModel)
	if err != nil {
		return nil, b.fail(m, shader.LanguageHLSL, StepCrossCompile, err)
	}
	return out, nil
}

// WGSL cross-compiles SPIR-V to WGSL and validates the result.
func (b *Backend) WGSL(ctx context.Context, m shader.Module, spv []byte) ([]byte, error) {
	out, err := b.tools.CrossCompileWGSL(ctx, spv)
	if err != nil {
		return nil, b.fail(m, shader.LanguageWGSL, StepCrossCompile, err)
	}
	_, span := trace.Start(ctx, trace.ScopeTool, "naga-validate")
	err = ValidateWGSL(string(out))
	span.End("")
	if err != nil {
		return nil, b.fail(m, shader.LanguageWGSL, StepValidate, err)
	}
	return out, nil
}

// Variant produces the bytes of one language. spv is the optimized front-end
// output for m and may be nil when lang is a text language.
func (b *Backend) Variant(ctx context.Context, m shader.Module, lang shader.Language, spv []byte, debug bool) ([]byte, error) {
	switch lang {
	case shader.LanguageSPIRV:
		return spv, nil
	case shader.LanguageHLSL:
		return b.HLSL(ctx, m, spv)
	case shader.LanguageWGSL:
		return b.WGSL(ctx, m, spv)
	}
	return Text(m, lang, debug)
}

func (b *Backend) fail(m shader.Module, lang shader.Language, step Step, err error) error {
	return &CompileError{Path: m.Path, Language: lang, Stage: m.Stage, Step: step, Err: err}
}

// ValidateWGSL parses, lowers and validates WGSL source.
func ValidateWGSL(src string) error {
	ast, err := naga.Parse(src)
	if err != nil {
		return err
	}
	mod, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return err
	}
	issues, err := naga.Validate(mod)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.Error()
	}
	return errors.New(strings.Join(msgs, "; "))
}
