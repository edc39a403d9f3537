// Package compiler cross-compiles shader modules for a platform.
//
// A compile runs in two phases. The prepare phase handles each module on
// its own: it splits texture arrays when a selected language needs it,
// compiles the canonical SPIR-V and validates its reflection. The variant
// phase then produces one BuildResult per (language, module) pair on a
// bounded worker pool. Results land in fixed slots so the output order
// never depends on scheduling.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"shaderpipe/internal/backend"
	"shaderpipe/internal/descriptor"
	"shaderpipe/internal/fallback"
	"shaderpipe/internal/observ"
	"shaderpipe/internal/reflection"
	"shaderpipe/internal/shader"
	"shaderpipe/internal/toolchain"
	"shaderpipe/internal/trace"
)

// Options controls one compile invocation.
type Options struct {
	// TargetLanguages is unioned into the platform defaults.
	TargetLanguages []shader.Language
	// MaxPageCount is the number of pages a texture array is split into.
	MaxPageCount int
	// ForceSplitSamplers splits texture arrays even when no selected
	// language requires it.
	ForceSplitSamplers bool
	// ExcludeLegacyES drops GLES_SM100 from the selected languages.
	ExcludeLegacyES bool
	// SoftFail records backend failures as variant warnings instead of
	// aborting the compile.
	SoftFail bool
	// Debug emits #line markers in text variants.
	Debug bool
	// Jobs bounds concurrent variant compiles; 0 means GOMAXPROCS.
	Jobs int
}

// Result is the outcome of Compile.
type Result struct {
	Languages []shader.Language
	// Builds holds one entry per (language, module) pair, languages outer.
	// Entries with warnings are unusable.
	Builds []shader.BuildResult
	// Reflection has one table per stage in module order.
	Reflection          []shader.StageReflection
	VariantTextureArray bool
	Timing              observ.Report
}

// Warnings lists every variant warning as "<language> <stage>: <message>".
func (r *Result) Warnings() []string {
	var out []string
	for _, b := range r.Builds {
		for _, w := range b.Warnings {
			out = append(out, fmt.Sprintf("%s %s: %s", b.Language, b.Stage, w))
		}
	}
	return out
}

// Stages returns the distinct stages that were compiled, in module order.
func (r *Result) Stages() []shader.Stage {
	var out []shader.Stage
	for _, b := range r.Builds {
		if !slices.Contains(out, b.Stage) {
			out = append(out, b.Stage)
		}
	}
	return out
}

// Descriptor assembles the usable variants into a shader descriptor.
func (r *Result) Descriptor() (*descriptor.Descriptor, error) {
	return descriptor.Assemble(r.Stages(), r.Builds, r.Reflection, r.VariantTextureArray)
}

// Compiler drives the backends for a set of modules.
type Compiler struct {
	backend *backend.Backend
}

// New returns a Compiler running external tools through tools.
func New(tools toolchain.Toolchain) *Compiler {
	return &Compiler{backend: backend.New(tools)}
}

// prepared is the per-module state shared by all variants of a module.
type prepared struct {
	module   shader.Module // source after the texture-array split, if any
	spv      []byte        // nil when no SPIR-V derived language is selected or it failed
	warning  string        // soft-mode front-end failure
	table    *shader.ResourceTable
	samplers []fallback.SamplerInfo
}

// Compile produces every variant of modules for platform.
func (c *Compiler) Compile(ctx context.Context, modules []shader.Module, platform shader.Platform, opts Options) (*Result, error) {
	if err := checkModules(modules); err != nil {
		return nil, err
	}
	langs, err := SelectLanguages(platform, opts)
	if err != nil {
		return nil, err
	}

	ctx, span := trace.Start(ctx, trace.ScopeStage, "compile")
	span.WithExtra("platform", string(platform)).
		WithExtra("languages", joinLanguages(langs)).
		WithExtra("modules", fmt.Sprint(len(modules)))

	timer := observ.NewTimer()
	split := NeedsSplitSamplers(langs, opts.ForceSplitSamplers)
	needSPIRV := slices.ContainsFunc(langs, shader.Language.FromSPIRV)
	es := UsesES(platform)
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	prep := make([]prepared, len(modules))
	err = timer.Measure("prepare", func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(jobs)
		for i, m := range modules {
			g.Go(func() error {
				p, err := c.prepare(gctx, m, split, needSPIRV, es, opts)
				if err != nil {
					return err
				}
				prep[i] = p
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		span.End("failed")
		return nil, err
	}

	builds := make([]shader.BuildResult, len(langs)*len(prep))
	err = timer.Measure("variants", func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(jobs)
		for li, lang := range langs {
			for mi := range prep {
				g.Go(func() error {
					b, err := c.variant(gctx, &prep[mi], lang, opts)
					if err != nil {
						return err
					}
					builds[li*len(prep)+mi] = b
					return nil
				})
			}
		}
		return g.Wait()
	})
	if err != nil {
		span.End("failed")
		return nil, err
	}

	res := &Result{Languages: langs, Builds: builds}
	for _, p := range prep {
		if len(p.samplers) > 0 {
			res.VariantTextureArray = true
		}
		if p.table == nil || slices.ContainsFunc(res.Reflection, func(r shader.StageReflection) bool { return r.Stage == p.module.Stage }) {
			continue
		}
		res.Reflection = append(res.Reflection, shader.StageReflection{Stage: p.module.Stage, Table: p.table})
	}
	res.Timing = timer.Report()
	span.End(fmt.Sprintf("%d variants, %d warnings", len(builds), len(res.Warnings())))
	return res, nil
}

func (c *Compiler) prepare(ctx context.Context, m shader.Module, split, needSPIRV, es bool, opts Options) (prepared, error) {
	ctx, span := trace.Start(ctx, trace.ScopeVariant, "prepare")
	span.WithExtra("path", m.Path).WithExtra("stage", m.Stage.String())
	p, err := c.prepareModule(ctx, m, split, needSPIRV, es, opts)
	if err != nil {
		span.End("failed")
		return p, err
	}
	span.End(fmt.Sprintf("%d array samplers", len(p.samplers)))
	return p, nil
}

func (c *Compiler) prepareModule(ctx context.Context, m shader.Module, split, needSPIRV, es bool, opts Options) (prepared, error) {
	p := prepared{module: m}
	if split {
		fr, changed, err := fallback.Transform(m.Source, m.Stage, opts.MaxPageCount, m.Path)
		if err != nil {
			return p, err
		}
		if changed {
			p.module.Source = fr.Source
			p.samplers = fr.ArraySamplers
		}
	}
	if !needSPIRV {
		p.table = &shader.ResourceTable{}
		return p, nil
	}

	// Reflection always describes the untransformed shader.
	spv, err := c.backend.SPIRV(ctx, m, es)
	if err != nil {
		return p, p.soften(err, opts.SoftFail)
	}
	data, err := c.backend.Reflect(ctx, m, spv)
	if err != nil {
		return p, p.soften(err, opts.SoftFail)
	}
	table, err := reflection.Validate(data, m.Stage)
	if err != nil {
		var re *reflection.Error
		if errors.As(err, &re) {
			re.Path = m.Path
		}
		return p, err
	}
	fallback.Annotate(table, p.samplers)
	p.table = table
	p.spv = spv

	if len(p.samplers) > 0 {
		spv, err = c.backend.SPIRV(ctx, p.module, es)
		if err != nil {
			return p, p.soften(err, opts.SoftFail)
		}
		p.spv = spv
	}
	return p, nil
}

// soften turns a backend failure into a module warning in soft mode.
// Anything else is returned unchanged.
func (p *prepared) soften(err error, soft bool) error {
	var ce *backend.CompileError
	if !soft || !errors.As(err, &ce) {
		return err
	}
	p.spv = nil
	p.warning = ce.Warning()
	return nil
}

func (c *Compiler) variant(ctx context.Context, p *prepared, lang shader.Language, opts Options) (shader.BuildResult, error) {
	m := p.module
	out := shader.BuildResult{Language: lang, Stage: m.Stage}
	if !backend.Supports(lang, m.Stage) {
		msg := fmt.Sprintf("Compatibility issue: %s has no %s shaders", lang, m.Stage)
		trace.Point(ctx, trace.ScopeVariant, "skip", m.Path+": "+msg)
		out.Warnings = []string{msg}
		return out, nil
	}
	if lang.FromSPIRV() && p.spv == nil {
		out.Warnings = []string{p.warning}
		return out, nil
	}

	ctx, span := trace.Start(ctx, trace.ScopeVariant, lang.String())
	span.WithExtra("path", m.Path).WithExtra("stage", m.Stage.String())
	data, err := c.backend.Variant(ctx, m, lang, p.spv, opts.Debug)
	if err != nil {
		span.End("failed")
		var ce *backend.CompileError
		if opts.SoftFail && errors.As(err, &ce) {
			out.Warnings = []string{ce.Warning()}
			return out, nil
		}
		return out, err
	}
	span.End("")
	out.Bytes = data
	return out, nil
}

func checkModules(modules []shader.Module) error {
	if len(modules) == 0 {
		return &InvalidModulesError{Reason: "no modules to compile"}
	}
	var compute, graphics string
	for _, m := range modules {
		switch m.Stage {
		case shader.StageCompute:
			compute = m.Path
		case shader.StageVertex, shader.StageFragment:
			graphics = m.Path
		default:
			return &InvalidModulesError{Path: m.Path, Reason: fmt.Sprintf("unknown stage %d", m.Stage)}
		}
	}
	if compute != "" && graphics != "" {
		return &InvalidModulesError{Path: compute, Reason: "compute shaders cannot be compiled together with " + graphics}
	}
	return nil
}

func joinLanguages(langs []shader.Language) string {
	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = l.String()
	}
	return strings.Join(names, ",")
}
