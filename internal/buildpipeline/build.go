// Package buildpipeline compiles the shader files of a project into
// descriptor files. Each file runs resolve, compile and write on its own;
// a failing file does not stop the others. Failures are collected as
// diagnostics in the result.
package buildpipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"shaderpipe/internal/compiler"
	"shaderpipe/internal/descriptor"
	"shaderpipe/internal/diag"
	"shaderpipe/internal/glsl"
	"shaderpipe/internal/include"
	"shaderpipe/internal/observ"
	"shaderpipe/internal/shader"
	"shaderpipe/internal/source"
	"shaderpipe/internal/toolchain"
	"shaderpipe/internal/trace"
)

// Request configures a build.
type Request struct {
	// Root is the project root; Files are relative to it.
	Root  string
	Files []string
	// OutputDir receives one descriptor per file. Empty skips writing.
	OutputDir string
	Platform  shader.Platform
	Options   compiler.Options
	Tools     toolchain.Toolchain
	// Jobs bounds how many files build at once; 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	Progress       ProgressSink
}

// FileResult is the outcome for one shader file.
type FileResult struct {
	Path       string
	Output     string // written descriptor, empty when nothing was written
	Includes   []string
	Tree       *include.Tree
	Compile    *compiler.Result
	Descriptor *descriptor.Descriptor
	Err        error
}

// Result collects the per-file outcomes in request order.
type Result struct {
	Files   []FileResult
	Bag     *diag.Bag
	FileSet *source.FileSet
	Timings Timings
	Timing  observ.Report
}

// Failed returns the number of files that did not produce a descriptor.
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// WriteError is a failed descriptor write.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// UnknownStageError is a file whose extension names no shader stage.
type UnknownStageError struct {
	Path string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("%s: cannot derive the shader stage from the file extension (want .vp/.vert, .fp/.frag or .cp/.comp)", e.Path)
}

// Build compiles every file of req. The returned error is non-nil when the
// request is unusable, the context is cancelled or at least one file failed;
// the Result is still filled in the last two cases.
func Build(ctx context.Context, req *Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return nil, fmt.Errorf("missing build request")
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("no shader files to build")
	}
	if req.Tools == nil {
		return nil, fmt.Errorf("missing toolchain")
	}
	// платформа проверяется один раз, а не для каждого файла
	if _, err := compiler.DefaultLanguages(req.Platform); err != nil {
		return nil, err
	}

	ctx, span := trace.Start(ctx, trace.ScopeStage, "build")
	span.WithExtra("files", fmt.Sprint(len(req.Files)))

	res := &Result{
		Files:   make([]FileResult, len(req.Files)),
		Bag:     diag.NewBag(req.MaxDiagnostics),
		FileSet: source.NewFileSet(req.Root),
	}
	b := &builder{
		req:   req,
		res:   res,
		comp:  compiler.New(req.Tools),
		timer: observ.NewTimer(),
	}
	emitQueued(req.Progress, req.Files)

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, rel := range req.Files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				res.Files[i] = FileResult{Path: rel, Err: err}
				return err
			}
			res.Files[i] = b.buildFile(ctx, rel)
			return nil
		})
	}
	waitErr := g.Wait()

	for i := range res.Files {
		report(res.Bag, res.FileSet, &res.Files[i])
	}
	res.Bag.Dedup()
	res.Bag.Sort()
	res.Timing = b.timer.Report()

	failed := res.Failed()
	span.WithExtra("failed", fmt.Sprint(failed)).End("")
	if waitErr != nil {
		return res, waitErr
	}
	if failed > 0 {
		return res, fmt.Errorf("%d of %d shader files failed", failed, len(req.Files))
	}
	return res, nil
}

type builder struct {
	req   *Request
	res   *Result
	comp  *compiler.Compiler
	timer *observ.Timer
}

func (b *builder) buildFile(ctx context.Context, rel string) FileResult {
	fr := FileResult{Path: rel}
	start := time.Now()
	fail := func(stage Stage, err error) FileResult {
		fr.Err = err
		emitFile(b.req.Progress, rel, stage, StatusError, err, time.Since(start))
		return fr
	}

	stage, ok := shader.StageFromPath(rel)
	if !ok {
		return fail(StageResolve, &UnknownStageError{Path: rel})
	}

	emitFile(b.req.Progress, rel, StageResolve, StatusWorking, nil, 0)
	t0 := time.Now()
	tree, err := ResolveIncludes(b.res.FileSet, rel)
	b.res.Timings.Add(StageResolve, time.Since(t0))
	if err != nil {
		return fail(StageResolve, err)
	}
	fr.Tree = tree
	fr.Includes = tree.Includes()

	src := tree.Flatten()
	module := shader.Module{Stage: stage, Path: rel, Source: src}
	if v, p, ok := glsl.DetectVersion(src); ok {
		module.Version, module.Profile = v, p
	}

	emitFile(b.req.Progress, rel, StageCompile, StatusWorking, nil, 0)
	t0 = time.Now()
	cres, err := b.comp.Compile(ctx, []shader.Module{module}, b.req.Platform, b.req.Options)
	b.res.Timings.Add(StageCompile, time.Since(t0))
	if err != nil {
		return fail(StageCompile, err)
	}
	fr.Compile = cres
	b.timer.Merge(rel, cres.Timing)

	emitFile(b.req.Progress, rel, StageWrite, StatusWorking, nil, 0)
	t0 = time.Now()
	desc, err := cres.Descriptor()
	if err != nil {
		b.res.Timings.Add(StageWrite, time.Since(t0))
		return fail(StageWrite, err)
	}
	fr.Descriptor = desc
	if b.req.OutputDir != "" {
		out := descriptor.OutputPath(b.req.OutputDir, rel)
		if err := descriptor.WriteFile(out, desc); err != nil {
			b.res.Timings.Add(StageWrite, time.Since(t0))
			return fail(StageWrite, &WriteError{Path: out, Err: err})
		}
		fr.Output = out
	}
	b.res.Timings.Add(StageWrite, time.Since(t0))

	emitFile(b.req.Progress, rel, StageWrite, StatusDone, nil, time.Since(start))
	return fr
}
