package buildpipeline

import (
	"errors"
	"fmt"
	"strings"

	"shaderpipe/internal/backend"
	"shaderpipe/internal/compiler"
	"shaderpipe/internal/descriptor"
	"shaderpipe/internal/diag"
	"shaderpipe/internal/glsl"
	"shaderpipe/internal/include"
	"shaderpipe/internal/reflection"
	"shaderpipe/internal/source"
	"shaderpipe/internal/toolchain"
)

// report adds the diagnostics of one file: its error, if any, and every
// soft-fail variant warning.
func report(bag *diag.Bag, fs *source.FileSet, fr *FileResult) {
	if fr.Err != nil {
		for _, d := range errorDiagnostics(fs, fr) {
			bag.Add(d)
		}
	}
	if fr.Compile == nil {
		return
	}
	for _, b := range fr.Compile.Builds {
		code, verb := diag.TolVariantFailed, "dropped"
		if !backend.Supports(b.Language, b.Stage) {
			code, verb = diag.TolVariantSkipped, "skipped"
		}
		for _, w := range b.Warnings {
			bag.Add(diag.NewWarning(code, fileSpan(fs, fr.Path),
				fmt.Sprintf("%s %s variant %s: %s", b.Language, b.Stage, verb, w)))
		}
	}
}

// errorDiagnostics converts a file error into diagnostics. Batched
// reflection errors yield one diagnostic per message.
func errorDiagnostics(fs *source.FileSet, fr *FileResult) []diag.Diagnostic {
	err := fr.Err
	var (
		cyclic    *include.CyclicIncludeError
		notFound  *include.NotFoundError
		outOfRoot *include.OutOfRootError
		malformed *include.MalformedDirectiveError
		syntax    *glsl.UnsupportedSyntaxError
		refl      *reflection.Error
		variant   *backend.CompileError
		missing   *toolchain.MissingToolError
		invoke    *toolchain.ToolInvocationError
		modules   *compiler.InvalidModulesError
		platform  *compiler.UnsupportedPlatformError
		empty     *descriptor.EmptyStageError
		write     *WriteError
		unknown   *UnknownStageError
	)
	one := func(d diag.Diagnostic) []diag.Diagnostic { return []diag.Diagnostic{d} }

	switch {
	case errors.As(err, &cyclic):
		d := diag.NewError(diag.IncCycle, lineSpan(fs, cyclic.IncludedFrom, cyclic.Line),
			fmt.Sprintf("cyclic include: %q includes %q", cyclic.IncludedFrom, cyclic.Path))
		return one(d.WithNote(source.NoSpan, "include chain: "+strings.Join(cyclic.Chain, " -> ")))
	case errors.As(err, &notFound):
		if notFound.IncludedFrom == "" {
			return one(diag.NewError(diag.IOLoadFileError, source.NoSpan,
				fmt.Sprintf("cannot read %s: %v", notFound.Path, notFound.Err)))
		}
		return one(diag.NewError(diag.IncNotFound, lineSpan(fs, notFound.IncludedFrom, notFound.Line),
			fmt.Sprintf("included file %q not found", notFound.Path)))
	case errors.As(err, &outOfRoot):
		return one(diag.NewError(diag.IncOutOfRoot, lineSpan(fs, outOfRoot.IncludedFrom, outOfRoot.Line),
			fmt.Sprintf("%q resolves outside the project root", outOfRoot.Token)))
	case errors.As(err, &malformed):
		return one(diag.NewError(diag.IncMalformed, lineSpan(fs, malformed.Path, malformed.Line),
			"malformed include directive"))
	case errors.As(err, &syntax):
		sp := source.NoSpan
		if fr.Tree != nil {
			if path, line, ok := fr.Tree.Locate(syntax.Line); ok {
				sp = lineSpan(fs, path, line)
			}
		}
		return one(diag.NewError(diag.NrmUnsupportedSyntax, sp, "unsupported syntax: "+syntax.Reason))
	case errors.As(err, &refl):
		out := make([]diag.Diagnostic, 0, len(refl.Messages))
		for _, msg := range refl.Messages {
			out = append(out, diag.NewError(diag.RefInvalid, fileSpan(fs, fr.Path),
				fmt.Sprintf("%s shader: %s", refl.Stage, msg)))
		}
		return out
	case errors.As(err, &variant):
		return one(diag.NewError(diag.TolVariantFailed, fileSpan(fs, fr.Path),
			fmt.Sprintf("%s %s: %s", variant.Language, variant.Stage, variant.Warning())))
	case errors.As(err, &missing):
		return one(diag.NewError(diag.TolMissing, source.NoSpan, missing.Error()))
	case errors.As(err, &invoke):
		return one(diag.NewError(diag.TolInvocation, fileSpan(fs, fr.Path), invoke.Error()))
	case errors.As(err, &modules):
		return one(diag.NewError(diag.CmpInvalidModules, fileSpan(fs, fr.Path), modules.Error()))
	case errors.As(err, &platform):
		return one(diag.NewError(diag.CmpUnsupportedPlatform, source.NoSpan, platform.Error()))
	case errors.As(err, &empty):
		return one(diag.NewError(diag.CmpEmptyStage, fileSpan(fs, fr.Path), empty.Error()))
	case errors.As(err, &unknown):
		return one(diag.NewError(diag.CmpUnknownStage, source.NoSpan, unknown.Error()))
	case errors.As(err, &write):
		return one(diag.NewError(diag.IOWriteError, source.NoSpan, write.Error()))
	}
	return one(diag.NewError(diag.UnknownCode, fileSpan(fs, fr.Path), err.Error()))
}

// lineSpan points at a line of a loaded file. Unknown files and lines give
// NoSpan.
func lineSpan(fs *source.FileSet, path string, line int) source.Span {
	id, ok := fs.GetLatest(path)
	if !ok || line < 1 {
		return source.NoSpan
	}
	return fs.LineSpan(id, line)
}

// fileSpan is an empty span at the start of a loaded file, so the
// diagnostic carries the file name without quoting a line.
func fileSpan(fs *source.FileSet, path string) source.Span {
	id, ok := fs.GetLatest(path)
	if !ok {
		return source.NoSpan
	}
	return source.Span{File: id}
}
