package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shaderpipe/internal/buildpipeline"
	"shaderpipe/internal/compiler"
	"shaderpipe/internal/project"
	"shaderpipe/internal/shader"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [flags] [path...]",
		Short: "Compile shaders into descriptor files",
		Long: `Compile shaders into descriptor files. Paths may name shader files or
directories; without paths every shader under the project root is built.
Flags override the values from shaderpipe.toml.`,
		RunE: buildExecution,
	}
	f := cmd.Flags()
	f.String("platform", "", "target platform, e.g. x86_64-linux, arm64-android, js-web")
	f.StringP("output", "o", "", "output directory")
	f.StringSlice("lang", nil, "extra shader languages (GLSL_SM140, GLSL_SM330, GLES_SM100, GLES_SM300, SPIRV, HLSL, WGSL)")
	f.Int("max-page-count", 0, "pages a texture array is split into")
	f.Bool("force-split-samplers", false, "split texture arrays even when no language needs it")
	f.Bool("exclude-legacy-es", false, "drop GLES_SM100 from the selected languages")
	f.Bool("soft-fail", false, "record backend failures as warnings instead of failing")
	f.Bool("debug", false, "emit #line markers in text variants")
	f.Int("jobs", 0, "max parallel workers (0=auto)")
	f.Bool("no-write", false, "compile without writing descriptors")
	f.String("ui", "auto", "progress view (auto|on|off); auto needs a terminal and at least 3 shaders")
	f.String("format", "pretty", "diagnostics format (pretty|json|short)")
	f.Bool("with-notes", false, "include diagnostic notes in output")
	f.String("path-mode", "auto", "diagnostic paths (auto|absolute|relative|basename)")
	return cmd
}

func buildExecution(cmd *cobra.Command, args []string) (err error) {
	cleanup, err := instrument(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(err != nil) }()

	pc, err := loadProject()
	if err != nil {
		return err
	}
	if err := applyBuildFlags(cmd, pc); err != nil {
		return err
	}
	files, err := collectShaderFiles(pc, args)
	if err != nil {
		return err
	}
	req, err := newBuildRequest(pc, files)
	if err != nil {
		return err
	}
	if noWrite, _ := cmd.Flags().GetBool("no-write"); noWrite {
		req.OutputDir = ""
	}
	if req.MaxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return err
	}
	report, err := readReportOptions(cmd)
	if err != nil {
		return err
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	var res *buildpipeline.Result
	var buildErr error
	if shouldUseTUI(mode, len(files)) && !report.quiet {
		res, buildErr = runBuildWithUI(cmd.Context(), "shaderpipe build", files, req)
	} else {
		res, buildErr = buildpipeline.Build(cmd.Context(), req)
	}
	if res == nil {
		return buildErr
	}

	out := cmd.OutOrStdout()
	if err := printDiagnostics(out, res.Bag, res.FileSet, report); err != nil {
		return err
	}
	if !report.quiet {
		printBuildSummary(out, pc, res)
	}
	if report.timings {
		printStageTimings(out, &res.Timings)
		printPhaseTimings(out, res.Timing)
	}
	if buildErr != nil {
		if res.Bag.Len() > 0 {
			return fmt.Errorf("%w: %v", errReported, buildErr)
		}
		return buildErr
	}
	return nil
}

// applyBuildFlags overrides manifest values with the flags that were set.
func applyBuildFlags(cmd *cobra.Command, pc *projectContext) error {
	f := cmd.Flags()
	b := &pc.Config.Build
	var err error
	if f.Changed("platform") {
		if b.Platform, err = f.GetString("platform"); err != nil {
			return err
		}
	}
	if f.Changed("output") {
		out, err := f.GetString("output")
		if err != nil {
			return err
		}
		if pc.OutputDir, err = filepath.Abs(out); err != nil {
			return err
		}
	}
	if f.Changed("lang") {
		if b.Languages, err = f.GetStringSlice("lang"); err != nil {
			return err
		}
	}
	ints := []struct {
		name string
		dst  *int
	}{{"max-page-count", &b.MaxPageCount}, {"jobs", &b.Jobs}}
	for _, it := range ints {
		if !f.Changed(it.name) {
			continue
		}
		if *it.dst, err = f.GetInt(it.name); err != nil {
			return err
		}
	}
	bools := []struct {
		name string
		dst  *bool
	}{
		{"force-split-samplers", &b.ForceSplitSamplers},
		{"exclude-legacy-es", &b.ExcludeLegacyES},
		{"soft-fail", &b.SoftFail},
		{"debug", &b.Debug},
	}
	for _, bf := range bools {
		if !f.Changed(bf.name) {
			continue
		}
		if *bf.dst, err = f.GetBool(bf.name); err != nil {
			return err
		}
	}
	return nil
}

func newBuildRequest(pc *projectContext, files []string) (*buildpipeline.Request, error) {
	b := pc.Config.Build
	langs := make([]shader.Language, 0, len(b.Languages))
	for _, s := range b.Languages {
		l, err := shader.ParseLanguage(s)
		if err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}

	tools := newToolchain(pc)
	if pc.Manifest != nil {
		timeout, err := pc.Manifest.Timeout()
		if err != nil {
			return nil, err
		}
		if timeout > 0 {
			tools.Timeout = timeout
		}
	}

	return &buildpipeline.Request{
		Root:      pc.Root,
		Files:     files,
		OutputDir: pc.OutputDir,
		Platform:  shader.ParsePlatform(b.Platform),
		Options: compiler.Options{
			TargetLanguages:    langs,
			MaxPageCount:       b.MaxPageCount,
			ForceSplitSamplers: b.ForceSplitSamplers,
			ExcludeLegacyES:    b.ExcludeLegacyES,
			SoftFail:           b.SoftFail,
			Debug:              b.Debug,
			Jobs:               b.Jobs,
		},
		Tools: tools,
		Jobs:  b.Jobs,
	}, nil
}

func printBuildSummary(out io.Writer, pc *projectContext, res *buildpipeline.Result) {
	written := 0
	for _, f := range res.Files {
		if f.Output != "" {
			written++
		}
	}
	failed := res.Failed()
	var parts []string
	parts = append(parts, fmt.Sprintf("compiled %d/%d shaders", len(res.Files)-failed, len(res.Files)))
	if written > 0 {
		parts = append(parts, fmt.Sprintf("wrote %d to %s", written, formatPathForOutput(pc.Root, pc.OutputDir)))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	if res.Bag.HasWarnings() {
		parts = append(parts, "see warnings above")
	}
	fmt.Fprintln(out, strings.Join(parts, ", "))
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := project.PathWithin(root, path)
	if err != nil {
		return path
	}
	return rel
}
