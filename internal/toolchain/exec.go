package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"shaderpipe/internal/shader"
	"shaderpipe/internal/trace"
)

// DefaultTimeout bounds a single tool invocation.
const DefaultTimeout = 60 * time.Second

// Exec runs the real tool binaries.
type Exec struct {
	Paths   Paths
	Timeout time.Duration // 0 means DefaultTimeout
	TempDir string        // parent of scratch directories, "" for os.TempDir
}

// NewExec returns an Exec for the given paths.
func NewExec(paths Paths) *Exec {
	return &Exec{Paths: paths.WithDefaults(), Timeout: DefaultTimeout}
}

var _ Toolchain = (*Exec)(nil)

// Check resolves every configured binary and reports the missing ones.
func (e *Exec) Check() error {
	p := e.Paths.WithDefaults()
	var errs []error
	for _, tool := range []struct{ name, path string }{
		{ToolGLSLC, p.GLSLC},
		{ToolSPIRVOpt, p.SPIRVOpt},
		{ToolSPIRVCross, p.SPIRVCross},
		{ToolWGSL, p.WGSL},
	} {
		if _, err := exec.LookPath(tool.path); err != nil {
			errs = append(errs, &MissingToolError{Tool: tool.name, Path: tool.path, Err: err})
		}
	}
	return errors.Join(errs...)
}

// CompileSPIRV runs glslc.
func (e *Exec) CompileSPIRV(ctx context.Context, src []byte, stage shader.Stage, std string) ([]byte, error) {
	return e.run(ctx, ToolGLSLC, e.Paths.WithDefaults().GLSLC, src, "input.glsl", func(in, out string) []string {
		return []string{
			"-w",
			"-fauto-bind-uniforms",
			"-fauto-map-locations",
			"-std=" + std,
			"-fshader-stage=" + StageFlag(stage),
			"-o", out,
			in,
		}
	})
}

// OptimizeSPIRV runs spirv-opt with the default performance recipe.
func (e *Exec) OptimizeSPIRV(ctx context.Context, spv []byte) ([]byte, error) {
	return e.run(ctx, ToolSPIRVOpt, e.Paths.WithDefaults().SPIRVOpt, spv, "input.spv", func(in, out string) []string {
		return []string{"-O", in, "-o", out}
	})
}

// ReflectSPIRV runs spirv-cross --reflect.
func (e *Exec) ReflectSPIRV(ctx context.Context, spv []byte) ([]byte, error) {
	return e.run(ctx, ToolSPIRVCross, e.Paths.WithDefaults().SPIRVCross, spv, "input.spv", func(in, out string) []string {
		return []string{in, "--output", out, "--reflect"}
	})
}

// CrossCompileHLSL runs spirv-cross --hlsl.
func (e *Exec) CrossCompileHLSL(ctx context.Context, spv []byte, shaderModel int) ([]byte, error) {
	return e.run(ctx, ToolSPIRVCross, e.Paths.WithDefaults().SPIRVCross, spv, "input.spv", func(in, out string) []string {
		return []string{in, "--output", out, "--hlsl", "--shader-model", strconv.Itoa(shaderModel)}
	})
}

// CrossCompileWGSL runs the SPIR-V to WGSL translator.
func (e *Exec) CrossCompileWGSL(ctx context.Context, spv []byte) ([]byte, error) {
	return e.run(ctx, ToolWGSL, e.Paths.WithDefaults().WGSL, spv, "input.spv", func(in, out string) []string {
		return []string{"--format", "wgsl", "-o", out, in}
	})
}

// run writes input into a scratch directory, runs bin and reads back the
// output file.
func (e *Exec) run(ctx context.Context, tool, bin string, input []byte, inName string, args func(in, out string) []string) ([]byte, error) {
	dir, err := os.MkdirTemp(e.TempDir, "shaderpipe-*")
	if err != nil {
		return nil, fmt.Errorf("%s: scratch dir: %w", tool, err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, inName)
	out := filepath.Join(dir, "output")
	if err := os.WriteFile(in, input, 0o600); err != nil {
		return nil, fmt.Errorf("%s: write input: %w", tool, err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := trace.Start(ctx, trace.ScopeTool, tool)
	argv := args(in, out)
	cmd := exec.CommandContext(ctx, bin, argv...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		span.End("failed")
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", err, ctx.Err())
		}
		return nil, &ToolInvocationError{Tool: tool, Args: argv, ExitCode: code, Stderr: stderr.String(), Err: err}
	}
	span.WithExtra("bytes_in", strconv.Itoa(len(input))).End("")

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, &ToolInvocationError{Tool: tool, Args: argv, Stderr: stderr.String(), Err: fmt.Errorf("no output: %w", err)}
	}
	return data, nil
}
