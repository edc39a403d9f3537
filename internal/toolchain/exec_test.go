package toolchain

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"shaderpipe/internal/shader"
)

// copyTool copies its input argument to its -o/--output argument.
const copyTool = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    -o|--output) out="$2"; shift ;;
    --shader-model|--format) shift ;;
    -*) ;;
    *) in="$1" ;;
  esac
  shift
done
cp "$in" "$out"
`

const failingTool = `#!/bin/sh
echo "input.glsl:3: error: 'gl_FragColor' : undeclared identifier" >&2
exit 3
`

func writeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRoundTripsThroughTools(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	tool := writeTool(t, dir, "copy", copyTool)
	e := NewExec(Paths{GLSLC: tool, SPIRVOpt: tool, SPIRVCross: tool, WGSL: tool})
	e.TempDir = t.TempDir()
	ctx := context.Background()

	spv, err := e.CompileSPIRV(ctx, []byte("void main(){}"), shader.StageVertex, "330")
	if err != nil {
		t.Fatalf("CompileSPIRV: %v", err)
	}
	if string(spv) != "void main(){}" {
		t.Fatalf("unexpected output %q", spv)
	}
	for name, op := range map[string]func() ([]byte, error){
		"optimize": func() ([]byte, error) { return e.OptimizeSPIRV(ctx, spv) },
		"reflect":  func() ([]byte, error) { return e.ReflectSPIRV(ctx, spv) },
		"hlsl":     func() ([]byte, error) { return e.CrossCompileHLSL(ctx, spv, 50) },
		"wgsl":     func() ([]byte, error) { return e.CrossCompileWGSL(ctx, spv) },
	} {
		out, err := op()
		if err != nil || string(out) != string(spv) {
			t.Errorf("%s: %q, %v", name, out, err)
		}
	}

	left, err := os.ReadDir(e.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("scratch directories not removed: %d left", len(left))
	}
}

func TestExecReportsToolFailure(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	e := NewExec(Paths{GLSLC: writeTool(t, dir, "glslc", failingTool)})

	_, err := e.CompileSPIRV(context.Background(), []byte("x"), shader.StageFragment, "300es")
	var tie *ToolInvocationError
	if !errors.As(err, &tie) {
		t.Fatalf("expected ToolInvocationError, got %v", err)
	}
	if tie.Tool != ToolGLSLC || tie.ExitCode != 3 {
		t.Errorf("unexpected error fields: %+v", tie)
	}
	if !strings.Contains(tie.Error(), "undeclared identifier") {
		t.Errorf("stderr missing from message: %s", tie.Error())
	}
	if !strings.Contains(strings.Join(tie.Args, " "), "-fshader-stage=frag") {
		t.Errorf("stage flag missing: %v", tie.Args)
	}
}

func TestCheckReportsMissingTools(t *testing.T) {
	e := NewExec(Paths{
		GLSLC:      "/nonexistent/glslc",
		SPIRVOpt:   "/nonexistent/spirv-opt",
		SPIRVCross: "/nonexistent/spirv-cross",
		WGSL:       "/nonexistent/tint",
	})
	err := e.Check()
	var missing *MissingToolError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingToolError, got %v", err)
	}
	if !strings.Contains(err.Error(), "spirv-cross") {
		t.Errorf("all missing tools should be listed: %v", err)
	}
}
