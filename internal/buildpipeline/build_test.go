package buildpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"shaderpipe/internal/compiler"
	"shaderpipe/internal/descriptor"
	"shaderpipe/internal/diag"
	"shaderpipe/internal/shader"
	"shaderpipe/internal/source"
	"shaderpipe/internal/toolchain/tooltest"
)

const colorFragment = "uniform vec4 color;\nvoid main(){ gl_FragColor = color; }\n"

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) last(file string) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out Event
	for _, ev := range r.events {
		if ev.File == file {
			out = ev
		}
	}
	return out
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestBuildWritesDescriptors(t *testing.T) {
	root := writeTree(t, map[string]string{
		"shaders/common.glsl": "uniform vec4 color;\n",
		"shaders/sprite.fp":   "#include \"common.glsl\"\nvoid main(){ gl_FragColor = color; }\n",
	})
	out := filepath.Join(root, "build")
	fake := &tooltest.Fake{}
	rec := &recorder{}
	res, err := Build(context.Background(), &Request{
		Root:      root,
		Files:     []string{"shaders/sprite.fp"},
		OutputDir: out,
		Platform:  shader.PlatformJSWeb,
		Tools:     fake,
		Progress:  rec,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if fake.TotalCalls() != 0 {
		t.Errorf("web build ran %d tool calls", fake.TotalCalls())
	}
	fr := res.Files[0]
	if !slices.Equal(fr.Includes, []string{"shaders/common.glsl"}) {
		t.Errorf("Includes = %v", fr.Includes)
	}
	want := filepath.Join(out, "shaders", "sprite.fpc")
	if fr.Output != want {
		t.Fatalf("Output = %s, want %s", fr.Output, want)
	}
	d, err := descriptor.ReadFile(want)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if _, ok := d.Variant(shader.LanguageGLESSM300, shader.StageFragment); !ok {
		t.Error("GLES_SM300 variant missing from the written descriptor")
	}
	if _, ok := d.Variant(shader.LanguageGLESSM100, shader.StageFragment); !ok {
		t.Error("GLES_SM100 variant missing from the written descriptor")
	}
	if ev := rec.last("shaders/sprite.fp"); ev.Status != StatusDone {
		t.Errorf("last event = %+v", ev)
	}
	if res.Bag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", codes(res.Bag))
	}
	for _, st := range Stages {
		if !res.Timings.Has(st) {
			t.Errorf("no timing for %s", st)
		}
	}
}

func TestBuildCycleFailsBeforeTools(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.fp":   "#include \"b.glsl\"\nvoid main(){}\n",
		"b.glsl": "\n#include \"a.fp\"\n",
	})
	fake := &tooltest.Fake{}
	res, err := Build(context.Background(), &Request{
		Root:     root,
		Files:    []string{"a.fp"},
		Platform: shader.PlatformX86_64Linux,
		Tools:    fake,
	})
	if err == nil {
		t.Fatal("expected the build to fail")
	}
	if fake.TotalCalls() != 0 {
		t.Errorf("tools ran %d times before the cycle was reported", fake.TotalCalls())
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.IncCycle {
		t.Fatalf("diagnostics = %v", codes(res.Bag))
	}
	start, _ := res.FileSet.Resolve(items[0].Primary)
	f := res.FileSet.Get(items[0].Primary.File)
	if f == nil || f.Path != "b.glsl" || start.Line != 2 {
		t.Errorf("cycle reported at %v line %d", f, start.Line)
	}
	if len(items[0].Notes) != 1 || !strings.Contains(items[0].Notes[0].Msg, "a.fp -> b.glsl -> a.fp") {
		t.Errorf("notes = %+v", items[0].Notes)
	}
}

func TestBuildContinuesPastFailedFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"good.fp": colorFragment,
		"bad.fp":  "#include \"missing.glsl\"\nvoid main(){}\n",
	})
	out := filepath.Join(root, "out")
	res, err := Build(context.Background(), &Request{
		Root:      root,
		Files:     []string{"bad.fp", "good.fp"},
		OutputDir: out,
		Platform:  shader.PlatformWasmWeb,
		Tools:     &tooltest.Fake{},
		Jobs:      1,
	})
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("err = %v", err)
	}
	if res.Failed() != 1 || res.Files[0].Err == nil || res.Files[1].Err != nil {
		t.Fatalf("unexpected results: %+v", res.Files)
	}
	if _, statErr := os.Stat(filepath.Join(out, "good.fpc")); statErr != nil {
		t.Errorf("good.fpc not written: %v", statErr)
	}
	if got := codes(res.Bag); !slices.Equal(got, []diag.Code{diag.IncNotFound}) {
		t.Errorf("diagnostics = %v", got)
	}
}

func TestBuildSoftFailWarnings(t *testing.T) {
	root := writeTree(t, map[string]string{"color.fp": colorFragment})
	fake := &tooltest.Fake{Fail: map[string]error{tooltest.OpHLSL: errors.New("unsupported construct")}}
	res, err := Build(context.Background(), &Request{
		Root:     root,
		Files:    []string{"color.fp"},
		Platform: shader.PlatformX86_64Win32,
		Options:  compiler.Options{SoftFail: true},
		Tools:    fake,
	})
	if err != nil {
		t.Fatalf("soft mode must not fail the build: %v", err)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Severity != diag.SevWarning || items[0].Code != diag.TolVariantFailed {
		t.Fatalf("diagnostics = %+v", items)
	}
	if !strings.Contains(items[0].Message, "HLSL fragment variant dropped: Compatibility issue:") {
		t.Errorf("message = %q", items[0].Message)
	}
	if len(res.Files[0].Descriptor.Shaders) != 2 {
		t.Errorf("descriptor has %d shaders, want 2", len(res.Files[0].Descriptor.Shaders))
	}
}

func TestBuildReflectionErrorsOneDiagnosticEach(t *testing.T) {
	root := writeTree(t, map[string]string{"color.fp": colorFragment})
	fake := &tooltest.Fake{Reflection: func([]byte) []byte {
		return []byte(`{"types": {"_1": {"name": "A", "members": []}, "_2": {"name": "B", "members": []}},
			"ubos": [{"type": "_1", "name": "A", "set": 1, "binding": 0}, {"type": "_2", "name": "B", "set": 1, "binding": 1}]}`)
	}}
	res, err := Build(context.Background(), &Request{
		Root:     root,
		Files:    []string{"color.fp"},
		Platform: shader.PlatformX86_64Linux,
		Options:  compiler.Options{SoftFail: true},
		Tools:    fake,
	})
	if err == nil {
		t.Fatal("reflection errors must fail the build")
	}
	got := codes(res.Bag)
	if len(got) != 2 || got[0] != diag.RefInvalid || got[1] != diag.RefInvalid {
		t.Errorf("diagnostics = %v", got)
	}
}

func TestBuildUnsupportedSyntaxPointsIntoInclude(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib/params.glsl": "uniform float a;\nuniform float scale = 2.0;\n",
		"main.vp":         "#version 330\n#include \"lib/params.glsl\"\nvoid main(){ gl_Position = vec4(a * scale); }\n",
	})
	res, err := Build(context.Background(), &Request{
		Root:     root,
		Files:    []string{"main.vp"},
		Platform: shader.PlatformX86_64Linux,
		Tools:    &tooltest.Fake{},
	})
	if err == nil {
		t.Fatal("expected unsupported syntax to fail")
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.NrmUnsupportedSyntax {
		t.Fatalf("diagnostics = %v", codes(res.Bag))
	}
	f := res.FileSet.Get(items[0].Primary.File)
	start, _ := res.FileSet.Resolve(items[0].Primary)
	if f == nil || f.Path != "lib/params.glsl" || start.Line != 2 {
		t.Errorf("reported at %v:%d, want lib/params.glsl:2", f, start.Line)
	}
}

func TestBuildRejectsUnknownPlatform(t *testing.T) {
	_, err := Build(context.Background(), &Request{
		Root:     t.TempDir(),
		Files:    []string{"a.fp"},
		Platform: shader.Platform("riscv-plan9"),
		Tools:    &tooltest.Fake{},
	})
	var pe *compiler.UnsupportedPlatformError
	if !errors.As(err, &pe) {
		t.Errorf("expected UnsupportedPlatformError, got %v", err)
	}
}

func TestResolveIncludesCachesFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.fp":      "#include \"c.glsl\"\n#include \"c.glsl\"\n",
		"c.glsl":    "float c;\n",
	})
	fs := source.NewFileSet(root)
	tree, err := ResolveIncludes(fs, "a.fp")
	if err != nil {
		t.Fatal(err)
	}
	if fs.Len() != 2 {
		t.Errorf("file set holds %d files, want 2", fs.Len())
	}
	if got := tree.Includes(); !slices.Equal(got, []string{"c.glsl"}) {
		t.Errorf("Includes = %v", got)
	}
	if _, err := ResolveIncludes(fs, "../x.glsl"); err == nil {
		t.Error("entry outside the root accepted")
	}
}

func TestBuildComputeSkipsLegacyES(t *testing.T) {
	root := writeTree(t, map[string]string{
		"blur.cp": "layout(local_size_x = 8) in;\nvoid main(){}\n",
	})
	res, err := Build(context.Background(), &Request{
		Root:     root,
		Files:    []string{"blur.cp"},
		Platform: shader.PlatformJSWeb,
		Tools:    &tooltest.Fake{},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.TolVariantSkipped || items[0].Severity != diag.SevWarning {
		t.Fatalf("diagnostics = %+v", items)
	}
	if !strings.Contains(items[0].Message, "GLES_SM100 compute variant skipped") {
		t.Errorf("message = %q", items[0].Message)
	}
}

func TestBuildUnknownStage(t *testing.T) {
	root := writeTree(t, map[string]string{"lib.glsl": "float f(){ return 1.0; }\n"})
	res, err := Build(context.Background(), &Request{
		Root:     root,
		Files:    []string{"lib.glsl"},
		Platform: shader.PlatformJSWeb,
		Tools:    &tooltest.Fake{},
	})
	if err == nil || res.Failed() != 1 {
		t.Fatalf("expected one failed file, got %v", err)
	}
	var use *UnknownStageError
	if !errors.As(res.Files[0].Err, &use) {
		t.Fatalf("err = %v", res.Files[0].Err)
	}
	if got := codes(res.Bag); !slices.Equal(got, []diag.Code{diag.CmpUnknownStage}) {
		t.Errorf("diagnostics = %v", got)
	}
}
