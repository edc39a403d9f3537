package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"shaderpipe/internal/diag"
	"shaderpipe/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet("/project")
	id := fs.Add("shaders/sprite.fp", []byte("#version 330\n\tuniform float s = 2.0;\nvoid main(){}\n"), 0)
	bag := diag.NewBag(10)
	span := fs.LineSpan(id, 2)
	span.Start++ // skip the tab
	bag.Add(diag.NewError(diag.NrmUnsupportedSyntax, span, "uniform initializer cannot be moved into a block"))
	bag.Add(diag.NewWarning(diag.TolMissing, source.NoSpan, "glslc not found").WithNote(source.NoSpan, "install the Vulkan SDK"))
	return bag, fs
}

func TestPrettyShowsCaret(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeRelative, ShowNotes: true})
	out := buf.String()
	for _, want := range []string{
		"shaders/sprite.fp:2:2: ERROR NRM2001: uniform initializer",
		"2 |     uniform float s = 2.0;",
		" |     ^" + strings.Repeat("~", len("uniform float s = 2.0;")-1) + "\n",
		"WARNING TOL3002: glslc not found",
		"note: install the Vulkan SDK",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("colour codes emitted with Color=false")
	}
}

func TestPathModes(t *testing.T) {
	bag, fs := sampleBag(t)
	tests := map[PathMode]string{
		PathModeRelative: "shaders/sprite.fp:2:2",
		PathModeBasename: "sprite.fp:2:2",
		PathModeAbsolute: "/project/shaders/sprite.fp:2:2",
	}
	for mode, want := range tests {
		var buf bytes.Buffer
		Short(&buf, bag, fs, mode)
		if !strings.Contains(buf.String(), want) {
			t.Errorf("mode %d: %q not in\n%s", mode, want, buf.String())
		}
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Count != 2 || out.Diagnostics[0].Code != "NRM2001" || out.Diagnostics[0].Location.StartLine != 2 {
		t.Errorf("unexpected output: %+v", out)
	}
	if out.Diagnostics[1].Location.File != "" {
		t.Errorf("diagnostic without a span got a location: %+v", out.Diagnostics[1].Location)
	}
}

func TestShortFoldsMessages(t *testing.T) {
	fs := source.NewFileSet("")
	bag := diag.NewBag(2)
	bag.Add(diag.NewError(diag.RefInvalid, source.NoSpan, "a\n  b"))
	var buf bytes.Buffer
	Short(&buf, bag, fs, PathModeAuto)
	if got := buf.String(); got != "error REF4001 - a b\n" {
		t.Errorf("Short = %q", got)
	}
}
