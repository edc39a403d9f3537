package project

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"shaderpipe/internal/shader"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadWalksUp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ManifestName), `
[project]
root = "assets"

[build]
platform = "wasm-web"
languages = ["wgsl", "SPIRV"]
soft_fail = true

[tools]
timeout = "90s"
`)
	sub := filepath.Join(dir, "assets", "shaders")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	m, ok, err := Load(sub)
	if err != nil || !ok {
		t.Fatalf("Load: %v %v", ok, err)
	}
	if m.Root != filepath.Join(dir, "assets") {
		t.Errorf("Root = %s", m.Root)
	}
	langs, err := m.Languages()
	if err != nil || !slices.Equal(langs, []shader.Language{shader.LanguageWGSL, shader.LanguageSPIRV}) {
		t.Errorf("Languages = %v %v", langs, err)
	}
	if !m.IsDefined("build", "soft_fail") || m.IsDefined("build", "debug") {
		t.Error("IsDefined does not follow the file")
	}
	if d, _ := m.Timeout(); d.Seconds() != 90 {
		t.Errorf("Timeout = %v", d)
	}
	if m.OutputDir() != filepath.Join(dir, "build", "shaders") {
		t.Errorf("OutputDir = %s", m.OutputDir())
	}
}

func TestManifestValidation(t *testing.T) {
	tests := map[string]string{
		"root escapes":     "[project]\nroot = \"../elsewhere\"\n",
		"unknown language": "[build]\nlanguages = [\"metal\"]\n",
		"bad timeout":      "[tools]\ntimeout = \"soon\"\n",
		"unknown key":      "[build]\nplatfrom = \"js-web\"\n",
		"negative pages":   "[build]\nmax_page_count = -1\n",
	}
	for name, content := range tests {
		dir := t.TempDir()
		path := filepath.Join(dir, ManifestName)
		writeFile(t, path, content)
		if _, err := LoadManifest(path); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestDefaultConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	var b strings.Builder
	if err := Encode(&b, DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	writeFile(t, path, b.String())
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("default manifest does not load: %v\n%s", err, b.String())
	}
	if m.Config.Build.Platform != string(shader.PlatformX86_64Linux) || m.Config.Build.MaxPageCount != 4 {
		t.Errorf("unexpected config %+v", m.Config.Build)
	}
}

func TestListShadersAndPathWithin(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"a.fp", "sub/b.vert", "sub/common.glsl", ".git/x.fp", "build/out.fp"} {
		writeFile(t, filepath.Join(root, filepath.FromSlash(p)), "void main(){}\n")
	}
	got, err := ListShaders(root, filepath.Join(root, "build"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a.fp", "sub/b.vert"}; !slices.Equal(got, want) {
		t.Errorf("ListShaders = %v, want %v", got, want)
	}
	if rel, err := PathWithin(root, filepath.Join(root, "sub", "b.vert")); err != nil || rel != "sub/b.vert" {
		t.Errorf("PathWithin = %q %v", rel, err)
	}
	if _, err := PathWithin(root, filepath.Join(root, "..", "x.fp")); err == nil {
		t.Error("path outside root accepted")
	}
}
