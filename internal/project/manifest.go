// Package project locates and decodes shaderpipe.toml and lists the shader
// sources of a project.
package project

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"shaderpipe/internal/shader"
)

// Config mirrors shaderpipe.toml.
type Config struct {
	Project ProjectConfig `toml:"project"`
	Build   BuildConfig   `toml:"build"`
	Tools   ToolsConfig   `toml:"tools"`
}

type ProjectConfig struct {
	// Root is the directory shader paths and includes are relative to.
	Root string `toml:"root"`
}

type BuildConfig struct {
	Platform           string   `toml:"platform"`
	Output             string   `toml:"output"`
	Languages          []string `toml:"languages,omitempty"`
	MaxPageCount       int      `toml:"max_page_count"`
	ForceSplitSamplers bool     `toml:"force_split_samplers"`
	ExcludeLegacyES    bool     `toml:"exclude_legacy_es"`
	SoftFail           bool     `toml:"soft_fail"`
	Jobs               int      `toml:"jobs"`
	Debug              bool     `toml:"debug"`
}

type ToolsConfig struct {
	GLSLC      string `toml:"glslc,omitempty"`
	SPIRVOpt   string `toml:"spirv_opt,omitempty"`
	SPIRVCross string `toml:"spirv_cross,omitempty"`
	WGSL       string `toml:"wgsl,omitempty"`
	Timeout    string `toml:"timeout,omitempty"`
}

// Manifest is a decoded shaderpipe.toml.
type Manifest struct {
	Path   string // absolute path of the manifest file
	Dir    string // directory holding the manifest
	Root   string // absolute project root
	Config Config

	meta toml.MetaData
}

// DefaultConfig is what `shaderpipe init` writes.
func DefaultConfig() Config {
	return Config{
		Project: ProjectConfig{Root: "."},
		Build: BuildConfig{
			Platform:     string(shader.PlatformX86_64Linux),
			Output:       "build/shaders",
			MaxPageCount: 4,
			SoftFail:     true,
		},
	}
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// IsDefined reports whether the manifest sets the given key.
func (m *Manifest) IsDefined(key ...string) bool {
	if m == nil {
		return false
	}
	return m.meta.IsDefined(key...)
}

// LoadManifest decodes and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	meta, err := toml.DecodeFile(abs, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", abs, strings.Join(keys, ", "))
	}
	m := &Manifest{Path: abs, Dir: filepath.Dir(abs), Config: cfg, meta: meta}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	return m, nil
}

// Load finds and decodes the manifest above startDir.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := LoadManifest(path)
	return m, true, err
}

func (m *Manifest) validate() error {
	root := "."
	if m.IsDefined("project", "root") {
		root = strings.TrimSpace(m.Config.Project.Root)
		if root == "" || filepath.IsAbs(root) {
			return fmt.Errorf("[project].root must be a relative path, got %q", m.Config.Project.Root)
		}
	}
	if _, err := PathWithin(m.Dir, root); err != nil {
		return fmt.Errorf("[project].root: %w", err)
	}
	m.Root = filepath.Join(m.Dir, filepath.FromSlash(root))

	if m.IsDefined("build", "platform") && strings.TrimSpace(m.Config.Build.Platform) == "" {
		return fmt.Errorf("[build].platform is empty")
	}
	if _, err := m.Languages(); err != nil {
		return err
	}
	if m.Config.Build.MaxPageCount < 0 {
		return fmt.Errorf("[build].max_page_count must not be negative")
	}
	if m.Config.Build.Jobs < 0 {
		return fmt.Errorf("[build].jobs must not be negative")
	}
	if _, err := m.Timeout(); err != nil {
		return err
	}
	return nil
}

// Languages parses [build].languages.
func (m *Manifest) Languages() ([]shader.Language, error) {
	out := make([]shader.Language, 0, len(m.Config.Build.Languages))
	for _, s := range m.Config.Build.Languages {
		l, err := shader.ParseLanguage(s)
		if err != nil {
			return nil, fmt.Errorf("[build].languages: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}

// Timeout parses [tools].timeout; zero means the toolchain default.
func (m *Manifest) Timeout() (time.Duration, error) {
	s := strings.TrimSpace(m.Config.Tools.Timeout)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("[tools].timeout: invalid duration %q", s)
	}
	return d, nil
}

// OutputDir returns the absolute output directory. It is relative to the
// manifest directory, not the project root.
func (m *Manifest) OutputDir() string {
	out := m.Config.Build.Output
	if out == "" {
		out = DefaultConfig().Build.Output
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(m.Dir, filepath.FromSlash(out))
}
