package main

import (
	"fmt"
	"os"
	"path/filepath"

	"shaderpipe/internal/project"
	"shaderpipe/internal/toolchain"
)

// projectContext is the manifest (if any) the CLI runs under.
type projectContext struct {
	Root      string
	OutputDir string
	Config    project.Config
	Manifest  *project.Manifest // nil without shaderpipe.toml
}

// loadProject finds shaderpipe.toml above the working directory. Without a
// manifest the working directory is the root and the defaults apply.
func loadProject() (*projectContext, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, found, err := project.Load(wd)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg := project.DefaultConfig()
		return &projectContext{
			Root:      wd,
			OutputDir: filepath.Join(wd, filepath.FromSlash(cfg.Build.Output)),
			Config:    cfg,
		}, nil
	}
	cfg := m.Config
	def := project.DefaultConfig()
	if !m.IsDefined("build", "platform") {
		cfg.Build.Platform = def.Build.Platform
	}
	if !m.IsDefined("build", "max_page_count") {
		cfg.Build.MaxPageCount = def.Build.MaxPageCount
	}
	if !m.IsDefined("build", "soft_fail") {
		cfg.Build.SoftFail = def.Build.SoftFail
	}
	return &projectContext{
		Root:      m.Root,
		OutputDir: m.OutputDir(),
		Config:    cfg,
		Manifest:  m,
	}, nil
}

// collectShaderFiles maps CLI arguments to root-relative shader paths.
// Directories expand to the shaders below them; no arguments means the
// whole project minus the output directory.
func collectShaderFiles(pc *projectContext, args []string) ([]string, error) {
	if len(args) == 0 {
		files, err := project.ListShaders(pc.Root, pc.OutputDir)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no shader files found under %s", pc.Root)
		}
		return files, nil
	}
	seen := make(map[string]bool)
	var out []string
	add := func(rel string) {
		if !seen[rel] {
			seen[rel] = true
			out = append(out, rel)
		}
	}
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		rel, err := project.PathWithin(pc.Root, abs)
		if err != nil {
			return nil, err
		}
		st, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			add(rel)
			continue
		}
		files, err := project.ListShaders(abs, pc.OutputDir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if rel != "." {
				f = rel + "/" + f
			}
			add(f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no shader files found in %v", args)
	}
	return out, nil
}

// newToolchain runs the external compilers named in [tools], falling back
// to PATH lookups.
func newToolchain(pc *projectContext) *toolchain.Exec {
	t := pc.Config.Tools
	return toolchain.NewExec(toolchain.Paths{
		GLSLC:      t.GLSLC,
		SPIRVOpt:   t.SPIRVOpt,
		SPIRVCross: t.SPIRVCross,
		WGSL:       t.WGSL,
	})
}
