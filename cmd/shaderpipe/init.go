package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"shaderpipe/internal/compiler"
	"shaderpipe/internal/project"
	"shaderpipe/internal/shader"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Initialize a new shader project",
		Long: `Initialize a new shader project by creating shaderpipe.toml and a pair of
example sprite shaders under shaders/. Without [path] the current
directory is used; a missing directory is created.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
	cmd.Flags().String("platform", string(shader.PlatformX86_64Linux), "default target platform")
	return cmd
}

// runInit refuses to overwrite an existing manifest. Example shaders that
// already exist are left alone.
func runInit(cmd *cobra.Command, args []string) error {
	platform, err := cmd.Flags().GetString("platform")
	if err != nil {
		return err
	}
	plat := shader.ParsePlatform(platform)
	if _, err = compiler.DefaultLanguages(plat); err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := wd
	if len(args) == 1 && args[0] != "." {
		target = args[0]
		if !filepath.IsAbs(target) {
			target = filepath.Join(wd, target)
		}
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}

	cfg := project.DefaultConfig()
	cfg.Build.Platform = string(plat)
	var buf bytes.Buffer
	buf.WriteString("# shaderpipe project manifest\n")
	if err := project.Encode(&buf, cfg); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	out := cmd.OutOrStdout()
	rel := target
	if r, err := filepath.Rel(wd, target); err == nil {
		rel = r
	}
	fmt.Fprintf(out, "Initialized shaderpipe project in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	for _, ex := range exampleShaders {
		path := filepath.Join(target, filepath.FromSlash(ex.path))
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "  - %s (existing)\n", ex.path)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(ex.source), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", ex.path, err)
		}
		fmt.Fprintf(out, "  - %s\n", ex.path)
	}
	return nil
}

var exampleShaders = []struct{ path, source string }{
	{"shaders/common.glsl", `// shared by the sprite shaders
uniform vec4 tint;
`},
	{"shaders/sprite.vp", `attribute vec4 position;
attribute vec2 texcoord0;

uniform mat4 view_proj;

varying vec2 var_texcoord0;

void main()
{
    var_texcoord0 = texcoord0;
    gl_Position = view_proj * vec4(position.xyz, 1.0);
}
`},
	{"shaders/sprite.fp", `varying mediump vec2 var_texcoord0;

uniform lowp sampler2D texture_sampler;
#include "common.glsl"

void main()
{
    gl_FragColor = texture2D(texture_sampler, var_texcoord0.xy) * tint;
}
`},
}
