package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"shaderpipe/internal/buildpipeline"
	"shaderpipe/internal/include"
	"shaderpipe/internal/source"
)

func newDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps [flags] <shader>...",
		Short: "List the files a shader includes",
		Long: `List the files a shader includes, in the order they are first expanded.
With --tree the full include tree is printed, one node per directive.`,
		Args: cobra.MinimumNArgs(1),
		RunE: depsExecution,
	}
	cmd.Flags().Bool("tree", false, "print the include tree")
	cmd.Flags().String("format", "text", "output format (text|json)")
	return cmd
}

type depsPayload struct {
	Shader   string   `json:"shader"`
	Includes []string `json:"includes"`
}

func depsExecution(cmd *cobra.Command, args []string) (err error) {
	cleanup, err := instrument(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(err != nil) }()

	showTree, err := cmd.Flags().GetBool("tree")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}

	pc, err := loadProject()
	if err != nil {
		return err
	}
	files, err := collectShaderFiles(pc, args)
	if err != nil {
		return err
	}

	fs := source.NewFileSet(pc.Root)
	out := cmd.OutOrStdout()
	payload := make([]depsPayload, 0, len(files))
	for _, rel := range files {
		tree, err := buildpipeline.ResolveIncludes(fs, rel)
		if err != nil {
			return err
		}
		includes := tree.Includes()
		switch {
		case format == "json":
			payload = append(payload, depsPayload{Shader: rel, Includes: includes})
		case showTree:
			printIncludeTree(out, tree, 0, 0)
		default:
			if len(files) > 1 {
				fmt.Fprintf(out, "%s:\n", rel)
			}
			for _, inc := range includes {
				fmt.Fprintln(out, inc)
			}
		}
	}
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}
	return nil
}

func printIncludeTree(w io.Writer, tree *include.Tree, id include.NodeID, depth int) {
	n := tree.Node(id)
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), n.Path)
	for _, c := range n.Children() {
		printIncludeTree(w, tree, c.Node, depth+1)
	}
}
