package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"shaderpipe/internal/descriptor"
	"shaderpipe/internal/version"
)

type versionPayload struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	Schema     uint16 `json:"descriptor_schema"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show shaderpipe build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			full, err := cmd.Flags().GetBool("full")
			if err != nil {
				return err
			}
			switch strings.ToLower(format) {
			case "json":
				return renderVersionJSON(cmd.OutOrStdout(), full)
			case "pretty":
				colored, err := useColor(cmd)
				if err != nil {
					return err
				}
				renderVersionPretty(cmd.OutOrStdout(), colored, full)
				return nil
			}
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		},
	}
	cmd.Flags().Bool("full", false, "show every recorded bit of build metadata")
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func renderVersionPretty(out io.Writer, colored, full bool) {
	fmt.Fprintln(out, version.Line(colored))
	fmt.Fprintf(out, "descriptor schema: %d\n", descriptor.SchemaVersion)
	if full {
		fmt.Fprintf(out, "commit:  %s\n", valueOrUnknown(version.GitCommit))
		fmt.Fprintf(out, "message: %s\n", valueOrUnknown(version.GitMessage))
		fmt.Fprintf(out, "built:   %s\n", valueOrUnknown(version.BuildDate))
		for _, line := range toolStatus() {
			fmt.Fprintln(out, line)
		}
	}
}

// toolStatus reports which external compilers the current project can reach.
func toolStatus() []string {
	pc, err := loadProject()
	if err != nil {
		return []string{"tools:   " + err.Error()}
	}
	tools := newToolchain(pc)
	err = tools.Check()
	if err == nil {
		return []string{"tools:   ok"}
	}
	var lines []string
	for _, msg := range strings.Split(err.Error(), "\n") {
		lines = append(lines, "tools:   "+msg)
	}
	return lines
}

func renderVersionJSON(out io.Writer, full bool) error {
	payload := versionPayload{
		Tool:    "shaderpipe",
		Version: strings.TrimSpace(version.Version),
		Schema:  descriptor.SchemaVersion,
	}
	if full {
		payload.GitCommit = valueOrUnknown(version.GitCommit)
		payload.GitMessage = valueOrUnknown(version.GitMessage)
		payload.BuildDate = valueOrUnknown(version.BuildDate)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
