package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"shaderpipe/internal/descriptor"
	"shaderpipe/internal/shader"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [flags] <descriptor>",
		Short: "Print a compiled shader descriptor as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectExecution,
	}
	cmd.Flags().Bool("source", false, "include the text of GLSL and WGSL variants")
	cmd.Flags().Bool("no-reflection", false, "omit the reflection tables")
	return cmd
}

// The views below keep enum values readable; the descriptor itself stores
// them as integers.

type descriptorView struct {
	Schema              uint16           `json:"schema"`
	VariantTextureArray bool             `json:"variant_texture_array"`
	Shaders             []variantView    `json:"shaders"`
	Reflection          []reflectionView `json:"reflection,omitempty"`
}

type variantView struct {
	Language string `json:"language"`
	Stage    string `json:"stage"`
	Size     int    `json:"size"`
	SHA256   string `json:"sha256"`
	Source   string `json:"source,omitempty"`
}

type reflectionView struct {
	Stage     string        `json:"stage"`
	Inputs    []bindingView `json:"inputs"`
	Outputs   []bindingView `json:"outputs"`
	Resources []bindingView `json:"resources"`
	Types     []typeView    `json:"types,omitempty"`
}

type bindingView struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	TypeIndex        int32    `json:"type_index"`
	Set              uint32   `json:"set"`
	Binding          uint32   `json:"binding"`
	ElementCount     uint32   `json:"element_count"`
	BlockSize        uint32   `json:"block_size,omitempty"`
	NameIndirections []uint64 `json:"name_indirections,omitempty"`
}

type typeView struct {
	Name    string       `json:"name"`
	Members []memberView `json:"members"`
}

type memberView struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	TypeIndex    int32  `json:"type_index"`
	ElementCount uint32 `json:"element_count"`
	Offset       uint32 `json:"offset"`
}

func inspectExecution(cmd *cobra.Command, args []string) error {
	withSource, err := cmd.Flags().GetBool("source")
	if err != nil {
		return err
	}
	noReflection, err := cmd.Flags().GetBool("no-reflection")
	if err != nil {
		return err
	}
	d, err := descriptor.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read descriptor: %w", err)
	}
	view := newDescriptorView(d, withSource, !noReflection)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func newDescriptorView(d *descriptor.Descriptor, withSource, withReflection bool) descriptorView {
	view := descriptorView{
		Schema:              descriptor.SchemaVersion,
		VariantTextureArray: d.VariantTextureArray,
		Shaders:             make([]variantView, 0, len(d.Shaders)),
	}
	for _, s := range d.Shaders {
		sum := sha256.Sum256(s.Bytes)
		v := variantView{
			Language: s.Language.String(),
			Stage:    s.Stage.String(),
			Size:     len(s.Bytes),
			SHA256:   hex.EncodeToString(sum[:]),
		}
		if withSource && s.Language != shader.LanguageSPIRV {
			v.Source = string(s.Bytes)
		}
		view.Shaders = append(view.Shaders, v)
	}
	if !withReflection {
		return view
	}
	for _, r := range d.Reflection {
		rv := reflectionView{Stage: r.Stage.String()}
		if r.Table != nil {
			rv.Inputs = bindingViews(r.Table.Inputs)
			rv.Outputs = bindingViews(r.Table.Outputs)
			rv.Resources = bindingViews(r.Table.Resources)
			for _, t := range r.Table.Types {
				tv := typeView{Name: t.Name, Members: make([]memberView, 0, len(t.Members))}
				for _, m := range t.Members {
					tv.Members = append(tv.Members, memberView{
						Name:         m.Name,
						Type:         m.Type.String(),
						TypeIndex:    m.TypeIndex,
						ElementCount: m.ElementCount,
						Offset:       m.Offset,
					})
				}
				rv.Types = append(rv.Types, tv)
			}
		}
		view.Reflection = append(view.Reflection, rv)
	}
	return view
}

func bindingViews(in []shader.ResourceBinding) []bindingView {
	out := make([]bindingView, 0, len(in))
	for _, b := range in {
		out = append(out, bindingView{
			Name:             b.Name,
			Type:             b.Type.String(),
			TypeIndex:        b.TypeIndex,
			Set:              b.Set,
			Binding:          b.Binding,
			ElementCount:     b.ElementCount,
			BlockSize:        b.BlockSize,
			NameIndirections: b.NameIndirections,
		})
	}
	return out
}
