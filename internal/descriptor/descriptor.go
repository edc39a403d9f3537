// Package descriptor merges compiled variants and reflection into the
// shader descriptor written to disk.
package descriptor

import (
	"fmt"

	"shaderpipe/internal/shader"
)

// Descriptor is the terminal artifact of one shader build.
type Descriptor struct {
	// Shaders holds usable variants in language selection order.
	Shaders []shader.BuildResult `msgpack:"shaders"`
	// Reflection has at most one entry per stage.
	Reflection          []shader.StageReflection `msgpack:"reflection"`
	VariantTextureArray bool                     `msgpack:"variant_texture_array"`
}

// EmptyStageError is returned when every variant of a requested stage was
// dropped.
type EmptyStageError struct {
	Stage shader.Stage
}

func (e *EmptyStageError) Error() string {
	return fmt.Sprintf("no usable %s shader variant was produced", e.Stage)
}

// Assemble filters unusable builds and attaches reflection once per stage.
// Every stage in stages must keep at least one variant.
func Assemble(stages []shader.Stage, builds []shader.BuildResult, reflection []shader.StageReflection, variantTextureArray bool) (*Descriptor, error) {
	d := &Descriptor{VariantTextureArray: variantTextureArray}
	for _, b := range builds {
		if b.Usable() {
			d.Shaders = append(d.Shaders, b)
		}
	}
	for _, st := range stages {
		if !hasStage(d.Shaders, st) {
			return nil, &EmptyStageError{Stage: st}
		}
	}

	seen := make(map[shader.Stage]bool, len(reflection))
	for _, r := range reflection {
		if seen[r.Stage] || r.Table == nil {
			continue
		}
		seen[r.Stage] = true
		d.Reflection = append(d.Reflection, r)
	}
	return d, nil
}

func hasStage(builds []shader.BuildResult, st shader.Stage) bool {
	for _, b := range builds {
		if b.Stage == st {
			return true
		}
	}
	return false
}

// Variant returns the first usable variant for (lang, stage).
func (d *Descriptor) Variant(lang shader.Language, stage shader.Stage) (shader.BuildResult, bool) {
	if d == nil {
		return shader.BuildResult{}, false
	}
	for _, b := range d.Shaders {
		if b.Language == lang && b.Stage == stage {
			return b, true
		}
	}
	return shader.BuildResult{}, false
}

// Table returns the reflection of a stage.
func (d *Descriptor) Table(stage shader.Stage) *shader.ResourceTable {
	if d == nil {
		return nil
	}
	for _, r := range d.Reflection {
		if r.Stage == stage {
			return r.Table
		}
	}
	return nil
}
