// Package shader holds the data model shared by every stage of the shader
// pipeline: stages, target languages, platforms, resource bindings and
// compiled variants.
package shader

import (
	"fmt"
	"path"
	"strings"
)

// Stage is the pipeline stage a module is compiled for.
type Stage uint8

const (
	StageVertex Stage = iota + 1
	StageFragment
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// ParseStage converts a stage name to Stage.
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertex", "vert", "vp":
		return StageVertex, nil
	case "fragment", "frag", "fp":
		return StageFragment, nil
	case "compute", "comp", "cp":
		return StageCompute, nil
	default:
		return 0, fmt.Errorf("unknown shader stage %q (expected vertex|fragment|compute)", s)
	}
}

// StageFromPath derives the stage from a file extension
// (.vp/.vert, .fp/.frag, .cp/.comp).
func StageFromPath(p string) (Stage, bool) {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(strings.ReplaceAll(p, "\\", "/"))), ".")
	st, err := ParseStage(ext)
	if err != nil {
		return 0, false
	}
	return st, true
}
