package backend

import (
	"fmt"

	"shaderpipe/internal/shader"
)

// Step names the part of a variant compile that failed.
type Step uint8

const (
	StepCompile Step = iota + 1 // GLSL front end
	StepOptimize
	StepReflect
	StepCrossCompile // SPIR-V to HLSL or WGSL
	StepValidate     // WGSL validation
)

var stepPrefixes = [...]string{
	StepCompile:      "Compatibility issue:",
	StepOptimize:     "Optimization pass failed:",
	StepReflect:      "Unable to get reflection data:",
	StepCrossCompile: "Compatibility issue:",
	StepValidate:     "WGSL validation failed:",
}

// CompileError is a failed (module, language) compile.
type CompileError struct {
	Path     string
	Language shader.Language
	Stage    shader.Stage
	Step     Step
	Err      error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s %s: %s", e.Path, e.Language, e.Stage, e.Warning())
}

func (e *CompileError) Unwrap() error { return e.Err }

// Warning renders the error the way soft-fail mode records it.
func (e *CompileError) Warning() string {
	prefix := "Compatibility issue:"
	if int(e.Step) < len(stepPrefixes) && stepPrefixes[e.Step] != "" {
		prefix = stepPrefixes[e.Step]
	}
	return prefix + " " + e.Err.Error()
}
