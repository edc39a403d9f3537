// Package toolchain runs the external shader compilers: glslc for GLSL to
// SPIR-V, spirv-opt, spirv-cross for reflection and HLSL, and a SPIR-V to
// WGSL translator. Each invocation gets its own scratch directory, so an
// Exec is safe for concurrent use.
package toolchain

import (
	"context"

	"shaderpipe/internal/shader"
)

// Toolchain is the set of external operations the backends need.
type Toolchain interface {
	// CompileSPIRV compiles GLSL source. std is a glslc -std value such as
	// "330" or "310es".
	CompileSPIRV(ctx context.Context, src []byte, stage shader.Stage, std string) ([]byte, error)
	OptimizeSPIRV(ctx context.Context, spv []byte) ([]byte, error)
	// ReflectSPIRV returns spirv-cross reflection JSON.
	ReflectSPIRV(ctx context.Context, spv []byte) ([]byte, error)
	CrossCompileHLSL(ctx context.Context, spv []byte, shaderModel int) ([]byte, error)
	CrossCompileWGSL(ctx context.Context, spv []byte) ([]byte, error)
}

// Tool names, used in errors and trace spans.
const (
	ToolGLSLC      = "glslc"
	ToolSPIRVOpt   = "spirv-opt"
	ToolSPIRVCross = "spirv-cross"
	ToolWGSL       = "tint"
)

// Paths locates the tool binaries. Bare names are resolved through PATH.
type Paths struct {
	GLSLC      string
	SPIRVOpt   string
	SPIRVCross string
	WGSL       string
}

// DefaultPaths returns the tool names as found on PATH.
func DefaultPaths() Paths {
	return Paths{
		GLSLC:      ToolGLSLC,
		SPIRVOpt:   ToolSPIRVOpt,
		SPIRVCross: ToolSPIRVCross,
		WGSL:       ToolWGSL,
	}
}

// WithDefaults fills empty entries from DefaultPaths.
func (p Paths) WithDefaults() Paths {
	d := DefaultPaths()
	if p.GLSLC == "" {
		p.GLSLC = d.GLSLC
	}
	if p.SPIRVOpt == "" {
		p.SPIRVOpt = d.SPIRVOpt
	}
	if p.SPIRVCross == "" {
		p.SPIRVCross = d.SPIRVCross
	}
	if p.WGSL == "" {
		p.WGSL = d.WGSL
	}
	return p
}

// StageFlag returns the -fshader-stage value for a stage.
func StageFlag(stage shader.Stage) string {
	switch stage {
	case shader.StageFragment:
		return "frag"
	case shader.StageCompute:
		return "comp"
	default:
		return "vert"
	}
}
