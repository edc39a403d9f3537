// Package tooltest provides an in-process Toolchain for tests.
package tooltest

import (
	"context"
	"fmt"
	"sync"

	"shaderpipe/internal/shader"
	"shaderpipe/internal/toolchain"
)

// Operation names accepted by Fake.Fail.
const (
	OpCompile  = "compile"
	OpOptimize = "optimize"
	OpReflect  = "reflect"
	OpHLSL     = "hlsl"
	OpWGSL     = "wgsl"
)

// ValidWGSL is a module the WGSL validator accepts.
const ValidWGSL = "@compute @workgroup_size(1)\nfn main() {\n}\n"

// Fake produces deterministic outputs derived from its inputs. SPIR-V is
// "SPV <std> <stage>\n" followed by the GLSL text.
type Fake struct {
	// Reflection returns the JSON for a compiled module. nil yields an
	// empty reflection object.
	Reflection func(spv []byte) []byte
	// WGSL is returned by CrossCompileWGSL; empty means ValidWGSL.
	WGSL string
	// Fail makes the named operation return an error.
	Fail map[string]error

	mu    sync.Mutex
	calls map[string]int
	srcs  [][]byte
}

var _ toolchain.Toolchain = (*Fake)(nil)

func (f *Fake) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
	return f.Fail[op]
}

// Calls returns how many times op ran.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of tool invocations of any kind.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Sources returns the GLSL texts passed to CompileSPIRV.
func (f *Fake) Sources() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.srcs...)
}

func (f *Fake) CompileSPIRV(_ context.Context, src []byte, stage shader.Stage, std string) ([]byte, error) {
	if err := f.record(OpCompile); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.srcs = append(f.srcs, append([]byte(nil), src...))
	f.mu.Unlock()
	return append([]byte(fmt.Sprintf("SPV %s %s\n", std, stage)), src...), nil
}

func (f *Fake) OptimizeSPIRV(_ context.Context, spv []byte) ([]byte, error) {
	if err := f.record(OpOptimize); err != nil {
		return nil, err
	}
	return append([]byte(nil), spv...), nil
}

func (f *Fake) ReflectSPIRV(_ context.Context, spv []byte) ([]byte, error) {
	if err := f.record(OpReflect); err != nil {
		return nil, err
	}
	if f.Reflection == nil {
		return []byte("{}"), nil
	}
	return f.Reflection(spv), nil
}

func (f *Fake) CrossCompileHLSL(_ context.Context, spv []byte, shaderModel int) ([]byte, error) {
	if err := f.record(OpHLSL); err != nil {
		return nil, err
	}
	return append([]byte(fmt.Sprintf("// HLSL sm%d\n", shaderModel)), spv...), nil
}

func (f *Fake) CrossCompileWGSL(_ context.Context, spv []byte) ([]byte, error) {
	if err := f.record(OpWGSL); err != nil {
		return nil, err
	}
	if f.WGSL == "" {
		return []byte(ValidWGSL), nil
	}
	return []byte(f.WGSL), nil
}
