// Package trace records nested, timed spans for a shader build.
//
// A build opens one stage span, each prepared module a variant span and
// every external compiler run a tool span:
//
//	[stage]   → compile {platform=x86_64-win32}
//	[variant]   → HLSL {path=sprite.fp, stage=fragment}
//	[tool]        → spirv-cross
//
// The tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, t)
//	ctx, span := trace.Start(ctx, trace.ScopeStage, "reflect")
//	defer span.End("")
//
// Events go to a stream (file or stderr), to a ring kept for post-mortem
// dumps, or to both.
package trace
