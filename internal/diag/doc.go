// Package diag defines the diagnostic model shared by the build pipeline.
//
// # Purpose
//
// Every fatal error and soft-fail warning of a shader build ends up as a
// Diagnostic: include resolution, normalization, tool invocations,
// reflection validation and descriptor assembly. Diagnostics carry a stable
// Code so that scripts can match on them, and a primary source.Span so the
// CLI can print the offending line.
//
// # Data model
//
//   - Severity: Info, Warning, Error.
//   - Code: numeric identifier with a stable ID such as "REF4001". Ranges
//     group codes by producer (INC, NRM, TOL, REF, CMP, IO).
//   - Message: human oriented text; keep it short and actionable.
//   - Primary: the span of the offending line, or an empty span when the
//     problem has no location (a missing tool, an unknown platform).
//   - Notes: secondary messages. Batched reflection errors use one
//     diagnostic per message instead of notes so they sort and dedupe
//     individually.
//
// # Collecting diagnostics
//
// The build pipeline turns typed errors into diagnostics after each file
// finishes and adds them to one Bag. A Bag is safe for concurrent use,
// caps how many diagnostics it keeps and can drop repeats.
//
// Package diag does no formatting; rendering lives in internal/diagfmt.
package diag
