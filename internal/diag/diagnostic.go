package diag

import "shaderpipe/internal/source"

// Severity orders diagnostics; higher is worse.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Note is a secondary message, optionally pointing at its own span.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one reported problem of a build.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

// NewError builds a fatal diagnostic.
func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: SevError, Code: code, Primary: primary, Message: msg}
}

// NewWarning builds a diagnostic that does not fail the build, such as a
// variant dropped in soft-fail mode.
func NewWarning(code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: SevWarning, Code: code, Primary: primary, Message: msg}
}

// WithNote returns a copy of d with one more note.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes[:len(d.Notes):len(d.Notes)], Note{Span: sp, Msg: msg})
	return d
}

// key identifies a diagnostic for deduplication; notes do not count.
type key struct {
	code       Code
	sev        Severity
	file       source.FileID
	start, end uint32
	msg        string
}

func (d Diagnostic) key() key {
	return key{
		code:  d.Code,
		sev:   d.Severity,
		file:  d.Primary.File,
		start: d.Primary.Start,
		end:   d.Primary.End,
		msg:   d.Message,
	}
}
