package include

import (
	"fmt"
	"strings"
)

// CyclicIncludeError reports a file that (transitively) includes itself.
type CyclicIncludeError struct {
	Path         string   // file that would be included again
	IncludedFrom string   // file holding the offending directive
	Line         int      // 1-based line of the directive in IncludedFrom
	Chain        []string // root .. IncludedFrom, Path
}

func (e *CyclicIncludeError) Error() string {
	return fmt.Sprintf("%s:%d: cyclic include: %q includes %q (%s)",
		e.IncludedFrom, e.Line, e.IncludedFrom, e.Path, strings.Join(e.Chain, " -> "))
}

// NotFoundError reports an include target the fetcher could not provide.
type NotFoundError struct {
	Path         string
	IncludedFrom string // empty for the entry file
	Line         int
	Err          error
}

func (e *NotFoundError) Error() string {
	if e.IncludedFrom == "" {
		return fmt.Sprintf("%s: not found: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s:%d: include %q not found: %v", e.IncludedFrom, e.Line, e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// OutOfRootError reports an include path that escapes the project root.
type OutOfRootError struct {
	Token        string // path as written in the directive
	IncludedFrom string
	Line         int
}

func (e *OutOfRootError) Error() string {
	if e.IncludedFrom == "" {
		return fmt.Sprintf("%s: path resolves outside the project root", e.Token)
	}
	return fmt.Sprintf("%s:%d: include %q resolves outside the project root", e.IncludedFrom, e.Line, e.Token)
}

// MalformedDirectiveError reports an #include line that names no path.
type MalformedDirectiveError struct {
	Path string
	Line int
	Text string
}

func (e *MalformedDirectiveError) Error() string {
	return fmt.Sprintf("%s:%d: malformed include directive %q", e.Path, e.Line, strings.TrimSpace(e.Text))
}
