package source

import (
	"fmt"
	"math"
)

// NoFile marks a span that is not attached to any file.
const NoFile FileID = math.MaxUint32

// NoSpan is the primary span of diagnostics without a location.
var NoSpan = Span{File: NoFile}

// Span is a byte range of one file.
type Span struct {
	File  FileID
	Start uint32 // inclusive
	End   uint32 // exclusive
}

// Valid reports whether the span points into a file.
func (s Span) Valid() bool {
	return s.File != NoFile
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}
