package trace

import (
	"fmt"
	"strings"
	"time"
)

// Level controls how deep spans are recorded.
type Level uint8

const (
	LevelOff Level = iota
	// LevelError keeps a tracer installed but records no spans.
	LevelError
	LevelPhase
	LevelDetail
	LevelDebug
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the names printed by String, case-insensitively.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// Allows reports whether spans of scope are recorded at l.
func (l Level) Allows(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopeStage
	case LevelDetail:
		return scope <= ScopeVariant
	case LevelDebug:
		return true
	}
	return false
}

// Scope orders spans from coarse to fine.
type Scope uint8

const (
	ScopeDriver  Scope = iota + 1 // CLI command
	ScopeStage                    // resolve, reflect, compile, write
	ScopeVariant                  // one module in one language
	ScopeTool                     // one external compiler run
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeStage:
		return "stage"
	case ScopeVariant:
		return "variant"
	case ScopeTool:
		return "tool"
	}
	return "unknown"
}

// Kind tells span boundaries from instant events.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindPoint
	KindPulse
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindPulse:
		return "pulse"
	}
	return "unknown"
}

// Attr is one key/value pair attached to a span end.
type Attr struct {
	Key, Value string
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string
	Detail   string
	Elapsed  time.Duration // set on KindEnd
	Attrs    []Attr
}

// Tracer receives events. Implementations must be safe for concurrent use.
type Tracer interface {
	Emit(ev Event)
	Level() Level
	Close() error
}

type nop struct{}

func (nop) Emit(Event)   {}
func (nop) Level() Level { return LevelOff }
func (nop) Close() error { return nil }

// Nop drops every event.
var Nop Tracer = nop{}

// Enabled reports whether t records anything at all.
func Enabled(t Tracer) bool {
	return t != nil && t.Level() > LevelOff
}
