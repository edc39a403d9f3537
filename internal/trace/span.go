package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var spanIDs atomic.Uint64

type tracerKey struct{}
type spanKey struct{}

// WithTracer attaches t to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer carried by ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx != nil {
		if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
			return t
		}
	}
	return Nop
}

func parentOf(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(spanKey{}).(uint64)
	return id
}

// Span is an open interval. A nil or disabled span ignores every call, so
// callers never check whether tracing is on.
type Span struct {
	t       Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	attrs   []Attr
}

// Start opens a span below the one carried by ctx. The returned context
// carries the new span when it is recorded.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	t := FromContext(ctx)
	if !t.Level().Allows(scope) {
		return ctx, nil
	}
	s := &Span{
		t:       t,
		id:      spanIDs.Add(1),
		parent:  parentOf(ctx),
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(Event{
		Time:     s.started,
		Kind:     KindBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     name,
	})
	return context.WithValue(ctx, spanKey{}, s.id), s
}

// WithExtra records an attribute reported when the span ends.
func (s *Span) WithExtra(key, value string) *Span {
	if s != nil {
		s.attrs = append(s.attrs, Attr{Key: key, Value: value})
	}
	return s
}

// End closes the span and returns its duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	now := time.Now()
	d := now.Sub(s.started)
	s.t.Emit(Event{
		Time:     now,
		Kind:     KindEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Elapsed:  d,
		Attrs:    s.attrs,
	})
	return d
}

// ID is zero for spans that are not recorded.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point records an instant event below the span carried by ctx.
func Point(ctx context.Context, scope Scope, name, detail string) {
	t := FromContext(ctx)
	if !t.Level().Allows(scope) {
		return
	}
	t.Emit(Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parentOf(ctx),
		Name:     name,
		Detail:   detail,
	})
}
