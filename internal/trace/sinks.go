package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Mode selects where events are kept.
type Mode uint8

const (
	ModeStream Mode = iota + 1
	ModeRing
	ModeBoth
)

// ParseMode accepts stream, ring or both.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	}
	return 0, fmt.Errorf("invalid trace mode: %q (expected: stream|ring|both)", s)
}

// DefaultRingSize is used when Config.RingSize is not positive.
const DefaultRingSize = 4096

// Config describes the tracer built by New.
type Config struct {
	Level    Level
	Mode     Mode
	Format   Format
	Path     string    // "" or "-" means stderr
	Output   io.Writer // overrides Path
	RingSize int
}

// New builds the tracer described by cfg. RingOf reaches the buffer of a
// ring or tee tracer.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.Format == FormatAuto {
		cfg.Format = FormatFor(cfg.Path)
	}
	switch cfg.Mode {
	case ModeRing:
		return NewRing(cfg.RingSize, cfg.Level), nil
	case ModeStream, ModeBoth:
		w, err := openSink(cfg)
		if err != nil {
			return nil, err
		}
		s := NewStream(w, cfg.Level, cfg.Format)
		if cfg.Mode == ModeStream {
			return s, nil
		}
		return &Tee{level: cfg.Level, stream: s, ring: NewRing(cfg.RingSize, cfg.Level)}, nil
	}
	return nil, fmt.Errorf("unknown trace mode %d", cfg.Mode)
}

func openSink(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.Path == "" || cfg.Path == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, nil
}

// Stream writes each event as soon as it arrives.
type Stream struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
	seq    atomic.Uint64
}

func NewStream(w io.Writer, level Level, format Format) *Stream {
	return &Stream{w: w, level: level, format: format}
}

func (s *Stream) Emit(ev Event) {
	ev.Seq = s.seq.Add(1)
	line := Encode(ev, s.format)
	s.mu.Lock()
	_, _ = s.w.Write(line) // ошибки записи трассы не валят сборку
	s.mu.Unlock()
}

func (s *Stream) Level() Level { return s.level }

// Close closes the output unless it is one of the standard streams.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == io.Writer(os.Stderr) || s.w == io.Writer(os.Stdout) {
		return nil
	}
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Ring keeps the most recent events in memory.
type Ring struct {
	mu    sync.Mutex
	buf   []Event
	next  int
	total uint64
	level Level
}

func NewRing(size int, level Level) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{buf: make([]Event, size), level: level}
}

func (r *Ring) Emit(ev Event) {
	r.mu.Lock()
	r.total++
	ev.Seq = r.total
	r.buf[r.next] = ev
	r.next = (r.next + 1) % len(r.buf)
	r.mu.Unlock()
}

func (r *Ring) Level() Level { return r.level }
func (r *Ring) Close() error { return nil }

// Events returns the buffered events oldest first.
func (r *Ring) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.total < uint64(len(r.buf)) {
		return append([]Event(nil), r.buf[:r.next]...)
	}
	out := make([]Event, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

// Dump writes the buffered events to w.
func (r *Ring) Dump(w io.Writer, format Format) error {
	for _, ev := range r.Events() {
		if _, err := w.Write(Encode(ev, format)); err != nil {
			return err
		}
	}
	return nil
}

// Tee streams events and keeps them in a ring at the same time.
type Tee struct {
	level  Level
	stream *Stream
	ring   *Ring
}

func (t *Tee) Emit(ev Event) {
	t.stream.Emit(ev)
	t.ring.Emit(ev)
}

func (t *Tee) Level() Level { return t.level }

func (t *Tee) Close() error {
	return errors.Join(t.stream.Close(), t.ring.Close())
}

// RingOf returns the ring buffer behind t, if there is one.
func RingOf(t Tracer) (*Ring, bool) {
	switch v := t.(type) {
	case *Ring:
		return v, true
	case *Tee:
		return v.ring, true
	}
	return nil, false
}

// Pulse emits a KindPulse event every interval until stop is called. A
// build that keeps pulsing without closing spans is stuck in a tool.
func Pulse(t Tracer, interval time.Duration) (stop func()) {
	if !Enabled(t) || interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for n := 1; ; n++ {
			select {
			case now := <-tick.C:
				t.Emit(Event{Time: now, Kind: KindPulse, Scope: ScopeDriver, Name: "pulse", Detail: fmt.Sprintf("#%d", n)})
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
