// Package clock provides the monotonic tick source that all module timers are
// measured against. One tick is one millisecond.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock reports the current tick count in milliseconds.
type Clock interface {
	Millis() uint64
}

// System is a Clock backed by the monotonic clock, counting from its creation.
type System struct {
	start time.Time
}

// NewSystem returns a System clock starting at zero.
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Millis returns milliseconds elapsed since the clock was created.
func (s *System) Millis() uint64 {
	return uint64(time.Since(s.start).Milliseconds())
}

// Fake is a manually advanced Clock for tests.
type Fake struct {
	now atomic.Uint64
}

// NewFake returns a Fake clock set to start.
func NewFake(start uint64) *Fake {
	f := &Fake{}
	f.now.Store(start)
	return f
}

// Millis returns the current fake tick count.
func (f *Fake) Millis() uint64 {
	return f.now.Load()
}

// Set moves the clock to an absolute tick.
func (f *Fake) Set(ms uint64) {
	f.now.Store(ms)
}

// Advance moves the clock forward by d milliseconds.
func (f *Fake) Advance(d uint64) {
	f.now.Add(d)
}
