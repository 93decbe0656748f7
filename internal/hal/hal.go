// Package hal is the thin boundary between modules and the hardware they
// drive. The daemon runs against simulated devices that record and log their
// state.
package hal

import (
	"log"
	"sync"
)

// MaxBrightness is the top of the LED PWM range.
const MaxBrightness = 255

// LED is the on-board status LED.
type LED interface {
	// Set drives the LED fully on or off.
	Set(on bool)

	// SetBrightness drives the LED with a PWM level in [0, MaxBrightness].
	SetBrightness(level int)
}

// Restarter performs a device restart. Implementations must not block.
type Restarter interface {
	Restart()
}

// RestarterFunc adapts a function to Restarter.
type RestarterFunc func()

// Restart calls f.
func (f RestarterFunc) Restart() { f() }

// SimLED is an in-memory LED. It is safe for concurrent reads while the
// control loop writes.
type SimLED struct {
	mu         sync.RWMutex
	brightness int
	writes     int
	verbose    bool
}

// NewSimLED returns an LED that starts off. When verbose, every on/off write
// is logged; PWM steps are never logged.
func NewSimLED(verbose bool) *SimLED {
	return &SimLED{verbose: verbose}
}

// Set drives the LED fully on or off.
func (l *SimLED) Set(on bool) {
	level := 0
	if on {
		level = MaxBrightness
	}

	l.mu.Lock()
	l.brightness = level
	l.writes++
	l.mu.Unlock()

	if l.verbose {
		log.Printf("[LED] digital write: on=%v", on)
	}
}

// SetBrightness drives the LED with a clamped PWM level.
func (l *SimLED) SetBrightness(level int) {
	level = max(0, min(level, MaxBrightness))

	l.mu.Lock()
	l.brightness = level
	l.writes++
	l.mu.Unlock()
}

// Brightness returns the last written level.
func (l *SimLED) Brightness() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.brightness
}

// On reports whether the LED is lit at all.
func (l *SimLED) On() bool {
	return l.Brightness() > 0
}

// Writes returns the number of writes performed.
func (l *SimLED) Writes() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.writes
}
