package basic

import "github.com/dyluth/ember/internal/hal"

// BreathState is the phase of the breathing-LED effect.
type BreathState int

const (
	BreathOff BreathState = iota
	BreathFadingUp
	BreathFadingDown
)

func (s BreathState) String() string {
	switch s {
	case BreathFadingUp:
		return "fading-up"
	case BreathFadingDown:
		return "fading-down"
	default:
		return "off"
	}
}

// fadeStep is the brightness change per breathing step.
const fadeStep = 5

// breather ramps brightness between 0 and hal.MaxBrightness, one step per
// interval, flipping direction at each end of the range.
type breather struct {
	enabled    bool
	brightness int
	step       int
	interval   uint64
	lastStep   uint64
}

func newBreather(interval uint64) breather {
	return breather{step: fadeStep, interval: interval}
}

// start restarts the effect from dark, fading up.
func (b *breather) start(now uint64) {
	b.enabled = true
	b.brightness = 0
	b.step = fadeStep
	b.lastStep = now
}

func (b *breather) stop() {
	b.enabled = false
}

// advance takes one step if the interval has elapsed. Reports whether the
// brightness changed.
func (b *breather) advance(now uint64) bool {
	if !b.enabled || now-b.lastStep < b.interval {
		return false
	}
	b.lastStep = now

	b.brightness += b.step
	if b.brightness >= hal.MaxBrightness {
		b.brightness = hal.MaxBrightness
		b.step = -fadeStep
	} else if b.brightness <= 0 {
		b.brightness = 0
		b.step = fadeStep
	}
	return true
}

func (b *breather) state() BreathState {
	switch {
	case !b.enabled:
		return BreathOff
	case b.step > 0:
		return BreathFadingUp
	default:
		return BreathFadingDown
	}
}
