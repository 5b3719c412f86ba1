package scan

import "time"

const (
	// MaxBrightness is the brightness at which the ramp drives the channels
	// fully on.
	MaxBrightness = 150
	// RampTicks is the number of ticks the ramp lasts.
	RampTicks = 149
	// RampPause is how long the ramp holds its last brightness before the
	// channels are cleared.
	RampPause = time.Second
)

// RampDuty returns the duty cycle for the given ramp brightness. Brightness is
// clamped to [0, MaxBrightness].
func RampDuty(brightness int) uint16 {
	brightness = clamp(brightness, 0, MaxBrightness)
	return uint16(brightness * 0xFFFF / MaxBrightness)
}

// Ramp is the "All Lights On" animation played once at boot. All channels are
// faded in together, held for RampPause, then cleared.
type Ramp struct {
	active     bool
	brightness int
	ticks      int
}

// NewRamp creates a new active ramp.
func NewRamp() *Ramp {
	return &Ramp{active: true}
}

// Active returns true if the ramp has not finished yet. Once it returns false,
// it never returns true again.
func (r *Ramp) Active() bool { return r.active }

// Brightness returns the current brightness in [0, MaxBrightness].
func (r *Ramp) Brightness() int { return r.brightness }

// Ticks returns the number of ticks the ramp has run for.
func (r *Ramp) Ticks() int { return r.ticks }

// Tick advances the ramp by one step and draws it. done is true on the tick
// that finishes the ramp; the caller is expected to start the scanner then.
// Tick does nothing once the ramp is inactive.
//
// The finishing tick blocks for RampPause.
func (r *Ramp) Tick(out Outputs) (done bool, err error) {
	if !r.active {
		return false, nil
	}

	r.brightness = clamp(r.brightness+1, 0, MaxBrightness)
	if err := setAll(out, RampDuty(r.brightness)); err != nil {
		return false, err
	}

	r.ticks++
	if r.ticks < RampTicks {
		return false, nil
	}

	out.Sleep(RampPause)
	if err := setAll(out, 0); err != nil {
		return false, err
	}

	r.active = false
	return true, nil
}
