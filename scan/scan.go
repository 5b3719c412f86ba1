// Package scan implements the light animations of the scanner board: the
// boot-time ramp, the scanner sweep and the status indicator pulse.
//
// None of the types in this package are safe for concurrent use. They are
// meant to be owned by a single control loop and advanced once per tick.
package scan

import (
	"time"

	"golang.org/x/exp/constraints"
)

// NumChannels is the number of scanner output channels.
const NumChannels = 3

// Outputs is what the animations draw on.
type Outputs interface {
	// SetDuty sets the duty cycle of the given channel in [0, NumChannels).
	SetDuty(ch int, duty uint16) error
	// Sleep blocks for the given duration.
	Sleep(d time.Duration)
}

// setAll sets all channels to the same duty cycle.
func setAll(out Outputs, duty uint16) error {
	for ch := 0; ch < NumChannels; ch++ {
		if err := out.SetDuty(ch, duty); err != nil {
			return err
		}
	}
	return nil
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
