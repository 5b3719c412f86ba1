package scan

const (
	// IndicatorLow is the phase at which the indicator starts brightening.
	IndicatorLow = 98
	// IndicatorHigh is the phase at which the indicator starts dimming.
	IndicatorHigh = 164
)

// Color is a status pixel color. Channels are not limited to a byte; see
// RGB.
type Color struct {
	R, G, B int
}

// RGB returns the color as bytes. Channels are truncated to their low byte,
// the same way the pixel buffer stores them.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c.R), uint8(c.G), uint8(c.B)
}

// Wheel maps a phase to a shade of red. Phases outside [0, 255] are black.
func Wheel(pos int) Color {
	if pos < 0 || pos > 255 {
		return Color{}
	}
	return Color{R: pos * 3}
}

// Indicator pulses the status pixel between shades of red. Its phase starts
// at 0 and rises until it enters [IndicatorLow, IndicatorHigh], which it then
// bounces within forever.
type Indicator struct {
	phase int
	dir   int
}

// NewIndicator creates a new indicator at phase 0.
func NewIndicator() *Indicator {
	return &Indicator{dir: 1}
}

// Phase returns the current phase.
func (i *Indicator) Phase() int { return i.phase }

// Color returns the color for the current phase.
func (i *Indicator) Color() Color { return Wheel(i.phase) }

// Advance moves the phase by one, reversing direction at the bounds.
func (i *Indicator) Advance() {
	switch {
	case i.phase >= IndicatorHigh:
		i.dir = -1
	case i.phase <= IndicatorLow:
		i.dir = 1
	}
	i.phase += i.dir
}
