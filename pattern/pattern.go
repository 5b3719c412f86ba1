// Package pattern holds the table of scan patterns. A pattern is an ordered,
// 1-indexed sequence of duty-cycle triples for the three scanner channels.
package pattern

import (
	"fmt"
	"time"
)

// Default is the pattern used when the configured name is not registered.
const Default = "alpha"

// Step is one step of a pattern: the duty cycle of each of the three
// channels, in channel order.
type Step [3]uint16

// Pattern is a named scan pattern.
type Pattern struct {
	// Name is the name the pattern is registered under.
	Name string
	// Steps is the sequence of steps. It is never empty.
	Steps []Step
	// Interval is the time spent on each step.
	Interval time.Duration
}

// Len returns the number of steps in the pattern.
func (p Pattern) Len() int {
	return len(p.Steps)
}

// At returns the step at the given 1-indexed offset. An offset outside
// [1, Len()] means the caller lost track of its position, and an *IndexError
// is returned.
func (p Pattern) At(offset int) (Step, error) {
	if offset < 1 || offset > len(p.Steps) {
		return Step{}, &IndexError{Pattern: p.Name, Offset: offset, Len: len(p.Steps)}
	}
	return p.Steps[offset-1], nil
}

// UnknownPatternError is returned when looking up a pattern that is not
// registered.
type UnknownPatternError struct {
	Name string
}

func (err *UnknownPatternError) Error() string {
	return fmt.Sprintf("unknown scan pattern %q", err.Name)
}

// IndexError is returned when a pattern offset is out of range.
type IndexError struct {
	Pattern string
	Offset  int
	Len     int
}

func (err *IndexError) Error() string {
	return fmt.Sprintf("pattern %q: offset %d out of range [1, %d]", err.Pattern, err.Offset, err.Len)
}

// Alpha lights one channel at a time at a static duty cycle, without a
// trailing effect.
var Alpha = Pattern{
	Name:     "alpha",
	Interval: 200 * time.Millisecond,
	Steps: []Step{
		{65000, 0, 0},
		{0, 65000, 0},
		{0, 0, 65000},
		{0, 65000, 0},
	},
}

// Beta blends neighbouring channels at varying duty cycles to simulate
// trailing lights. It flickers visibly at low PWM frequencies.
var Beta = Pattern{
	Name:     "beta",
	Interval: 8 * time.Millisecond,
	Steps: []Step{
		{65000, 0, 0},
		{65000, 13000, 0},
		{65000, 26000, 0},
		{39000, 39000, 0},
		{26000, 52000, 0},
		{13000, 65000, 0},

		{0, 65000, 0},
		{0, 65000, 13000},
		{0, 52000, 25000},
		{0, 39000, 39000},
		{0, 25000, 52000},
		{0, 13000, 65000},

		{0, 0, 65000},
		{0, 13000, 65000},
		{0, 25000, 52000},
		{0, 39000, 39000},
		{0, 52000, 25000},
		{0, 65000, 13000},

		{0, 65000, 0},
		{13000, 65000, 0},
		{26000, 52000, 0},
		{39000, 39000, 0},
		{52000, 26000, 0},
		{65000, 13000, 0},
	},
}

var patterns = []Pattern{Alpha, Beta}

// Names returns the names of all registered patterns.
func Names() []string {
	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.Name
	}
	return names
}

// Lookup returns the pattern registered under name.
func Lookup(name string) (Pattern, error) {
	for _, p := range patterns {
		if p.Name == name {
			return p, nil
		}
	}
	return Pattern{}, &UnknownPatternError{Name: name}
}

// Resolve returns the pattern registered under name, or the Default pattern
// if there is none. The returned boolean is false when the fallback was used.
func Resolve(name string) (Pattern, bool) {
	p, err := Lookup(name)
	if err != nil {
		p, _ = Lookup(Default)
		return p, false
	}
	return p, true
}
