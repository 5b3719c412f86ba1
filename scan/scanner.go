package scan

import (
	"libdb.so/lightscan/pattern"
)

// DefaultMaxIterations is the default number of full pattern passes per scan.
const DefaultMaxIterations = 6

// Scanner sweeps a pattern across the channels for a bounded number of full
// passes. It is either idle or running.
type Scanner struct {
	maxIterations int
	running       bool
	completed     int
	offset        int
}

// NewScanner creates a new idle scanner that runs maxIterations passes per
// scan. A non-positive maxIterations is replaced by DefaultMaxIterations.
func NewScanner(maxIterations int) *Scanner {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Scanner{
		maxIterations: maxIterations,
		offset:        1,
	}
}

// Start starts a scan. It is a no-op if the scanner is already running; a
// running scan is never restarted.
func (s *Scanner) Start() { s.running = true }

// Running returns true if a scan is in progress.
func (s *Scanner) Running() bool { return s.running }

// Completed returns the number of steps taken in the current scan.
func (s *Scanner) Completed() int { return s.completed }

// Offset returns the 1-indexed offset of the next step to draw. It may be one
// past the pattern length, in which case it wraps on the next tick.
func (s *Scanner) Offset() int { return s.offset }

// MaxIterations returns the number of passes per scan.
func (s *Scanner) MaxIterations() int { return s.maxIterations }

// Tick advances a running scan by one step of p. The step's duty cycles are
// drawn, then Tick blocks for the pattern's interval. Once the scan has taken
// MaxIterations * p.Len() steps, the next Tick clears the channels and stops
// the scanner instead.
//
// Tick does nothing if the scanner is idle. The returned error is either an
// output error or a *pattern.IndexError, which means the offset bookkeeping is
// broken.
func (s *Scanner) Tick(out Outputs, p pattern.Pattern) error {
	if !s.running {
		return nil
	}

	if s.completed >= s.maxIterations*p.Len() {
		s.completed = 0
		s.offset = 1
		s.running = false
		return setAll(out, 0)
	}

	s.completed++

	if s.offset > p.Len() {
		s.offset = 1
	}

	step, err := p.At(s.offset)
	if err != nil {
		return err
	}

	for ch, duty := range step {
		if err := out.SetDuty(ch, duty); err != nil {
			return err
		}
	}

	out.Sleep(p.Interval)
	s.offset++

	return nil
}
