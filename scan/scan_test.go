package scan

import (
	"errors"
	"testing"
	"time"

	"libdb.so/lightscan/pattern"
)

type recordedOutputs struct {
	duty   [NumChannels]uint16
	writes int
	sleeps []time.Duration
}

func (o *recordedOutputs) SetDuty(ch int, duty uint16) error {
	o.duty[ch] = duty
	o.writes++
	return nil
}

func (o *recordedOutputs) Sleep(d time.Duration) {
	o.sleeps = append(o.sleeps, d)
}

func (o *recordedOutputs) zero() bool {
	return o.duty == [NumChannels]uint16{}
}

func TestRampDuty(t *testing.T) {
	tests := []struct {
		brightness int
		duty       uint16
	}{
		{-5, 0},
		{0, 0},
		{1, 436},
		{75, 32767},
		{149, 65098},
		{150, 65535},
		{151, 65535},
	}

	for _, test := range tests {
		if duty := RampDuty(test.brightness); duty != test.duty {
			t.Errorf("RampDuty(%d) = %d, want %d", test.brightness, duty, test.duty)
		}
	}

	var last uint16
	for b := 0; b <= MaxBrightness; b++ {
		duty := RampDuty(b)
		if duty != uint16(b*65535/150) {
			t.Fatalf("RampDuty(%d) = %d, want %d", b, duty, b*65535/150)
		}
		if duty < last {
			t.Fatalf("RampDuty(%d) = %d decreased from %d", b, duty, last)
		}
		last = duty
	}
}

func TestRamp(t *testing.T) {
	var out recordedOutputs
	ramp := NewRamp()

	for tick := 1; tick < RampTicks; tick++ {
		done, err := ramp.Tick(&out)
		if err != nil {
			t.Fatal("unexpected error:", err)
		}
		if done {
			t.Fatalf("ramp finished early at tick %d", tick)
		}
		if ramp.Brightness() != tick {
			t.Fatalf("tick %d: brightness = %d", tick, ramp.Brightness())
		}
		want := RampDuty(tick)
		if out.duty != [NumChannels]uint16{want, want, want} {
			t.Fatalf("tick %d: duty = %v, want %d on all channels", tick, out.duty, want)
		}
	}

	if len(out.sleeps) != 0 {
		t.Fatalf("ramp slept before its last tick: %v", out.sleeps)
	}

	done, err := ramp.Tick(&out)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if !done {
		t.Fatal("ramp did not finish on its last tick")
	}
	if ramp.Active() {
		t.Fatal("ramp still active after finishing")
	}
	if len(out.sleeps) != 1 || out.sleeps[0] != RampPause {
		t.Fatalf("ramp sleeps = %v, want [%v]", out.sleeps, RampPause)
	}
	if !out.zero() {
		t.Fatalf("outputs not cleared after ramp: %v", out.duty)
	}

	writes := out.writes
	for i := 0; i < 10; i++ {
		done, err := ramp.Tick(&out)
		if err != nil || done {
			t.Fatalf("inactive ramp ticked: done=%v err=%v", done, err)
		}
	}
	if out.writes != writes {
		t.Fatal("inactive ramp wrote to outputs")
	}
}

func TestScannerIdle(t *testing.T) {
	var out recordedOutputs
	scanner := NewScanner(6)

	if err := scanner.Tick(&out, pattern.Alpha); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if out.writes != 0 || len(out.sleeps) != 0 {
		t.Fatal("idle scanner touched outputs")
	}
}

func TestScannerAlpha(t *testing.T) {
	const maxIterations = 6

	var out recordedOutputs
	scanner := NewScanner(maxIterations)
	scanner.Start()

	total := maxIterations * pattern.Alpha.Len()
	if total != 24 {
		t.Fatalf("unexpected total %d", total)
	}

	for i := 1; i <= total; i++ {
		wantOffset := (i-1)%pattern.Alpha.Len() + 1

		if err := scanner.Tick(&out, pattern.Alpha); err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if !scanner.Running() {
			t.Fatalf("step %d: scanner stopped early", i)
		}
		if scanner.Completed() != i {
			t.Fatalf("step %d: completed = %d", i, scanner.Completed())
		}
		if scanner.Completed() > total {
			t.Fatalf("step %d: completed exceeded bound", i)
		}

		want := pattern.Alpha.Steps[wantOffset-1]
		if out.duty != [NumChannels]uint16(want) {
			t.Fatalf("step %d: duty = %v, want %v (offset %d)", i, out.duty, want, wantOffset)
		}
	}

	if len(out.sleeps) != total {
		t.Fatalf("slept %d times, want %d", len(out.sleeps), total)
	}
	for _, d := range out.sleeps {
		if d != pattern.Alpha.Interval {
			t.Fatalf("slept %v, want %v", d, pattern.Alpha.Interval)
		}
	}

	// Bound reached: the next tick stops the scan.
	if err := scanner.Tick(&out, pattern.Alpha); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if scanner.Running() {
		t.Fatal("scanner still running after the bound was reached")
	}
	if scanner.Completed() != 0 || scanner.Offset() != 1 {
		t.Fatalf("scanner not reset: completed=%d offset=%d", scanner.Completed(), scanner.Offset())
	}
	if !out.zero() {
		t.Fatalf("outputs not cleared: %v", out.duty)
	}
	if len(out.sleeps) != total {
		t.Fatal("stopping tick slept")
	}
}

func TestScannerOffsetSequence(t *testing.T) {
	var out recordedOutputs
	scanner := NewScanner(2)
	scanner.Start()

	p := pattern.Beta
	var offsets []int
	for scanner.Running() {
		offset := scanner.Offset()
		if offset > p.Len() {
			offset = 1
		}
		if err := scanner.Tick(&out, p); err != nil {
			t.Fatal("unexpected error:", err)
		}
		if scanner.Running() {
			offsets = append(offsets, offset)
		}
	}

	if len(offsets) != 2*p.Len() {
		t.Fatalf("took %d steps, want %d", len(offsets), 2*p.Len())
	}
	for i, offset := range offsets {
		if want := i%p.Len() + 1; offset != want {
			t.Fatalf("step %d: offset %d, want %d", i, offset, want)
		}
	}
}

func TestScannerStartWhileRunning(t *testing.T) {
	var out recordedOutputs
	scanner := NewScanner(6)
	scanner.Start()

	for i := 0; i < 5; i++ {
		if err := scanner.Tick(&out, pattern.Alpha); err != nil {
			t.Fatal("unexpected error:", err)
		}
	}

	before := *scanner
	scanner.Start()
	if *scanner != before {
		t.Fatalf("Start changed a running scanner: %+v -> %+v", before, *scanner)
	}
}

func TestScannerIndexError(t *testing.T) {
	var out recordedOutputs
	scanner := NewScanner(1)
	scanner.Start()

	broken := pattern.Pattern{Name: "broken"}

	// An empty pattern has no steps to draw, so the bound is reached at once
	// and the scanner stops cleanly.
	if err := scanner.Tick(&out, broken); err != nil {
		t.Fatal("unexpected error:", err)
	}

	scanner = &Scanner{maxIterations: 1, running: true, offset: 0}
	err := scanner.Tick(&out, pattern.Alpha)

	var indexErr *pattern.IndexError
	if !errors.As(err, &indexErr) {
		t.Fatalf("Tick with a corrupt offset returned %v, want *pattern.IndexError", err)
	}
}

func TestWheel(t *testing.T) {
	tests := []struct {
		pos   int
		color Color
		rgb   [3]uint8
	}{
		{-1, Color{}, [3]uint8{}},
		{256, Color{}, [3]uint8{}},
		{0, Color{}, [3]uint8{}},
		{85, Color{R: 255}, [3]uint8{255, 0, 0}},
		{98, Color{R: 294}, [3]uint8{38, 0, 0}},
		{164, Color{R: 492}, [3]uint8{236, 0, 0}},
		{255, Color{R: 765}, [3]uint8{253, 0, 0}},
	}

	for _, test := range tests {
		c := Wheel(test.pos)
		if c != test.color {
			t.Errorf("Wheel(%d) = %v, want %v", test.pos, c, test.color)
		}
		r, g, b := c.RGB()
		if [3]uint8{r, g, b} != test.rgb {
			t.Errorf("Wheel(%d).RGB() = %v, want %v", test.pos, [3]uint8{r, g, b}, test.rgb)
		}
	}
}

func TestIndicator(t *testing.T) {
	ind := NewIndicator()
	if ind.Phase() != 0 {
		t.Fatalf("initial phase %d", ind.Phase())
	}

	for ind.Phase() < IndicatorHigh {
		prev := ind.Phase()
		ind.Advance()
		if ind.Phase() != prev+1 {
			t.Fatalf("phase went from %d to %d while rising", prev, ind.Phase())
		}
	}

	// Steady state: bounce within the bounds, reversing exactly at them.
	var lows, highs int
	for i := 0; i < 1000; i++ {
		prev := ind.Phase()
		ind.Advance()
		phase := ind.Phase()

		if phase < IndicatorLow || phase > IndicatorHigh {
			t.Fatalf("phase %d escaped [%d, %d]", phase, IndicatorLow, IndicatorHigh)
		}

		switch prev {
		case IndicatorHigh:
			highs++
			if phase != IndicatorHigh-1 {
				t.Fatalf("phase did not reverse at the upper bound: %d -> %d", prev, phase)
			}
		case IndicatorLow:
			lows++
			if phase != IndicatorLow+1 {
				t.Fatalf("phase did not reverse at the lower bound: %d -> %d", prev, phase)
			}
		}
	}

	if lows == 0 || highs == 0 {
		t.Fatalf("indicator did not oscillate: lows=%d highs=%d", lows, highs)
	}
}
