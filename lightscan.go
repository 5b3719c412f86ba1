// Package lightscan implements the scanner daemon: a control loop that ramps
// three PWM light channels up at boot, sweeps a scan pattern across them
// whenever its button is pressed, and plays a random sound before each sweep.
package lightscan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"libdb.so/lightscan/media"
	"libdb.so/lightscan/pattern"
	"libdb.so/lightscan/scan"
)

// Board is the hardware the daemon drives: three PWM channels, a status
// light, an analog input and a button input.
type Board interface {
	scan.Outputs
	// SetIndicator sets the color of the status light.
	SetIndicator(r, g, b uint8) error
	// ReadAnalog reads the analog input as a 16-bit value.
	ReadAnalog() (uint16, error)
	// ReadButton returns true if the button input is electrically high.
	// The button is active-low, so true means released.
	ReadButton() (bool, error)
}

// AnalogReference is the reference voltage of the analog input.
const AnalogReference = 3.3

// Voltage converts a raw analog reading to volts.
func Voltage(raw uint16) float64 {
	return float64(raw) * AnalogReference / 65536
}

// Daemon is the scanner daemon. It owns all of the scanner state and is not
// safe for concurrent use.
type Daemon struct {
	cfg     *Config
	logger  *slog.Logger
	board   Board
	player  media.Player
	library media.Library
	pattern pattern.Pattern

	telemetry io.Writer
	rand      *rand.Rand

	ramp      *scan.Ramp
	scanner   *scan.Scanner
	indicator *scan.Indicator
}

// NewDaemon creates a new scanner daemon. The media library is listed once
// here and never again.
func NewDaemon(cfg *Config, board Board, player media.Player, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	p, ok := cfg.ResolvePattern()
	if !ok {
		logger.Warn(
			"unknown scan pattern, using default",
			"pattern", cfg.Pattern,
			"default", p.Name)
	}

	library, err := media.List(cfg.MediaDir, media.Extension)
	if err != nil {
		return nil, err
	}

	logger.Debug(
		"listed media library",
		"dir", library.Dir,
		"entries", library.Len())

	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		board:     board,
		player:    player,
		library:   library,
		pattern:   p,
		telemetry: os.Stdout,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		ramp:      scan.NewRamp(),
		scanner:   scan.NewScanner(cfg.MaxIterations),
		indicator: scan.NewIndicator(),
	}, nil
}

// SetTelemetryOutput sets where the per-tick telemetry lines are written.
// The default is stdout.
func (d *Daemon) SetTelemetryOutput(w io.Writer) {
	d.telemetry = w
}

// SetRand sets the random source used to pick media files.
func (d *Daemon) SetRand(r *rand.Rand) {
	d.rand = r
}

// Pattern returns the scan pattern in use.
func (d *Daemon) Pattern() pattern.Pattern { return d.pattern }

// Library returns the media library.
func (d *Daemon) Library() media.Library { return d.library }

// Ramping returns true while the startup ramp is running.
func (d *Daemon) Ramping() bool { return d.ramp.Active() }

// Scanner returns the scanner. It is meant for inspection only.
func (d *Daemon) Scanner() *scan.Scanner { return d.scanner }

// Run runs the control loop until the given context is canceled. A failed
// playback only fails the tick it happened in; any other error stops the
// loop and is returned.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info(
		"starting scanner",
		"pattern", d.pattern.Name,
		"max_iterations", d.scanner.MaxIterations(),
		"media", d.library.Len())

	for ctx.Err() == nil {
		err := d.Tick(ctx)
		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			break
		}

		var playErr *media.PlaybackError
		if errors.As(err, &playErr) {
			d.logger.Warn(
				"playback failed",
				"entry", playErr.Entry,
				"error", playErr.Err)
			continue
		}

		return err
	}

	return ctx.Err()
}

// Tick runs one iteration of the control loop. It pulses the status light,
// reads the analog input, advances the startup ramp or the scanner, then
// handles the button. Several steps block: the end of the ramp, each scanner
// step, and playback.
//
// A button press while the scanner is idle plays a random media file first,
// then starts the scanner. If playback fails, a *media.PlaybackError is
// returned and the scanner stays idle. Presses while the scanner is running,
// and any press during the startup ramp, are dropped.
func (d *Daemon) Tick(ctx context.Context) error {
	defer d.println()

	r, g, b := d.indicator.Color().RGB()
	if err := d.board.SetIndicator(r, g, b); err != nil {
		return errors.Wrap(err, "failed to set indicator")
	}
	d.indicator.Advance()

	raw, err := d.board.ReadAnalog()
	if err != nil {
		return errors.Wrap(err, "failed to read analog input")
	}
	d.printf("A1: %0.2f\t", Voltage(raw))

	ramping := d.ramp.Active()
	if ramping {
		d.printf("performing 'All Lights On' ...")

		done, err := d.ramp.Tick(d.board)
		if err != nil {
			return errors.Wrap(err, "startup ramp failed")
		}
		if done {
			d.logger.Debug("startup ramp finished, starting scanner")
			d.scanner.Start()
		}
	}

	if d.scanner.Running() {
		d.printf("performing 'Scanner' ...")

		if err := d.scanner.Tick(d.board, d.pattern); err != nil {
			return errors.Wrap(err, "scanner failed")
		}
		if !d.scanner.Running() {
			d.logger.Debug("scan finished")
		}
	}

	if ramping {
		return nil
	}

	high, err := d.board.ReadButton()
	if err != nil {
		return errors.Wrap(err, "failed to read button")
	}
	if high {
		return nil
	}

	if d.scanner.Running() {
		d.printf("Scanner is currently running, ignoring front axis key press")
		return nil
	}

	d.printf("front axis pressed\t")

	if err := d.play(ctx); err != nil {
		return err
	}

	d.scanner.Start()
	return nil
}

func (d *Daemon) play(ctx context.Context) error {
	entry, err := d.library.Choose(d.rand)
	if err != nil {
		return &media.PlaybackError{Err: err}
	}

	d.println()
	d.println("----------------------------------")
	d.println("playing file " + entry)

	d.logger.Debug(
		"playing media",
		"entry", entry)

	if err := d.player.Play(ctx, d.library.Path(entry)); err != nil {
		return &media.PlaybackError{Entry: entry, Err: err}
	}

	d.println("finished")
	d.println("----------------------------------")
	return nil
}

// printf and println write to the telemetry stream. It is for humans only, so
// write errors are ignored.
func (d *Daemon) printf(f string, v ...any) {
	fmt.Fprintf(d.telemetry, f, v...)
}

func (d *Daemon) println(v ...any) {
	fmt.Fprintln(d.telemetry, v...)
}
