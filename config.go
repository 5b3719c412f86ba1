package lightscan

import (
	"encoding"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"libdb.so/lightscan/pattern"
	"libdb.so/lightscan/scan"
)

// Config is the configuration for the scanner daemon.
type Config struct {
	// MediaDir is the directory holding the media files played on a button
	// press.
	MediaDir string `toml:"media_dir"`
	// MaxIterations is how many full passes of the pattern a scan makes.
	MaxIterations int `toml:"max_iterations"`
	// Pattern is the name of the scan pattern. Unknown names fall back to
	// pattern.Default.
	Pattern string `toml:"pattern"`
	// Board is the configuration for the board driving the lights.
	Board BoardConfig `toml:"board"`
	// Player is the configuration for the media player.
	Player PlayerConfig `toml:"player"`
}

// BoardKind is the kind of board the daemon drives.
type BoardKind string

const (
	// SerialBoard is a microcontroller running the pwmserial firmware,
	// reached over a serial port.
	SerialBoard BoardKind = "serial"
	// GPIOBoard is the GPIO header of the host itself.
	GPIOBoard BoardKind = "gpio"
)

// BoardConfig is the configuration for the board.
type BoardConfig struct {
	Kind BoardKind `toml:"kind"`

	// Device is the path to the serial device of a SerialBoard.
	// This is usually /dev/ttyACM0.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// Timeout is how long to wait for the board to reply.
	Timeout TOMLDuration `toml:"timeout"`

	// GPIO is the pin configuration of a GPIOBoard.
	GPIO GPIOConfig `toml:"gpio"`
}

// GPIOConfig is the pin configuration of a GPIOBoard. Pins are named the way
// periph.io names them, e.g. "GPIO12".
type GPIOConfig struct {
	// Channels are the three PWM pins of the scanner, in channel order.
	Channels []string `toml:"channels"`
	// Button is the button input pin. It is pulled up and active-low.
	Button string `toml:"button"`
	// Indicator is an optional PWM pin for the status light.
	Indicator string `toml:"indicator"`
	// Frequency is the PWM frequency in Hz.
	Frequency int `toml:"frequency"`
}

// PlayerConfig is the configuration for the media player.
type PlayerConfig struct {
	// Command is the player command. The media file path is appended to it.
	Command []string `toml:"command"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.MediaDir == "" {
		c.MediaDir = "/media"
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = scan.DefaultMaxIterations
	}
	if c.Pattern == "" {
		c.Pattern = pattern.Default
	}
	if c.Board.Kind == "" {
		c.Board.Kind = SerialBoard
	}
	if c.Board.Kind == SerialBoard && c.Board.Device == "" {
		c.Board.Device = "/dev/ttyACM0"
	}
	if c.Board.Baud == 0 {
		c.Board.Baud = 115200
	}
	if c.Board.Timeout == 0 {
		c.Board.Timeout = TOMLDuration(500 * time.Millisecond)
	}
	if c.Board.GPIO.Frequency == 0 {
		c.Board.GPIO.Frequency = 10
	}
}

// Validate validates the configuration. An unknown pattern name is not an
// error; see ResolvePattern.
func (c *Config) Validate() error {
	if c.MediaDir == "" {
		return errors.New("no media directory configured")
	}

	if c.MaxIterations < 1 {
		return fmt.Errorf("invalid max_iterations %d", c.MaxIterations)
	}

	switch c.Board.Kind {
	case SerialBoard:
		if c.Board.Device == "" {
			return errors.New("serial board has no device configured")
		}
		if c.Board.Baud < 1 {
			return fmt.Errorf("invalid baud rate %d", c.Board.Baud)
		}
		if c.Board.Timeout <= 0 {
			return fmt.Errorf("invalid board timeout %v", time.Duration(c.Board.Timeout))
		}
	case GPIOBoard:
		if len(c.Board.GPIO.Channels) != scan.NumChannels {
			return fmt.Errorf("gpio board needs %d channel pins, got %d",
				scan.NumChannels, len(c.Board.GPIO.Channels))
		}
		if c.Board.GPIO.Button == "" {
			return errors.New("gpio board has no button pin configured")
		}
		if c.Board.GPIO.Frequency < 1 {
			return fmt.Errorf("invalid PWM frequency %d", c.Board.GPIO.Frequency)
		}
	default:
		return fmt.Errorf("unknown board kind %q", c.Board.Kind)
	}

	return nil
}

// ResolvePattern returns the configured pattern. An unknown name resolves to
// pattern.Default; ok is false in that case.
func (c *Config) ResolvePattern() (p pattern.Pattern, ok bool) {
	return pattern.Resolve(c.Pattern)
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a configuration from a reader. Missing values are
// filled in with their defaults.
func ParseConfig(r io.Reader) (*Config, error) {
	var config Config
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, err
	}
	config.applyDefaults()
	return &config, nil
}
