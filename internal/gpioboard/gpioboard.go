// Package gpioboard drives the scanner from the GPIO header of a Linux board
// such as a Raspberry Pi, using periph.io.
package gpioboard

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// NumChannels is the number of PWM channels of the scanner.
const NumChannels = 3

// Config is the pin configuration of the board.
type Config struct {
	// Channels are the names of the three PWM pins.
	Channels []string
	// Button is the name of the button pin. It is pulled up.
	Button string
	// Indicator is the name of an optional PWM pin for the status light.
	Indicator string
	// Frequency is the PWM frequency in Hz.
	Frequency int
}

// Board is a scanner wired to the host's GPIO pins.
//
// The host has no analog input, so ReadAnalog always reads 0. The status
// light is a single PWM pin driven by the red channel only, which is the only
// channel the indicator ever lights.
type Board struct {
	channels  [NumChannels]gpio.PinIO
	button    gpio.PinIO
	indicator gpio.PinIO // nil if absent
	freq      physic.Frequency
}

// Open initializes the host drivers and claims the configured pins.
func Open(cfg Config) (*Board, error) {
	if len(cfg.Channels) != NumChannels {
		return nil, fmt.Errorf("need %d channel pins, got %d", NumChannels, len(cfg.Channels))
	}

	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph host")
	}

	b := &Board{
		freq: physic.Frequency(cfg.Frequency) * physic.Hertz,
	}

	for i, name := range cfg.Channels {
		pin, err := lookupPin(name)
		if err != nil {
			return nil, errors.Wrapf(err, "channel %d", i)
		}
		b.channels[i] = pin
	}

	button, err := lookupPin(cfg.Button)
	if err != nil {
		return nil, errors.Wrap(err, "button")
	}
	if err := button.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "failed to configure button pin %s", button)
	}
	b.button = button

	if cfg.Indicator != "" {
		indicator, err := lookupPin(cfg.Indicator)
		if err != nil {
			return nil, errors.Wrap(err, "indicator")
		}
		b.indicator = indicator
	}

	for ch := range b.channels {
		if err := b.SetDuty(ch, 0); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func lookupPin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, errors.New("no pin configured")
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return pin, nil
}

// Duty converts a 16-bit duty cycle to a periph duty cycle.
func Duty(duty uint16) gpio.Duty {
	return gpio.Duty(uint64(duty) * uint64(gpio.DutyMax) / 0xFFFF)
}

// SetDuty implements lightscan.Board.
func (b *Board) SetDuty(ch int, duty uint16) error {
	if ch < 0 || ch >= NumChannels {
		return fmt.Errorf("invalid channel %d", ch)
	}
	pin := b.channels[ch]
	if err := pin.PWM(Duty(duty), b.freq); err != nil {
		return errors.Wrapf(err, "failed to set PWM on %s", pin)
	}
	return nil
}

// SetIndicator implements lightscan.Board.
func (b *Board) SetIndicator(r, _, _ uint8) error {
	if b.indicator == nil {
		return nil
	}
	duty := uint16(r) * 0x0101 // 0xFF -> 0xFFFF
	if err := b.indicator.PWM(Duty(duty), b.freq); err != nil {
		return errors.Wrapf(err, "failed to set PWM on %s", b.indicator)
	}
	return nil
}

// ReadAnalog implements lightscan.Board.
func (b *Board) ReadAnalog() (uint16, error) {
	return 0, nil
}

// ReadButton implements lightscan.Board.
func (b *Board) ReadButton() (bool, error) {
	return b.button.Read() == gpio.High, nil
}

// Sleep implements lightscan.Board.
func (b *Board) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Close stops all PWM output.
func (b *Board) Close() error {
	var firstErr error
	for _, pin := range b.allOutputs() {
		if err := pin.Halt(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "failed to halt %s", pin)
		}
	}
	return firstErr
}

func (b *Board) allOutputs() []gpio.PinIO {
	pins := b.channels[:]
	if b.indicator != nil {
		pins = append(pins[:len(pins):len(pins)], b.indicator)
	}
	return pins
}
