package main

import (
	"errors"
	"fmt"
	"image/color"
	"machine"

	"tinygo.org/x/drivers/apa102"
)

// Pin assignments of the ItsyBitsy M0 Express.
var (
	channelPins = [...]machine.Pin{machine.D9, machine.D10, machine.D11}
	buttonPin   = machine.A4
	analogPin   = machine.A1
	statusPin   = machine.D13

	dotStarClock = machine.PA01
	dotStarData  = machine.PA00
)

const (
	// pwmPeriod is the period of the scanner channels, 10 Hz.
	pwmPeriod = 1e9 / 10
	// dotStarBrightness is the global brightness of the status pixel, which
	// the APA102 driver reads from the alpha channel.
	dotStarBrightness = 0x80
)

var timers = [...]*machine.TCC{machine.TCC0, machine.TCC1, machine.TCC2}

type pwmChannel struct {
	timer   *machine.TCC
	channel uint8
}

func (c pwmChannel) set(duty uint16) {
	c.timer.Set(c.channel, uint32(uint64(c.timer.Top())*uint64(duty)/0xFFFF))
}

type colorWriter interface {
	WriteColors([]color.RGBA) (int, error)
}

// board is the hardware attached to the microcontroller.
type board struct {
	channels [len(channelPins)]pwmChannel
	dotStar  colorWriter
	adc      machine.ADC
	button   machine.Pin
}

func newBoard() (*board, error) {
	b := &board{button: buttonPin}

	for _, timer := range timers {
		if err := timer.Configure(machine.PWMConfig{Period: pwmPeriod}); err != nil {
			return nil, fmt.Errorf("failed to configure PWM timer: %w", err)
		}
	}

	for i, pin := range channelPins {
		ch, err := pwmChannelFor(pin)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		b.channels[i] = ch
		ch.set(0)
	}

	machine.InitADC()
	b.adc = machine.ADC{Pin: analogPin}
	b.adc.Configure(machine.ADCConfig{})

	b.button.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	b.dotStar = apa102.NewSoftwareSPI(dotStarClock, dotStarData, 1)
	b.setDotStar(0, 0, 0)

	return b, nil
}

// pwmChannelFor finds a timer that can drive the given pin. Pins on the
// SAMD21 are each wired to only some of its timers.
func pwmChannelFor(pin machine.Pin) (pwmChannel, error) {
	for _, timer := range timers {
		ch, err := timer.Channel(pin)
		if err == nil {
			return pwmChannel{timer: timer, channel: ch}, nil
		}
	}
	return pwmChannel{}, errors.New("pin has no PWM timer")
}

func (b *board) setDuty(ch uint8, duty uint16) error {
	if int(ch) >= len(b.channels) {
		return fmt.Errorf("invalid channel %d", ch)
	}
	b.channels[ch].set(duty)
	return nil
}

func (b *board) setDotStar(r, g, bl uint8) error {
	_, err := b.dotStar.WriteColors([]color.RGBA{{R: r, G: g, B: bl, A: dotStarBrightness}})
	return err
}

func (b *board) readAnalog() uint16 {
	return b.adc.Get()
}

func (b *board) readButton() bool {
	return b.button.Get()
}
