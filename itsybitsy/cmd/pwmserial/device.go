package main

import (
	"fmt"
	"io"

	"libdb.so/lightscan/pwmserial"
)

// Device stores the current state of the device.
type Device struct {
	serial io.ReadWriter
	board  *board
}

// NewDevice creates a new device.
func NewDevice(serial io.ReadWriter, board *board) *Device {
	return &Device{
		serial: serial,
		board:  board,
	}
}

// Run runs the device loop forever.
func (d *Device) Run() {
	for {
		p, err := d.readPacket()
		if err != nil {
			d.logError(err)
			continue
		}

		reply, err := d.handlePacket(p)
		if err != nil {
			d.logError(err)
			continue
		}

		d.sendPacket(reply)
	}
}

func (d *Device) panic(err error) {
	d.logError(err)
	d.sendPacket(pwmserial.PanicPacket{})
	panic("device panic")
}

func (d *Device) logError(err error) {
	d.sendPacket(pwmserial.ErrorPacket{Message: err.Error()})
}

func (d *Device) sendPacket(p pwmserial.OutgoingPacket) {
	pwmserial.WriteOutgoingPacket(d.serial, p)
}

func (d *Device) readPacket() (pwmserial.IncomingPacket, error) {
	statusOn()
	defer statusOff()

	return pwmserial.ReadIncomingPacket(d.serial)
}

func (d *Device) handlePacket(p pwmserial.IncomingPacket) (pwmserial.OutgoingPacket, error) {
	switch p := p.(type) {
	case pwmserial.SetDutyPacket:
		if err := d.board.setDuty(p.Channel, p.Duty); err != nil {
			return nil, err
		}

	case pwmserial.SetIndicatorPacket:
		if err := d.board.setDotStar(p.R, p.G, p.B); err != nil {
			return nil, fmt.Errorf("failed to write status pixel: %w", err)
		}

	case pwmserial.ReadAnalogPacket:
		return pwmserial.AnalogPacket{Raw: d.board.readAnalog()}, nil

	case pwmserial.ReadButtonPacket:
		return pwmserial.ButtonPacket{High: d.board.readButton()}, nil

	default:
		return nil, fmt.Errorf("unknown packet type: %T", p)
	}

	return pwmserial.AckPacket{IncomingPacketType: p.Type()}, nil
}
