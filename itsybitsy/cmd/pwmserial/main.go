// Command pwmserial is the scanner board firmware. It executes pwmserial
// packets from the host on the board's PWM channels, status pixel, analog
// input and button.
package main

import (
	"machine"
	"time"
)

func main() {
	// Allow USB CDC to enumerate before we talk.
	time.Sleep(time.Second)

	initStatus()

	d := NewDevice(usbSerial{Serialer: machine.Serial}, nil)

	b, err := newBoard()
	if err != nil {
		d.panic(err)
	}
	d.board = b

	d.Run()
}
