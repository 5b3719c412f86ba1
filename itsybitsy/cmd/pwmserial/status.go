package main

import "machine"

// The red LED on D13 is lit while the device waits for a packet.

func initStatus() {
	statusPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	statusPin.Low()
}

func statusOn() {
	statusPin.High()
}

func statusOff() {
	statusPin.Low()
}
