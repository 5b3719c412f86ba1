package main

import (
	"io"
	"machine"
	"runtime"
	"time"
)

// usbSerial adapts a machine.Serialer to io.ReadWriter. Reads wait until at
// least one byte is buffered.
type usbSerial struct {
	machine.Serialer
}

var _ io.ReadWriter = usbSerial{}

func (s usbSerial) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	for s.Buffered() == 0 {
		// Poll slowly; the host waits on every reply anyway.
		time.Sleep(time.Millisecond)
	}

	n := s.Buffered()
	if n > len(b) {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		c, err := s.ReadByte()
		if err != nil {
			return i, err
		}
		b[i] = c
	}

	return n, nil
}

func (s usbSerial) Write(b []byte) (int, error) {
	for i, c := range b {
		if err := s.WriteByte(c); err != nil {
			return i, err
		}
	}
	runtime.Gosched()
	return len(b), nil
}
