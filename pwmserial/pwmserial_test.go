package pwmserial

import (
	"bytes"
	"errors"
	"testing"
)

func TestIncomingPackets(t *testing.T) {
	packets := []IncomingPacket{
		SetDutyPacket{Channel: 2, Duty: 65000},
		SetIndicatorPacket{R: 38, G: 0, B: 0},
		ReadAnalogPacket{},
		ReadButtonPacket{},
	}

	var buf bytes.Buffer
	for _, p := range packets {
		if err := WriteIncomingPacket(&buf, p); err != nil {
			t.Fatalf("failed to write %s: %v", p.Type(), err)
		}
	}

	// Packets are read back-to-back from the same stream.
	for _, want := range packets {
		got, err := ReadIncomingPacket(&buf)
		if err != nil {
			t.Fatalf("failed to read %s: %v", want.Type(), err)
		}
		if got != want {
			t.Fatalf("read %#v, want %#v", got, want)
		}
	}

	if buf.Len() != 0 {
		t.Fatalf("%d trailing bytes left", buf.Len())
	}
}

func TestOutgoingPackets(t *testing.T) {
	packets := []OutgoingPacket{
		AckPacket{IncomingPacketType: TypeSetIndicatorPacket},
		AnalogPacket{Raw: 32768},
		ButtonPacket{High: true},
		ErrorPacket{Message: "invalid channel 7"},
		PanicPacket{},
		LogPacket{Message: ""},
	}

	var buf bytes.Buffer
	for _, p := range packets {
		if err := WriteOutgoingPacket(&buf, p); err != nil {
			t.Fatalf("failed to write %s: %v", p.Type(), err)
		}
	}

	for _, want := range packets {
		got, err := ReadOutgoingPacket(&buf)
		if err != nil {
			t.Fatalf("failed to read %s: %v", want.Type(), err)
		}
		if got != want {
			t.Fatalf("read %#v, want %#v", got, want)
		}
	}
}

func TestSetDutyEncoding(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteIncomingPacket(&buf, SetDutyPacket{Channel: 1, Duty: 0x1234}); err != nil {
		t.Fatal(err)
	}

	b := buf.Bytes()
	if len(b) != 1+3+4 {
		t.Fatalf("packet is %d bytes, want 8", len(b))
	}
	if !bytes.Equal(b[:4], []byte{byte(TypeSetDutyPacket), 1, 0x34, 0x12}) {
		t.Fatalf("unexpected packet header % x", b[:4])
	}
}

func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutgoingPacket(&buf, AnalogPacket{Raw: 1000}); err != nil {
		t.Fatal(err)
	}

	b := buf.Bytes()
	b[1] ^= 0xFF

	_, err := ReadOutgoingPacket(bytes.NewReader(b))
	if !errors.Is(err, ErrChecksum) {
		t.Fatalf("expected ErrChecksum, got %v", err)
	}
}

func TestUnknownPacketType(t *testing.T) {
	_, err := ReadIncomingPacket(bytes.NewReader([]byte{0xEE}))
	if err == nil {
		t.Fatal("expected error for unknown packet type")
	}

	_, err = ReadOutgoingPacket(bytes.NewReader([]byte{0xEE}))
	if err == nil {
		t.Fatal("expected error for unknown packet type")
	}
}

func TestShortRead(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteIncomingPacket(&buf, SetIndicatorPacket{R: 1, G: 2, B: 3}); err != nil {
		t.Fatal(err)
	}

	_, err := ReadIncomingPacket(bytes.NewReader(buf.Bytes()[:3]))
	if err == nil {
		t.Fatal("expected error for truncated packet")
	}
}
