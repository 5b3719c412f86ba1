// Package pwmserial implements the serial protocol between the scanner daemon
// and the board firmware.
//
// Every packet is a type byte followed by its little-endian payload and a
// CRC-32 (IEEE) checksum of both.
package pwmserial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Endianness defines the endianness of the protocol.
var Endianness = binary.LittleEndian

// ErrChecksum is returned when a packet's checksum does not match.
var ErrChecksum = errors.New("packet checksum mismatch")

// IncomingPacketType is a type of packet sent to the board.
type IncomingPacketType uint8

const (
	TypeSetDutyPacket IncomingPacketType = iota
	TypeSetIndicatorPacket
	TypeReadAnalogPacket
	TypeReadButtonPacket
)

// String returns a string representation of the packet type.
func (t IncomingPacketType) String() string {
	switch t {
	case TypeSetDutyPacket:
		return "set_duty"
	case TypeSetIndicatorPacket:
		return "set_indicator"
	case TypeReadAnalogPacket:
		return "read_analog"
	case TypeReadButtonPacket:
		return "read_button"
	default:
		return fmt.Sprintf("IncomingPacketType(%d)", t)
	}
}

// IncomingPacket is a packet sent to the board.
type IncomingPacket interface {
	// Type returns the type of packet.
	Type() IncomingPacketType
}

// SetDutyPacket sets the duty cycle of one scanner channel.
type SetDutyPacket struct {
	Channel uint8
	Duty    uint16
}

// SetIndicatorPacket sets the color of the status pixel.
type SetIndicatorPacket struct {
	R, G, B uint8
}

// ReadAnalogPacket asks for a reading of the analog input. The board replies
// with an AnalogPacket.
type ReadAnalogPacket struct{}

// ReadButtonPacket asks for the level of the button input. The board replies
// with a ButtonPacket.
type ReadButtonPacket struct{}

func (p SetDutyPacket) Type() IncomingPacketType      { return TypeSetDutyPacket }
func (p SetIndicatorPacket) Type() IncomingPacketType { return TypeSetIndicatorPacket }
func (p ReadAnalogPacket) Type() IncomingPacketType   { return TypeReadAnalogPacket }
func (p ReadButtonPacket) Type() IncomingPacketType   { return TypeReadButtonPacket }

// OutgoingPacketType is a type of packet sent by the board.
type OutgoingPacketType uint8

const (
	TypeAckPacket OutgoingPacketType = iota
	TypeAnalogPacket
	TypeButtonPacket
	TypeErrorPacket
	TypePanicPacket
	TypeLogPacket
)

// String returns a string representation of the packet type.
func (t OutgoingPacketType) String() string {
	switch t {
	case TypeAckPacket:
		return "ack"
	case TypeAnalogPacket:
		return "analog"
	case TypeButtonPacket:
		return "button"
	case TypeErrorPacket:
		return "error"
	case TypePanicPacket:
		return "panic"
	case TypeLogPacket:
		return "log"
	default:
		return fmt.Sprintf("OutgoingPacketType(%d)", t)
	}
}

// OutgoingPacket is a packet sent by the board.
type OutgoingPacket interface {
	// Type returns the type of packet.
	Type() OutgoingPacketType
}

// AckPacket acknowledges an incoming packet that has no other reply.
type AckPacket struct {
	IncomingPacketType IncomingPacketType
}

// AnalogPacket carries a raw 16-bit analog reading.
type AnalogPacket struct {
	Raw uint16
}

// ButtonPacket carries the electrical level of the button input.
type ButtonPacket struct {
	High bool
}

// ErrorPacket is a packet that indicates an error occurred.
type ErrorPacket struct {
	Message string
}

// PanicPacket is a packet that indicates the board cannot recover.
type PanicPacket struct{}

// LogPacket is a packet that contains a log message.
type LogPacket struct {
	Message string
}

func (p AckPacket) Type() OutgoingPacketType    { return TypeAckPacket }
func (p AnalogPacket) Type() OutgoingPacketType { return TypeAnalogPacket }
func (p ButtonPacket) Type() OutgoingPacketType { return TypeButtonPacket }
func (p ErrorPacket) Type() OutgoingPacketType  { return TypeErrorPacket }
func (p PanicPacket) Type() OutgoingPacketType  { return TypePanicPacket }
func (p LogPacket) Type() OutgoingPacketType    { return TypeLogPacket }

// ReadIncomingPacket reads an incoming packet from the given reader.
func ReadIncomingPacket(r io.Reader) (IncomingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet IncomingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read incoming packet type: %w", err)
	}

	switch ptype := IncomingPacketType(ptypeBuf[0]); ptype {
	case TypeSetDutyPacket:
		var p SetDutyPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read duty cycle: %w", err)
		}
		packet = p

	case TypeSetIndicatorPacket:
		var p SetIndicatorPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read indicator color: %w", err)
		}
		packet = p

	case TypeReadAnalogPacket:
		packet = ReadAnalogPacket{}

	case TypeReadButtonPacket:
		packet = ReadButtonPacket{}

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := readChecksum(r, hash.Sum32()); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteIncomingPacket writes an incoming packet to the given writer.
func WriteIncomingPacket(w io.Writer, p IncomingPacket) error {
	hash := crc32.NewIEEE()
	mw := io.MultiWriter(w, hash)

	if err := binary.Write(mw, Endianness, p.Type()); err != nil {
		return fmt.Errorf("failed to write packet type: %w", err)
	}

	switch p := p.(type) {
	case SetDutyPacket, SetIndicatorPacket:
		if err := binary.Write(mw, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case ReadAnalogPacket, ReadButtonPacket:
		// no payload
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

// ReadOutgoingPacket reads an outgoing packet from the given reader.
func ReadOutgoingPacket(r io.Reader) (OutgoingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet OutgoingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read outgoing packet type: %w", err)
	}

	switch ptype := OutgoingPacketType(ptypeBuf[0]); ptype {
	case TypeAckPacket:
		var p AckPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read acked packet type: %w", err)
		}
		packet = p

	case TypeAnalogPacket:
		var p AnalogPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read analog value: %w", err)
		}
		packet = p

	case TypeButtonPacket:
		var p ButtonPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read button level: %w", err)
		}
		packet = p

	case TypeErrorPacket:
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read error message: %w", err)
		}
		packet = ErrorPacket{Message: msg}

	case TypePanicPacket:
		packet = PanicPacket{}

	case TypeLogPacket:
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read log message: %w", err)
		}
		packet = LogPacket{Message: msg}

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := readChecksum(r, hash.Sum32()); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteOutgoingPacket writes an outgoing packet to the given writer.
func WriteOutgoingPacket(w io.Writer, p OutgoingPacket) error {
	hash := crc32.NewIEEE()
	mw := io.MultiWriter(w, hash)

	if err := binary.Write(mw, Endianness, p.Type()); err != nil {
		return fmt.Errorf("failed to write packet type: %w", err)
	}

	switch p := p.(type) {
	case AckPacket, AnalogPacket, ButtonPacket:
		if err := binary.Write(mw, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case ErrorPacket:
		if err := writeMessage(mw, p.Message); err != nil {
			return fmt.Errorf("failed to write error message: %w", err)
		}
	case PanicPacket:
		// no payload
	case LogPacket:
		if err := writeMessage(mw, p.Message); err != nil {
			return fmt.Errorf("failed to write log message: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

func readMessage(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, Endianness, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeMessage(w io.Writer, msg string) error {
	if len(msg) > 0xFFFF {
		msg = msg[:0xFFFF]
	}
	if err := binary.Write(w, Endianness, uint16(len(msg))); err != nil {
		return err
	}
	_, err := io.WriteString(w, msg)
	return err
}

// readChecksum reads the checksum trailer and compares it against sum, the
// checksum of everything read before it.
func readChecksum(r io.Reader, sum uint32) error {
	var checksum uint32
	if err := binary.Read(r, Endianness, &checksum); err != nil {
		return fmt.Errorf("failed to read packet checksum: %w", err)
	}
	if checksum != sum {
		return ErrChecksum
	}
	return nil
}
