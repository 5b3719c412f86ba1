// Package serialboard drives a scanner board running the pwmserial firmware
// over a serial port.
package serialboard

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/lightscan/pwmserial"
)

// ErrControllerPanic is returned once the board reports that it cannot
// recover.
var ErrControllerPanic = errors.New("controller panicked")

// ErrTimeout is returned when the board does not reply in time.
var ErrTimeout = errors.New("timed out waiting for controller")

// Config is the configuration for a serial board.
type Config struct {
	// Device is the path to the serial device, e.g. /dev/ttyACM0.
	Device string
	// Baud is the baud rate.
	Baud int
	// Timeout is how long to wait for each reply.
	Timeout time.Duration
}

// Board is a scanner board reached over a serial port. Its methods must be
// called from a single goroutine.
type Board struct {
	logger  *slog.Logger
	rw      io.ReadWriter
	timeout time.Duration

	replies chan pwmserial.OutgoingPacket
	done    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	errg   *errgroup.Group
}

// Open opens the serial port and starts reading from it. The port is closed
// when ctx is canceled or Close is called.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Board, error) {
	port, err := serial.Open(cfg.Device, &serial.Mode{
		BaudRate: cfg.Baud,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open serial port")
	}

	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to reset read timeout")
	}

	b := newBoard(ctx, port, cfg.Timeout, logger)
	b.errg.Go(func() error {
		<-b.ctx.Done()
		b.logger.Debug("closing serial port")
		if err := port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return b.ctx.Err()
	})

	return b, nil
}

// newBoard creates a board talking over rw and starts its read loop. The read
// loop only notices that the board is closed once a read returns, so closing
// rw is up to the caller.
func newBoard(ctx context.Context, rw io.ReadWriter, timeout time.Duration, logger *slog.Logger) *Board {
	ctx, cancel := context.WithCancel(ctx)
	errg, ctx := errgroup.WithContext(ctx)

	b := &Board{
		logger:  logger,
		rw:      rw,
		timeout: timeout,
		replies: make(chan pwmserial.OutgoingPacket),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		errg:    errg,
	}

	errg.Go(func() error {
		defer close(b.done)
		return b.readPackets(ctx)
	})

	return b
}

// Close closes the serial port and waits for the read loop to stop.
func (b *Board) Close() error {
	b.cancel()
	err := b.errg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SetDuty implements lightscan.Board.
func (b *Board) SetDuty(ch int, duty uint16) error {
	return b.command(pwmserial.SetDutyPacket{
		Channel: uint8(ch),
		Duty:    duty,
	})
}

// SetIndicator implements lightscan.Board.
func (b *Board) SetIndicator(r, g, bl uint8) error {
	return b.command(pwmserial.SetIndicatorPacket{R: r, G: g, B: bl})
}

// ReadAnalog implements lightscan.Board.
func (b *Board) ReadAnalog() (uint16, error) {
	p, err := b.roundTrip(pwmserial.ReadAnalogPacket{})
	if err != nil {
		return 0, err
	}

	analog, ok := p.(pwmserial.AnalogPacket)
	if !ok {
		return 0, errors.Errorf("unexpected %s reply to read_analog", p.Type())
	}

	return analog.Raw, nil
}

// ReadButton implements lightscan.Board.
func (b *Board) ReadButton() (bool, error) {
	p, err := b.roundTrip(pwmserial.ReadButtonPacket{})
	if err != nil {
		return false, err
	}

	button, ok := p.(pwmserial.ButtonPacket)
	if !ok {
		return false, errors.Errorf("unexpected %s reply to read_button", p.Type())
	}

	return button.High, nil
}

// Sleep implements lightscan.Board. The board has nothing to do while the
// host sleeps.
func (b *Board) Sleep(d time.Duration) {
	time.Sleep(d)
}

// command sends a packet that the board acknowledges.
func (b *Board) command(p pwmserial.IncomingPacket) error {
	reply, err := b.roundTrip(p)
	if err != nil {
		return err
	}

	ack, ok := reply.(pwmserial.AckPacket)
	if !ok {
		return errors.Errorf("unexpected %s reply to %s", reply.Type(), p.Type())
	}
	if ack.IncomingPacketType != p.Type() {
		return errors.Errorf("controller acked %s instead of %s", ack.IncomingPacketType, p.Type())
	}

	return nil
}

func (b *Board) roundTrip(p pwmserial.IncomingPacket) (pwmserial.OutgoingPacket, error) {
	b.logger.Debug(
		"writing packet",
		"type", p.Type())

	if err := pwmserial.WriteIncomingPacket(b.rw, p); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s packet", p.Type())
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case reply := <-b.replies:
		switch reply := reply.(type) {
		case pwmserial.ErrorPacket:
			return nil, errors.Errorf("controller reported error: %s", reply.Message)
		case pwmserial.PanicPacket:
			return nil, ErrControllerPanic
		default:
			return reply, nil
		}
	case <-timer.C:
		return nil, errors.Wrapf(ErrTimeout, "no reply to %s", p.Type())
	case <-b.done:
		return nil, errors.New("serial connection closed")
	}
}

func (b *Board) readPackets(ctx context.Context) error {
	for ctx.Err() == nil {
		p, err := pwmserial.ReadOutgoingPacket(b.rw)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A short read indicates a timeout. This is expected.
			// Ignore the error and try again.
			if errors.Is(err, io.EOF) {
				continue
			}
			if errors.Is(err, pwmserial.ErrChecksum) {
				b.logger.Warn("dropping corrupt packet from controller")
				continue
			}
			return errors.Wrap(err, "failed to read packet")
		}

		b.logger.Debug(
			"received packet from controller",
			"type", p.Type())

		switch p := p.(type) {
		case pwmserial.LogPacket:
			b.logger.Info(
				"received log packet from controller",
				"message", p.Message)
			continue
		case pwmserial.PanicPacket:
			b.logger.Error("controller unrecoverably panicked")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case b.replies <- p:
			// ok
		}
	}

	return ctx.Err()
}
