package instrument

import (
	"bytes"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Default settings for serial-line instruments.
const (
	defaultSerialBaud    = 9600
	defaultSerialBits    = 8
	defaultSerialTimeout = 10 * time.Second
	defaultSerialSettle  = 100 * time.Millisecond
)

// SerialConfig carries the transport settings for a serial instrument.
// Zero values fall back to 9600 baud, 8 data bits, no parity, one stop bit,
// newline terminator.
type SerialConfig struct {
	BaudRate int
	DataBits int
	Parity   serial.Parity
	StopBits serial.StopBits

	// Timeout bounds every read.
	Timeout time.Duration

	// Settle is the inter-command delay applied by Write(cmd, true).
	Settle time.Duration

	// Terminator ends both outgoing commands and incoming responses.
	Terminator byte
}

func (c SerialConfig) withDefaults() SerialConfig {
	if c.BaudRate == 0 {
		c.BaudRate = defaultSerialBaud
	}
	if c.DataBits == 0 {
		c.DataBits = defaultSerialBits
	}
	if c.Timeout == 0 {
		c.Timeout = defaultSerialTimeout
	}
	if c.Settle == 0 {
		c.Settle = defaultSerialSettle
	}
	if c.Terminator == 0 {
		c.Terminator = '\n'
	}
	return c
}

// SerialInstrument is an instrument reached over a serial line.
type SerialInstrument struct {
	Base
	ser *serialLine
}

var _ Instrument = (*SerialInstrument)(nil)

// NewSerial creates a serial instrument on the given port path
// (e.g. /dev/ttyUSB0). The port is opened by Connect, not here.
func NewSerial(name, address string, cfg SerialConfig) *SerialInstrument {
	cfg = cfg.withDefaults()
	ln := &serialLine{
		addr: address,
		mode: &serial.Mode{
			BaudRate: cfg.BaudRate,
			DataBits: cfg.DataBits,
			Parity:   cfg.Parity,
			StopBits: cfg.StopBits,
		},
		timeout: cfg.Timeout,
	}
	return &SerialInstrument{
		Base: newBase(name, address, ln, cfg.Terminator, cfg.Settle),
		ser:  ln,
	}
}

// serialLine implements the line transport over a serial port.
type serialLine struct {
	addr    string
	mode    *serial.Mode
	timeout time.Duration

	port serial.Port
}

func (l *serialLine) open() error {
	port, err := serial.Open(l.addr, l.mode)
	if err != nil {
		return err
	}
	if err := port.SetReadTimeout(l.timeout); err != nil {
		port.Close()
		return err
	}
	l.port = port
	return nil
}

func (l *serialLine) close() error {
	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	return err
}

func (l *serialLine) writeString(s string) error {
	// Drop stale bytes from aborted reads so the next response lines up
	// with the next command.
	_ = l.port.ResetInputBuffer()

	_, err := l.port.Write([]byte(s))
	return err
}

func (l *serialLine) readUntil(term byte) (string, error) {
	buf := make([]byte, 0, 256)
	chunk := make([]byte, 64)
	for {
		n, err := l.port.Read(chunk)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "", fmt.Errorf("%w after %s waiting for terminator", ErrTimeout, l.timeout)
		}
		buf = append(buf, chunk[:n]...)
		if i := bytes.IndexByte(buf, term); i >= 0 {
			return string(buf[:i+1]), nil
		}
	}
}
