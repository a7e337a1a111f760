package instrument

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default settings for SCPI-over-TCP instruments.
const (
	// DefaultSCPIPort is the conventional raw-socket SCPI port.
	DefaultSCPIPort = 5025

	defaultNetTimeout = 10 * time.Second
	defaultNetSettle  = 100 * time.Millisecond
)

// NetworkConfig carries the transport settings for a TCP instrument.
// Zero values fall back to the defaults above.
type NetworkConfig struct {
	// Port is the TCP port the instrument listens on.
	Port int

	// Timeout bounds dialing and every read.
	Timeout time.Duration

	// Settle is the inter-command delay applied by Write(cmd, true).
	Settle time.Duration
}

func (c NetworkConfig) withDefaults() NetworkConfig {
	if c.Port == 0 {
		c.Port = DefaultSCPIPort
	}
	if c.Timeout == 0 {
		c.Timeout = defaultNetTimeout
	}
	if c.Settle == 0 {
		c.Settle = defaultNetSettle
	}
	return c
}

// NetworkInstrument is an instrument reached over a TCP socket speaking
// newline-terminated SCPI.
type NetworkInstrument struct {
	Base
	tcp *tcpLine
}

var _ Instrument = (*NetworkInstrument)(nil)

// NewNetwork creates a TCP instrument. The connection is opened by Connect,
// not here.
func NewNetwork(name, address string, cfg NetworkConfig) *NetworkInstrument {
	cfg = cfg.withDefaults()
	ln := &tcpLine{
		addr:    net.JoinHostPort(address, strconv.Itoa(cfg.Port)),
		timeout: cfg.Timeout,
	}
	return &NetworkInstrument{
		Base: newBase(name, address, ln, '\n', cfg.Settle),
		tcp:  ln,
	}
}

// QueryBinary sends a query whose response is an IEEE 488.2 definite-length
// binary block and decodes it with the given element width (4 or 8 bytes).
//
// Like Query, commands without a query marker are rejected before any I/O.
func (n *NetworkInstrument) QueryBinary(cmd string, width int) ([]float64, error) {
	if !strings.Contains(cmd, "?") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidQuery, cmd)
	}
	if err := n.Write(cmd, true); err != nil {
		return nil, err
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.connected {
		return nil, fmt.Errorf("%w: read from %s", ErrNotConnected, n.name)
	}

	data, err := n.tcp.readBlock(width)
	if err != nil {
		return nil, fmt.Errorf("reading block from %s: %w", n.name, err)
	}
	return data, nil
}

// tcpLine implements the line transport over a TCP connection.
type tcpLine struct {
	addr    string
	timeout time.Duration

	conn net.Conn
	br   *bufio.Reader
}

func (l *tcpLine) open() error {
	dialer := net.Dialer{Timeout: l.timeout}
	conn, err := dialer.Dial("tcp", l.addr)
	if err != nil {
		return err
	}

	// Commands are short and latency-sensitive; never batch them.
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(true); err != nil {
			conn.Close()
			return err
		}
	}

	l.conn = conn
	l.br = bufio.NewReader(conn)
	return nil
}

func (l *tcpLine) close() error {
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	l.br = nil
	return err
}

func (l *tcpLine) writeString(s string) error {
	if err := l.conn.SetWriteDeadline(time.Now().Add(l.timeout)); err != nil {
		return err
	}
	_, err := l.conn.Write([]byte(s))
	return wrapDeadline(err, l.timeout)
}

func (l *tcpLine) readUntil(term byte) (string, error) {
	if err := l.conn.SetReadDeadline(time.Now().Add(l.timeout)); err != nil {
		return "", err
	}
	s, err := l.br.ReadString(term)
	if err != nil {
		return "", wrapDeadline(err, l.timeout)
	}
	return s, nil
}

// readBlock decodes a binary block from the stream under the read deadline.
func (l *tcpLine) readBlock(width int) ([]float64, error) {
	if err := l.conn.SetReadDeadline(time.Now().Add(l.timeout)); err != nil {
		return nil, err
	}
	data, err := ReadBinaryBlock(l.br, width)
	if err != nil {
		return nil, wrapDeadline(err, l.timeout)
	}
	return data, nil
}

func wrapDeadline(err error, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, err)
	}
	return err
}
