package instrument

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Instrument is the capability contract shared by every device in the
// toolkit. Concrete drivers add typed accessors on top; the experiment layer
// and the configuration loader only ever see this interface.
type Instrument interface {
	Name() string
	Address() string
	Connected() bool

	// Connect opens the transport. Calling it again while connected logs a
	// note and does nothing.
	Connect() error
	// Disconnect closes the transport. Safe to call when never connected.
	Disconnect() error

	// Write sends one command with no reply expected. When settle is true it
	// blocks for the device's inter-command delay afterwards.
	Write(cmd string, settle bool) error
	// Read returns the next complete response, blocking until the terminator
	// is observed or the configured timeout elapses (ErrTimeout).
	Read() (string, error)
	// Query composes Write and Read. Commands without a query marker ("?")
	// are rejected with ErrInvalidQuery before any I/O.
	Query(cmd string) (string, error)
	// ID returns the device identity string.
	ID() (string, error)
	// Reset restores power-on defaults and, when applyDefaults is true,
	// re-applies the recorded defaults map.
	Reset(applyDefaults bool) error

	Set(settings ...Setting) error
	Get(names ...string) (map[string]any, error)

	UpdateDefaults(settings ...Setting) error
	Defaults() []Setting
	ClearDefaults()
	ApplyDefaults(settings ...Setting) error

	SetLogger(logger Logger)
}

// line is the transport-level connection an instrument speaks over.
// Implementations handle dialing, byte I/O and timeouts; Base layers the
// command/response protocol on top.
type line interface {
	open() error
	close() error
	writeString(s string) error
	readUntil(term byte) (string, error)
}

// Base implements the full instrument contract over a line transport.
// Concrete drivers embed one of the transport types (NetworkInstrument,
// SerialInstrument) and register their parameters at construction.
//
// I/O methods assume the device is driven by a single task at a time;
// connection state and the defaults map are safe for concurrent access.
type Base struct {
	name    string
	address string

	line   line
	term   byte
	settle time.Duration

	params     map[string]Param
	defaults   []Setting
	defaultIdx map[string]int

	mu        sync.RWMutex
	connected bool

	logger Logger
}

func newBase(name, address string, ln line, term byte, settle time.Duration) Base {
	return Base{
		name:       name,
		address:    address,
		line:       ln,
		term:       term,
		settle:     settle,
		params:     make(map[string]Param),
		defaultIdx: make(map[string]int),
		logger:     noopLogger{},
	}
}

// Name returns the instrument name used as its attachment key.
func (b *Base) Name() string { return b.name }

// Address returns the connection endpoint.
func (b *Base) Address() string { return b.address }

// Connected reports whether the transport is currently open.
func (b *Base) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// SetLogger sets the logger for the instrument. A nil logger silences it.
func (b *Base) SetLogger(logger Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	b.logger = logger
}

func (b *Base) log() Logger {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.logger
}

// Logger returns the current logger, for drivers that log warnings of their
// own.
func (b *Base) Logger() Logger {
	return b.log()
}

// Connect opens the transport connection.
//
// Connecting an already-connected instrument is a logged no-op, not a second
// transport open.
func (b *Base) Connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connected {
		b.logger.Info("already connected", "name", b.name, "address", b.address)
		return nil
	}

	if err := b.line.open(); err != nil {
		return fmt.Errorf("%w: %s at %s: %w", ErrConnectionFailed, b.name, b.address, err)
	}

	b.connected = true
	b.logger.Info("instrument connected", "name", b.name, "address", b.address)
	return nil
}

// Disconnect closes the transport connection. Calling it when never
// connected is a no-op.
func (b *Base) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		b.logger.Info("no connection to close", "name", b.name)
		return nil
	}

	if err := b.line.close(); err != nil {
		return fmt.Errorf("disconnecting %s: %w", b.name, err)
	}

	b.connected = false
	b.logger.Info("instrument disconnected", "name", b.name)
	return nil
}

// Write sends cmd over the transport, terminated. When settle is true it
// sleeps the configured inter-command delay before returning, for devices
// that need settling time.
func (b *Base) Write(cmd string, settle bool) error {
	b.mu.RLock()
	if !b.connected {
		b.mu.RUnlock()
		return fmt.Errorf("%w: write %q to %s", ErrNotConnected, cmd, b.name)
	}
	err := b.line.writeString(cmd + string(b.term))
	b.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("writing %q to %s: %w", cmd, b.name, err)
	}

	b.log().Debug("write", "name", b.name, "cmd", cmd)

	if settle && b.settle > 0 {
		time.Sleep(b.settle)
	}
	return nil
}

// Read blocks until a terminator-ended response arrives or the configured
// timeout elapses, and returns the response with surrounding whitespace
// trimmed.
func (b *Base) Read() (string, error) {
	b.mu.RLock()
	if !b.connected {
		b.mu.RUnlock()
		return "", fmt.Errorf("%w: read from %s", ErrNotConnected, b.name)
	}
	raw, err := b.line.readUntil(b.term)
	b.mu.RUnlock()

	if err != nil {
		return "", fmt.Errorf("reading from %s: %w", b.name, err)
	}

	resp := strings.TrimSpace(raw)
	b.log().Debug("read", "name", b.name, "response", resp)
	return resp, nil
}

// Query sends a query command and returns its response.
//
// A command without the query marker would leave the caller waiting for a
// reply that never comes, so it is rejected before anything is written.
func (b *Base) Query(cmd string) (string, error) {
	if !strings.Contains(cmd, "?") {
		return "", fmt.Errorf("%w: %q", ErrInvalidQuery, cmd)
	}
	if err := b.Write(cmd, true); err != nil {
		return "", err
	}
	return b.Read()
}

// ID returns the device identity string.
func (b *Base) ID() (string, error) {
	return b.Query("*IDN?")
}

// Reset restores the device to power-on defaults. When applyDefaults is true
// the recorded defaults map is re-applied immediately after.
func (b *Base) Reset(applyDefaults bool) error {
	if err := b.Write("*RST", true); err != nil {
		return err
	}
	b.log().Info("instrument reset", "name", b.name)
	if applyDefaults {
		return b.ApplyDefaults()
	}
	return nil
}
