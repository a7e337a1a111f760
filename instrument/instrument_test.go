package instrument

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// fakeLine is a scriptable in-memory transport.
type fakeLine struct {
	mu        sync.Mutex
	openCount int
	closed    int
	writes    []string
	responses []string
	openErr   error
	readErr   error
}

func (l *fakeLine) open() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.openErr != nil {
		return l.openErr
	}
	l.openCount++
	return nil
}

func (l *fakeLine) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed++
	return nil
}

func (l *fakeLine) writeString(s string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writes = append(l.writes, s)
	return nil
}

func (l *fakeLine) readUntil(term byte) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readErr != nil {
		return "", l.readErr
	}
	if len(l.responses) == 0 {
		return "", fmt.Errorf("%w: no scripted response", ErrTimeout)
	}
	resp := l.responses[0]
	l.responses = l.responses[1:]
	return resp, nil
}

func (l *fakeLine) writeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.writes)
}

// captureLogger records log messages for assertions.
type captureLogger struct {
	mu     sync.Mutex
	debugs []string
	infos  []string
	warns  []string
	errs   []string
}

func (c *captureLogger) Debug(msg string, _ ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debugs = append(c.debugs, msg)
}

func (c *captureLogger) Info(msg string, _ ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infos = append(c.infos, msg)
}

func (c *captureLogger) Warn(msg string, _ ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warns = append(c.warns, msg)
}

func (c *captureLogger) Error(msg string, _ ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, msg)
}

func (c *captureLogger) warnCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.warns)
}

func (c *captureLogger) hasInfo(substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.infos {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func newTestBase(line *fakeLine) *Base {
	b := newBase("dut", "1.2.3.4", line, '\n', 0)
	return &b
}

func TestConnect_Idempotent(t *testing.T) {
	line := &fakeLine{}
	logger := &captureLogger{}
	b := newTestBase(line)
	b.SetLogger(logger)

	if err := b.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := b.Connect(); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}

	if line.openCount != 1 {
		t.Errorf("open count = %d, want 1 (second connect must not re-open)", line.openCount)
	}
	if !b.Connected() {
		t.Error("Connected() = false, want true")
	}
	if !logger.hasInfo("already connected") {
		t.Error("second Connect() did not log the no-op")
	}
}

func TestConnect_Failure(t *testing.T) {
	line := &fakeLine{openErr: errors.New("no route to host")}
	b := newTestBase(line)

	err := b.Connect()
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
	if b.Connected() {
		t.Error("Connected() = true after failed connect")
	}
}

func TestDisconnect_NeverConnected(t *testing.T) {
	line := &fakeLine{}
	b := newTestBase(line)

	if err := b.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if line.closed != 0 {
		t.Errorf("close count = %d, want 0", line.closed)
	}
}

func TestDisconnect_ClosesOnce(t *testing.T) {
	line := &fakeLine{}
	b := newTestBase(line)

	if err := b.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := b.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if err := b.Disconnect(); err != nil {
		t.Fatalf("second Disconnect() error = %v", err)
	}

	if line.closed != 1 {
		t.Errorf("close count = %d, want 1", line.closed)
	}
	if b.Connected() {
		t.Error("Connected() = true after disconnect")
	}
}

func TestWrite_NotConnected(t *testing.T) {
	b := newTestBase(&fakeLine{})

	err := b.Write("*CLS", false)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Write() error = %v, want ErrNotConnected", err)
	}
}

func TestWrite_AppendsTerminator(t *testing.T) {
	line := &fakeLine{}
	b := newTestBase(line)
	if err := b.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := b.Write("*CLS", false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if got, want := line.writes[0], "*CLS\n"; got != want {
		t.Errorf("wire data = %q, want %q", got, want)
	}
}

func TestRead_TrimsResponse(t *testing.T) {
	line := &fakeLine{responses: []string{"  +3.5E+00\r\n"}}
	b := newTestBase(line)
	if err := b.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	got, err := b.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := "+3.5E+00"; got != want {
		t.Errorf("Read() = %q, want %q", got, want)
	}
}

func TestQuery_MarkerGuard(t *testing.T) {
	line := &fakeLine{}
	b := newTestBase(line)
	if err := b.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	_, err := b.Query("STAT")
	if !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("Query(non-query) error = %v, want ErrInvalidQuery", err)
	}
	if n := line.writeCount(); n != 0 {
		t.Errorf("writes = %d, want 0 (guard must fire before any I/O)", n)
	}
}

func TestQuery_RoundTrip(t *testing.T) {
	line := &fakeLine{responses: []string{"Keysight,N9916A\n"}}
	b := newTestBase(line)
	if err := b.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	got, err := b.Query("*IDN?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if want := "Keysight,N9916A"; got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
	if got, want := line.writes[0], "*IDN?\n"; got != want {
		t.Errorf("wire data = %q, want %q", got, want)
	}
}

func TestID(t *testing.T) {
	line := &fakeLine{responses: []string{"Stanford,SIM928\n"}}
	b := newTestBase(line)
	if err := b.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	id, err := b.ID()
	if err != nil {
		t.Fatalf("ID() error = %v", err)
	}
	if id != "Stanford,SIM928" {
		t.Errorf("ID() = %q, want %q", id, "Stanford,SIM928")
	}
}

func TestReset_AppliesDefaults(t *testing.T) {
	line := &fakeLine{}
	b := newTestBase(line)

	var applied []float64
	b.RegisterParam("power", Param{
		Set: func(v any) error {
			f, err := Float64(v)
			if err != nil {
				return err
			}
			applied = append(applied, f)
			return nil
		},
	})
	if err := b.UpdateDefaults(Setting{Name: "power", Value: -30.0}); err != nil {
		t.Fatalf("UpdateDefaults() error = %v", err)
	}
	if err := b.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := b.Reset(true); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if got, want := line.writes[0], "*RST\n"; got != want {
		t.Errorf("first wire write = %q, want %q", got, want)
	}
	if len(applied) != 1 || applied[0] != -30.0 {
		t.Errorf("defaults applied = %v, want [-30]", applied)
	}
}

func TestReset_WithoutDefaults(t *testing.T) {
	line := &fakeLine{}
	b := newTestBase(line)
	if err := b.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := b.Reset(false); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if n := line.writeCount(); n != 1 {
		t.Errorf("writes = %d, want 1 (*RST only)", n)
	}
}
