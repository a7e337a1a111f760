package instrument

import (
	"testing"
	"time"

	"go.bug.st/serial"
)

func TestSerialConfig_Defaults(t *testing.T) {
	cfg := SerialConfig{}.withDefaults()

	if cfg.BaudRate != 9600 {
		t.Errorf("BaudRate = %d, want 9600", cfg.BaudRate)
	}
	if cfg.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", cfg.DataBits)
	}
	if cfg.Parity != serial.NoParity {
		t.Errorf("Parity = %v, want NoParity", cfg.Parity)
	}
	if cfg.StopBits != serial.OneStopBit {
		t.Errorf("StopBits = %v, want OneStopBit", cfg.StopBits)
	}
	if cfg.Timeout != defaultSerialTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, defaultSerialTimeout)
	}
	if cfg.Terminator != '\n' {
		t.Errorf("Terminator = %q, want '\\n'", cfg.Terminator)
	}
}

func TestSerialConfig_Overrides(t *testing.T) {
	cfg := SerialConfig{
		BaudRate:   115200,
		Timeout:    2 * time.Second,
		Terminator: '\r',
	}.withDefaults()

	if cfg.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want 115200", cfg.BaudRate)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Timeout)
	}
	if cfg.Terminator != '\r' {
		t.Errorf("Terminator = %q, want '\\r'", cfg.Terminator)
	}
}

func TestNewSerial_NotConnectedBeforeConnect(t *testing.T) {
	s := NewSerial("source", "/dev/ttyUSB0", SerialConfig{BaudRate: 115200})

	if s.Connected() {
		t.Error("Connected() = true before Connect")
	}
	if err := s.Write("VOLT 1.0", false); err == nil {
		t.Error("Write() on unconnected instrument succeeded")
	}
}
