package drivers

import (
	"errors"
	"testing"

	"github.com/biqute/qtics/instrument"
)

func TestSIM928SlotDefault(t *testing.T) {
	s := NewSIM928("bias", "/dev/ttyUSB1", 0, instrument.SerialConfig{})
	if s.slot != 1 {
		t.Errorf("slot = %d, want 1", s.slot)
	}
	s = NewSIM928("bias", "/dev/ttyUSB1", 4, instrument.SerialConfig{})
	if s.slot != 4 {
		t.Errorf("slot = %d, want 4", s.slot)
	}
}

func TestSIM928BatterySpec_Rejection(t *testing.T) {
	s := NewSIM928("bias", "/dev/ttyUSB1", 1, instrument.SerialConfig{})
	if _, err := s.BatterySpec("BOGUS"); !errors.Is(err, instrument.ErrInvalidOption) {
		t.Errorf("BatterySpec() error = %v, want ErrInvalidOption", err)
	}
}

func TestSIM928Disconnect_NeverConnected(t *testing.T) {
	s := NewSIM928("bias", "/dev/ttyUSB1", 1, instrument.SerialConfig{})
	if err := s.Disconnect(); err != nil {
		t.Errorf("Disconnect() error = %v", err)
	}
}
