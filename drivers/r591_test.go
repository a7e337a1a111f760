package drivers

import (
	"testing"

	"github.com/biqute/qtics/instrument"
)

func TestSwitchR591PulseDefault(t *testing.T) {
	s := NewSwitchR591("switch", "/dev/ttyACM0", instrument.SerialConfig{})
	if s.pulseMS != 5 {
		t.Errorf("pulse length = %d ms, want 5", s.pulseMS)
	}
}

func TestSwitchR591Params(t *testing.T) {
	s := NewSwitchR591("switch", "/dev/ttyACM0", instrument.SerialConfig{})
	have := make(map[string]bool)
	for _, name := range s.Params() {
		have[name] = true
	}
	for _, want := range []string{"pulse_length", "open_port", "open_ports", "pin_states"} {
		if !have[want] {
			t.Errorf("missing parameter %q", want)
		}
	}
}
