package drivers

import (
	"errors"
	"testing"

	"github.com/biqute/qtics/instrument"
)

func TestKeithley2231ASetChannel_Rejection(t *testing.T) {
	k := NewKeithley2231A("psu", "/dev/ttyUSB2", instrument.SerialConfig{})
	for _, ch := range []int{0, 4, -1} {
		if err := k.SetChannel(ch); !errors.Is(err, instrument.ErrInvalidOption) {
			t.Errorf("SetChannel(%d) error = %v, want ErrInvalidOption", ch, err)
		}
	}
}

func TestKeithley2231AParams(t *testing.T) {
	k := NewKeithley2231A("psu", "/dev/ttyUSB2", instrument.SerialConfig{})
	have := make(map[string]bool)
	for _, name := range k.Params() {
		have[name] = true
	}
	for _, want := range []string{"channel", "voltage", "current", "voltage_limit", "current_limit", "output"} {
		if !have[want] {
			t.Errorf("missing parameter %q", want)
		}
	}
}
