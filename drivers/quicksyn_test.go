package drivers

import (
	"errors"
	"testing"

	"github.com/biqute/qtics/instrument"
)

func TestQuickSynModels(t *testing.T) {
	tests := []struct {
		name string
		make func(string, string, instrument.SerialConfig) *QuickSyn
		min  float64
		max  float64
	}{
		{"fsl0010", NewFSL0010, 0.65e9, 10e9},
		{"fsl0020", NewFSL0020, 0.65e9, 20e9},
		{"fsw0010", NewFSW0010, 0.5e9, 10e9},
		{"fsw0020", NewFSW0020, 0.5e9, 20e9},
	}
	for _, tt := range tests {
		q := tt.make(tt.name, "/dev/ttyUSB0", instrument.SerialConfig{})
		if q.minFreq != tt.min || q.maxFreq != tt.max {
			t.Errorf("%s range = [%v, %v], want [%v, %v]", tt.name, q.minFreq, q.maxFreq, tt.min, tt.max)
		}
	}
}

func TestQuickSynParams(t *testing.T) {
	q := NewFSL0010("synth", "/dev/ttyUSB0", instrument.SerialConfig{})
	have := make(map[string]bool)
	for _, name := range q.Params() {
		have[name] = true
	}
	for _, want := range []string{"freq", "output", "ext_ref", "temperature"} {
		if !have[want] {
			t.Errorf("missing parameter %q", want)
		}
	}
}

func TestQuickSynSetFreq_NotConnected(t *testing.T) {
	q := NewFSL0010("synth", "/dev/ttyUSB0", instrument.SerialConfig{})
	if err := q.SetFreq(5e9); !errors.Is(err, instrument.ErrNotConnected) {
		t.Errorf("SetFreq() error = %v, want ErrNotConnected", err)
	}
}
