package drivers

import (
	"errors"
	"testing"
	"time"

	"github.com/biqute/qtics/instrument"
)

func newTestSMA100B(t *testing.T) (*SMA100B, *fakeDevice) {
	t.Helper()
	f := newFakeDevice(t)
	g := NewSMA100B("gen", "127.0.0.1", instrument.NetworkConfig{
		Port:    f.port(),
		Timeout: 2 * time.Second,
		Settle:  time.Millisecond,
	})
	if err := g.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { g.Disconnect() })
	return g, f
}

func TestSMA100BSetFCenter(t *testing.T) {
	g, f := newTestSMA100B(t)

	if err := g.SetFCenter(5e9); err != nil {
		t.Fatalf("SetFCenter() error = %v", err)
	}
	if !f.received("SOUR:FREQ:CENT 5e+09") {
		t.Errorf("center command missing: %v", f.commands())
	}
}

func TestSMA100BFrequencyClamp(t *testing.T) {
	g, f := newTestSMA100B(t)

	if err := g.SetFFixed(50e9); err != nil {
		t.Fatalf("SetFFixed(50e9) error = %v", err)
	}
	if err := g.SetFFixed(1); err != nil {
		t.Fatalf("SetFFixed(1) error = %v", err)
	}
	if !f.received("SOUR:FREQ:CW 2e+10") {
		t.Errorf("frequency not clamped high: %v", f.commands())
	}
	if !f.received("SOUR:FREQ:CW 8000") {
		t.Errorf("frequency not clamped low: %v", f.commands())
	}
}

func TestSMA100BRFOutput(t *testing.T) {
	g, f := newTestSMA100B(t)
	f.stub("OUTP:STAT?", "1")

	on, err := g.RFOutput()
	if err != nil {
		t.Fatalf("RFOutput() error = %v", err)
	}
	if !on {
		t.Error("RFOutput() = false, want true")
	}

	if err := g.SetRFOutput(false); err != nil {
		t.Fatalf("SetRFOutput() error = %v", err)
	}
	if !f.received("OUTP:STAT OFF") {
		t.Errorf("output command missing: %v", f.commands())
	}
}

func TestSMA100BSetFStep(t *testing.T) {
	g, f := newTestSMA100B(t)
	f.stub("SOUR:FREQ:STAR?", "1000000000")
	f.stub("SOUR:FREQ:STOP?", "2000000000")

	if err := g.SetFStep(5e8); err != nil {
		t.Fatalf("SetFStep() error = %v", err)
	}
	if !f.received("SOUR:SWE:FREQ:STEP:LIN 5e+08 Hz") {
		t.Errorf("step command missing: %v", f.commands())
	}
}

func TestSMA100BSetPhase(t *testing.T) {
	g, f := newTestSMA100B(t)

	if err := g.SetPhase(720); err != nil {
		t.Fatalf("SetPhase() error = %v", err)
	}
	if !f.received("SOUR:PHAS 720 DEG") {
		t.Errorf("phase command missing: %v", f.commands())
	}
}

func TestSMA100BCalibrate(t *testing.T) {
	g, f := newTestSMA100B(t)

	if _, err := g.Calibrate("BAD"); !errors.Is(err, instrument.ErrInvalidOption) {
		t.Errorf("Calibrate(BAD) error = %v, want ErrInvalidOption", err)
	}

	f.stub("CAL:ALL:MEAS?", "0")
	got, err := g.Calibrate("MEAS")
	if err != nil {
		t.Fatalf("Calibrate(MEAS) error = %v", err)
	}
	if got != "0" {
		t.Errorf("Calibrate(MEAS) = %q, want 0", got)
	}
}
