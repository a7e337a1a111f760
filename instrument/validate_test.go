package instrument

import (
	"errors"
	"testing"
)

func TestValidateOpt_Member(t *testing.T) {
	got, err := ValidateOpt("A", "A", "B")
	if err != nil {
		t.Fatalf("ValidateOpt() error = %v", err)
	}
	if got != "A" {
		t.Errorf("ValidateOpt() = %q, want %q", got, "A")
	}
}

func TestValidateOpt_Rejection(t *testing.T) {
	_, err := ValidateOpt("X", "A", "B")
	if !errors.Is(err, ErrInvalidOption) {
		t.Errorf("ValidateOpt() error = %v, want ErrInvalidOption", err)
	}
}

func TestValidateOptInt(t *testing.T) {
	if got, err := ValidateOptInt(2, 1, 2, 3); err != nil || got != 2 {
		t.Errorf("ValidateOptInt(2) = %v, %v; want 2, nil", got, err)
	}
	if _, err := ValidateOptInt(7, 1, 2, 3); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("ValidateOptInt(7) error = %v, want ErrInvalidOption", err)
	}
}

func TestClampRange(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		want     float64
		wantWarn bool
	}{
		{name: "above range clamps to max", value: 150, want: 100, wantWarn: true},
		{name: "below range clamps to min", value: -5, want: 0, wantWarn: true},
		{name: "in range passes silently", value: 50, want: 50, wantWarn: false},
		{name: "at limit passes silently", value: 100, want: 100, wantWarn: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &captureLogger{}
			b := newTestBase(&fakeLine{})
			b.SetLogger(logger)

			got := b.ClampRange("attenuation", tt.value, 0, 100)

			if got != tt.want {
				t.Errorf("ClampRange(%v, 0, 100) = %v, want %v", tt.value, got, tt.want)
			}
			warned := logger.warnCount() > 0
			if warned != tt.wantWarn {
				t.Errorf("warning logged = %v, want %v", warned, tt.wantWarn)
			}
		})
	}
}
