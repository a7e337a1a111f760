package instrument

import (
	"errors"
	"strings"
	"testing"
)

// recordingDevice registers three numeric parameters that store into a map
// and record application order.
type recordingDevice struct {
	*Base
	values map[string]float64
	order  []string
}

func newRecordingDevice() *recordingDevice {
	b := newBase("rec", "local", &fakeLine{}, '\n', 0)
	d := &recordingDevice{Base: &b, values: make(map[string]float64)}
	for _, name := range []string{"freq", "power", "phase"} {
		name := name
		d.RegisterParam(name, Param{
			Set: func(v any) error {
				f, err := Float64(v)
				if err != nil {
					return err
				}
				d.values[name] = f
				d.order = append(d.order, name)
				return nil
			},
			Get: func() (any, error) {
				return d.values[name], nil
			},
		})
	}
	d.RegisterParam("id", Param{
		Get: func() (any, error) { return "rec-01", nil },
	})
	return d
}

func TestSet_AppliesInOrder(t *testing.T) {
	d := newRecordingDevice()

	err := d.Set(
		Setting{Name: "power", Value: -10.0},
		Setting{Name: "freq", Value: 5e9},
	)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	want := []string{"power", "freq"}
	if len(d.order) != len(want) {
		t.Fatalf("applied %d params, want %d", len(d.order), len(want))
	}
	for i := range want {
		if d.order[i] != want[i] {
			t.Errorf("application[%d] = %q, want %q", i, d.order[i], want[i])
		}
	}
}

func TestSet_UnknownKeyStopsApplication(t *testing.T) {
	d := newRecordingDevice()

	err := d.Set(
		Setting{Name: "freq", Value: 1e9},
		Setting{Name: "bogus", Value: 1},
		Setting{Name: "power", Value: -5.0},
	)
	if !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("Set() error = %v, want ErrUnknownParam", err)
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("error %q does not name the offending key", err)
	}

	if _, ok := d.values["freq"]; !ok {
		t.Error("freq (before the offending key) was not applied")
	}
	if _, ok := d.values["power"]; ok {
		t.Error("power (after the offending key) was applied, want untouched")
	}
}

func TestSet_ReadOnlyParam(t *testing.T) {
	d := newRecordingDevice()

	err := d.Set(Setting{Name: "id", Value: "x"})
	if !errors.Is(err, ErrUnknownParam) {
		t.Errorf("Set(read-only) error = %v, want ErrUnknownParam", err)
	}
}

func TestGet(t *testing.T) {
	d := newRecordingDevice()
	if err := d.Set(Setting{Name: "freq", Value: 2e9}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := d.Get("freq", "id")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got["freq"] != 2e9 {
		t.Errorf("Get()[freq] = %v, want 2e9", got["freq"])
	}
	if got["id"] != "rec-01" {
		t.Errorf("Get()[id] = %v, want rec-01", got["id"])
	}
}

func TestGet_UnknownKey(t *testing.T) {
	d := newRecordingDevice()

	_, err := d.Get("freq", "bogus")
	if !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("Get() error = %v, want ErrUnknownParam", err)
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("error %q does not name the offending key", err)
	}
}

func TestUpdateDefaults_ValidatesKeys(t *testing.T) {
	d := newRecordingDevice()

	err := d.UpdateDefaults(Setting{Name: "bogus", Value: 1})
	if !errors.Is(err, ErrUnknownParam) {
		t.Errorf("UpdateDefaults() error = %v, want ErrUnknownParam", err)
	}
	if len(d.Defaults()) != 0 {
		t.Error("invalid default was recorded")
	}
}

func TestUpdateDefaults_PreservesOrder(t *testing.T) {
	d := newRecordingDevice()

	if err := d.UpdateDefaults(
		Setting{Name: "power", Value: -30.0},
		Setting{Name: "freq", Value: 1e9},
	); err != nil {
		t.Fatalf("UpdateDefaults() error = %v", err)
	}
	// Updating an existing key must keep its position.
	if err := d.UpdateDefaults(Setting{Name: "power", Value: -20.0}); err != nil {
		t.Fatalf("UpdateDefaults() error = %v", err)
	}

	defs := d.Defaults()
	if len(defs) != 2 {
		t.Fatalf("len(Defaults()) = %d, want 2", len(defs))
	}
	if defs[0].Name != "power" || defs[0].Value != -20.0 {
		t.Errorf("Defaults()[0] = %+v, want power=-20", defs[0])
	}
	if defs[1].Name != "freq" {
		t.Errorf("Defaults()[1] = %+v, want freq", defs[1])
	}
}

func TestClearDefaults(t *testing.T) {
	d := newRecordingDevice()
	if err := d.UpdateDefaults(Setting{Name: "power", Value: -30.0}); err != nil {
		t.Fatalf("UpdateDefaults() error = %v", err)
	}

	d.ClearDefaults()

	if n := len(d.Defaults()); n != 0 {
		t.Errorf("len(Defaults()) after clear = %d, want 0", n)
	}
}

func TestApplyDefaults_WritesToDevice(t *testing.T) {
	d := newRecordingDevice()

	if err := d.ApplyDefaults(
		Setting{Name: "freq", Value: 4e9},
		Setting{Name: "power", Value: -25.0},
	); err != nil {
		t.Fatalf("ApplyDefaults() error = %v", err)
	}

	if d.values["freq"] != 4e9 {
		t.Errorf("freq = %v, want 4e9", d.values["freq"])
	}
	if d.values["power"] != -25.0 {
		t.Errorf("power = %v, want -25", d.values["power"])
	}
}

func TestFloat64(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{name: "float64", in: 1.5, want: 1.5},
		{name: "int", in: 7, want: 7},
		{name: "int64", in: int64(-3), want: -3},
		{name: "numeric string", in: "2.5e9", want: 2.5e9},
		{name: "bad string", in: "abc", wantErr: true},
		{name: "bool", in: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Float64(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrBadValue) {
					t.Errorf("Float64(%v) error = %v, want ErrBadValue", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Float64(%v) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Float64(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInt(t *testing.T) {
	if got, err := Int(float64(5)); err != nil || got != 5 {
		t.Errorf("Int(5.0) = %v, %v; want 5, nil", got, err)
	}
	if _, err := Int(5.5); !errors.Is(err, ErrBadValue) {
		t.Errorf("Int(5.5) error = %v, want ErrBadValue", err)
	}
	if got, err := Int("401"); err != nil || got != 401 {
		t.Errorf("Int(\"401\") = %v, %v; want 401, nil", got, err)
	}
}

func TestBool(t *testing.T) {
	if got, err := Bool(true); err != nil || !got {
		t.Errorf("Bool(true) = %v, %v; want true, nil", got, err)
	}
	if got, err := Bool("false"); err != nil || got {
		t.Errorf("Bool(\"false\") = %v, %v; want false, nil", got, err)
	}
	if _, err := Bool(3); !errors.Is(err, ErrBadValue) {
		t.Errorf("Bool(3) error = %v, want ErrBadValue", err)
	}
}

func TestString(t *testing.T) {
	if got, err := String("ON"); err != nil || got != "ON" {
		t.Errorf("String(\"ON\") = %v, %v; want ON, nil", got, err)
	}
	if _, err := String(1.5); !errors.Is(err, ErrBadValue) {
		t.Errorf("String(1.5) error = %v, want ErrBadValue", err)
	}
}
