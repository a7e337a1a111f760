package drivers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/biqute/qtics/config"
	"github.com/biqute/qtics/instrument"
)

func init() {
	Register("triton", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewTriton(cfg.Name, cfg.Address, TritonConfig{
			Port:    cfg.Port,
			Timeout: cfg.Timeout,
			Settle:  cfg.Settle,
		}), nil
	})
}

const (
	// defaultTritonPort is the TCP port of the Triton control software.
	defaultTritonPort = 33576

	// maxMixingSetpointMK bounds the mixing chamber setpoint. The sample
	// stage must never be commanded above it.
	maxMixingSetpointMK = 200
)

// TritonConfig carries the transport settings of the cryostat controller.
type TritonConfig struct {
	Port    int
	Timeout time.Duration
	Settle  time.Duration

	// AllowSetpoints enables the control-loop setters. Temperature reads
	// are always available.
	AllowSetpoints bool
}

// Triton drives the Oxford Instruments Triton dilution refrigerator
// controller.
//
// The controller does not speak SCPI: commands carry no query marker and
// every reply mirrors the command before the value, so reads go through a
// prefix-stripping ask instead of Query.
type Triton struct {
	*instrument.NetworkInstrument

	allowSetpoints bool
}

// NewTriton creates a Triton driver. The connection is opened by Connect.
func NewTriton(name, address string, cfg TritonConfig) *Triton {
	if cfg.Port == 0 {
		cfg.Port = defaultTritonPort
	}
	t := &Triton{
		NetworkInstrument: instrument.NewNetwork(name, address, instrument.NetworkConfig{
			Port:    cfg.Port,
			Timeout: cfg.Timeout,
			Settle:  cfg.Settle,
		}),
		allowSetpoints: cfg.AllowSetpoints,
	}
	t.RegisterParam("mixing_chamber_temp", floatParam(nil, t.MixingChamberTemp))
	t.RegisterParam("still_temp", floatParam(nil, t.StillTemp))
	t.RegisterParam("cool_temp", floatParam(nil, t.CoolTemp))
	t.RegisterParam("pt1_temp", floatParam(nil, t.PT1Temp))
	t.RegisterParam("pt2_temp", floatParam(nil, t.PT2Temp))
	t.RegisterParam("sorb_temp", floatParam(nil, t.SorbTemp))
	t.RegisterParam("heater_range", floatParam(t.SetHeaterRange, t.HeaterRange))
	t.RegisterParam("mixing_chamber_setpoint", floatParam(t.SetMixingChamberSetpoint, t.MixingChamberSetpoint))
	t.RegisterParam("status", stringParam(nil, t.Status))
	t.RegisterParam("action", stringParam(nil, t.Action))
	t.RegisterParam("allow_setpoints", boolParam(
		func(on bool) error { t.allowSetpoints = on; return nil },
		func() (bool, error) { return t.allowSetpoints, nil },
	))
	return t
}

// Reset applies the recorded defaults when asked. The control software has no
// power-on reset command, so without defaults there is nothing to restore.
func (t *Triton) Reset(applyDefaults bool) error {
	if applyDefaults {
		return t.ApplyDefaults()
	}
	return nil
}

// ask sends a command and strips the mirrored command prefix from the
// reply, returning only the value.
func (t *Triton) ask(cmd string) (string, error) {
	if err := t.Write(cmd, true); err != nil {
		return "", err
	}
	resp, err := t.Read()
	if err != nil {
		return "", err
	}
	if len(resp) <= len(cmd)+1 {
		return "", fmt.Errorf("drivers: short reply %q to %q", resp, cmd)
	}
	return resp[len(cmd)+1:], nil
}

// sensorTemp reads one thermometer channel in kelvin.
func (t *Triton) sensorTemp(sensor string) (float64, error) {
	raw, err := t.ask("READ:DEV:" + sensor + ":TEMP:SIG:TEMP")
	if err != nil {
		return 0, err
	}
	value, ok := strings.CutSuffix(raw, "K")
	if !ok {
		return 0, fmt.Errorf("drivers: temperature reply %q has no unit", raw)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("drivers: temperature reply %q is not a number", raw)
	}
	return f, nil
}

// MixingChamberTemp returns the mixing chamber temperature in mK.
func (t *Triton) MixingChamberTemp() (float64, error) {
	k, err := t.sensorTemp("T8")
	if err != nil {
		return 0, err
	}
	return k * 1000, nil
}

// StillTemp returns the still temperature in K.
func (t *Triton) StillTemp() (float64, error) {
	return t.sensorTemp("T3")
}

// CoolTemp returns the cold plate temperature in K.
func (t *Triton) CoolTemp() (float64, error) {
	return t.sensorTemp("T5")
}

// PT1Temp returns the first pulse tube stage temperature in K.
func (t *Triton) PT1Temp() (float64, error) {
	return t.sensorTemp("T7")
}

// PT2Temp returns the second pulse tube stage temperature in K.
func (t *Triton) PT2Temp() (float64, error) {
	return t.sensorTemp("T2")
}

// SorbTemp returns the sorb temperature in K.
func (t *Triton) SorbTemp() (float64, error) {
	return t.sensorTemp("T11")
}

// HeaterRange returns the mixing chamber heater range in mA.
func (t *Triton) HeaterRange() (float64, error) {
	raw, err := t.ask("READ:DEV:T8:TEMP:LOOP:RANGE")
	if err != nil {
		return 0, err
	}
	if raw == "NOT_FOUND" {
		return 0, fmt.Errorf("%w: heater range", ErrNotConfigured)
	}
	if len(raw) < 3 {
		return 0, fmt.Errorf("drivers: heater range reply %q too short", raw)
	}

	var scale float64
	switch unit := raw[len(raw)-2:]; unit {
	case "uA":
		scale = 1e-3
	case "mA":
		scale = 1
	default:
		return 0, fmt.Errorf("drivers: heater range reply %q has unknown unit", raw)
	}
	f, err := strconv.ParseFloat(raw[:len(raw)-2], 64)
	if err != nil {
		return 0, fmt.Errorf("drivers: heater range reply %q is not a number", raw)
	}
	return f * scale, nil
}

// SetHeaterRange sets the mixing chamber heater range in mA. Only the
// instrument's discrete ranges are accepted.
func (t *Triton) SetHeaterRange(rangeMA float64) error {
	if !t.allowSetpoints {
		return fmt.Errorf("%w: heater range on %s", ErrSetpointsDisabled, t.Name())
	}

	allowed := []float64{0.0316, 0.1, 0.316, 1, 3.16, 10, 31.6, 100}
	ok := false
	for _, a := range allowed {
		if rangeMA == a {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: heater range %v not in %v", instrument.ErrInvalidOption, rangeMA, allowed)
	}
	return t.Write(fmt.Sprintf("SET:DEV:T8:TEMP:LOOP:RANGE:%v", rangeMA/1000), false)
}

// MixingChamberSetpoint returns the mixing chamber temperature setpoint in
// mK.
func (t *Triton) MixingChamberSetpoint() (float64, error) {
	raw, err := t.ask("READ:DEV:T8:TEMP:LOOP:TSET")
	if err != nil {
		return 0, err
	}
	if raw == "NOT_FOUND" {
		return 0, fmt.Errorf("%w: mixing chamber setpoint", ErrNotConfigured)
	}
	value, ok := strings.CutSuffix(raw, "K")
	if !ok {
		return 0, fmt.Errorf("drivers: setpoint reply %q has no unit", raw)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("drivers: setpoint reply %q is not a number", raw)
	}
	return f * 1000, nil
}

// SetMixingChamberSetpoint sets the mixing chamber temperature setpoint in
// mK. Setpoints above 200 mK are rejected.
func (t *Triton) SetMixingChamberSetpoint(mk float64) error {
	if !t.allowSetpoints {
		return fmt.Errorf("%w: mixing chamber setpoint on %s", ErrSetpointsDisabled, t.Name())
	}
	if mk > maxMixingSetpointMK {
		return fmt.Errorf("drivers: mixing chamber setpoint %v mK above the %v mK limit", mk, maxMixingSetpointMK)
	}
	return t.Write(fmt.Sprintf("SET:DEV:T8:TEMP:LOOP:TSET:%v", mk/1000), false)
}

// Status returns the state reported by the cryostat control software.
func (t *Triton) Status() (string, error) {
	return t.ask("READ:SYS:DR:STATUS")
}

// Action returns a description of the automation step the cryostat is
// currently executing.
func (t *Triton) Action() (string, error) {
	state, err := t.Status()
	if err != nil {
		return "", err
	}
	if state != "OK" {
		return "", fmt.Errorf("drivers: cryostat status %q", state)
	}

	msg, err := t.ask("READ:SYS:DR:ACTN")
	if err != nil {
		return "", err
	}
	switch msg {
	case "PCL":
		return "Precooling", nil
	case "EPCL":
		return "Empty precool loop", nil
	case "COND":
		return "Condensing", nil
	case "COLL":
		return "Collecting mixture", nil
	case "NONE":
		// An idle dilution unit with a cold mixing chamber is still
		// circulating mixture.
		mc, err := t.MixingChamberTemp()
		if err != nil {
			return "", err
		}
		if mc < 2000 {
			return "Circulating", nil
		}
		return "Idle", nil
	}
	return "Unknown", nil
}
