package drivers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/biqute/qtics/config"
	"github.com/biqute/qtics/instrument"
)

func init() {
	Register("keithley2231a", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewKeithley2231A(cfg.Name, cfg.Address, serialConfig(cfg)), nil
	})
}

// Keithley2231A drives the Keithley 2231A-30-3 triple channel DC power
// supply. Channels 1 and 2 source up to 30 V, channel 3 up to 5 V, all at
// 3 A.
type Keithley2231A struct {
	*instrument.SerialInstrument
}

// NewKeithley2231A creates a Keithley 2231A driver. The connection is
// opened by Connect.
func NewKeithley2231A(name, address string, cfg instrument.SerialConfig) *Keithley2231A {
	k := &Keithley2231A{SerialInstrument: instrument.NewSerial(name, address, cfg)}
	k.RegisterParam("channel", intParam(k.SetChannel, k.Channel))
	k.RegisterParam("voltage", floatParam(k.SetVoltage, k.Voltage))
	k.RegisterParam("current", floatParam(k.SetCurrent, k.Current))
	k.RegisterParam("voltage_limit", floatParam(k.SetVoltageLimit, k.VoltageLimit))
	k.RegisterParam("current_limit", floatParam(k.SetCurrentLimit, k.CurrentLimit))
	k.RegisterParam("output", boolParam(k.SetOutput, k.Output))
	return k
}

// Connect opens the serial port and puts the supply in remote mode.
func (k *Keithley2231A) Connect() error {
	if err := k.SerialInstrument.Connect(); err != nil {
		return err
	}
	return k.Write("SYST:REM", false)
}

// Disconnect hands the supply back to its front panel and closes the
// port.
func (k *Keithley2231A) Disconnect() error {
	if k.Connected() {
		if err := k.Write("SYST:LOC", false); err != nil {
			return err
		}
	}
	return k.SerialInstrument.Disconnect()
}

// Completed reports whether all pending operations have finished.
func (k *Keithley2231A) Completed() (bool, error) {
	resp, err := k.Query("*OPC?")
	if err != nil {
		return false, err
	}
	return resp == "1", nil
}

// Clear resets the status and error registers.
func (k *Keithley2231A) Clear() error {
	return k.Write("*CLS", false)
}

// Wait blocks command processing until pending operations complete.
func (k *Keithley2231A) Wait() error {
	return k.Write("*WAI", false)
}

// Save stores the present state in one of the memory slots 0 to 30.
func (k *Keithley2231A) Save(slot int) error {
	s := int(k.ClampRange("memory slot", float64(slot), 0, 30))
	return k.Write(fmt.Sprintf("*SAV %d", s), false)
}

// Recall restores the state stored in one of the memory slots 0 to 30.
func (k *Keithley2231A) Recall(slot int) error {
	s := int(k.ClampRange("memory slot", float64(slot), 0, 30))
	return k.Write(fmt.Sprintf("*RCL %d", s), false)
}

// Channel returns the selected output channel.
func (k *Keithley2231A) Channel() (int, error) {
	resp, err := k.Query("INST:NSEL?")
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(resp)
	if len(fields) == 0 {
		return 0, fmt.Errorf("drivers: empty reply to %q", "INST:NSEL?")
	}
	ch, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, fmt.Errorf("drivers: reply %q to %q is not a channel", resp, "INST:NSEL?")
	}
	return ch, nil
}

// SetChannel selects the output channel 1, 2 or 3. Subsequent source
// settings address the selected channel.
func (k *Keithley2231A) SetChannel(ch int) error {
	if _, err := instrument.ValidateOptInt(ch, 1, 2, 3); err != nil {
		return err
	}
	return k.Write(fmt.Sprintf("INST:NSEL %d", ch), false)
}

// maxVoltage returns the full scale voltage of the selected channel.
func (k *Keithley2231A) maxVoltage() (float64, error) {
	ch, err := k.Channel()
	if err != nil {
		return 0, err
	}
	if ch == 3 {
		return 5, nil
	}
	return 30, nil
}

// Voltage returns the voltage setting of the selected channel in volts.
func (k *Keithley2231A) Voltage() (float64, error) {
	return queryFloat(k, "SOUR:VOLT:LEV:IMM:AMPL?")
}

// SetVoltage sets the voltage of the selected channel in volts, clamped
// to the channel's full scale.
func (k *Keithley2231A) SetVoltage(v float64) error {
	vmax, err := k.maxVoltage()
	if err != nil {
		return err
	}
	v = k.ClampRange("voltage", v, 0, vmax)
	return k.Write(fmt.Sprintf("SOUR:VOLT:LEV:IMM:AMPL %v", v), false)
}

// Current returns the current setting of the selected channel in amperes.
func (k *Keithley2231A) Current() (float64, error) {
	return queryFloat(k, "SOUR:CURR:LEV:IMM:AMPL?")
}

// SetCurrent sets the current of the selected channel in amperes, clamped
// to 0 to 3 A.
func (k *Keithley2231A) SetCurrent(a float64) error {
	a = k.ClampRange("current", a, 0, 3)
	return k.Write(fmt.Sprintf("SOUR:CURR:LEV:IMM:AMPL %v", a), false)
}

// VoltageLimit returns the voltage limit of the selected channel in
// volts.
func (k *Keithley2231A) VoltageLimit() (float64, error) {
	return queryFloat(k, "SOUR:VOLT:LIMIT:LEV?")
}

// SetVoltageLimit sets the voltage limit of the selected channel in
// volts, clamped to the channel's full scale.
func (k *Keithley2231A) SetVoltageLimit(v float64) error {
	vmax, err := k.maxVoltage()
	if err != nil {
		return err
	}
	v = k.ClampRange("voltage limit", v, 0, vmax)
	return k.Write(fmt.Sprintf("SOUR:VOLT:LIMIT:LEV %v", v), false)
}

// CurrentLimit returns the current limit of the selected channel in
// amperes.
func (k *Keithley2231A) CurrentLimit() (float64, error) {
	return queryFloat(k, "SOUR:CURR:LIMIT:LEV?")
}

// SetCurrentLimit sets the current limit of the selected channel in
// amperes, clamped to 0 to 3 A.
func (k *Keithley2231A) SetCurrentLimit(a float64) error {
	a = k.ClampRange("current limit", a, 0, 3)
	return k.Write(fmt.Sprintf("SOUR:CURR:LIMIT:LEV %v", a), false)
}

// Output reports whether the selected channel output is on.
func (k *Keithley2231A) Output() (bool, error) {
	resp, err := k.Query("CHAN:OUTP?")
	if err != nil {
		return false, err
	}
	return onOff(resp), nil
}

// SetOutput switches the selected channel output on or off.
func (k *Keithley2231A) SetOutput(on bool) error {
	return k.Write(fmt.Sprintf("CHAN:OUTP %d", flag(on)), false)
}
