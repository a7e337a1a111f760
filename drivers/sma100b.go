package drivers

import (
	"fmt"
	"math"

	"github.com/biqute/qtics/config"
	"github.com/biqute/qtics/instrument"
)

func init() {
	Register("sma100b", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewSMA100B(cfg.Name, cfg.Address, networkConfig(cfg)), nil
	})
}

// SMA100B frequency limits in Hz.
const (
	sma100bFreqMin = 8e3
	sma100bFreqMax = 20e9
)

// SMA100B drives the Rohde & Schwarz SMA100B RF and microwave signal
// generator.
type SMA100B struct {
	*instrument.NetworkInstrument
}

// NewSMA100B creates an SMA100B driver. The connection is opened by
// Connect.
func NewSMA100B(name, address string, cfg instrument.NetworkConfig) *SMA100B {
	g := &SMA100B{NetworkInstrument: instrument.NewNetwork(name, address, cfg)}
	g.RegisterParam("rf_output", boolParam(g.SetRFOutput, g.RFOutput))
	g.RegisterParam("f_mode", stringParam(g.SetFreqMode, g.FreqMode))
	g.RegisterParam("f_fixed", floatParam(g.SetFFixed, g.FFixed))
	g.RegisterParam("f_mult", floatParam(g.SetFMult, g.FMult))
	g.RegisterParam("f_offset", floatParam(g.SetFOffset, g.FOffset))
	g.RegisterParam("f_min", floatParam(g.SetFMin, g.FMin))
	g.RegisterParam("f_max", floatParam(g.SetFMax, g.FMax))
	g.RegisterParam("f_center", floatParam(g.SetFCenter, g.FCenter))
	g.RegisterParam("f_span", floatParam(g.SetFSpan, g.FSpan))
	g.RegisterParam("f_step", floatParam(g.SetFStep, g.FStep))
	g.RegisterParam("f_dwell", floatParam(g.SetFDwell, g.FDwell))
	g.RegisterParam("f_sweep_mode", stringParam(g.SetFSweepMode, g.FSweepMode))
	g.RegisterParam("phase", floatParam(g.SetPhase, g.Phase))
	g.RegisterParam("p_unit", stringParam(g.SetPowerUnit, g.PowerUnit))
	g.RegisterParam("p_mode", stringParam(g.SetPowerMode, g.PowerMode))
	g.RegisterParam("p_fixed", floatParam(g.SetPFixed, g.PFixed))
	g.RegisterParam("p_min", floatParam(g.SetPMin, g.PMin))
	g.RegisterParam("p_max", floatParam(g.SetPMax, g.PMax))
	g.RegisterParam("p_step", floatParam(g.SetPStep, g.PStep))
	g.RegisterParam("p_dwell", floatParam(g.SetPDwell, g.PDwell))
	g.RegisterParam("p_sweep_mode", stringParam(g.SetPSweepMode, g.PSweepMode))
	g.RegisterParam("screen_saver_time", intParam(g.SetScreenSaverTime, g.ScreenSaverTime))
	return g
}

// Clear empties the output buffer.
func (g *SMA100B) Clear() error {
	return g.Write("*CLS", false)
}

// Wait holds off subsequent commands until all preceding ones have executed
// and the output has settled.
func (g *SMA100B) Wait() error {
	return g.Write("*WAI", false)
}

// Completed reports whether all preceding commands have been executed.
func (g *SMA100B) Completed() (bool, error) {
	resp, err := g.Query("*OPC?")
	if err != nil {
		return false, err
	}
	return resp == "1", nil
}

// Calibrate runs or inspects the internal adjustments. Valid options are
// MEAS, DATE, INF, TEMP and TIME.
func (g *SMA100B) Calibrate(opt string) (string, error) {
	opt, err := instrument.ValidateOpt(opt, "MEAS", "DATE", "INF", "TEMP", "TIME")
	if err != nil {
		return "", err
	}
	return g.Query(fmt.Sprintf("CAL:ALL:%s?", opt))
}

// Diagnostic queries servicing counters. Valid options are OTIM (operating
// hours) and POC (power-on count).
func (g *SMA100B) Diagnostic(opt string) (string, error) {
	opt, err := instrument.ValidateOpt(opt, "OTIM", "POC")
	if err != nil {
		return "", err
	}
	return g.Query(fmt.Sprintf("DIAG:INFO:%s?", opt))
}

// ScreenSaverTime returns the display saver delay in minutes.
func (g *SMA100B) ScreenSaverTime() (int, error) {
	return queryInt(g, "DISP:PSAV:HOLD?")
}

// SetScreenSaverTime sets the display saver delay in minutes, clamped to
// [0, 61].
func (g *SMA100B) SetScreenSaverTime(minutes int) error {
	minutes = int(g.ClampRange("screen_saver_time", float64(minutes), 0, 61))
	return g.Write(fmt.Sprintf("DISP:PSAV:HOLD %d", minutes), false)
}

// SetScreenSaverMode switches the display saver on or off.
func (g *SMA100B) SetScreenSaverMode(state string) error {
	state, err := instrument.ValidateOpt(state, "ON", "OFF")
	if err != nil {
		return err
	}
	return g.Write("DISP:PSAV:STAT "+state, false)
}

// RFOutput reports whether the RF output signal is active.
func (g *SMA100B) RFOutput() (bool, error) {
	resp, err := g.Query("OUTP:STAT?")
	if err != nil {
		return false, err
	}
	return onOff(resp), nil
}

// SetRFOutput switches the RF output signal.
func (g *SMA100B) SetRFOutput(on bool) error {
	state := "OFF"
	if on {
		state = "ON"
	}
	return g.Write("OUTP:STAT "+state, false)
}

// FreqMode returns the frequency mode of the RF output.
func (g *SMA100B) FreqMode() (string, error) {
	return g.Query("SOUR:FREQ:MODE?")
}

// SetFreqMode selects CW or SWEEP frequency operation.
func (g *SMA100B) SetFreqMode(mode string) error {
	mode, err := instrument.ValidateOpt(mode, "CW", "SWEEP")
	if err != nil {
		return err
	}
	return g.Write("SOUR:FREQ:MODE "+mode, false)
}

// FFixed returns the CW frequency in Hz.
func (g *SMA100B) FFixed() (float64, error) {
	return queryFloat(g, "SOUR:FREQ:CW?")
}

// SetFFixed sets the CW frequency in Hz.
func (g *SMA100B) SetFFixed(f float64) error {
	f = g.ClampRange("f_fixed", f, sma100bFreqMin, sma100bFreqMax)
	return g.Write(fmt.Sprintf("SOUR:FREQ:CW %v", f), false)
}

// FMult returns the frequency multiplier of a downstream instrument.
func (g *SMA100B) FMult() (float64, error) {
	return queryFloat(g, "SOUR:FREQ:MULT?")
}

// SetFMult sets the frequency multiplier of a downstream instrument.
func (g *SMA100B) SetFMult(n float64) error {
	n = g.ClampRange("f_mult", n, -10000, 10000)
	return g.Write(fmt.Sprintf("SOUR:FREQ:MULT %v", n), false)
}

// FOffset returns the frequency offset of a downstream instrument in Hz.
func (g *SMA100B) FOffset() (float64, error) {
	return queryFloat(g, "SOUR:FREQ:OFFS?")
}

// SetFOffset sets the frequency offset of a downstream instrument in Hz.
func (g *SMA100B) SetFOffset(f float64) error {
	f = g.ClampRange("f_offset", f, sma100bFreqMin, sma100bFreqMax)
	return g.Write(fmt.Sprintf("SOUR:FREQ:OFFS %v", f), false)
}

// FSweepMode returns the trigger source of the frequency sweep.
func (g *SMA100B) FSweepMode() (string, error) {
	return g.Query("TRIG:FSW:SOUR?")
}

// SetFSweepMode selects the trigger source of the frequency sweep.
func (g *SMA100B) SetFSweepMode(mode string) error {
	mode, err := instrument.ValidateOpt(mode, "EXT", "EAUT")
	if err != nil {
		return err
	}
	return g.Write("TRIG:FSW:SOUR "+mode, false)
}

// FSweepDone reports whether the running frequency sweep has finished.
func (g *SMA100B) FSweepDone() (bool, error) {
	resp, err := g.Query("SOUR:SWE:FREQ:RUNN?")
	if err != nil {
		return false, err
	}
	return resp == "0", nil
}

// FMin returns the sweep start frequency in Hz.
func (g *SMA100B) FMin() (float64, error) {
	return queryFloat(g, "SOUR:FREQ:STAR?")
}

// SetFMin sets the sweep start frequency in Hz.
func (g *SMA100B) SetFMin(f float64) error {
	f = g.ClampRange("f_min", f, sma100bFreqMin, sma100bFreqMax)
	return g.Write(fmt.Sprintf("SOUR:FREQ:STAR %v", f), false)
}

// FMax returns the sweep stop frequency in Hz.
func (g *SMA100B) FMax() (float64, error) {
	return queryFloat(g, "SOUR:FREQ:STOP?")
}

// SetFMax sets the sweep stop frequency in Hz.
func (g *SMA100B) SetFMax(f float64) error {
	f = g.ClampRange("f_max", f, sma100bFreqMin, sma100bFreqMax)
	return g.Write(fmt.Sprintf("SOUR:FREQ:STOP %v", f), false)
}

// FCenter returns the sweep center frequency in Hz.
func (g *SMA100B) FCenter() (float64, error) {
	return queryFloat(g, "SOUR:FREQ:CENT?")
}

// SetFCenter sets the sweep center frequency in Hz.
func (g *SMA100B) SetFCenter(f float64) error {
	f = g.ClampRange("f_center", f, sma100bFreqMin, sma100bFreqMax)
	return g.Write(fmt.Sprintf("SOUR:FREQ:CENT %v", f), false)
}

// FSpan returns the sweep span in Hz.
func (g *SMA100B) FSpan() (float64, error) {
	return queryFloat(g, "SOUR:FREQ:SPAN?")
}

// SetFSpan sets the sweep span in Hz.
func (g *SMA100B) SetFSpan(f float64) error {
	f = g.ClampRange("f_span", f, sma100bFreqMin, sma100bFreqMax)
	return g.Write(fmt.Sprintf("SOUR:FREQ:SPAN %v", math.Abs(f)), false)
}

// FStep returns the linear sweep step width in Hz.
func (g *SMA100B) FStep() (float64, error) {
	return queryFloat(g, "SOUR:SWE:FREQ:STEP:LIN?")
}

// SetFStep sets the linear sweep step width in Hz. The step is clamped to
// the current sweep width.
func (g *SMA100B) SetFStep(f float64) error {
	fmin, err := g.FMin()
	if err != nil {
		return err
	}
	fmax, err := g.FMax()
	if err != nil {
		return err
	}
	f = g.ClampRange("f_step", f, 0.001, math.Abs(fmax-fmin))
	return g.Write(fmt.Sprintf("SOUR:SWE:FREQ:STEP:LIN %v Hz", f), false)
}

// FDwell returns the dwell time of a frequency sweep step in seconds.
func (g *SMA100B) FDwell() (float64, error) {
	return queryFloat(g, "SOUR:SWE:FREQ:DWEL?")
}

// SetFDwell sets the dwell time of a frequency sweep step in seconds,
// clamped to [1 ms, 100 s].
func (g *SMA100B) SetFDwell(seconds float64) error {
	seconds = g.ClampRange("f_dwell", seconds, 0.001, 100)
	return g.Write(fmt.Sprintf("SOUR:SWE:FREQ:DWEL %v", seconds), false)
}

// Phase returns the phase offset relative to the current phase, in degrees.
func (g *SMA100B) Phase() (float64, error) {
	return queryFloat(g, "SOUR:PHAS?")
}

// SetPhase sets the phase offset in degrees, clamped to [-36000, 36000].
func (g *SMA100B) SetPhase(deg float64) error {
	deg = g.ClampRange("phase", deg, -36000, 36000)
	return g.Write(fmt.Sprintf("SOUR:PHAS %v DEG", deg), false)
}

// SetPhaseRef adopts the current phase as the reference phase.
func (g *SMA100B) SetPhaseRef() error {
	return g.Write("SOUR:PHAS:REF", false)
}

// PowerUnit returns the default unit for power parameters.
func (g *SMA100B) PowerUnit() (string, error) {
	return g.Query("UNIT:POW?")
}

// SetPowerUnit selects the default unit for power parameters.
func (g *SMA100B) SetPowerUnit(unit string) error {
	unit, err := instrument.ValidateOpt(unit, "V", "DBUV", "DBM")
	if err != nil {
		return err
	}
	return g.Write("UNIT:POW "+unit, false)
}

// PowerMode returns the operating mode of the output level.
func (g *SMA100B) PowerMode() (string, error) {
	return g.Query("SOUR:POW:MODE?")
}

// SetPowerMode selects CW or SWEEP level operation.
func (g *SMA100B) SetPowerMode(mode string) error {
	mode, err := instrument.ValidateOpt(mode, "CW", "SWEEP")
	if err != nil {
		return err
	}
	return g.Write("SOUR:POW:MODE "+mode, false)
}

// PFixed returns the RF level applied to the DUT.
func (g *SMA100B) PFixed() (float64, error) {
	return queryFloat(g, "SOUR:POW:LEV:IMM:AMPL?")
}

// SetPFixed sets the RF level applied to the DUT.
func (g *SMA100B) SetPFixed(p float64) error {
	return g.Write(fmt.Sprintf("SOUR:POW:LEV:IMM:AMPL %v", p), false)
}

// PSweepMode returns the trigger source of the level sweep.
func (g *SMA100B) PSweepMode() (string, error) {
	return g.Query("TRIG:PSW:SOUR?")
}

// SetPSweepMode selects the trigger source of the level sweep.
func (g *SMA100B) SetPSweepMode(mode string) error {
	mode, err := instrument.ValidateOpt(mode, "AUTO", "SING", "EXT", "EAUT")
	if err != nil {
		return err
	}
	return g.Write("TRIG:PSW:SOUR "+mode, false)
}

// PSweepDone reports whether the running level sweep has finished.
func (g *SMA100B) PSweepDone() (bool, error) {
	resp, err := g.Query("SOUR:SWE:POW:RUNN?")
	if err != nil {
		return false, err
	}
	return resp == "0", nil
}

// PMin returns the start level of the RF sweep.
func (g *SMA100B) PMin() (float64, error) {
	return queryFloat(g, "SOUR:POW:STAR?")
}

// SetPMin sets the start level of the RF sweep.
func (g *SMA100B) SetPMin(p float64) error {
	return g.Write(fmt.Sprintf("SOUR:POW:STAR %v", p), false)
}

// PMax returns the stop level of the RF sweep.
func (g *SMA100B) PMax() (float64, error) {
	return queryFloat(g, "SOUR:POW:STOP?")
}

// SetPMax sets the stop level of the RF sweep.
func (g *SMA100B) SetPMax(p float64) error {
	return g.Write(fmt.Sprintf("SOUR:POW:STOP %v", p), false)
}

// PStep returns the logarithmic step size of the level sweep in dB.
func (g *SMA100B) PStep() (float64, error) {
	return queryFloat(g, "SOUR:SWE:POW:STEP:LOG?")
}

// SetPStep sets the logarithmic step size of the level sweep in dB, clamped
// to [0.01, 139].
func (g *SMA100B) SetPStep(p float64) error {
	p = g.ClampRange("p_step", p, 0.01, 139)
	return g.Write(fmt.Sprintf("SOUR:SWE:POW:STEP:LOG %v DB", p), false)
}

// PDwell returns the dwell time of a level sweep step in seconds.
func (g *SMA100B) PDwell() (float64, error) {
	return queryFloat(g, "SOUR:SWE:POW:DWEL?")
}

// SetPDwell sets the dwell time of a level sweep step in seconds, clamped
// to [1 ms, 100 s].
func (g *SMA100B) SetPDwell(seconds float64) error {
	seconds = g.ClampRange("p_dwell", seconds, 0.001, 100)
	return g.Write(fmt.Sprintf("SOUR:SWE:POW:DWEL %v", seconds), false)
}

// Sweep fires a one-off frequency or level sweep.
func (g *SMA100B) Sweep() error {
	return g.Write("*TRG", false)
}
