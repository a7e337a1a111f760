package drivers

import (
	"fmt"
	"math"
	"time"

	"github.com/biqute/qtics/config"
	"github.com/biqute/qtics/instrument"
)

func init() {
	Register("n9916a.vna", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewVNAN9916A(cfg.Name, cfg.Address, networkConfig(cfg)), nil
	})
	Register("n9916a.sa", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewSAN9916A(cfg.Name, cfg.Address, networkConfig(cfg)), nil
	})
}

const (
	// measTimeFactor pads the expected acquisition time of a free-running
	// sweep before the trace is read back.
	measTimeFactor = 1.02

	// n9916aMaxPoints is the instrument's sweep point limit.
	n9916aMaxPoints = 10001

	// Sweeps with averaging hold the *OPC? reply until acquisition
	// finishes, which takes minutes at narrow IF bandwidths.
	defaultN9916ATimeout = 120 * time.Second
)

// n9916a holds the behaviour shared by both operating modes of the Keysight
// N9916A FieldFox handheld analyzer.
type n9916a struct {
	*instrument.NetworkInstrument

	trace     int
	maxPoints int
}

func newN9916A(name, address string, cfg instrument.NetworkConfig) n9916a {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultN9916ATimeout
	}
	return n9916a{
		NetworkInstrument: instrument.NewNetwork(name, address, cfg),
		trace:             1,
		maxPoints:         n9916aMaxPoints,
	}
}

// WriteAndHold sends a command and blocks until the instrument reports it
// has been processed.
func (d *n9916a) WriteAndHold(cmd string) error {
	if err := d.Write(cmd, false); err != nil {
		return err
	}
	return d.Hold()
}

// Hold blocks until all pending commands have been processed.
func (d *n9916a) Hold() error {
	resp, err := d.Query("*OPC?")
	if err != nil {
		return err
	}
	if resp != "1" {
		return fmt.Errorf("drivers: operation complete query returned %q", resp)
	}
	return nil
}

// Clear empties the error queue and all status registers.
func (d *n9916a) Clear() error {
	return d.WriteAndHold("*CLS")
}

func (d *n9916a) mode() (string, error) {
	return d.Query("INST:SEL?")
}

func (d *n9916a) setMode(mode string) error {
	mode, err := instrument.ValidateOpt(mode, "SA", "NA", "CAT")
	if err != nil {
		return err
	}
	return d.WriteAndHold(fmt.Sprintf("INST:SEL %q", mode))
}

// FMin returns the sweep start frequency in Hz.
func (d *n9916a) FMin() (float64, error) {
	return queryFloat(d, "SENS:FREQ:START?")
}

// SetFMin sets the sweep start frequency in Hz.
func (d *n9916a) SetFMin(f float64) error {
	return d.Write(fmt.Sprintf("SENS:FREQ:START %v", math.Abs(f)), false)
}

// FMax returns the sweep stop frequency in Hz.
func (d *n9916a) FMax() (float64, error) {
	return queryFloat(d, "SENS:FREQ:STOP?")
}

// SetFMax sets the sweep stop frequency in Hz.
func (d *n9916a) SetFMax(f float64) error {
	return d.Write(fmt.Sprintf("SENS:FREQ:STOP %v", math.Abs(f)), false)
}

// FCenter returns the center frequency in Hz.
func (d *n9916a) FCenter() (float64, error) {
	return queryFloat(d, "SENS:FREQ:CENT?")
}

// SetFCenter sets the center frequency in Hz.
func (d *n9916a) SetFCenter(f float64) error {
	return d.Write(fmt.Sprintf("SENS:FREQ:CENT %.6f", math.Abs(f)), false)
}

// FSpan returns the frequency span in Hz.
func (d *n9916a) FSpan() (float64, error) {
	return queryFloat(d, "SENS:FREQ:SPAN?")
}

// SetFSpan sets the frequency span in Hz.
func (d *n9916a) SetFSpan(f float64) error {
	return d.Write(fmt.Sprintf("SENS:FREQ:SPAN %v", math.Abs(f)), false)
}

// SweepPoints returns the number of points in a sweep.
func (d *n9916a) SweepPoints() (int, error) {
	return queryInt(d, "SENS:SWE:POIN?")
}

// SetSweepPoints sets the number of points in a sweep, capped at the
// instrument limit.
func (d *n9916a) SetSweepPoints(n int) error {
	if n < 0 {
		n = -n
	}
	if n > d.maxPoints {
		n = d.maxPoints
	}
	return d.Write(fmt.Sprintf("SWE:POIN %d", n), false)
}

// SweepTime returns the time one sweep takes, in seconds.
func (d *n9916a) SweepTime() (float64, error) {
	return queryFloat(d, "SWE:TIME?")
}

// SweepMeasTime returns the full measurement time of one sweep, in seconds.
func (d *n9916a) SweepMeasTime() (float64, error) {
	return queryFloat(d, "SWE:MTIME?")
}

// Average returns the sweep average count.
func (d *n9916a) Average() (int, error) {
	return queryInt(d, "AVER:COUN?")
}

// SetAverage sets the sweep average count, clamped to [0, 100].
func (d *n9916a) SetAverage(n int) error {
	n = int(d.ClampRange("average", float64(n), 0, 100))
	return d.Write(fmt.Sprintf("SENSE:AVER:COUN %d", n), false)
}

// Continuous reports whether the instrument is in free-running acquisition.
func (d *n9916a) Continuous() (bool, error) {
	resp, err := d.Query("INIT:CONT?")
	if err != nil {
		return false, err
	}
	return resp != "0", nil
}

// SetContinuous switches between free-running and triggered acquisition.
func (d *n9916a) SetContinuous(on bool) error {
	return d.WriteAndHold(fmt.Sprintf("INIT:CONT %d", flag(on)))
}

// SingleSweep triggers one sweep and blocks until it completes. Free-running
// acquisition is switched off first.
func (d *n9916a) SingleSweep() error {
	cont, err := d.Continuous()
	if err != nil {
		return err
	}
	if cont {
		d.Logger().Warn("disabling continuous acquisition for single sweep", "name", d.Name())
		if err := d.SetContinuous(false); err != nil {
			return err
		}
	}
	return d.WriteAndHold("INIT:IMM")
}

// DataFormat returns the trace transfer format.
func (d *n9916a) DataFormat() (string, error) {
	return d.Query("FORM:DATA?")
}

// SetDataFormat sets the trace transfer format to REAL,32, REAL,64 or ASC,0.
func (d *n9916a) SetDataFormat(form string) error {
	form, err := instrument.ValidateOpt(form, "REAL,32", "REAL,64", "ASC,0")
	if err != nil {
		return err
	}
	return d.Write("FORM:DATA "+form, false)
}

// queryData reads a trace as a definite-length binary block of 64-bit
// floats.
func (d *n9916a) queryData(cmd string) ([]float64, error) {
	if err := d.SetDataFormat("REAL,64"); err != nil {
		return nil, err
	}
	return d.QueryBinary(cmd, instrument.BlockFloat64)
}

// registerCommon registers the parameters both operating modes share.
func (d *n9916a) registerCommon() {
	d.RegisterParam("f_min", floatParam(d.SetFMin, d.FMin))
	d.RegisterParam("f_max", floatParam(d.SetFMax, d.FMax))
	d.RegisterParam("f_center", floatParam(d.SetFCenter, d.FCenter))
	d.RegisterParam("f_span", floatParam(d.SetFSpan, d.FSpan))
	d.RegisterParam("sweep_points", intParam(d.SetSweepPoints, d.SweepPoints))
	d.RegisterParam("sweep_time", floatParam(nil, d.SweepTime))
	d.RegisterParam("average", intParam(d.SetAverage, d.Average))
	d.RegisterParam("continuous", boolParam(d.SetContinuous, d.Continuous))
	d.RegisterParam("data_format", stringParam(d.SetDataFormat, d.DataFormat))
}

// VNAN9916A drives the FieldFox in vector network analyzer mode.
//
// Connect selects NA mode and applies the standard S21 measurement setup,
// so a freshly connected instrument is ready to sweep.
type VNAN9916A struct {
	n9916a
}

// NewVNAN9916A creates a FieldFox VNA driver. The connection is opened by
// Connect.
func NewVNAN9916A(name, address string, cfg instrument.NetworkConfig) *VNAN9916A {
	v := &VNAN9916A{n9916a: newN9916A(name, address, cfg)}
	v.registerCommon()
	v.RegisterParam("s_par", stringParam(v.SetSPar, v.SPar))
	v.RegisterParam("yformat", stringParam(v.SetYFormat, v.YFormat))
	v.RegisterParam("smoothing", intParam(v.SetSmoothing, v.Smoothing))
	v.RegisterParam("average_mode", stringParam(v.SetAverageMode, v.AverageMode))
	v.RegisterParam("ifbw", floatParam(v.SetIFBW, v.IFBW))
	v.RegisterParam("power", floatParam(v.SetPower, v.Power))
	return v
}

// Connect opens the transport, clears the instrument, selects NA mode and
// applies the standard measurement setup.
func (v *VNAN9916A) Connect() error {
	if err := v.NetworkInstrument.Connect(); err != nil {
		return err
	}
	if err := v.Clear(); err != nil {
		return err
	}
	if err := v.Reset(false); err != nil {
		return err
	}
	if err := v.setMode("NA"); err != nil {
		return err
	}
	return v.Setup("S21")
}

// Setup configures a single-window measurement of the given S-parameter
// with log-magnitude display, 1 kHz IF bandwidth and no smoothing.
func (v *VNAN9916A) Setup(par string) error {
	if err := v.Write("DISP:WIND:SPL D1", false); err != nil {
		return err
	}
	if err := v.SetSPar(par); err != nil {
		return err
	}
	if err := v.ActivateTrace(); err != nil {
		return err
	}
	if err := v.Hold(); err != nil {
		return err
	}
	if err := v.SetYFormat("MLOG"); err != nil {
		return err
	}
	if err := v.SetIFBW(1000); err != nil {
		return err
	}
	if err := v.SetSmoothing(0); err != nil {
		return err
	}
	return v.SetDataFormat("REAL,64")
}

// Autoscale rescales the display of the selected trace.
func (v *VNAN9916A) Autoscale() error {
	return v.Write(fmt.Sprintf("DISP:WIND:TRAC%d:Y:AUTO", v.trace), false)
}

// ActivateTrace makes the selected trace the active one.
func (v *VNAN9916A) ActivateTrace() error {
	return v.Write(fmt.Sprintf("CALC:PAR%d:SEL", v.trace), false)
}

// SPar returns the measured scattering parameter.
func (v *VNAN9916A) SPar() (string, error) {
	return v.Query(fmt.Sprintf("CALC:PAR%d:DEF?", v.trace))
}

// SetSPar selects the scattering parameter to measure.
func (v *VNAN9916A) SetSPar(par string) error {
	par, err := instrument.ValidateOpt(par, "S11", "S21", "S12", "S22")
	if err != nil {
		return err
	}
	return v.Write(fmt.Sprintf("CALC:PAR%d:DEF %s", v.trace, par), false)
}

// YFormat returns the trace display format.
func (v *VNAN9916A) YFormat() (string, error) {
	return v.Query("CALC:FORM?")
}

// SetYFormat selects the trace display format.
func (v *VNAN9916A) SetYFormat(form string) error {
	form, err := instrument.ValidateOpt(form, "MLOG", "MLIN", "REAL", "IMAG", "ZMAG")
	if err != nil {
		return err
	}
	return v.Write("CALC:FORM "+form, false)
}

// Smoothing returns the smoothing aperture in points, or 0 when smoothing
// is off.
func (v *VNAN9916A) Smoothing() (int, error) {
	status, err := queryInt(v, "CALC:SMO?")
	if err != nil {
		return 0, err
	}
	if status == 0 {
		return 0, nil
	}
	return queryInt(v, "CALC:SMO:APER?")
}

// SetSmoothing sets the smoothing aperture in points. Zero disables
// smoothing.
func (v *VNAN9916A) SetSmoothing(aperture int) error {
	if aperture <= 0 {
		return v.Write("CALC:SMO 0", false)
	}
	if err := v.Write("CALC:SMO 1", false); err != nil {
		return err
	}
	return v.Write(fmt.Sprintf("CALC:SMO:APER %d", aperture), false)
}

// AverageMode returns the averaging mode, sweep-by-sweep or point-by-point.
func (v *VNAN9916A) AverageMode() (string, error) {
	return v.Query("AVER:MODE?")
}

// SetAverageMode selects SWE or POINT averaging.
func (v *VNAN9916A) SetAverageMode(mode string) error {
	mode, err := instrument.ValidateOpt(mode, "SWE", "POINT")
	if err != nil {
		return err
	}
	return v.Write("AVER:MODE "+mode, false)
}

// ClearAverage restarts averaging.
func (v *VNAN9916A) ClearAverage() error {
	return v.Write("AVER:CLE", false)
}

// IFBW returns the receiver IF bandwidth in Hz.
func (v *VNAN9916A) IFBW() (float64, error) {
	return queryFloat(v, "BWID?")
}

// SetIFBW sets the receiver IF bandwidth in Hz, capped at 100 kHz.
func (v *VNAN9916A) SetIFBW(bw float64) error {
	bw = math.Abs(bw)
	if bw > 100_000 {
		bw = 100_000
	}
	return v.Write(fmt.Sprintf("BWID %v", bw), false)
}

// Power returns the source power in dBm.
func (v *VNAN9916A) Power() (float64, error) {
	return queryFloat(v, "SOUR:POW?")
}

// SetPower sets the source power in dBm, clamped to [-45, 3] and rounded to
// one decimal.
func (v *VNAN9916A) SetPower(p float64) error {
	p = v.ClampRange("power", p, -45, 3)
	return v.Write(fmt.Sprintf("SOUR:POW %.1f", p), false)
}

// ReadFreqs reads the stimulus frequencies of the current trace.
func (v *VNAN9916A) ReadFreqs() ([]float64, error) {
	return v.queryData("FREQ:DATA?")
}

// Sweep acquires a complete measurement, honoring the averaging mode. In
// free-running acquisition it waits out the expected measurement time; in
// triggered acquisition it fires one sweep per average.
func (v *VNAN9916A) Sweep() error {
	if err := v.ClearAverage(); err != nil {
		return err
	}
	if err := v.Autoscale(); err != nil {
		return err
	}

	cont, err := v.Continuous()
	if err != nil {
		return err
	}
	avg, err := v.Average()
	if err != nil {
		return err
	}
	if avg < 1 {
		avg = 1
	}

	if cont {
		st, err := v.SweepTime()
		if err != nil {
			return err
		}
		time.Sleep(time.Duration(st * float64(avg) * measTimeFactor * float64(time.Second)))
		return nil
	}

	mode, err := v.AverageMode()
	if err != nil {
		return err
	}
	switch mode {
	case "SWE":
		for i := 0; i < avg; i++ {
			if err := v.WriteAndHold("INIT:IMM"); err != nil {
				return err
			}
		}
		return nil
	case "POINT":
		return v.WriteAndHold("INIT:IMM")
	}
	return fmt.Errorf("drivers: unexpected average mode %q", mode)
}

// ReadTraceIQ sweeps and reads the unformatted trace as complex values.
func (v *VNAN9916A) ReadTraceIQ() ([]complex128, error) {
	if err := v.Sweep(); err != nil {
		return nil, err
	}
	iq, err := v.queryData("CALC:DATA:SDATA?")
	if err != nil {
		return nil, err
	}
	if len(iq)%2 != 0 {
		return nil, fmt.Errorf("drivers: interleaved IQ data has odd length %d", len(iq))
	}
	z := make([]complex128, len(iq)/2)
	for i := range z {
		z[i] = complex(iq[2*i], iq[2*i+1])
	}
	return z, nil
}

// ReadTrace sweeps and reads the formatted trace. A non-empty yformat
// selects the display format first.
func (v *VNAN9916A) ReadTrace(yformat string) ([]float64, error) {
	if yformat != "" {
		if err := v.SetYFormat(yformat); err != nil {
			return nil, err
		}
	}
	if err := v.Sweep(); err != nil {
		return nil, err
	}
	return v.queryData("CALC:DATA:FDATA?")
}

// Snapshot applies the given settings, acquires one complete measurement
// and returns the stimulus frequencies with the complex trace.
func (v *VNAN9916A) Snapshot(settings ...instrument.Setting) ([]float64, []complex128, error) {
	if len(settings) > 0 {
		if err := v.Set(settings...); err != nil {
			return nil, nil, err
		}
	}
	if err := v.Hold(); err != nil {
		return nil, nil, err
	}
	z, err := v.ReadTraceIQ()
	if err != nil {
		return nil, nil, err
	}
	freqs, err := v.ReadFreqs()
	if err != nil {
		return nil, nil, err
	}
	if err := v.Hold(); err != nil {
		return nil, nil, err
	}
	return freqs, z, nil
}

// SnapshotTrace is Snapshot for a formatted trace.
func (v *VNAN9916A) SnapshotTrace(yformat string, settings ...instrument.Setting) ([]float64, []float64, error) {
	if len(settings) > 0 {
		if err := v.Set(settings...); err != nil {
			return nil, nil, err
		}
	}
	if err := v.Hold(); err != nil {
		return nil, nil, err
	}
	trace, err := v.ReadTrace(yformat)
	if err != nil {
		return nil, nil, err
	}
	freqs, err := v.ReadFreqs()
	if err != nil {
		return nil, nil, err
	}
	if err := v.Hold(); err != nil {
		return nil, nil, err
	}
	return freqs, trace, nil
}

// Survey scans [fStart, fEnd) in windows of fWindow Hz and concatenates the
// snapshots. The first point of every window duplicates the previous
// window's edge and is dropped.
func (v *VNAN9916A) Survey(fStart, fEnd, fWindow float64, settings ...instrument.Setting) ([]float64, []complex128, error) {
	if fWindow <= 0 {
		return nil, nil, fmt.Errorf("drivers: survey window must be positive, got %v", fWindow)
	}
	if len(settings) > 0 {
		if err := v.Set(settings...); err != nil {
			return nil, nil, err
		}
	}

	var freqs []float64
	var z []complex128
	for f := fStart; f < fEnd; f += fWindow {
		fw, zw, err := v.Snapshot(
			instrument.Setting{Name: "f_min", Value: f},
			instrument.Setting{Name: "f_max", Value: f + fWindow},
		)
		if err != nil {
			return nil, nil, err
		}
		if len(fw) > 0 {
			fw = fw[1:]
		}
		if len(zw) > 0 {
			zw = zw[1:]
		}
		freqs = append(freqs, fw...)
		z = append(z, zw...)
	}
	return freqs, z, nil
}

// SAN9916A drives the FieldFox in spectrum analyzer mode.
//
// Connect selects SA mode, switches to triggered acquisition and averaged
// traces, so a freshly connected instrument is ready to read.
type SAN9916A struct {
	n9916a
}

// NewSAN9916A creates a FieldFox spectrum analyzer driver. The connection
// is opened by Connect.
func NewSAN9916A(name, address string, cfg instrument.NetworkConfig) *SAN9916A {
	s := &SAN9916A{n9916a: newN9916A(name, address, cfg)}
	s.registerCommon()
	s.RegisterParam("attenuation", floatParam(s.SetAttenuation, s.Attenuation))
	s.RegisterParam("auto_attenuation", boolParam(s.SetAutoAttenuation, s.AutoAttenuation))
	s.RegisterParam("gain", boolParam(s.SetGain, s.Gain))
	s.RegisterParam("res_bandwidth", floatParam(s.SetResBandwidth, s.ResBandwidth))
	s.RegisterParam("auto_res_bandwidth", boolParam(s.SetAutoResBandwidth, s.AutoResBandwidth))
	s.RegisterParam("trace_type", stringParam(s.SetTraceType, s.TraceType))
	s.RegisterParam("average_type", stringParam(s.SetAverageType, s.AverageType))
	s.RegisterParam("yformat", stringParam(s.SetYFormat, s.YFormat))
	s.RegisterParam("yscale", stringParam(s.SetYScale, s.YScale))
	return s
}

// Connect opens the transport, clears the instrument and configures SA mode
// for triggered, averaged acquisition.
func (s *SAN9916A) Connect() error {
	if err := s.NetworkInstrument.Connect(); err != nil {
		return err
	}
	if err := s.Clear(); err != nil {
		return err
	}
	if err := s.Reset(false); err != nil {
		return err
	}
	if err := s.setMode("SA"); err != nil {
		return err
	}
	if err := s.SetContinuous(false); err != nil {
		return err
	}
	if err := s.SetTraceType("AVG"); err != nil {
		return err
	}
	return s.SetDataFormat("REAL,64")
}

// SetFullSpan spans the sweep over the instrument's entire frequency range.
func (s *SAN9916A) SetFullSpan() error {
	return s.Write("FREQ:SPAN:FULL", false)
}

// SetZeroSpan fixes the sweep at the center frequency.
func (s *SAN9916A) SetZeroSpan() error {
	return s.Write("FREQ:SPAN:ZERO", false)
}

// Attenuation returns the RF attenuation in dB.
func (s *SAN9916A) Attenuation() (float64, error) {
	return queryFloat(s, "POW:ATT?")
}

// SetAttenuation sets the RF attenuation in dB, clamped to [0, 100].
func (s *SAN9916A) SetAttenuation(att float64) error {
	att = s.ClampRange("attenuation", att, 0, 100)
	return s.Write(fmt.Sprintf("POW:ATT %v", att), false)
}

// AutoAttenuation reports whether RF attenuation is selected automatically.
func (s *SAN9916A) AutoAttenuation() (bool, error) {
	resp, err := s.Query("POW:ATT:AUTO?")
	if err != nil {
		return false, err
	}
	return onOff(resp), nil
}

// SetAutoAttenuation switches automatic RF attenuation.
func (s *SAN9916A) SetAutoAttenuation(auto bool) error {
	return s.Write(fmt.Sprintf("POW:ATT:AUTO %d", flag(auto)), false)
}

// Gain reports whether the preamplifier is on.
func (s *SAN9916A) Gain() (bool, error) {
	resp, err := s.Query("POW:GAIN:STAT?")
	if err != nil {
		return false, err
	}
	return onOff(resp), nil
}

// SetGain switches the preamplifier.
func (s *SAN9916A) SetGain(on bool) error {
	return s.Write(fmt.Sprintf("POW:GAIN:STAT %d", flag(on)), false)
}

// ResBandwidth returns the resolution bandwidth in Hz.
func (s *SAN9916A) ResBandwidth() (float64, error) {
	return queryFloat(s, "BAND:RES?")
}

// SetResBandwidth sets the resolution bandwidth in Hz, clamped to
// [10, 2 MHz].
func (s *SAN9916A) SetResBandwidth(res float64) error {
	res = s.ClampRange("res_bandwidth", res, 10, 2e6)
	return s.Write(fmt.Sprintf("BAND:RES %v", res), false)
}

// AutoResBandwidth reports whether the resolution bandwidth tracks the span.
func (s *SAN9916A) AutoResBandwidth() (bool, error) {
	resp, err := s.Query("BAND:RES:AUTO?")
	if err != nil {
		return false, err
	}
	return onOff(resp), nil
}

// SetAutoResBandwidth switches automatic resolution bandwidth.
func (s *SAN9916A) SetAutoResBandwidth(auto bool) error {
	return s.Write(fmt.Sprintf("BAND:RES:AUTO %d", flag(auto)), false)
}

// TraceType returns the displayed trace mode.
func (s *SAN9916A) TraceType() (string, error) {
	return s.Query(fmt.Sprintf("TRAC%d:TYPE?", s.trace))
}

// SetTraceType selects the displayed trace mode.
func (s *SAN9916A) SetTraceType(opt string) error {
	opt, err := instrument.ValidateOpt(opt, "CLRW", "BLAN", "MAXH", "MINH", "AVG", "VIEW")
	if err != nil {
		return err
	}
	return s.Write(fmt.Sprintf("TRAC%d:TYPE %s", s.trace, opt), false)
}

// AverageType returns the trace averaging type.
func (s *SAN9916A) AverageType() (string, error) {
	return s.Query("AVER:TYPE?")
}

// SetAverageType selects the trace averaging type.
func (s *SAN9916A) SetAverageType(mode string) error {
	mode, err := instrument.ValidateOpt(mode, "AUTO", "POW", "LOG", "VOLT")
	if err != nil {
		return err
	}
	return s.Write("AVER:TYPE "+mode, false)
}

// ClearAverage restarts averaging from one.
func (s *SAN9916A) ClearAverage() error {
	return s.WriteAndHold("INIT:REST")
}

// YFormat returns the amplitude unit of the trace.
func (s *SAN9916A) YFormat() (string, error) {
	return s.Query("AMPL:UNIT?")
}

// SetYFormat selects the amplitude unit of the trace.
func (s *SAN9916A) SetYFormat(unit string) error {
	unit, err := instrument.ValidateOpt(unit, "W", "DBM", "DBMV", "DBUV", "DBMA", "DBUA", "V", "A")
	if err != nil {
		return err
	}
	return s.Write("AMPL:UNIT "+unit, false)
}

// YScale returns the amplitude axis scale.
func (s *SAN9916A) YScale() (string, error) {
	return s.Query("AMPL:SCAL?")
}

// SetYScale selects a logarithmic or linear amplitude axis.
func (s *SAN9916A) SetYScale(scale string) error {
	scale, err := instrument.ValidateOpt(scale, "LOG", "LIN")
	if err != nil {
		return err
	}
	return s.Write("AMPL:SCAL "+scale, false)
}

// Autoscale rescales the display of all traces.
func (s *SAN9916A) Autoscale() error {
	return s.Write("DISP:WIND:TRAC:Y:AUTO", false)
}

// ReadFreqs computes the stimulus frequencies of the current sweep window.
func (s *SAN9916A) ReadFreqs() ([]float64, error) {
	fmin, err := s.FMin()
	if err != nil {
		return nil, err
	}
	fmax, err := s.FMax()
	if err != nil {
		return nil, err
	}
	n, err := s.SweepPoints()
	if err != nil {
		return nil, err
	}
	return linspace(fmin, fmax, n), nil
}

// ReadTrace acquires a trace honoring the average count. A non-empty
// yformat selects the amplitude unit first.
func (s *SAN9916A) ReadTrace(yformat string) ([]float64, error) {
	if yformat != "" {
		if err := s.SetYFormat(yformat); err != nil {
			return nil, err
		}
	}
	if err := s.ClearAverage(); err != nil {
		return nil, err
	}
	if err := s.Autoscale(); err != nil {
		return nil, err
	}

	cont, err := s.Continuous()
	if err != nil {
		return nil, err
	}
	avg, err := s.Average()
	if err != nil {
		return nil, err
	}
	if avg < 1 {
		avg = 1
	}

	if cont {
		mt, err := s.SweepMeasTime()
		if err != nil {
			return nil, err
		}
		time.Sleep(time.Duration(mt * float64(avg) * measTimeFactor * float64(time.Second)))
	} else {
		for i := 0; i < avg; i++ {
			if err := s.SingleSweep(); err != nil {
				return nil, err
			}
		}
	}
	return s.queryData(fmt.Sprintf("TRAC%d:DATA?", s.trace))
}

// Snapshot applies the given settings, acquires a trace and returns the
// stimulus frequencies with the amplitude values.
func (s *SAN9916A) Snapshot(settings ...instrument.Setting) ([]float64, []float64, error) {
	if len(settings) > 0 {
		if err := s.Set(settings...); err != nil {
			return nil, nil, err
		}
	}
	if err := s.Hold(); err != nil {
		return nil, nil, err
	}
	trace, err := s.ReadTrace("")
	if err != nil {
		return nil, nil, err
	}
	freqs, err := s.ReadFreqs()
	if err != nil {
		return nil, nil, err
	}
	if err := s.Hold(); err != nil {
		return nil, nil, err
	}
	return freqs, trace, nil
}

func linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	pts := make([]float64, n)
	if n == 1 {
		pts[0] = start
		return pts
	}
	step := (stop - start) / float64(n-1)
	for i := range pts {
		pts[i] = start + float64(i)*step
	}
	return pts
}
