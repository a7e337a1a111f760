package drivers

import (
	"strconv"

	"github.com/biqute/qtics/config"
	"github.com/biqute/qtics/instrument"
)

func init() {
	Register("fsl0010", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewFSL0010(cfg.Name, cfg.Address, serialConfig(cfg)), nil
	})
	Register("fsl0020", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewFSL0020(cfg.Name, cfg.Address, serialConfig(cfg)), nil
	})
	Register("fsw0010", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewFSW0010(cfg.Name, cfg.Address, serialConfig(cfg)), nil
	})
	Register("fsw0020", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewFSW0020(cfg.Name, cfg.Address, serialConfig(cfg)), nil
	})
}

// QuickSyn drives the Phase Matrix QuickSyn FSL and FSW microwave
// synthesizers. The models share one command set and differ only in
// frequency range.
type QuickSyn struct {
	*instrument.SerialInstrument

	minFreq float64
	maxFreq float64
}

func newQuickSyn(name, address string, cfg instrument.SerialConfig, minFreq, maxFreq float64) *QuickSyn {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	q := &QuickSyn{
		SerialInstrument: instrument.NewSerial(name, address, cfg),
		minFreq:          minFreq,
		maxFreq:          maxFreq,
	}
	q.RegisterParam("freq", floatParam(q.SetFreq, q.Freq))
	q.RegisterParam("output", boolParam(q.SetOutput, q.Output))
	q.RegisterParam("ext_ref", boolParam(q.SetExtRef, q.ExtRef))
	q.RegisterParam("temperature", floatParam(nil, q.Temperature))
	return q
}

// NewFSL0010 creates a driver for the FSL-0010 (0.65 to 10 GHz).
func NewFSL0010(name, address string, cfg instrument.SerialConfig) *QuickSyn {
	return newQuickSyn(name, address, cfg, 0.65e9, 10e9)
}

// NewFSL0020 creates a driver for the FSL-0020 (0.65 to 20 GHz).
func NewFSL0020(name, address string, cfg instrument.SerialConfig) *QuickSyn {
	return newQuickSyn(name, address, cfg, 0.65e9, 20e9)
}

// NewFSW0010 creates a driver for the FSW-0010 (0.5 to 10 GHz).
func NewFSW0010(name, address string, cfg instrument.SerialConfig) *QuickSyn {
	return newQuickSyn(name, address, cfg, 0.5e9, 10e9)
}

// NewFSW0020 creates a driver for the FSW-0020 (0.5 to 20 GHz).
func NewFSW0020(name, address string, cfg instrument.SerialConfig) *QuickSyn {
	return newQuickSyn(name, address, cfg, 0.5e9, 20e9)
}

// Freq returns the output frequency in Hz. The synthesizer reports
// millihertz.
func (q *QuickSyn) Freq() (float64, error) {
	mlhz, err := queryFloat(q, "FREQ?")
	if err != nil {
		return 0, err
	}
	return mlhz * 1e-3, nil
}

// SetFreq sets the output frequency in Hz, clamped to the model's range.
// The synthesizer wants millihertz and chokes on scientific notation.
func (q *QuickSyn) SetFreq(hz float64) error {
	hz = q.ClampRange("freq", hz, q.minFreq, q.maxFreq)
	return q.Write("FREQ "+strconv.FormatFloat(hz/1e-3, 'f', -1, 64)+"mlHz", false)
}

// Output reports whether the RF output is on.
func (q *QuickSyn) Output() (bool, error) {
	resp, err := q.Query("OUTP:STAT?")
	if err != nil {
		return false, err
	}
	return onOff(resp), nil
}

// SetOutput switches the RF output on or off.
func (q *QuickSyn) SetOutput(on bool) error {
	if on {
		return q.Write("OUTP:STAT ON", false)
	}
	return q.Write("OUTP:STAT OFF", false)
}

// ExtRef reports whether the synthesizer locks to the external 10 MHz
// reference.
func (q *QuickSyn) ExtRef() (bool, error) {
	resp, err := q.Query("ROSC:SOUR?")
	if err != nil {
		return false, err
	}
	return resp == "EXT", nil
}

// SetExtRef selects the external or internal 10 MHz reference.
func (q *QuickSyn) SetExtRef(external bool) error {
	if external {
		return q.Write("ROSC:SOUR EXT", false)
	}
	return q.Write("ROSC:SOUR INT", false)
}

// Temperature returns the internal temperature in degrees Celsius.
func (q *QuickSyn) Temperature() (float64, error) {
	return queryFloat(q, "DIAG:MEAS? 21")
}
