package drivers

import (
	"fmt"
	"math"
	"time"

	"github.com/biqute/qtics/config"
	"github.com/biqute/qtics/instrument"
)

func init() {
	Register("a3494", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewAttenuator3494(cfg.Name, cfg.Address, serialConfig(cfg)), nil
	})
}

// Attenuator3494 drives a Kratos 3494-64 programmable step attenuator
// through its serial control board.
type Attenuator3494 struct {
	*instrument.SerialInstrument
}

// NewAttenuator3494 creates a 3494 driver. The connection is opened by
// Connect.
func NewAttenuator3494(name, address string, cfg instrument.SerialConfig) *Attenuator3494 {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	a := &Attenuator3494{SerialInstrument: instrument.NewSerial(name, address, cfg)}
	a.RegisterParam("attenuation", floatParam(a.SetAttenuation, a.Attenuation))
	a.RegisterParam("pin_states", stringParam(nil, a.PinStates))
	return a
}

// Attenuation returns the attenuation in dB.
func (a *Attenuator3494) Attenuation() (float64, error) {
	return queryFloat(a, "ATT?")
}

// SetAttenuation sets the attenuation in dB, rounded to 0.01 dB.
func (a *Attenuator3494) SetAttenuation(db float64) error {
	db = math.Round(db*100) / 100
	return a.Write(fmt.Sprintf("ATT %v", db), false)
}

// PinStates returns the raw states of the control pins.
func (a *Attenuator3494) PinStates() (string, error) {
	return a.Query("DIG:PIN?")
}
