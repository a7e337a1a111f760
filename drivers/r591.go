package drivers

import (
	"fmt"

	"github.com/biqute/qtics/config"
	"github.com/biqute/qtics/instrument"
)

func init() {
	Register("r591", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewSwitchR591(cfg.Name, cfg.Address, serialConfig(cfg)), nil
	})
}

// SwitchR591 drives a Radiall R591 series coaxial switch through its
// serial control board. Ports are latched by a current pulse.
type SwitchR591 struct {
	*instrument.SerialInstrument

	pulseMS int
}

// NewSwitchR591 creates an R591 driver. The connection is opened by
// Connect.
func NewSwitchR591(name, address string, cfg instrument.SerialConfig) *SwitchR591 {
	s := &SwitchR591{
		SerialInstrument: instrument.NewSerial(name, address, cfg),
		pulseMS:          5,
	}
	s.RegisterParam("pulse_length", intParam(s.SetPulseLength, s.PulseLength))
	s.RegisterParam("open_port", intParam(s.OpenPort, nil))
	s.RegisterParam("open_ports", stringParam(nil, s.OpenPorts))
	s.RegisterParam("pin_states", stringParam(nil, s.PinStates))
	return s
}

// Connect opens the serial port and programs the pulse length. The board
// forgets it on power down.
func (s *SwitchR591) Connect() error {
	if err := s.SerialInstrument.Connect(); err != nil {
		return err
	}
	return s.SetPulseLength(s.pulseMS)
}

// PulseLength returns the switching pulse length in ms.
func (s *SwitchR591) PulseLength() (int, error) {
	return queryInt(s, "PUL:LEN?")
}

// SetPulseLength sets the switching pulse length in ms.
func (s *SwitchR591) SetPulseLength(ms int) error {
	if err := s.Write(fmt.Sprintf("PUL:LEN %d", ms), false); err != nil {
		return err
	}
	s.pulseMS = ms
	return nil
}

// OpenPort latches the given switch port open.
func (s *SwitchR591) OpenPort(port int) error {
	return s.Write(fmt.Sprintf("SWI:ON %d", port), false)
}

// OpenPorts returns the board's report of which ports are open.
func (s *SwitchR591) OpenPorts() (string, error) {
	return s.Query("SWI:ON?")
}

// PinStates returns the raw states of the control pins.
func (s *SwitchR591) PinStates() (string, error) {
	return s.Query("DIG:PIN?")
}
