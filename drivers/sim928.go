package drivers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/biqute/qtics/config"
	"github.com/biqute/qtics/instrument"
)

func init() {
	Register("sim928", func(cfg config.InstrumentConfig) (instrument.Instrument, error) {
		return NewSIM928(cfg.Name, cfg.Address, cfg.Port, serialConfig(cfg)), nil
	})
}

// sim928Escape drops the mainframe passthrough back to command mode.
const sim928Escape = "esc"

// lexeMessages decode the LEXE? execution error codes.
var lexeMessages = []string{
	"No execution error since last LEXE?",
	"Illegal value",
	"Wrong token",
	"Invalid bit",
}

// lcmeMessages decode the LCME? command error codes.
var lcmeMessages = []string{
	"No command error since last LCME?",
	"Illegal command",
	"Undefined command",
	"Illegal query",
	"Illegal set",
	"Missing parameter(s)",
	"Extra parameter(s)",
	"Null parameter(s)",
	"Parameter buffer overflow",
	"Bad floating-point",
	"Bad integer",
	"Bad integer token",
	"Bad token value",
	"Bad hex block",
	"Unknown token",
}

// SIM928 drives the Stanford Research Systems SIM928 isolated voltage
// source, a module hosted in a SIM900 mainframe. Connect routes the
// mainframe's serial passthrough to the module slot; Disconnect drops back
// to the mainframe before closing the port.
type SIM928 struct {
	*instrument.SerialInstrument

	slot   int
	settle time.Duration
}

// NewSIM928 creates a SIM928 driver for the module in the given mainframe
// slot (1 when zero).
func NewSIM928(name, address string, slot int, cfg instrument.SerialConfig) *SIM928 {
	if slot == 0 {
		slot = 1
	}
	settle := cfg.Settle
	if settle == 0 {
		settle = 100 * time.Millisecond
	}
	s := &SIM928{
		SerialInstrument: instrument.NewSerial(name, address, cfg),
		slot:             slot,
		settle:           settle,
	}
	s.RegisterParam("voltage", floatParam(s.SetVoltage, s.Voltage))
	s.RegisterParam("output", boolParam(s.SetOutput, nil))
	return s
}

// Connect opens the serial port and routes the mainframe to the module
// slot.
func (s *SIM928) Connect() error {
	if err := s.SerialInstrument.Connect(); err != nil {
		return err
	}
	time.Sleep(s.settle)
	return s.connectSlot()
}

// connectSlot enters the mainframe passthrough for the module slot.
func (s *SIM928) connectSlot() error {
	return s.Write(fmt.Sprintf("CONN %d, %q", s.slot, sim928Escape), true)
}

// Disconnect leaves the passthrough, resets the module and closes the
// port.
func (s *SIM928) Disconnect() error {
	if !s.Connected() {
		return s.SerialInstrument.Disconnect()
	}
	if err := s.Write(sim928Escape, false); err != nil {
		return err
	}
	if err := s.Reset(false); err != nil {
		return err
	}
	time.Sleep(s.settle)
	return s.SerialInstrument.Disconnect()
}

// SetOutput switches the source output on or off.
func (s *SIM928) SetOutput(on bool) error {
	if on {
		return s.Write("OPON", false)
	}
	return s.Write("OPOF", false)
}

// Voltage returns the output voltage in volts.
func (s *SIM928) Voltage() (float64, error) {
	return queryFloat(s, "VOLT?")
}

// SetVoltage sets the output voltage in volts.
func (s *SIM928) SetVoltage(v float64) error {
	return s.Write(fmt.Sprintf("VOLT %v", v), false)
}

// BatteryChargerOverride starts a charge cycle on the standby battery.
func (s *SIM928) BatteryChargerOverride() error {
	return s.Write("BCOR", false)
}

// BatteryState returns the raw battery status word.
func (s *SIM928) BatteryState() (string, error) {
	return s.Query("BATS?")
}

// BatterySpec returns one battery identification field. Valid fields are
// PNUM, SERIAL, MAXCY, CYCLES and PDATE.
func (s *SIM928) BatterySpec(field string) (string, error) {
	if _, err := instrument.ValidateOpt(field, "PNUM", "SERIAL", "MAXCY", "CYCLES", "PDATE"); err != nil {
		return "", err
	}
	return s.Query("BIDN? " + field)
}

// LastExecutionError reads and clears the last execution error.
func (s *SIM928) LastExecutionError() (string, error) {
	resp, err := s.Query("LEXE?")
	if err != nil {
		return "", err
	}
	code, err := strconv.Atoi(resp)
	if err != nil || code < 0 || code >= len(lexeMessages) {
		return "", fmt.Errorf("drivers: unknown execution error code %q", resp)
	}
	return lexeMessages[code], nil
}

// LastCommandError reads and clears the last command error.
func (s *SIM928) LastCommandError() (string, error) {
	resp, err := s.Query("LCME?")
	if err != nil {
		return "", err
	}
	code, err := strconv.Atoi(resp)
	if err != nil || code < 0 || code >= len(lcmeMessages) {
		return "", fmt.Errorf("drivers: unknown command error code %q", resp)
	}
	return lcmeMessages[code], nil
}
