package drivers

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/biqute/qtics/config"
	"github.com/biqute/qtics/instrument"
)

// Factory builds an unconnected instrument from its manifest entry.
type Factory func(cfg config.InstrumentConfig) (instrument.Instrument, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a driver factory available under the given type name.
// If Register is called twice for the same name, or with a nil factory, it
// panics.
func Register(typeName string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if factory == nil {
		panic("drivers: Register factory is nil")
	}
	if _, dup := factories[typeName]; dup {
		panic("drivers: Register called twice for type " + typeName)
	}
	factories[typeName] = factory
}

// Types returns the registered driver type names, sorted.
func Types() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds an unconnected instrument from a manifest entry by looking up
// the factory registered for cfg.Type.
func New(cfg config.InstrumentConfig) (instrument.Instrument, error) {
	factoriesMu.RLock()
	factory, ok := factories[cfg.Type]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
	}

	inst, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("building %s %q: %w", cfg.Type, cfg.Name, err)
	}
	return inst, nil
}

// Commission builds an instrument from its manifest entry, records its safe
// defaults, connects and applies the manifest settings in document order.
//
// When applying settings fails the transport is closed again, so a
// half-commissioned device never leaks an open connection.
func Commission(cfg config.InstrumentConfig) (instrument.Instrument, error) {
	inst, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if err := inst.UpdateDefaults(toSettings(cfg.Defaults)...); err != nil {
		return nil, fmt.Errorf("recording defaults for %q: %w", cfg.Name, err)
	}

	if err := inst.Connect(); err != nil {
		return nil, err
	}

	if err := inst.Set(toSettings(cfg.Settings)...); err != nil {
		err = fmt.Errorf("applying settings to %q: %w", cfg.Name, err)
		return nil, multierr.Append(err, inst.Disconnect())
	}
	return inst, nil
}

// CommissionAll commissions every instrument in the manifest, in order. On
// failure the instruments commissioned so far are disconnected and all
// errors are combined.
func CommissionAll(cfgs []config.InstrumentConfig) ([]instrument.Instrument, error) {
	instruments := make([]instrument.Instrument, 0, len(cfgs))
	for _, cfg := range cfgs {
		inst, err := Commission(cfg)
		if err != nil {
			for _, prev := range instruments {
				err = multierr.Append(err, prev.Disconnect())
			}
			return nil, err
		}
		instruments = append(instruments, inst)
	}
	return instruments, nil
}

func toSettings(in config.Settings) []instrument.Setting {
	out := make([]instrument.Setting, len(in))
	for i, s := range in {
		out[i] = instrument.Setting{Name: s.Name, Value: s.Value}
	}
	return out
}

func networkConfig(cfg config.InstrumentConfig) instrument.NetworkConfig {
	return instrument.NetworkConfig{
		Port:    cfg.Port,
		Timeout: cfg.Timeout,
		Settle:  cfg.Settle,
	}
}

func serialConfig(cfg config.InstrumentConfig) instrument.SerialConfig {
	return instrument.SerialConfig{
		BaudRate: cfg.Baud,
		Timeout:  cfg.Timeout,
		Settle:   cfg.Settle,
	}
}
