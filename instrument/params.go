package instrument

import (
	"fmt"
	"strconv"
)

// Setting is one named parameter assignment. Slices of settings carry an
// explicit application order, which Set and UpdateDefaults preserve.
type Setting struct {
	Name  string
	Value any
}

// Param holds the accessor pair for one named device parameter. Either
// accessor may be nil for a write-only or read-only parameter.
//
// Drivers register their parameter tables once at construction; the table is
// what backs the generic Set/Get/defaults interface without reflection.
type Param struct {
	Set func(value any) error
	Get func() (any, error)
}

// RegisterParam adds a named parameter to the instrument's table.
// Registration happens in driver constructors, before any concurrent use.
func (b *Base) RegisterParam(name string, p Param) {
	b.params[name] = p
}

// Params returns the registered parameter names. Membership, not order, is
// meaningful.
func (b *Base) Params() []string {
	names := make([]string, 0, len(b.params))
	for name := range b.params {
		names = append(names, name)
	}
	return names
}

// Set assigns parameters in argument order.
//
// The first unknown name fails with ErrUnknownParam identifying the key;
// parameters earlier in the call remain applied (the device is never left
// worse than mid-recipe), parameters after it are never touched.
func (b *Base) Set(settings ...Setting) error {
	for _, s := range settings {
		p, ok := b.params[s.Name]
		if !ok {
			return fmt.Errorf("%w: %q on %s", ErrUnknownParam, s.Name, b.name)
		}
		if p.Set == nil {
			return fmt.Errorf("%w: %q on %s is read-only", ErrUnknownParam, s.Name, b.name)
		}
		if err := p.Set(s.Value); err != nil {
			return fmt.Errorf("setting %q on %s: %w", s.Name, b.name, err)
		}
	}
	return nil
}

// Get reads the named parameters in argument order and returns them keyed by
// name. Unknown names fail like Set.
func (b *Base) Get(names ...string) (map[string]any, error) {
	values := make(map[string]any, len(names))
	for _, name := range names {
		p, ok := b.params[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownParam, name, b.name)
		}
		if p.Get == nil {
			return nil, fmt.Errorf("%w: %q on %s is write-only", ErrUnknownParam, name, b.name)
		}
		value, err := p.Get()
		if err != nil {
			return nil, fmt.Errorf("getting %q from %s: %w", name, b.name, err)
		}
		values[name] = value
	}
	return values, nil
}

// UpdateDefaults records safe parameter values applied on recovery.
//
// Keys are validated against the parameter table exactly like Set, at write
// time rather than at sweep time. Existing keys are updated in place, new
// keys append, so the defaults keep a stable application order.
func (b *Base) UpdateDefaults(settings ...Setting) error {
	for _, s := range settings {
		p, ok := b.params[s.Name]
		if !ok || p.Set == nil {
			return fmt.Errorf("%w: default %q on %s", ErrUnknownParam, s.Name, b.name)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range settings {
		if i, ok := b.defaultIdx[s.Name]; ok {
			b.defaults[i] = s
			continue
		}
		b.defaultIdx[s.Name] = len(b.defaults)
		b.defaults = append(b.defaults, s)
	}
	return nil
}

// Defaults returns a copy of the recorded safe values in application order.
func (b *Base) Defaults() []Setting {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Setting, len(b.defaults))
	copy(out, b.defaults)
	return out
}

// ClearDefaults drops all recorded safe values.
func (b *Base) ClearDefaults() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defaults = nil
	b.defaultIdx = make(map[string]int)
}

// ApplyDefaults merges the given settings into the defaults map and writes
// the whole map to the device.
func (b *Base) ApplyDefaults(settings ...Setting) error {
	if err := b.UpdateDefaults(settings...); err != nil {
		return err
	}
	return b.Set(b.Defaults()...)
}

// Float64 coerces a parameter value to float64.
// Accepts the numeric types a YAML or literal setting produces.
func Float64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrBadValue, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrBadValue, v)
	}
}

// Int coerces a parameter value to int. Fractional floats are rejected.
func Int(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != float64(int(x)) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrBadValue, x)
		}
		return int(x), nil
	case string:
		i, err := strconv.Atoi(x)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrBadValue, x)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", ErrBadValue, v)
	}
}

// Bool coerces a parameter value to bool.
func Bool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a bool", ErrBadValue, x)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: %T is not a bool", ErrBadValue, v)
	}
}

// String coerces a parameter value to string.
func String(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return "", fmt.Errorf("%w: %T is not a string", ErrBadValue, v)
	}
}
