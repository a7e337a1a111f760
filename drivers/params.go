package drivers

import (
	"fmt"
	"strconv"

	"github.com/biqute/qtics/instrument"
)

// Adapters from typed accessor pairs to instrument.Param entries. A nil
// accessor leaves the corresponding side of the parameter unregistered, so
// read-only and write-only parameters fall out naturally.

func floatParam(set func(float64) error, get func() (float64, error)) instrument.Param {
	var p instrument.Param
	if set != nil {
		p.Set = func(v any) error {
			f, err := instrument.Float64(v)
			if err != nil {
				return err
			}
			return set(f)
		}
	}
	if get != nil {
		p.Get = func() (any, error) { return get() }
	}
	return p
}

func intParam(set func(int) error, get func() (int, error)) instrument.Param {
	var p instrument.Param
	if set != nil {
		p.Set = func(v any) error {
			n, err := instrument.Int(v)
			if err != nil {
				return err
			}
			return set(n)
		}
	}
	if get != nil {
		p.Get = func() (any, error) { return get() }
	}
	return p
}

func boolParam(set func(bool) error, get func() (bool, error)) instrument.Param {
	var p instrument.Param
	if set != nil {
		p.Set = func(v any) error {
			b, err := instrument.Bool(v)
			if err != nil {
				return err
			}
			return set(b)
		}
	}
	if get != nil {
		p.Get = func() (any, error) { return get() }
	}
	return p
}

func stringParam(set func(string) error, get func() (string, error)) instrument.Param {
	var p instrument.Param
	if set != nil {
		p.Set = func(v any) error {
			s, err := instrument.String(v)
			if err != nil {
				return err
			}
			return set(s)
		}
	}
	if get != nil {
		p.Get = func() (any, error) { return get() }
	}
	return p
}

// querier is the slice of the instrument contract the reply parsers need.
type querier interface {
	Query(cmd string) (string, error)
}

func queryFloat(q querier, cmd string) (float64, error) {
	resp, err := q.Query(cmd)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(resp, 64)
	if err != nil {
		return 0, fmt.Errorf("drivers: reply %q to %q is not a number", resp, cmd)
	}
	return f, nil
}

func queryInt(q querier, cmd string) (int, error) {
	resp, err := q.Query(cmd)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(resp)
	if err != nil {
		return 0, fmt.Errorf("drivers: reply %q to %q is not an integer", resp, cmd)
	}
	return n, nil
}

// onOff interprets the two reply shapes instruments use for boolean state.
func onOff(resp string) bool {
	return resp == "1" || resp == "ON"
}

func flag(on bool) int {
	if on {
		return 1
	}
	return 0
}
