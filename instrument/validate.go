package instrument

import "fmt"

// ValidateOpt returns value unchanged when it is a member of allowed, and
// fails with ErrInvalidOption otherwise. Categorical parameters have no
// nearest valid value, so this is a hard rejection.
func ValidateOpt(value string, allowed ...string) (string, error) {
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: %q not in %v", ErrInvalidOption, value, allowed)
}

// ValidateOptInt is ValidateOpt for integer-coded options.
func ValidateOptInt(value int, allowed ...int) (int, error) {
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return 0, fmt.Errorf("%w: %d not in %v", ErrInvalidOption, value, allowed)
}

// ClampRange clamps value into [lo, hi] and returns the result.
//
// Out-of-range numeric input is treated as recoverable: the value is
// corrected to the nearest limit and a warning is logged, in contrast to
// ValidateOpt's hard rejection of invalid categorical input.
func (b *Base) ClampRange(name string, value, lo, hi float64) float64 {
	clamped := value
	switch {
	case value < lo:
		clamped = lo
	case value > hi:
		clamped = hi
	default:
		return value
	}
	b.log().Warn("value out of range, clamped",
		"name", b.name, "param", name, "value", value, "min", lo, "max", hi, "clamped", clamped)
	return clamped
}
