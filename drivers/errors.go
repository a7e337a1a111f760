package drivers

import "errors"

var (
	// ErrUnknownType is returned when a manifest names an instrument type
	// no driver has registered.
	ErrUnknownType = errors.New("drivers: unknown instrument type")

	// ErrSetpointsDisabled is returned by cryostat control-loop setters
	// when the driver was built without setpoint writes enabled.
	ErrSetpointsDisabled = errors.New("drivers: control loop setpoints disabled")

	// ErrNotConfigured is returned when the instrument reports that a
	// control loop has no value to read.
	ErrNotConfigured = errors.New("drivers: control loop not configured")
)
