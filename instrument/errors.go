package instrument

import "errors"

// Sentinel errors for instrument operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, instrument.ErrTimeout) {
//	    // Handle missing response
//	}
var (
	// ErrNotConnected indicates I/O was attempted on a closed transport.
	ErrNotConnected = errors.New("instrument: not connected")

	// ErrConnectionFailed indicates the transport could not be opened.
	ErrConnectionFailed = errors.New("instrument: connection failed")

	// ErrTimeout indicates no response terminator arrived within the
	// configured window.
	ErrTimeout = errors.New("instrument: read timed out")

	// ErrInvalidQuery indicates Query was given a command with no query
	// marker. Such a command would never produce a reply, so it is rejected
	// before any I/O happens.
	ErrInvalidQuery = errors.New("instrument: command is not a query")

	// ErrUnknownParam indicates Set, Get or UpdateDefaults was given a
	// parameter name the device does not expose (or does not expose in the
	// requested direction).
	ErrUnknownParam = errors.New("instrument: unknown parameter")

	// ErrInvalidOption indicates a categorical parameter value outside the
	// allowed set. Unlike out-of-range numeric values, which are clamped
	// with a warning, invalid options are a hard failure.
	ErrInvalidOption = errors.New("instrument: invalid option")

	// ErrBadValue indicates a parameter value of an unusable type.
	ErrBadValue = errors.New("instrument: bad parameter value")

	// ErrBlockFormat indicates a malformed IEEE 488.2 binary block.
	ErrBlockFormat = errors.New("instrument: malformed binary block")
)
