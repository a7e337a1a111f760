package tsdb

import "errors"

// Sentinel errors for time-series operations. Match with errors.Is.
var (
	// ErrNotConnected indicates the client is not connected to InfluxDB.
	ErrNotConnected = errors.New("tsdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("tsdb: connection failed")

	// ErrDisabled indicates the time-series sink is disabled in
	// configuration.
	ErrDisabled = errors.New("tsdb: disabled in configuration")
)
