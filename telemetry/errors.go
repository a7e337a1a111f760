package telemetry

import "errors"

// Sentinel errors for telemetry operations. Match with errors.Is.
var (
	// ErrNotConnected is returned when publishing on a disconnected client.
	ErrNotConnected = errors.New("telemetry: client not connected")

	// ErrConnectionFailed is returned when the initial broker connection
	// attempt fails.
	ErrConnectionFailed = errors.New("telemetry: connection failed")

	// ErrPublishFailed is returned when a publish operation fails or
	// times out.
	ErrPublishFailed = errors.New("telemetry: publish failed")

	// ErrInvalidQoS is returned when a QoS level outside 0..2 is used.
	ErrInvalidQoS = errors.New("telemetry: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("telemetry: topic cannot be empty")
)
