// Package telemetry streams live experiment state over MQTT.
//
// Two kinds of traffic leave a deployment: retained status messages on
// qtics/experiment/<name>/status marking run transitions (running,
// completed, failed), and fire-and-forget monitor samples on
// qtics/monitor/<monitor>/<quantity>. A Last Will on qtics/system/status
// lets subscribers tell a crashed client from a stopped one.
//
// The Client satisfies both experiment.StatusPublisher and
// experiment.SampleRecorder; telemetry is strictly an observer and never
// feeds back into run control.
package telemetry
