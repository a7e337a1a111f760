// Package tsdb archives monitor samples and run events into InfluxDB.
//
// The SQLite datastore holds the measurement results themselves; this
// package covers the other axis, a continuous history of the quantities
// monitors watch (cryostat temperatures, pressures, source powers) that
// outlives any single run. Writes are batched and non-blocking so the
// poll loop never waits on the network.
package tsdb
