// Package datastore persists measurement results as a hierarchy of named
// groups backed by a single SQLite file.
//
// Groups nest like directories ("config/vna"), datasets are append-only
// named float64 arrays, attributes are last-write-wins scalar metadata.
// The layout maps onto the group/dataset/attribute structure analysis
// pipelines expect, without requiring an HDF5 toolchain on the
// acquisition machine.
//
// A Store satisfies experiment.GroupStore, so it can be handed to an
// Experiment via SetStore and fed through AppendGroup and SaveConfig.
package datastore
