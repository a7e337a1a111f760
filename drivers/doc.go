// Package drivers contains the concrete instrument drivers used in the lab:
// network and spectrum analyzers, signal generators, microwave synthesizers,
// voltage sources, RF switching hardware and the cryostat controller.
//
// Every driver builds on instrument.NetworkInstrument or
// instrument.SerialInstrument and registers its parameter table at
// construction, so the generic Set/Get/defaults contract of package
// instrument applies uniformly. Drivers additionally expose typed accessors
// for programmatic use.
//
// Each driver registers a factory under a type name (for example
// "n9916a.vna" or "triton"); New and Commission build instruments from
// configuration manifest entries by that name.
package drivers
