// Package instrument defines the capability contract shared by every device
// in the toolkit and the transports that carry it.
//
// An instrument is a named endpoint speaking a newline-terminated textual
// command protocol (SCPI-like) over TCP (NetworkInstrument) or a serial line
// (SerialInstrument). On top of raw Write/Read/Query, every instrument
// exposes a generic parameter interface: drivers register named
// setter/getter pairs once at construction (RegisterParam), and callers
// assign or read them by name through Set and Get without knowing the
// concrete type.
//
// Two validation policies are deliberately asymmetric:
//
//   - categorical options hard-fail (ValidateOpt, ErrInvalidOption), because
//     there is no nearest valid choice;
//   - numeric ranges soft-correct (ClampRange), clamping to the limit with a
//     warning, because a near-limit value still expresses usable intent.
//
// Each instrument carries an ordered defaults map of safe parameter values
// (UpdateDefaults, ApplyDefaults). The experiment layer uses it during
// recovery: a device with recorded defaults is restored by re-applying them;
// one without is hardware-reset.
//
// Devices are expected to be driven by one task at a time. Connection state
// and the defaults map are nonetheless safe for concurrent access, since
// recovery sweeps run on the supervisor goroutine.
package instrument
