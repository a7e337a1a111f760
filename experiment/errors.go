package experiment

import "errors"

// Domain errors for the experiment package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, experiment.ErrMonitorAbort) {
//	    // a watchdog tripped, the rig has been restored
//	}
var (
	// ErrRunning is returned when Run is called while a run is in progress.
	ErrRunning = errors.New("experiment: already running")

	// ErrNoMain is returned when Run is called before a main routine is set.
	ErrNoMain = errors.New("experiment: no main routine")

	// ErrNoCheck is returned when Run finds a monitor without a check routine.
	ErrNoCheck = errors.New("experiment: monitor has no check routine")

	// ErrMonitorAbort wraps the error a monitor check returned to abort the
	// run. By the time Run surfaces it, the safe-state sweep has completed.
	ErrMonitorAbort = errors.New("experiment: monitor abort")

	// ErrNoStore is returned by data operations when no store is configured.
	ErrNoStore = errors.New("experiment: no data store configured")
)
