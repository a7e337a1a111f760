// Package experiment supervises laboratory acquisition runs.
//
// An Experiment owns one main acquisition routine and any number of
// background monitors (temperature watchdogs, lock checks, supply rails).
// Run executes them concurrently and enforces the package's one safety
// guarantee: however the run ends, every managed instrument is swept back
// to a safe state before Run returns.
//
// # Lifecycle
//
//	          ┌──────────┐   Run()    ┌──────────┐
//	          │   idle   │───────────▶│ running  │
//	          └──────────┘            └────┬─────┘
//	                                       │ first task finishes
//	                                       ▼
//	                          cancel remaining tasks, wait
//	                                       │
//	                                       ▼
//	                          restore instruments (defaults
//	                          when recorded, reset otherwise)
//	                                       │
//	                                       ▼
//	                          release transports
//	                                       │
//	                          ┌────────────┴────────────┐
//	                          ▼                         ▼
//	                    ┌───────────┐             ┌──────────┐
//	                    │ completed │             │  failed  │
//	                    └───────────┘             └──────────┘
//
// The race is first-completion, not first-failure: a main routine that
// finishes cleanly shuts the monitors down exactly like a monitor that
// trips. MonitorFailed distinguishes the two afterwards.
//
// # Usage
//
//	exp := experiment.New("s21_sweep", "vna", "source")
//	exp.SetLogger(log)
//	exp.AddInstrument(vna)
//	exp.SetMain(func(ctx context.Context) error {
//	    // acquisition logic
//	    return nil
//	})
//
//	watchdog := experiment.NewMonitor("cooldown", time.Second, "triton")
//	watchdog.AddInstrument(cryostat)
//	watchdog.SetCheck(func(ctx context.Context) error {
//	    t, err := cryostat.MixingChamberTemp()
//	    if err != nil {
//	        return err
//	    }
//	    if t > 40 {
//	        return fmt.Errorf("mixing chamber at %.1f mK", t)
//	    }
//	    return nil
//	})
//	exp.AddMonitor(watchdog)
//
//	err := exp.Run(ctx)
//
// # Cancellation
//
// Cancellation is cooperative. Monitors observe shutdown between polls and
// the main routine observes it at its own suspension points; a task blocked
// in device I/O completes that operation first. There is no hard deadline
// forcing a stuck task out, so a check that blocks forever on hardware is
// leaked, not killed.
//
// # Concurrency contract
//
// Each instrument must be driven by exactly one task: the main routine or
// one monitor. The supervisor does not serialize device access between
// tasks; it only coordinates startup, shutdown and the final sweep.
package experiment
