package experiment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/biqute/qtics/instrument"
)

// State represents the lifecycle state of an experiment.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Status is the lifecycle record published at run start and run end.
type Status struct {
	RunID      string    `json:"run_id"`
	Experiment string    `json:"experiment"`
	State      State     `json:"state"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

// StatusPublisher receives lifecycle status records. Publish failures are
// logged by the experiment and never abort a run.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, status Status) error
}

// GroupStore is the persistence sink for experiment data: an append-only
// hierarchical store of named groups holding datasets and attributes.
type GroupStore interface {
	AppendGroup(ctx context.Context, name, parent string, datasets map[string][]float64, attrs map[string]any) error
}

// Experiment supervises one acquisition routine running concurrently with
// any number of monitors, and guarantees that every managed instrument is
// restored to a safe state when the run ends, however it ends.
//
// Construct with New, attach instruments and monitors, set the main routine,
// then call Run. The experiment can be reused: each Run gets a fresh run ID
// and a cleared failure flag.
type Experiment struct {
	name string
	rack *rack

	mu        sync.RWMutex
	monitors  []*Monitor
	mainFn    TaskFunc
	state     State
	runID     string
	store     GroupStore
	publisher StatusPublisher
	logger    Logger

	failed atomic.Bool
}

// New creates an experiment. The allowed list names the instruments that may
// be attached to the experiment itself; monitors carry their own lists.
func New(name string, allowed ...string) *Experiment {
	return &Experiment{
		name:   name,
		rack:   newRack(name, allowed),
		state:  StateIdle,
		logger: noopLogger{},
	}
}

// Name returns the experiment name.
func (e *Experiment) Name() string { return e.name }

// SetLogger sets the logger for the experiment and propagates it to every
// attached monitor and instrument. A nil logger silences everything.
func (e *Experiment) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}

	e.mu.Lock()
	e.logger = logger
	monitors := slices.Clone(e.monitors)
	e.mu.Unlock()

	e.rack.setLogger(logger)
	for _, inst := range e.rack.list() {
		inst.SetLogger(logger)
	}
	for _, m := range monitors {
		m.SetLogger(logger)
	}
}

func (e *Experiment) log() Logger {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.logger
}

// SetMain sets the acquisition routine Run executes.
func (e *Experiment) SetMain(main TaskFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mainFn = main
}

// SetStore sets the data store backing AppendGroup and SaveConfig.
func (e *Experiment) SetStore(store GroupStore) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = store
}

// SetPublisher sets the sink for lifecycle status records.
func (e *Experiment) SetPublisher(pub StatusPublisher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publisher = pub
}

// AddInstrument attaches an instrument under its own name. Names outside the
// experiment's allowed list and duplicates are skipped with a warning.
func (e *Experiment) AddInstrument(inst instrument.Instrument) {
	if e.rack.attach(inst) {
		inst.SetLogger(e.log())
	}
}

// Instrument returns the attached instrument with the given name.
func (e *Experiment) Instrument(name string) (instrument.Instrument, bool) {
	return e.rack.get(name)
}

// InstrumentNames returns the attached instrument names in attachment order.
func (e *Experiment) InstrumentNames() []string {
	return e.rack.names()
}

// AddMonitor attaches a background monitor started by the next Run.
func (e *Experiment) AddMonitor(m *Monitor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitors = append(e.monitors, m)
	e.logger.Info("monitor added", "name", e.name, "monitor", m.Name())
}

// State returns the current lifecycle state.
func (e *Experiment) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// RunID returns the identifier of the current or most recent run.
func (e *Experiment) RunID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runID
}

// MonitorFailed reports whether the last run was aborted by a task failure,
// as opposed to a clean finish of the main routine. It is reset by the next
// Run.
func (e *Experiment) MonitorFailed() bool {
	return e.failed.Load()
}

// Run executes the experiment until the main routine returns or a monitor
// aborts it.
//
// With no monitors the main routine runs synchronously on the calling
// goroutine. Otherwise main and every monitor watch loop run as concurrent
// tasks and the first one to finish, by success or failure, shuts down the
// rest: the run context is cancelled, the remaining tasks are waited out,
// and every attached instrument (the experiment's and the monitors') is
// swept back to a safe state. Cancellation is cooperative; a task blocked in
// device I/O finishes its current operation before it can observe shutdown.
//
// Cancelling ctx is the operator abort path: the sweep still runs, the
// interrupt itself is swallowed. Transports are released on every exit
// path, so instruments must be reconnected before the experiment is reused.
func (e *Experiment) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRunning, e.name)
	}
	if e.mainFn == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoMain, e.name)
	}
	monitors := slices.Clone(e.monitors)
	for _, m := range monitors {
		if m.check() == nil {
			e.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrNoCheck, m.Name())
		}
	}
	main := e.mainFn
	e.runID = uuid.NewString()
	runID := e.runID
	e.state = StateRunning
	e.mu.Unlock()

	e.failed.Store(false)
	e.log().Info("starting experiment",
		"name", e.name,
		"run_id", runID,
		"monitors", len(monitors),
	)
	e.publishStatus(ctx, StateRunning, nil)

	var runErr error
	if len(monitors) == 0 {
		runErr = e.runAlone(ctx, main)
	} else {
		runErr = e.runSupervised(ctx, main, monitors)
	}

	err := multierr.Append(runErr, e.releaseAll())

	state := StateCompleted
	if runErr != nil || e.failed.Load() {
		state = StateFailed
	}
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()

	// The closing status must go out even when ctx was cancelled by an
	// operator interrupt; the publisher applies its own timeout.
	e.publishStatus(context.WithoutCancel(ctx), state, runErr)
	return err
}

// runAlone executes the main routine synchronously.
func (e *Experiment) runAlone(ctx context.Context, main TaskFunc) error {
	err := main(ctx)
	if err == nil {
		e.log().Info("experiment finished", "name", e.name)
		return nil
	}

	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		e.log().Warn("interrupt received, restoring instruments", "name", e.name)
		return e.restoreAll()
	}

	e.failed.Store(true)
	e.log().Error("main task failed", "name", e.name, "error", err)
	return multierr.Append(fmt.Errorf("main task: %w", err), e.restoreAll())
}

// taskResult is one task's outcome in the first-completion race.
type taskResult struct {
	monitor string // empty for the main task
	err     error
}

func (r taskResult) wrap() error {
	if r.err == nil {
		return nil
	}
	if r.monitor != "" {
		return fmt.Errorf("%w %q: %w", ErrMonitorAbort, r.monitor, r.err)
	}
	return fmt.Errorf("main task: %w", r.err)
}

// runSupervised races the main routine against the monitor watch loops.
func (e *Experiment) runSupervised(ctx context.Context, main TaskFunc, monitors []*Monitor) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so every task can report without blocking; only the first
	// report decides the outcome.
	results := make(chan taskResult, len(monitors)+1)
	var wg sync.WaitGroup

	for _, m := range monitors {
		wg.Add(1)
		go func(m *Monitor) {
			defer wg.Done()
			results <- taskResult{monitor: m.Name(), err: m.watch(runCtx)}
		}(m)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		results <- taskResult{err: main(runCtx)}
	}()

	first := <-results

	var runErr error
	switch {
	case ctx.Err() != nil && (first.err == nil || errors.Is(first.err, context.Canceled)):
		e.log().Warn("interrupt received, shutting down", "name", e.name)
	case first.err != nil:
		e.failed.Store(true)
		runErr = first.wrap()
		if first.monitor != "" {
			e.log().Warn("monitor failed, shutting down",
				"name", e.name,
				"monitor", first.monitor,
				"error", first.err,
			)
		} else {
			e.log().Warn("main task failed, shutting down", "name", e.name, "error", first.err)
		}
	default:
		e.log().Info("main task finished, shutting down monitors", "name", e.name)
	}

	cancel()
	wg.Wait()

	return multierr.Append(runErr, e.restoreAll())
}

// allInstruments returns every instrument the run manages: the experiment's
// own plus each monitor's, deduplicated by name.
func (e *Experiment) allInstruments() []instrument.Instrument {
	e.mu.RLock()
	monitors := slices.Clone(e.monitors)
	e.mu.RUnlock()

	seen := make(map[string]bool)
	var insts []instrument.Instrument
	for _, inst := range e.rack.list() {
		if !seen[inst.Name()] {
			seen[inst.Name()] = true
			insts = append(insts, inst)
		}
	}
	for _, m := range monitors {
		for _, inst := range m.instruments() {
			if !seen[inst.Name()] {
				seen[inst.Name()] = true
				insts = append(insts, inst)
			}
		}
	}
	return insts
}

// restoreAll brings every managed instrument back to a safe state: recorded
// defaults when the instrument has them, a hardware reset otherwise.
//
// Failures are isolated per instrument; one device that cannot be restored
// never stops the sweep over the others.
func (e *Experiment) restoreAll() error {
	var errs error
	for _, inst := range e.allInstruments() {
		if !inst.Connected() {
			e.log().Debug("skipping restore, not connected", "instrument", inst.Name())
			continue
		}
		if err := restore(inst); err != nil {
			e.log().Error("restoring instrument failed", "instrument", inst.Name(), "error", err)
			errs = multierr.Append(errs, fmt.Errorf("restoring %s: %w", inst.Name(), err))
			continue
		}
		e.log().Info("instrument restored to safe state", "instrument", inst.Name())
	}
	return errs
}

func restore(inst instrument.Instrument) error {
	if defaults := inst.Defaults(); len(defaults) > 0 {
		return inst.Set(defaults...)
	}
	return inst.Reset(false)
}

// releaseAll disconnects every managed instrument. Disconnecting an
// instrument that never connected is a no-op.
func (e *Experiment) releaseAll() error {
	var errs error
	for _, inst := range e.allInstruments() {
		if err := inst.Disconnect(); err != nil {
			e.log().Error("disconnecting instrument failed", "instrument", inst.Name(), "error", err)
			errs = multierr.Append(errs, fmt.Errorf("disconnecting %s: %w", inst.Name(), err))
		}
	}
	return errs
}

func (e *Experiment) publishStatus(ctx context.Context, state State, runErr error) {
	e.mu.RLock()
	pub := e.publisher
	runID := e.runID
	e.mu.RUnlock()

	if pub == nil {
		return
	}

	status := Status{
		RunID:      runID,
		Experiment: e.name,
		State:      state,
		Time:       time.Now().UTC(),
	}
	if runErr != nil {
		status.Error = runErr.Error()
	}

	if err := pub.PublishStatus(ctx, status); err != nil {
		e.log().Warn("publishing status failed", "state", state, "error", err)
	}
}

// AppendGroup writes named datasets and attributes into a group of the
// configured data store. An empty parent targets the store root.
func (e *Experiment) AppendGroup(ctx context.Context, name, parent string, datasets map[string][]float64, attrs map[string]any) error {
	e.mu.RLock()
	store := e.store
	e.mu.RUnlock()

	if store == nil {
		return ErrNoStore
	}
	return store.AppendGroup(ctx, name, parent, datasets, attrs)
}

// SaveConfig records the run configuration in the data store: a "config"
// group with the experiment identity, and one child group per attached
// instrument holding its address and recorded defaults.
func (e *Experiment) SaveConfig(ctx context.Context) error {
	e.mu.RLock()
	store := e.store
	runID := e.runID
	e.mu.RUnlock()

	if store == nil {
		return ErrNoStore
	}

	attrs := map[string]any{
		"experiment": e.name,
		"saved_at":   time.Now().UTC().Format(time.RFC3339),
	}
	if runID != "" {
		attrs["run_id"] = runID
	}
	if err := store.AppendGroup(ctx, "config", "", nil, attrs); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	for _, inst := range e.rack.list() {
		instAttrs := map[string]any{"address": inst.Address()}
		for _, def := range inst.Defaults() {
			instAttrs[def.Name] = def.Value
		}
		if err := store.AppendGroup(ctx, inst.Name(), "config", nil, instAttrs); err != nil {
			return fmt.Errorf("saving config for %s: %w", inst.Name(), err)
		}
	}
	return nil
}
