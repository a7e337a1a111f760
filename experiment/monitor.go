package experiment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/biqute/qtics/instrument"
)

// defaultPollInterval is used when a monitor is created with no interval.
const defaultPollInterval = 5 * time.Second

// TaskFunc is a unit of experiment work: the acquisition routine of the
// experiment itself, or one iteration of a monitor's check. A non-nil error
// aborts the whole run.
type TaskFunc func(ctx context.Context) error

// SampleRecorder receives the readings a monitor takes on every poll, for
// time-series history. Implementations must not block the polling loop.
type SampleRecorder interface {
	RecordSample(monitor, name string, value float64, unit string)
}

// Monitor is a background watchdog that polls a condition while the main
// acquisition runs. Its check is invoked once per interval; returning an
// error aborts the whole experiment and triggers the safe-state sweep.
//
// A monitor owns its instruments: it connects them when its watch loop
// starts, and the experiment includes them in the end-of-run sweep.
type Monitor struct {
	name     string
	interval time.Duration
	rack     *rack

	mu       sync.RWMutex
	checkFn  TaskFunc
	recorder SampleRecorder
	logger   Logger
}

// NewMonitor creates a monitor polling every interval. An interval of zero
// or less falls back to 5s. The allowed list names the instruments that may
// be attached to this monitor.
func NewMonitor(name string, interval time.Duration, allowed ...string) *Monitor {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Monitor{
		name:     name,
		interval: interval,
		rack:     newRack(name, allowed),
		logger:   noopLogger{},
	}
}

// Name returns the monitor name used in logs and abort errors.
func (m *Monitor) Name() string { return m.name }

// Interval returns the polling interval.
func (m *Monitor) Interval() time.Duration { return m.interval }

// SetLogger sets the logger for the monitor. A nil logger silences it.
func (m *Monitor) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.mu.Lock()
	m.logger = logger
	m.mu.Unlock()
	m.rack.setLogger(logger)
}

func (m *Monitor) log() Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logger
}

// SetCheck sets the routine invoked on every poll.
func (m *Monitor) SetCheck(check TaskFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkFn = check
}

func (m *Monitor) check() TaskFunc {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkFn
}

// SetRecorder sets the sink for Record calls. A nil recorder drops samples.
func (m *Monitor) SetRecorder(rec SampleRecorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorder = rec
}

// Record forwards one reading to the configured recorder, if any. Checks
// call it for the values they poll so runs keep a time-series trace.
func (m *Monitor) Record(name string, value float64, unit string) {
	m.mu.RLock()
	rec := m.recorder
	m.mu.RUnlock()

	if rec != nil {
		rec.RecordSample(m.name, name, value, unit)
	}
}

// AddInstrument attaches an instrument under its own name. Names outside the
// monitor's allowed list are skipped with a warning.
func (m *Monitor) AddInstrument(inst instrument.Instrument) {
	if m.rack.attach(inst) {
		inst.SetLogger(m.log())
	}
}

// Instrument returns the attached instrument with the given name.
func (m *Monitor) Instrument(name string) (instrument.Instrument, bool) {
	return m.rack.get(name)
}

// instruments returns the monitor's instruments for the experiment sweep.
func (m *Monitor) instruments() []instrument.Instrument {
	return m.rack.list()
}

// watch is the monitor's run loop: connect the monitor's own instruments,
// then poll the check once per interval until it fails or ctx is cancelled.
//
// Cancellation is observed between polls only. A check blocked in device I/O
// finishes its current operation before the loop can exit; there is no hard
// deadline forcing it out.
func (m *Monitor) watch(ctx context.Context) error {
	if err := m.connectAll(); err != nil {
		return err
	}

	check := m.check()
	m.log().Info("monitor running", "name", m.name, "interval", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log().Info("shutdown signal observed, monitor exiting", "name", m.name)
			return nil
		case <-ticker.C:
		}

		if err := check(ctx); err != nil {
			return err
		}
	}
}

// connectAll opens every instrument attached to the monitor.
func (m *Monitor) connectAll() error {
	for _, inst := range m.rack.list() {
		if err := inst.Connect(); err != nil {
			return fmt.Errorf("connecting %s: %w", inst.Name(), err)
		}
	}
	return nil
}
