package experiment

import (
	"slices"
	"sync"

	"github.com/biqute/qtics/instrument"
)

// rack holds the named instruments attached to an experiment or monitor.
//
// The allowed list is fixed at construction; attach enforces it. Attachment
// happens during setup, before Run starts, but the rack is still guarded for
// concurrent reads because monitors and the supervisor iterate it from
// different goroutines.
type rack struct {
	owner   string
	allowed []string

	mu     sync.RWMutex
	order  []string
	insts  map[string]instrument.Instrument
	logger Logger
}

func newRack(owner string, allowed []string) *rack {
	return &rack{
		owner:   owner,
		allowed: allowed,
		insts:   make(map[string]instrument.Instrument),
		logger:  noopLogger{},
	}
}

func (r *rack) setLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

func (r *rack) log() Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}

// attach registers inst under its name. Names outside the allowed list and
// names already attached are skipped with a warning, never an error.
func (r *rack) attach(inst instrument.Instrument) bool {
	name := inst.Name()
	if !slices.Contains(r.allowed, name) {
		r.log().Warn("instrument not allowed",
			"owner", r.owner,
			"name", name,
			"allowed", r.allowed,
		)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.insts[name]; ok {
		r.logger.Warn("instrument already attached", "owner", r.owner, "name", name)
		return false
	}

	r.insts[name] = inst
	r.order = append(r.order, name)
	r.logger.Info("instrument attached", "owner", r.owner, "name", name)
	return true
}

// get returns the attached instrument with the given name.
func (r *rack) get(name string) (instrument.Instrument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.insts[name]
	return inst, ok
}

// list returns the attached instruments in attachment order.
func (r *rack) list() []instrument.Instrument {
	r.mu.RLock()
	defer r.mu.RUnlock()

	insts := make([]instrument.Instrument, 0, len(r.order))
	for _, name := range r.order {
		insts = append(insts, r.insts[name])
	}
	return insts
}

// names returns the attached instrument names in attachment order.
func (r *rack) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}
