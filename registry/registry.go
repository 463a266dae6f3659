// Package registry holds the curves of one calibration session behind
// relinkable slots, so a curve that depends on another always reads the
// latest calibrated version.
//
// The registry does not infer calibration order or detect cycles. Callers
// calibrate dependencies first.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/logging"
	"github.com/meenmo/curvekit/metrics"
)

var (
	ErrSessionClosed = errors.New("registry session closed")
	ErrNilCurve      = errors.New("nil curve")
)

// UnresolvedDependencyError is returned when a curve is read before anything
// was linked under its name.
type UnresolvedDependencyError struct {
	Name string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("unresolved curve dependency %q: nothing linked under this name", e.Name)
}

// Slot is a named, relinkable reference to a curve. Readers holding a slot
// observe every later Link under its name.
type Slot struct {
	name string
	ptr  atomic.Pointer[curve.Curve]
}

func (s *Slot) Name() string { return s.name }

// Linked reports whether a curve has been linked into the slot.
func (s *Slot) Linked() bool { return s.ptr.Load() != nil }

// Read returns the current curve or an *UnresolvedDependencyError.
func (s *Slot) Read() (*curve.Curve, error) {
	c := s.ptr.Load()
	if c == nil {
		return nil, &UnresolvedDependencyError{Name: s.name}
	}
	return c, nil
}

// Registry is a session-scoped map of curve name to slot. It is safe for
// concurrent use.
type Registry struct {
	id     uuid.UUID
	logger *zap.Logger

	mu     sync.Mutex
	slots  map[string]*Slot
	closed bool
}

// New starts a registry session. logger may be nil.
func New(logger *zap.Logger) *Registry {
	id := uuid.New()
	return &Registry{
		id:     id,
		logger: logging.OrNop(logger).With(zap.String("session", id.String())),
		slots:  make(map[string]*Slot),
	}
}

// ID identifies the session in logs.
func (r *Registry) ID() uuid.UUID { return r.id }

// GetOrCreateSlot returns the slot for name, creating an empty one if needed.
func (r *Registry) GetOrCreateSlot(name string) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrSessionClosed
	}
	return r.slotLocked(name), nil
}

func (r *Registry) slotLocked(name string) *Slot {
	s, ok := r.slots[name]
	if !ok {
		s = &Slot{name: name}
		r.slots[name] = s
	}
	return s
}

// Link atomically points the slot for name at c, replacing any previous curve.
func (r *Registry) Link(name string, c *curve.Curve) (*Slot, error) {
	if c == nil {
		return nil, fmt.Errorf("Link %q: %w", name, ErrNilCurve)
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s := r.slotLocked(name)
	r.mu.Unlock()

	prev := s.ptr.Swap(c)
	metrics.IncLink()
	r.logger.Info("curve linked",
		zap.String("curve", name),
		zap.Int("pillars", len(c.Pillars())),
		zap.Bool("relinked", prev != nil),
	)
	return s, nil
}

// Read returns the curve linked under name. A name that was never linked
// yields *UnresolvedDependencyError.
func (r *Registry) Read(name string) (*curve.Curve, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s, ok := r.slots[name]
	r.mu.Unlock()
	if !ok {
		return nil, &UnresolvedDependencyError{Name: name}
	}
	return s.Read()
}

// Names returns the names of all slots, linked or not, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.slots))
	for n := range r.slots {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close ends the session. Slots already handed out keep their last curve.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.logger.Debug("registry session closed", zap.Int("slots", len(r.slots)))
}
