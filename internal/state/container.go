// Package state holds the single in-memory application state of this context
// and funnels every mutation through one entry point.
package state

import (
	"errors"
	"sync"
	"time"

	"github.com/anniversary-planner/backend/internal/catering"
	"github.com/anniversary-planner/backend/internal/inventory"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

// Errors returned by container operations.
var (
	ErrGuestNotFound         = errors.New("guest not found")
	ErrRoomNotFound          = errors.New("room not found")
	ErrInventoryItemNotFound = errors.New("inventory item not found")
	ErrTaskNotFound          = errors.New("task not found")
	ErrValidation            = errors.New("validation failed")
)

// ChangeKind names what a mutation touched.
type ChangeKind string

// Change kinds
const (
	KindGuests    ChangeKind = "guests"
	KindRooms     ChangeKind = "rooms"
	KindBudget    ChangeKind = "budget"
	KindInventory ChangeKind = "inventory"
	KindTasks     ChangeKind = "tasks"
	KindItinerary ChangeKind = "itinerary"
	KindReplaced  ChangeKind = "replaced"
)

// Change describes a committed state transition.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	Revision uint64     `json:"revision"`
	Unsaved  bool       `json:"unsaved"`
}

// Status is the bookkeeping that travels with a snapshot.
type Status struct {
	Revision uint64 `json:"revision"`
	Unsaved  bool   `json:"unsaved"`
}

// Listener is called after every committed change, outside the container lock.
type Listener func(Change)

// Container owns the AppState of this context.
type Container struct {
	mu        sync.RWMutex
	state     models.AppState
	breakdown catering.Breakdown
	revision  uint64
	unsaved   bool

	listenersMu sync.RWMutex
	listeners   []Listener

	now func() time.Time
}

// New creates a container seeded with initial. Derived budget fields are
// recomputed immediately; the initial state counts as saved.
func New(initial models.AppState) *Container {
	c := &Container{now: time.Now}
	c.state = initial.Clone()
	c.breakdown = derive(&c.state)
	return c
}

// derive normalizes the roster and recomputes every aggregate that depends on it.
func derive(s *models.AppState) catering.Breakdown {
	for i := range s.Guests {
		s.Guests[i].Normalize()
	}
	b := catering.Aggregate(s.Guests)
	s.Budget.CateringBreakdown = b.Events
	s.Budget.Adults = b.Adults
	s.Budget.Kids = b.Kids
	s.Budget.BarInventory = inventory.Estimate(b.ConfirmedAdults())
	return b
}

// Subscribe registers a listener for committed changes.
func (c *Container) Subscribe(l Listener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, l)
	c.listenersMu.Unlock()
}

func (c *Container) notify(ch Change) {
	c.listenersMu.RLock()
	ls := append([]Listener(nil), c.listeners...)
	c.listenersMu.RUnlock()
	for _, l := range ls {
		l(ch)
	}
}

// Update is the single mutation entry point. fn runs against a private copy of
// the state; if it returns an error nothing is committed. On success the
// derived aggregates are recomputed, the revision advances and the state is
// marked unsaved before the lock is released.
func (c *Container) Update(kind ChangeKind, fn func(*models.AppState) error) error {
	c.mu.Lock()
	next := c.state.Clone()
	if err := fn(&next); err != nil {
		c.mu.Unlock()
		return err
	}
	c.breakdown = derive(&next)
	c.state = next
	c.revision++
	c.unsaved = true
	ch := Change{Kind: kind, Revision: c.revision, Unsaved: true}
	c.mu.Unlock()

	c.notify(ch)
	return nil
}

// Replace overwrites the whole state with s, as read from the shared store.
// The result matches what is persisted, so it is not marked unsaved.
func (c *Container) Replace(s models.AppState) {
	c.mu.Lock()
	next := s.Clone()
	c.breakdown = derive(&next)
	c.state = next
	c.revision++
	c.unsaved = false
	ch := Change{Kind: KindReplaced, Revision: c.revision, Unsaved: false}
	c.mu.Unlock()

	c.notify(ch)
}

// MarkSaved records that the state at revision is what the store holds. The
// unsaved flag is cleared when that is still the current revision; otherwise
// memory differs from the store, even after a Replace, and the flag is set.
// It reports whether the flag was cleared.
func (c *Container) MarkSaved(revision uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if revision != c.revision {
		c.unsaved = true
		return false
	}
	c.unsaved = false
	return true
}

// Snapshot returns a deep copy of the state with its revision.
func (c *Container) Snapshot() (models.AppState, Status) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone(), Status{Revision: c.revision, Unsaved: c.unsaved}
}

// Status returns the current revision and unsaved flag.
func (c *Container) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{Revision: c.revision, Unsaved: c.unsaved}
}

// Unsaved reports whether there are changes not yet persisted.
func (c *Container) Unsaved() bool {
	return c.Status().Unsaved
}

// Breakdown returns the catering breakdown derived with the last write.
func (c *Container) Breakdown() catering.Breakdown {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := catering.Breakdown{
		Events: make(map[models.EventKey]models.EventCatering, len(c.breakdown.Events)),
		Adults: c.breakdown.Adults,
		Kids:   c.breakdown.Kids,
	}
	for k, v := range c.breakdown.Events {
		out.Events[k] = v
	}
	return out
}

// Guests returns a copy of the roster.
func (c *Container) Guests() []models.Guest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Guest, len(c.state.Guests))
	for i, g := range c.state.Guests {
		out[i] = g.Clone()
	}
	return out
}

// Guest returns a copy of one guest.
func (c *Container) Guest(id string) (models.Guest, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.state.FindGuest(id)
	if i < 0 {
		return models.Guest{}, ErrGuestNotFound
	}
	return c.state.Guests[i].Clone(), nil
}
