// Package vclocktest provides test doubles for the vclock package.
package vclocktest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aelexs/virtualclock/internal/simtime"
	"github.com/aelexs/virtualclock/internal/vclock"
)

// ErrNoNotification is returned by ManualEvent.Wait when nothing is pending.
var ErrNoNotification = errors.New("no pending notification")

// ManualHost is a deterministic host for tests. Suspend never blocks: it
// records the requested duration and advances the host's time by it.
// Use Advance/Set to move time between queries.
type ManualHost struct {
	mu          sync.Mutex
	now         simtime.Time
	suspensions []simtime.Time
	events      map[string]*ManualEvent
}

// NewManualHost creates a ManualHost whose time starts at start.
func NewManualHost(start simtime.Time) *ManualHost {
	return &ManualHost{now: start, events: make(map[string]*ManualEvent)}
}

// Now returns the host's current time.
func (h *ManualHost) Now() simtime.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

// Advance moves the host's time forward by d.
func (h *ManualHost) Advance(d simtime.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now += d
}

// Set changes the host's time to t.
func (h *ManualHost) Set(t simtime.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = t
}

// Suspend records d and advances time by it. It fails only when ctx is done.
func (h *ManualHost) Suspend(ctx context.Context, d simtime.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.suspensions = append(h.suspensions, d)
	h.now += d
	return nil
}

// Suspensions returns every duration passed to Suspend, in call order.
func (h *ManualHost) Suspensions() []simtime.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]simtime.Time(nil), h.suspensions...)
}

// NewEvent creates a ManualEvent. Creating an event with an existing name
// returns the existing one.
func (h *ManualHost) NewEvent(name string) vclock.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ev, ok := h.events[name]; ok {
		return ev
	}
	ev := &ManualEvent{name: name, host: h}
	h.events[name] = ev
	return ev
}

// Event returns the event created under name, or nil.
func (h *ManualHost) Event(name string) *ManualEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events[name]
}

// ManualEvent records notifications as absolute host times.
type ManualEvent struct {
	name    string
	host    *ManualHost
	pending []simtime.Time
	fired   []simtime.Time
}

// Name returns the event name.
func (e *ManualEvent) Name() string { return e.name }

// Notify records a notification at the host's time plus delay.
func (e *ManualEvent) Notify(delay simtime.Time) {
	e.host.mu.Lock()
	defer e.host.mu.Unlock()
	at := e.host.now + delay
	e.fired = append(e.fired, at)
	e.pending = append(e.pending, at)
	sort.Slice(e.pending, func(i, j int) bool { return e.pending[i] < e.pending[j] })
}

// Notifications returns the absolute times of every notification so far.
func (e *ManualEvent) Notifications() []simtime.Time {
	e.host.mu.Lock()
	defer e.host.mu.Unlock()
	return append([]simtime.Time(nil), e.fired...)
}

// Wait consumes the earliest pending notification, advancing the host's time
// to it when it lies in the future.
func (e *ManualEvent) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.host.mu.Lock()
	defer e.host.mu.Unlock()
	if len(e.pending) == 0 {
		return fmt.Errorf("event %s: %w", e.name, ErrNoNotification)
	}
	at := e.pending[0]
	e.pending = e.pending[1:]
	if at > e.host.now {
		e.host.now = at
	}
	return nil
}

// Ensure ManualHost implements vclock.Host at compile time.
var _ vclock.Host = (*ManualHost)(nil)
