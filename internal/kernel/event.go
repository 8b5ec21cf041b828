package kernel

import (
	"context"
	"fmt"

	"github.com/aelexs/virtualclock/internal/simtime"
)

// event is a kernel notification channel. At most one notification is pending
// at a time: notifying again keeps whichever of the two fires earlier.
type event struct {
	k       *Kernel
	name    string
	pending *entry
	waiters []*process
}

func (e *event) Name() string { return e.name }

// Notify schedules a notification delay after the current time. A zero delay
// fires at the current time once the notifying process yields.
func (e *event) Notify(delay simtime.Time) {
	if delay < 0 {
		delay = 0
	}

	k := e.k
	k.mu.Lock()
	defer k.mu.Unlock()

	at := k.now + delay
	if e.pending != nil {
		if e.pending.at <= at {
			return
		}
		e.pending.cancelled = true
	}
	e.pending = k.scheduleLocked(at, nil, e)
}

// Wait suspends the calling process until the next notification.
func (e *event) Wait(ctx context.Context) error {
	p, err := e.k.current(ctx)
	if err != nil {
		return fmt.Errorf("event %s: %w", e.name, err)
	}

	e.k.mu.Lock()
	e.waiters = append(e.waiters, p)
	e.k.mu.Unlock()

	return e.k.block(p)
}

// fire releases every waiter registered before the notification.
func (e *event) fire() []*process {
	e.k.mu.Lock()
	defer e.k.mu.Unlock()

	e.pending = nil
	woken := e.waiters
	e.waiters = nil
	return woken
}
