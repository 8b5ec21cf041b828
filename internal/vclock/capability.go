package vclock

import (
	"context"

	"github.com/aelexs/virtualclock/internal/simtime"
)

// Host is the discrete-event scheduler a clock runs under. It supplies the
// current simulated time, suspends the calling execution context and creates
// notification events.
type Host interface {
	// Now returns the current simulated time.
	Now() simtime.Time

	// Suspend blocks the calling execution context until d of simulated time
	// has elapsed.
	Suspend(ctx context.Context, d simtime.Time) error

	// NewEvent creates a notification channel owned by the host.
	NewEvent(name string) Event
}

// Event is a host notification channel.
type Event interface {
	Name() string

	// Notify schedules a notification after delay. A zero delay makes the
	// notification visible to waiters at the next scheduling point.
	Notify(delay simtime.Time)

	// Wait suspends the calling execution context until the next notification.
	Wait(ctx context.Context) error
}

// Configurer changes the timing of a clock.
type Configurer interface {
	SetFrequency(hz float64) error
	SetPeriodTime(period simtime.Time) error
	SetOffsetTime(offset simtime.Time) error
	SetDutyCycle(duty float64) error
	SetSampleTime(sample simtime.Time) error
	SetSetedgeTime(setedge simtime.Time) error
	SetTimeShift(shift simtime.Time) error
	Reset() error
}

// Querier answers phase questions without suspending.
type Querier interface {
	Name() string
	Period() simtime.Time
	Periods(n uint64) simtime.Time
	DutyCycle() float64
	Frequency() float64
	Offset() simtime.Time
	SampleTime() simtime.Time
	SetedgeTime() simtime.Time
	TimeShift() simtime.Time
	Positive() bool
	FrequencyChanges() uint64
	State() State

	Cycles() uint64
	CyclesAt(t simtime.Time) uint64
	Read() bool

	Until(p Phase, cycles uint64) simtime.Time
	UntilPosedge(cycles uint64) simtime.Time
	UntilNegedge(cycles uint64) simtime.Time
	UntilAnyedge(cycles uint64) simtime.Time
	UntilSample(cycles uint64) simtime.Time
	UntilSetedge(cycles uint64) simtime.Time

	Next(p Phase, cycles uint64) simtime.Time
	NextPosedge(cycles uint64) simtime.Time
	NextNegedge(cycles uint64) simtime.Time
	NextAnyedge(cycles uint64) simtime.Time
	NextSample(cycles uint64) simtime.Time
	NextSetedge(cycles uint64) simtime.Time

	At(p Phase) bool
	AtPosedgeTime() bool
	AtNegedgeTime() bool
	AtAnyedgeTime() bool
	AtSampleTime() bool
	AtSetedgeTime() bool
}

// Waiter suspends until a phase point, and only when it is not already there.
type Waiter interface {
	WaitPosedge(ctx context.Context, cycles uint64) error
	WaitNegedge(ctx context.Context, cycles uint64) error
	WaitAnyedge(ctx context.Context, cycles uint64) error
	WaitSample(ctx context.Context, cycles uint64) error
	WaitSetedge(ctx context.Context, cycles uint64) error
}

// Notifier exposes the per-phase notification events of a clock.
type Notifier interface {
	Event(p Phase) Event
	Schedule(p Phase, cycles uint64) simtime.Time

	PosedgeEvent(ctx context.Context, cycles uint64) (Event, error)
	NegedgeEvent(ctx context.Context, cycles uint64) (Event, error)
	SampleEvent(ctx context.Context, cycles uint64) (Event, error)
	SetedgeEvent(ctx context.Context, cycles uint64) (Event, error)
	ValueChangedEvent(ctx context.Context, cycles uint64) (Event, error)
	DefaultEvent(ctx context.Context, cycles uint64) (Event, error)
}

// Clock is everything a simulated component can do with a clock. Components
// should depend on Clock rather than on *VirtualClock.
type Clock interface {
	Configurer
	Querier
	Waiter
	Notifier

	// Write always fails: a clock is a read-only derived signal.
	Write(v bool) error
}

// Ensure VirtualClock implements Clock at compile time.
var _ Clock = (*VirtualClock)(nil)
