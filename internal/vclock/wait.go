package vclock

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/virtualclock/internal/simtime"
)

// wait suspends until p unless the clock is already there. The zero-delay case
// returns without involving the host.
func (c *VirtualClock) wait(ctx context.Context, p Phase, cycles uint64) error {
	d := c.Until(p, cycles)
	attrs := metric.WithAttributes(attribute.String("phase", p.String()))
	if d == 0 {
		waitsElidedTotal.Add(ctx, 1, attrs)
		return nil
	}
	waitsTotal.Add(ctx, 1, attrs)
	if err := c.host.Suspend(ctx, d); err != nil {
		return fmt.Errorf("clock %s: wait %s: %w", c.name, p, err)
	}
	return nil
}

func (c *VirtualClock) WaitPosedge(ctx context.Context, cycles uint64) error {
	return c.wait(ctx, Posedge, cycles)
}

func (c *VirtualClock) WaitNegedge(ctx context.Context, cycles uint64) error {
	return c.wait(ctx, Negedge, cycles)
}

// WaitAnyedge waits for the next transition opposite to the current level.
func (c *VirtualClock) WaitAnyedge(ctx context.Context, cycles uint64) error {
	return c.wait(ctx, Anyedge, cycles)
}

func (c *VirtualClock) WaitSample(ctx context.Context, cycles uint64) error {
	return c.wait(ctx, Sample, cycles)
}

func (c *VirtualClock) WaitSetedge(ctx context.Context, cycles uint64) error {
	return c.wait(ctx, Setedge, cycles)
}

// Event returns the notification event dedicated to p without suspending.
// Anyedge shares its event with ValueChangedEvent.
func (c *VirtualClock) Event(p Phase) Event {
	if p < 0 || p >= numPhases {
		panic(fmt.Sprintf("vclock: unknown phase %d", int(p)))
	}
	if c.events[p] == nil {
		c.events[p] = c.host.NewEvent(c.name.String() + "." + p.eventName())
	}
	return c.events[p]
}

// Schedule notifies the event of p when the clock reaches p, cycles whole
// periods out, and returns that delay. It does not suspend the caller.
func (c *VirtualClock) Schedule(p Phase, cycles uint64) simtime.Time {
	d := c.Until(p, cycles)
	c.notify(p, d)
	return d
}

func (c *VirtualClock) notify(p Phase, d simtime.Time) Event {
	ev := c.Event(p)
	ev.Notify(d)
	notificationsTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("phase", p.String())))
	return ev
}

// await waits for p, then notifies the event of p immediately and returns it.
func (c *VirtualClock) await(ctx context.Context, p Phase, cycles uint64) (Event, error) {
	if err := c.wait(ctx, p, cycles); err != nil {
		return nil, err
	}
	return c.notify(p, 0), nil
}

// PosedgeEvent waits for the rising edge and then raises its event with zero
// delay. It is shorthand for WaitPosedge followed by Event(Posedge).Notify(0).
func (c *VirtualClock) PosedgeEvent(ctx context.Context, cycles uint64) (Event, error) {
	return c.await(ctx, Posedge, cycles)
}

func (c *VirtualClock) NegedgeEvent(ctx context.Context, cycles uint64) (Event, error) {
	return c.await(ctx, Negedge, cycles)
}

func (c *VirtualClock) SampleEvent(ctx context.Context, cycles uint64) (Event, error) {
	return c.await(ctx, Sample, cycles)
}

func (c *VirtualClock) SetedgeEvent(ctx context.Context, cycles uint64) (Event, error) {
	return c.await(ctx, Setedge, cycles)
}

// ValueChangedEvent waits for the next transition and then raises the value
// changed event.
func (c *VirtualClock) ValueChangedEvent(ctx context.Context, cycles uint64) (Event, error) {
	return c.await(ctx, Anyedge, cycles)
}

// DefaultEvent is ValueChangedEvent.
func (c *VirtualClock) DefaultEvent(ctx context.Context, cycles uint64) (Event, error) {
	return c.ValueChangedEvent(ctx, cycles)
}
