package vclock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/virtualclock/internal/simtime"
	"github.com/aelexs/virtualclock/internal/vclock"
	"github.com/aelexs/virtualclock/internal/vclock/vclocktest"
)

func TestWaitSuspendsForComputedDelay(t *testing.T) {
	ctx := context.Background()
	host := vclocktest.NewManualHost(3 * ns)
	clk := newClock(t, host)
	host.Set(3 * ns)

	require.NoError(t, clk.WaitPosedge(ctx, 0))

	assert.Equal(t, 10*ns, host.Now())
	assert.Equal(t, []simtime.Time{7 * ns}, host.Suspensions())
}

func TestWaitOnPhasePointDoesNotSuspend(t *testing.T) {
	ctx := context.Background()
	host := vclocktest.NewManualHost(0)
	clk := newClock(t, host)

	require.NoError(t, clk.WaitPosedge(ctx, 0))
	host.Set(5 * ns)
	require.NoError(t, clk.WaitNegedge(ctx, 0))
	require.NoError(t, clk.WaitAnyedge(ctx, 0))

	assert.Empty(t, host.Suspensions())
	assert.Equal(t, 5*ns, host.Now())
}

func TestWaitCyclesAhead(t *testing.T) {
	ctx := context.Background()
	host := vclocktest.NewManualHost(0)
	clk := newClock(t, host, vclock.WithSampleTime(1*ns), vclock.WithSetedgeTime(6*ns))

	require.NoError(t, clk.WaitPosedge(ctx, 2))
	assert.Equal(t, 20*ns, host.Now())

	require.NoError(t, clk.WaitSample(ctx, 0))
	assert.Equal(t, 21*ns, host.Now())

	require.NoError(t, clk.WaitSetedge(ctx, 1))
	assert.Equal(t, 36*ns, host.Now())

	assert.Equal(t, []simtime.Time{20 * ns, 1 * ns, 15 * ns}, host.Suspensions())
}

func TestWaitPropagatesHostError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	host := vclocktest.NewManualHost(0)
	clk := newClock(t, host)
	host.Set(1 * ns)

	err := clk.WaitNegedge(ctx, 0)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "wait negedge")
}

func TestEventHandleIsStable(t *testing.T) {
	host := vclocktest.NewManualHost(0)
	clk := newClock(t, host)

	ev := clk.Event(vclock.Posedge)

	assert.Same(t, ev, clk.Event(vclock.Posedge))
	assert.Equal(t, "CLK.posedge", ev.Name())
	assert.Equal(t, "CLK.value_changed", clk.Event(vclock.Anyedge).Name())
	assert.Empty(t, host.Suspensions(), "retrieving a handle never suspends")
}

func TestEventPanicsOnUnknownPhase(t *testing.T) {
	clk := newClock(t, vclocktest.NewManualHost(0))

	assert.Panics(t, func() { clk.Event(vclock.Phase(99)) })
}

func TestScheduleNotifiesWithoutSuspending(t *testing.T) {
	host := vclocktest.NewManualHost(0)
	clk := newClock(t, host)

	d := clk.Schedule(vclock.Negedge, 1)

	assert.Equal(t, 15*ns, d)
	assert.Empty(t, host.Suspensions())
	ev := host.Event("CLK.negedge")
	require.NotNil(t, ev)
	assert.Equal(t, []simtime.Time{15 * ns}, ev.Notifications())

	require.NoError(t, ev.Wait(context.Background()))
	assert.Equal(t, 15*ns, host.Now())
}

func TestCombinedEventWaitsThenNotifies(t *testing.T) {
	ctx := context.Background()
	host := vclocktest.NewManualHost(0)
	clk := newClock(t, host, vclock.WithSampleTime(2*ns), vclock.WithSetedgeTime(8*ns))
	host.Set(3 * ns)

	tests := []struct {
		name  string
		call  func() (vclock.Event, error)
		event string
		at    simtime.Time
	}{
		{"posedge", func() (vclock.Event, error) { return clk.PosedgeEvent(ctx, 0) }, "CLK.posedge", 10 * ns},
		{"negedge", func() (vclock.Event, error) { return clk.NegedgeEvent(ctx, 0) }, "CLK.negedge", 15 * ns},
		{"sample", func() (vclock.Event, error) { return clk.SampleEvent(ctx, 0) }, "CLK.sample", 22 * ns},
		{"setedge", func() (vclock.Event, error) { return clk.SetedgeEvent(ctx, 0) }, "CLK.setedge", 28 * ns},
		{"value changed", func() (vclock.Event, error) { return clk.ValueChangedEvent(ctx, 0) }, "CLK.value_changed", 30 * ns},
		{"default", func() (vclock.Event, error) { return clk.DefaultEvent(ctx, 0) }, "CLK.value_changed", 30 * ns},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := tt.call()
			require.NoError(t, err)

			assert.Equal(t, tt.event, ev.Name())
			assert.Equal(t, tt.at, host.Now())
			notes := host.Event(tt.event).Notifications()
			require.NotEmpty(t, notes)
			assert.Equal(t, tt.at, notes[len(notes)-1], "zero-delay notification")
		})
	}
}

func TestCombinedEventReturnsWaitError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	host := vclocktest.NewManualHost(1 * ns)
	clk := newClock(t, host)

	ev, err := clk.PosedgeEvent(ctx, 0)

	assert.Nil(t, ev)
	assert.ErrorIs(t, err, context.Canceled)
}
