package vclock

import "github.com/aelexs/virtualclock/internal/simtime"

// offset resolves the phase offset of p at the current time. Anyedge resolves
// to the edge opposite to the current level.
func (c *VirtualClock) offset(p Phase) simtime.Time {
	if p == Anyedge {
		if c.Read() {
			return c.state.NegedgeOffset
		}
		return c.state.PosedgeOffset
	}
	return c.state.phaseOffset(p)
}

func (c *VirtualClock) delay(offset simtime.Time) simtime.Time {
	return DelayToPhase(c.state.Period, offset, c.state.Shift, c.host.Now())
}

// Until returns the delay to p, cycles whole periods further out. It is zero
// when cycles is zero and the clock is on p right now. Far-out delays saturate
// at simtime.MaxTime.
func (c *VirtualClock) Until(p Phase, cycles uint64) simtime.Time {
	return simtime.Add(c.Periods(cycles), c.delay(c.offset(p)))
}

// Next is Until but never zero: sitting on p counts as one period away.
func (c *VirtualClock) Next(p Phase, cycles uint64) simtime.Time {
	d := NextDelayToPhase(c.state.Period, c.offset(p), c.state.Shift, c.host.Now())
	return simtime.Add(c.Periods(cycles), d)
}

func (c *VirtualClock) UntilPosedge(cycles uint64) simtime.Time { return c.Until(Posedge, cycles) }
func (c *VirtualClock) UntilNegedge(cycles uint64) simtime.Time { return c.Until(Negedge, cycles) }
func (c *VirtualClock) UntilAnyedge(cycles uint64) simtime.Time { return c.Until(Anyedge, cycles) }
func (c *VirtualClock) UntilSample(cycles uint64) simtime.Time  { return c.Until(Sample, cycles) }
func (c *VirtualClock) UntilSetedge(cycles uint64) simtime.Time { return c.Until(Setedge, cycles) }

func (c *VirtualClock) NextPosedge(cycles uint64) simtime.Time { return c.Next(Posedge, cycles) }
func (c *VirtualClock) NextNegedge(cycles uint64) simtime.Time { return c.Next(Negedge, cycles) }
func (c *VirtualClock) NextAnyedge(cycles uint64) simtime.Time { return c.Next(Anyedge, cycles) }
func (c *VirtualClock) NextSample(cycles uint64) simtime.Time  { return c.Next(Sample, cycles) }
func (c *VirtualClock) NextSetedge(cycles uint64) simtime.Time { return c.Next(Setedge, cycles) }

// At reports whether the clock is on p right now.
func (c *VirtualClock) At(p Phase) bool {
	return c.Until(p, 0) == 0
}

func (c *VirtualClock) AtPosedgeTime() bool { return c.At(Posedge) }
func (c *VirtualClock) AtNegedgeTime() bool { return c.At(Negedge) }
func (c *VirtualClock) AtAnyedgeTime() bool { return c.At(Anyedge) }
func (c *VirtualClock) AtSampleTime() bool  { return c.At(Sample) }
func (c *VirtualClock) AtSetedgeTime() bool { return c.At(Setedge) }

// Read returns the current level: high exactly when the next falling edge is
// strictly nearer than the next rising edge. On an edge it reports the level
// before the transition.
func (c *VirtualClock) Read() bool {
	return c.delay(c.state.NegedgeOffset) < c.delay(c.state.PosedgeOffset)
}

// Cycles returns the number of whole periods since the clock was created,
// counting each frequency epoch under its own period.
func (c *VirtualClock) Cycles() uint64 {
	return c.CyclesAt(c.host.Now())
}

// CyclesAt returns the cycle count at t, assuming the current frequency epoch
// extends to t.
func (c *VirtualClock) CyclesAt(t simtime.Time) uint64 {
	return c.state.BaseCycles +
		CyclesSince(c.arith, c.state.Period, c.state.EpochStart, c.state.Shift, t)
}
