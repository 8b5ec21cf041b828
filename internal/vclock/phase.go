package vclock

import (
	"fmt"

	"github.com/aelexs/virtualclock/internal/simtime"
)

// Phase names a point of interest within a clock period.
type Phase int

const (
	Posedge Phase = iota
	Negedge
	// Anyedge is the next transition opposite to the current level.
	Anyedge
	Sample
	Setedge

	numPhases
)

func (p Phase) String() string {
	switch p {
	case Posedge:
		return "posedge"
	case Negedge:
		return "negedge"
	case Anyedge:
		return "anyedge"
	case Sample:
		return "sample"
	case Setedge:
		return "setedge"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// eventName is the suffix of the notification event dedicated to p.
func (p Phase) eventName() string {
	if p == Anyedge {
		return "value_changed"
	}
	return p.String()
}

// DelayToPhase returns the delay from now until the clock reaches phaseOffset
// within its period, evaluated at now+shift. The result is in [0, period): it
// is zero when already on the phase point.
//
//	            now
//	    |--------*---+-------|--------+----->
//	    0            offset  period
//	             <--->
//	             result
func DelayToPhase(period, phaseOffset, shift, now simtime.Time) simtime.Time {
	elapsed := simtime.AddRemainder(now, shift, period)
	switch {
	case elapsed == phaseOffset:
		return 0
	case elapsed < phaseOffset:
		return phaseOffset - elapsed
	default:
		return period + phaseOffset - elapsed
	}
}

// NextDelayToPhase is DelayToPhase but never zero: sitting on the phase point
// yields a full period. The result is in (0, period].
func NextDelayToPhase(period, phaseOffset, shift, now simtime.Time) simtime.Time {
	d := DelayToPhase(period, phaseOffset, shift, now)
	if d == 0 {
		return period
	}
	return d
}

// CyclesSince returns the number of whole periods between epochStart and
// now+shift. A reference point before epochStart is a negative time difference
// and is recovered by a. now+shift saturates at the bounds of simulated time.
//
// Cycles counted under earlier periods are not included; VirtualClock keeps
// them separately.
func CyclesSince(a simtime.Arithmetic, period, epochStart, shift, now simtime.Time) uint64 {
	elapsed := a.Diff(simtime.Add(now, shift), epochStart)
	return uint64(elapsed / period)
}
