package vclock

import (
	"fmt"
	"math"

	"github.com/aelexs/virtualclock/internal/domain"
	"github.com/aelexs/virtualclock/internal/simtime"
)

// State is the timing configuration of a clock together with the values
// derived from it. VirtualClock hands out copies only.
//
// The clock is high for round(DutyCycle*Period) of every period. With positive
// polarity the rising edge sits on Offset and the falling edge follows after the
// high time; with negative polarity the falling edge sits on Offset and the
// rising edge follows after the low time.
type State struct {
	Period    simtime.Time
	DutyCycle float64
	Offset    simtime.Time
	Sample    simtime.Time
	Setedge   simtime.Time
	Shift     simtime.Time
	Positive  bool

	// Derived edge offsets, both in [0, Period).
	PosedgeOffset simtime.Time
	NegedgeOffset simtime.Time

	// Frequency epoch bookkeeping.
	EpochStart       simtime.Time // time of the last period or offset change
	FrequencyChanges uint64       // number of period or offset changes
	BaseCycles       uint64       // cycles accumulated before EpochStart
}

// HighTime returns how long the clock is high in each period.
func (s State) HighTime() simtime.Time {
	return simtime.Scale(s.Period, s.DutyCycle)
}

// derive recomputes the edge offsets. Period must already be valid.
func (s *State) derive() {
	high := s.HighTime()
	if s.Positive {
		s.PosedgeOffset = simtime.Remainder(s.Offset, s.Period)
		s.NegedgeOffset = simtime.Remainder(s.Offset+high, s.Period)
		return
	}
	s.NegedgeOffset = simtime.Remainder(s.Offset, s.Period)
	s.PosedgeOffset = simtime.Remainder(s.Offset+s.Period-high, s.Period)
}

// validateTiming checks the values the edge offsets are derived from.
func (s State) validateTiming() error {
	if s.Period <= 0 {
		return fmt.Errorf("period %v must be positive: %w", s.Period, domain.ErrInvalidConfiguration)
	}
	if math.IsNaN(s.DutyCycle) || s.DutyCycle < 0 || s.DutyCycle > 1 {
		return fmt.Errorf("duty cycle %g must be within [0,1]: %w", s.DutyCycle, domain.ErrInvalidConfiguration)
	}
	// A fractional duty cycle needs distinct edges.
	if high := s.HighTime(); s.DutyCycle > 0 && s.DutyCycle < 1 && (high <= 0 || high >= s.Period) {
		return fmt.Errorf("duty cycle %g of period %v rounds to a high time of %v: %w",
			s.DutyCycle, s.Period, high, domain.ErrInvalidConfiguration)
	}
	return checkWithinPeriod("offset", s.Offset, s.Period)
}

// validate checks every invariant of the configuration.
func (s State) validate() error {
	if err := s.validateTiming(); err != nil {
		return err
	}
	if err := checkWithinPeriod("sample time", s.Sample, s.Period); err != nil {
		return err
	}
	return checkWithinPeriod("setedge time", s.Setedge, s.Period)
}

func checkWithinPeriod(what string, t, period simtime.Time) error {
	if t < 0 || t >= period {
		return fmt.Errorf("%s %v must be within [0,%v): %w", what, t, period, domain.ErrInvalidConfiguration)
	}
	return nil
}

// phaseOffset returns the fixed offset of p. Anyedge has none; callers resolve
// it to an edge first.
func (s State) phaseOffset(p Phase) simtime.Time {
	switch p {
	case Posedge:
		return s.PosedgeOffset
	case Negedge:
		return s.NegedgeOffset
	case Sample:
		return s.Sample
	case Setedge:
		return s.Setedge
	default:
		panic(fmt.Sprintf("vclock: phase %v has no fixed offset", p))
	}
}
