// Package vclock implements virtual clocks for event-driven simulation.
//
// A VirtualClock never runs. It computes, whenever asked, how far away the next
// rising edge, falling edge, sample point or setedge point is from the host's
// current time, and waits for exactly that long when a caller needs to be
// there. Many periodic wake-ups collapse into a single suspension, and a wait
// for a point the caller already sits on does not suspend at all.
//
// Clocks are not safe for concurrent use. The host runs one execution context
// at a time, so a query is stable for the whole synchronous span of a context.
// Changing a clock's timing does not reschedule contexts already suspended on
// it.
package vclock

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/aelexs/virtualclock/internal/domain"
	"github.com/aelexs/virtualclock/internal/simtime"
)

// VirtualClock is a periodic clock signal evaluated analytically against the
// host's current time.
type VirtualClock struct {
	name   domain.ClockName
	host   Host
	arith  simtime.Arithmetic
	logger *slog.Logger
	state  State
	events [numPhases]Event
}

type settings struct {
	state      State
	sampleSet  bool
	setedgeSet bool
	arith      simtime.Arithmetic
	logger     *slog.Logger
}

// Option configures a VirtualClock at construction.
type Option func(*settings)

// WithDutyCycle sets the fraction of the period the clock is high.
func WithDutyCycle(duty float64) Option {
	return func(s *settings) { s.state.DutyCycle = duty }
}

// WithOffset sets the time of the first edge within the period.
func WithOffset(offset simtime.Time) Option {
	return func(s *settings) { s.state.Offset = offset }
}

// WithSampleTime sets the data capture point within the period. It defaults to
// the rising edge.
func WithSampleTime(sample simtime.Time) Option {
	return func(s *settings) {
		s.state.Sample = sample
		s.sampleSet = true
	}
}

// WithSetedgeTime sets the data drive point within the period. It defaults to
// the falling edge.
func WithSetedgeTime(setedge simtime.Time) Option {
	return func(s *settings) {
		s.state.Setedge = setedge
		s.setedgeSet = true
	}
}

// WithPolarity selects whether the first edge after the offset is a rising
// (true) or falling (false) edge.
func WithPolarity(positive bool) Option {
	return func(s *settings) { s.state.Positive = positive }
}

// WithArithmetic sets the negative time difference policy and warning sink.
func WithArithmetic(a simtime.Arithmetic) Option {
	return func(s *settings) { s.arith = a }
}

// WithLogger sets the logger for configuration changes and misuse reports.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

func applyOptions(s *settings, opts []Option) {
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.arith.Logger == nil {
		s.arith.Logger = s.logger
	}
}

// New creates a clock running under host. An empty name is replaced with a
// generated one. The frequency epoch starts at the host's current time.
func New(host Host, name string, period simtime.Time, opts ...Option) (*VirtualClock, error) {
	if host == nil {
		return nil, fmt.Errorf("clock %q: nil host: %w", name, domain.ErrInvalidConfiguration)
	}

	cn := domain.GenerateClockName()
	if name != "" {
		var err error
		if cn, err = domain.NewClockName(name); err != nil {
			return nil, err
		}
	}

	s := settings{state: State{
		Period:    period,
		DutyCycle: domain.DefaultDutyCycle,
		Positive:  domain.DefaultPositive,
	}}
	applyOptions(&s, opts)

	if err := s.state.validateTiming(); err != nil {
		return nil, fmt.Errorf("clock %s: %w", cn, err)
	}
	s.state.derive()
	if !s.sampleSet {
		s.state.Sample = s.state.PosedgeOffset
	}
	if !s.setedgeSet {
		s.state.Setedge = s.state.NegedgeOffset
	}
	if err := s.state.validate(); err != nil {
		return nil, fmt.Errorf("clock %s: %w", cn, err)
	}
	s.state.EpochStart = host.Now()

	return &VirtualClock{
		name:   cn,
		host:   host,
		arith:  s.arith,
		logger: s.logger.With(slog.String("clock", cn.String())),
		state:  s.state,
	}, nil
}

// Accessors

func (c *VirtualClock) Name() string              { return c.name.String() }
func (c *VirtualClock) Period() simtime.Time      { return c.state.Period }
func (c *VirtualClock) DutyCycle() float64        { return c.state.DutyCycle }
func (c *VirtualClock) Offset() simtime.Time      { return c.state.Offset }
func (c *VirtualClock) SampleTime() simtime.Time  { return c.state.Sample }
func (c *VirtualClock) SetedgeTime() simtime.Time { return c.state.Setedge }
func (c *VirtualClock) TimeShift() simtime.Time   { return c.state.Shift }
func (c *VirtualClock) Positive() bool            { return c.state.Positive }
func (c *VirtualClock) FrequencyChanges() uint64  { return c.state.FrequencyChanges }
func (c *VirtualClock) State() State              { return c.state }

// Periods returns the length of n periods, saturating at simtime.MaxTime.
func (c *VirtualClock) Periods(n uint64) simtime.Time { return simtime.Mul(c.state.Period, n) }

// Frequency returns the clock frequency in Hz.
func (c *VirtualClock) Frequency() float64 {
	return 1 / c.state.Period.Seconds()
}

// Configuration

// SetFrequency sets the period to 1/hz seconds, rounded to the nearest
// picosecond.
func (c *VirtualClock) SetFrequency(hz float64) error {
	if math.IsNaN(hz) || hz <= 0 || math.IsInf(hz, 0) {
		return c.configError("set frequency", fmt.Errorf("frequency %g must be positive: %w", hz, domain.ErrInvalidConfiguration))
	}
	period, err := simtime.FromSeconds(1 / hz)
	if err != nil {
		return c.configError("set frequency", fmt.Errorf("frequency %g: %w: %w", hz, err, domain.ErrInvalidConfiguration))
	}
	return c.SetPeriodTime(period)
}

// SetPeriodTime changes the period and starts a new frequency epoch. A period
// that would leave the offset, sample or setedge time outside of it is
// rejected.
func (c *VirtualClock) SetPeriodTime(period simtime.Time) error {
	next := c.state
	next.Period = period
	if err := next.validate(); err != nil {
		return c.configError("set period", err)
	}
	c.apply(next, period != c.state.Period)
	return nil
}

// SetOffsetTime moves the first edge and starts a new frequency epoch.
func (c *VirtualClock) SetOffsetTime(offset simtime.Time) error {
	next := c.state
	next.Offset = offset
	if err := next.validate(); err != nil {
		return c.configError("set offset", err)
	}
	c.apply(next, offset != c.state.Offset)
	return nil
}

// SetDutyCycle changes the high fraction of the period.
func (c *VirtualClock) SetDutyCycle(duty float64) error {
	next := c.state
	next.DutyCycle = duty
	if err := next.validate(); err != nil {
		return c.configError("set duty cycle", err)
	}
	c.apply(next, false)
	return nil
}

// SetSampleTime moves the sample point within the period.
func (c *VirtualClock) SetSampleTime(sample simtime.Time) error {
	next := c.state
	next.Sample = sample
	if err := next.validate(); err != nil {
		return c.configError("set sample time", err)
	}
	c.apply(next, false)
	return nil
}

// SetSetedgeTime moves the setedge point within the period.
func (c *VirtualClock) SetSetedgeTime(setedge simtime.Time) error {
	next := c.state
	next.Setedge = setedge
	if err := next.validate(); err != nil {
		return c.configError("set setedge time", err)
	}
	c.apply(next, false)
	return nil
}

// SetTimeShift sets the offset added to the current time before every phase
// computation. It does not move simulated time.
func (c *VirtualClock) SetTimeShift(shift simtime.Time) error {
	next := c.state
	next.Shift = shift
	c.apply(next, false)
	return nil
}

// Reset would clear the cycle count and frequency change history. What it
// should do to suspended waiters is undecided, so it always fails.
func (c *VirtualClock) Reset() error {
	return fmt.Errorf("clock %s: reset: %w", c.name, domain.ErrNotImplemented)
}

// Write always fails with domain.ErrUnsupportedOperation.
func (c *VirtualClock) Write(v bool) error {
	c.logger.Error("write attempted on clock", slog.Bool("value", v))
	return fmt.Errorf("clock %s: write: %w", c.name, domain.ErrUnsupportedOperation)
}

// apply installs next. When epoch is set the cycles counted so far are frozen
// into BaseCycles under the old period and a new frequency epoch starts now.
func (c *VirtualClock) apply(next State, epoch bool) {
	if epoch {
		now := c.host.Now()
		next.BaseCycles = c.state.BaseCycles +
			CyclesSince(c.arith, c.state.Period, c.state.EpochStart, c.state.Shift, now)
		next.EpochStart = now
		next.FrequencyChanges++
		frequencyChangesTotal.Add(context.Background(), 1)
	}
	next.derive()
	c.state = next

	c.logger.Debug("clock configuration changed",
		slog.String("period", next.Period.String()),
		slog.Float64("duty", next.DutyCycle),
		slog.String("offset", next.Offset.String()),
		slog.String("shift", next.Shift.String()),
		slog.Bool("new_epoch", epoch),
	)
}

func (c *VirtualClock) configError(op string, err error) error {
	c.logger.Warn("rejected clock configuration", slog.String("op", op), slog.String("error", err.Error()))
	return fmt.Errorf("clock %s: %s: %w", c.name, op, err)
}
