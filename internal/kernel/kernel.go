// Package kernel is a cooperative discrete-event scheduler that hosts virtual
// clocks and the simulated processes waiting on them.
//
// Processes are goroutines, but only one of them runs at any moment: the
// kernel wakes a process and waits until it suspends again or returns. Queries
// a process makes between two suspensions therefore see a frozen simulated
// time. A process must not block on anything but the kernel.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/aelexs/virtualclock/internal/domain"
	"github.com/aelexs/virtualclock/internal/simtime"
	"github.com/aelexs/virtualclock/internal/vclock"
)

var (
	tracer = otel.Tracer("virtualclock/kernel")

	dispatchesTotal metric.Int64Counter
	processesTotal  metric.Int64Counter
)

func init() {
	m := otel.Meter("virtualclock/kernel")

	dispatchesTotal, _ = m.Int64Counter("kernel_dispatches_total",
		metric.WithDescription("Total process resumptions"))
	processesTotal, _ = m.Int64Counter("kernel_processes_total",
		metric.WithDescription("Total processes started"))
}

// ProcessFunc is the body of a simulated process. The context carries the
// process identity and must be passed to every blocking kernel call.
type ProcessFunc func(ctx context.Context) error

// Kernel schedules processes and event notifications in simulated time.
type Kernel struct {
	logger *slog.Logger
	arith  simtime.Arithmetic

	mu      sync.Mutex
	now     simtime.Time
	seq     uint64
	queue   queue
	group   *errgroup.Group
	gctx    context.Context
	spawned []*process
	done    bool

	yield   chan yielded
	stopped chan struct{}

	// failed is owned by the scheduling loop.
	failed error
}

type process struct {
	k    *Kernel
	name string
	fn   ProcessFunc
	wake chan struct{}
}

// yielded is sent by the running process when it hands control back.
type yielded struct {
	proc *process
	done bool
	err  error
}

type processKey struct{}

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the kernel logger.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) { k.logger = logger }
}

// WithArithmetic sets the policy WaitUntil uses for times in the past.
func WithArithmetic(a simtime.Arithmetic) Option {
	return func(k *Kernel) { k.arith = a }
}

// New creates a kernel at time zero.
func New(opts ...Option) *Kernel {
	k := &Kernel{
		yield:   make(chan yielded),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.logger == nil {
		k.logger = slog.Default()
	}
	if k.arith.Logger == nil {
		k.arith.Logger = k.logger
	}
	return k
}

// Now returns the current simulated time.
func (k *Kernel) Now() simtime.Time {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.now
}

// NewEvent creates a notification event.
func (k *Kernel) NewEvent(name string) vclock.Event {
	return &event{k: k, name: name}
}

// Spawn registers a process that starts at the current time. Call it before
// Run or from a running process. Processes spawned after Run returned never
// start.
func (k *Kernel) Spawn(name string, fn ProcessFunc) {
	p := &process{k: k, name: name, fn: fn, wake: make(chan struct{})}

	k.mu.Lock()
	done := k.done
	switch {
	case done:
	case k.group == nil:
		k.spawned = append(k.spawned, p)
	default:
		k.startLocked(p)
	}
	k.mu.Unlock()

	if done {
		k.logger.Warn("process spawned after simulation stopped", slog.String("process", name))
	}
}

func (k *Kernel) startLocked(p *process) {
	k.scheduleLocked(k.now, p, nil)
	processesTotal.Add(context.Background(), 1)

	ctx := context.WithValue(k.gctx, processKey{}, p)
	k.group.Go(func() error { return p.run(ctx) })
}

func (k *Kernel) scheduleLocked(at simtime.Time, p *process, ev *event) *entry {
	e := &entry{at: at, seq: k.seq, proc: p, event: ev}
	k.seq++
	k.queue.push(e)
	return e
}

// Run executes the simulation until the next pending activity lies beyond
// until, nothing is left to do, a process fails or ctx is cancelled. Time
// advances to until when activity remains beyond it.
//
// Processes still suspended when Run stops are released with
// domain.ErrStopped, and Run returns only after every process goroutine has
// exited. A kernel runs once.
func (k *Kernel) Run(ctx context.Context, until simtime.Time) error {
	ctx, span := tracer.Start(ctx, "kernel.Run")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)

	k.mu.Lock()
	if k.group != nil {
		k.mu.Unlock()
		return fmt.Errorf("kernel already ran: %w", domain.ErrStopped)
	}
	k.group, k.gctx = g, gctx
	for _, p := range k.spawned {
		k.startLocked(p)
	}
	k.spawned = nil
	start := k.now
	k.mu.Unlock()

	span.SetAttributes(
		attribute.String("sim.start", start.String()),
		attribute.String("sim.until", until.String()),
	)
	k.logger.Info("simulation started",
		slog.String("now", start.String()),
		slog.String("until", until.String()),
	)

	reason := k.loop(ctx, until)

	k.mu.Lock()
	k.done = true
	now := k.now
	k.mu.Unlock()
	close(k.stopped)

	err := g.Wait()
	if err == nil && reason == stopCancelled {
		err = fmt.Errorf("simulation cancelled at %v: %w", now, ctx.Err())
	}

	span.SetAttributes(
		attribute.String("sim.end", now.String()),
		attribute.String("sim.stop_reason", string(reason)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		k.logger.Error("simulation stopped",
			slog.String("now", now.String()),
			slog.String("reason", string(reason)),
			slog.String("error", err.Error()),
		)
		return err
	}

	k.logger.Info("simulation stopped",
		slog.String("now", now.String()),
		slog.String("reason", string(reason)),
	)
	return nil
}

type stopReason string

const (
	stopUntil     stopReason = "until"
	stopIdle      stopReason = "idle"
	stopFailed    stopReason = "failed"
	stopCancelled stopReason = "cancelled"
)

func (k *Kernel) loop(ctx context.Context, until simtime.Time) stopReason {
	for {
		if ctx.Err() != nil {
			return stopCancelled
		}
		if k.failed != nil {
			return stopFailed
		}

		k.mu.Lock()
		next := k.queue.peek()
		if next == nil {
			k.mu.Unlock()
			return stopIdle
		}
		if next.at > until {
			if until > k.now {
				k.now = until
			}
			k.mu.Unlock()
			return stopUntil
		}
		k.queue.pop()
		k.now = next.at
		k.mu.Unlock()

		if next.event == nil {
			k.dispatch(next.proc)
			continue
		}
		for _, p := range next.event.fire() {
			if k.failed != nil {
				break
			}
			k.dispatch(p)
		}
	}
}

// dispatch hands control to p and waits for it to hand control back.
func (k *Kernel) dispatch(p *process) {
	p.wake <- struct{}{}
	y := <-k.yield
	dispatchesTotal.Add(context.Background(), 1)

	if !y.done {
		return
	}
	if y.err != nil {
		k.failed = y.err
		return
	}
	k.logger.Debug("process finished", slog.String("process", y.proc.name))
}

func (p *process) run(ctx context.Context) error {
	k := p.k
	select {
	case <-p.wake:
	case <-k.stopped:
		return nil
	}

	err := p.fn(ctx)
	if errors.Is(err, domain.ErrStopped) {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("process %s: %w", p.name, err)
	}

	select {
	case k.yield <- yielded{proc: p, done: true, err: err}:
	case <-k.stopped:
	}
	return err
}

// current returns the process calling into the kernel.
func (k *Kernel) current(ctx context.Context) (*process, error) {
	p, ok := ctx.Value(processKey{}).(*process)
	if !ok || p.k != k {
		return nil, domain.ErrNoProcess
	}
	select {
	case <-k.stopped:
		return nil, domain.ErrStopped
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// block hands control back to the scheduling loop and waits to be woken.
func (k *Kernel) block(p *process) error {
	select {
	case k.yield <- yielded{proc: p}:
	case <-k.stopped:
		return domain.ErrStopped
	}
	select {
	case <-p.wake:
		return nil
	case <-k.stopped:
		return domain.ErrStopped
	}
}

// Suspend blocks the calling process for d of simulated time. Processes
// resumed at the same time run in the order they suspended.
func (k *Kernel) Suspend(ctx context.Context, d simtime.Time) error {
	p, err := k.current(ctx)
	if err != nil {
		return fmt.Errorf("suspend: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("suspend for %v: %w", d, domain.ErrNegativeTimeDifference)
	}

	k.mu.Lock()
	k.scheduleLocked(simtime.Add(k.now, d), p, nil)
	k.mu.Unlock()

	return k.block(p)
}

// WaitUntil blocks the calling process until simulated time t. A time in the
// past is resolved by the kernel's arithmetic policy.
func (k *Kernel) WaitUntil(ctx context.Context, t simtime.Time) error {
	return k.Suspend(ctx, k.arith.Diff(t, k.Now()))
}

// Ensure Kernel implements vclock.Host at compile time.
var _ vclock.Host = (*Kernel)(nil)
