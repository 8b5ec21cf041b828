package vclock

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aelexs/virtualclock/internal/domain"
	"github.com/aelexs/virtualclock/internal/simtime"
)

// Registry shares named clocks between simulated components. Construct one at
// simulation setup and hand it to components directly or through a context
// (see WithRegistry). Clocks created by a registry live as long as it does;
// clocks created with New are never registered.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	host     Host
	defaults []Option
	logger   *slog.Logger
	clocks   map[string]*VirtualClock
}

// NewRegistry creates an empty registry whose clocks run under host. The
// defaults are applied to every clock it creates, before the per-call options.
func NewRegistry(host Host, defaults ...Option) *Registry {
	var s settings
	applyOptions(&s, defaults)

	return &Registry{
		host:     host,
		defaults: defaults,
		logger:   s.logger,
		clocks:   make(map[string]*VirtualClock),
	}
}

// Global returns the clock registered under name, creating it from period and
// opts when there is none. The first call for a name wins: later calls return
// the same clock and ignore their configuration.
//
// Sample and setedge times default to zero for registry clocks.
func (r *Registry) Global(name string, period simtime.Time, opts ...Option) (*VirtualClock, error) {
	cn, err := domain.NewClockName(name)
	if err != nil {
		return nil, fmt.Errorf("global clock: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clocks[cn.String()]; ok {
		r.logger.Debug("returning existing global clock",
			slog.String("clock", name),
			slog.String("period", c.Period().String()),
		)
		return c, nil
	}

	all := make([]Option, 0, len(r.defaults)+len(opts)+2)
	all = append(all, WithSampleTime(0), WithSetedgeTime(0))
	all = append(all, r.defaults...)
	all = append(all, opts...)

	c, err := New(r.host, name, period, all...)
	if err != nil {
		return nil, fmt.Errorf("global clock: %w", err)
	}
	r.clocks[cn.String()] = c
	clocksCreatedTotal.Add(context.Background(), 1)

	r.logger.Info("creating new global clock",
		slog.String("clock", name),
		slog.String("period", period.String()),
	)
	return c, nil
}

// Lookup returns the clock registered under name.
func (r *Registry) Lookup(name string) (*VirtualClock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clocks[name]
	if !ok {
		return nil, fmt.Errorf("missing definition for global clock %q: %w", name, domain.ErrNotFound)
	}
	return c, nil
}

// Names returns the registered clock names in ascending order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.clocks))
	for name := range r.clocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered clocks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clocks)
}

type registryKey struct{}

// WithRegistry returns a context carrying r.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// RegistryFromContext returns the registry carried by ctx, if any.
func RegistryFromContext(ctx context.Context) (*Registry, bool) {
	r, ok := ctx.Value(registryKey{}).(*Registry)
	return r, ok && r != nil
}
