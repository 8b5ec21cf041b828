// Package simrun provides the simulation lifecycle runner.
// cmd/vclocksim delegates to simrun.Run for signal handling, config loading,
// observability init, clock construction and the kernel run.
package simrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/virtualclock/internal/config"
	"github.com/aelexs/virtualclock/internal/domain"
	"github.com/aelexs/virtualclock/internal/kernel"
	"github.com/aelexs/virtualclock/internal/observability"
	"github.com/aelexs/virtualclock/internal/simtime"
	"github.com/aelexs/virtualclock/internal/vclock"
)

// ServiceVersion is reported in telemetry resources.
const ServiceVersion = "0.1.0"

// Params configures a simulation run.
type Params struct {
	// Name identifies the run in logs and telemetry unless otel.service_name
	// is configured.
	Name string

	// ConfigPath is the optional YAML clock definition file.
	ConfigPath string

	// Until overrides simulation.until when not empty.
	Until string

	// LogOutput receives log records. Defaults to stdout.
	LogOutput io.Writer

	// Setup runs after the configured clocks exist and before the kernel
	// starts. It may spawn further processes. The context carries the registry.
	Setup func(ctx context.Context, k *kernel.Kernel, r *vclock.Registry) error
}

// ClockSummary describes a configured clock at the end of a run.
type ClockSummary struct {
	Name   string
	Period simtime.Time
	Edges  uint64 // rising edges observed by the monitor
	Cycles uint64
	Level  bool
}

// Result is the outcome of a run.
type Result struct {
	Now    simtime.Time
	Clocks []ClockSummary
}

// Run executes a simulation: signal handling, config loading, observability
// initialization, one monitor process per configured clock, the kernel run
// and provider shutdown. It returns the result collected so far together with
// any error that stopped the run early.
func Run(ctx context.Context, p Params) (*Result, error) {
	// Signal-based cancellation: ctx.Done() closes on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load(ctx, p.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p.Until != "" {
		cfg.Simulation.Until = p.Until
	}
	until, err := cfg.Until()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.NegativeTimePolicy()
	if err != nil {
		return nil, err
	}

	service := p.Name
	if cfg.OTEL.ServiceName != "" {
		service = cfg.OTEL.ServiceName
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: service,
		Environment: cfg.Environment,
		Output:      p.LogOutput,
	})

	// --- Startup order: tracer -> metrics -> simulation ---
	providers, err := observability.Init(ctx, observability.Config{
		ServiceName:    service,
		ServiceVersion: ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		otelCtx, cancel := context.WithTimeout(context.Background(), domain.ShutdownOTELTimeout)
		defer cancel()
		if shutdownErr := providers.Shutdown(otelCtx); shutdownErr != nil {
			logger.Error("failed to shutdown telemetry", slog.String("error", shutdownErr.Error()))
		}
	}()

	ctx, span := observability.Tracer("virtualclock/simrun").Start(ctx, "simrun.Run")
	defer span.End()

	res, err := simulate(ctx, p, cfg, until, policy, observability.WithTraceID(ctx, logger))
	if res != nil {
		span.SetAttributes(
			attribute.String("sim.end", res.Now.String()),
			attribute.Int("sim.clocks", len(res.Clocks)),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func simulate(
	ctx context.Context,
	p Params,
	cfg *config.Config,
	until simtime.Time,
	policy simtime.NegativePolicy,
	logger *slog.Logger,
) (*Result, error) {
	var k *kernel.Kernel
	simLogger := observability.WithSimTime(logger, func() simtime.Time { return k.Now() })
	arith := simtime.Arithmetic{Policy: policy, Logger: simLogger}
	k = kernel.New(kernel.WithLogger(simLogger), kernel.WithArithmetic(arith))

	reg := vclock.NewRegistry(k, vclock.WithArithmetic(arith), vclock.WithLogger(simLogger))
	ctx = vclock.WithRegistry(ctx, reg)

	names := cfg.ClockNames()
	edges := make(map[string]*uint64, len(names))
	for _, name := range names {
		timing, err := cfg.Clocks[name].Timing()
		if err != nil {
			return nil, fmt.Errorf("clock %s: %w", name, err)
		}
		if _, err := reg.Global(name, timing.Period, clockOptions(timing)...); err != nil {
			return nil, err
		}
		edges[name] = new(uint64)
		k.Spawn("monitor "+name, monitor(name, edges[name]))
	}

	if p.Setup != nil {
		if err := p.Setup(ctx, k, reg); err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	logger.Info("starting simulation",
		slog.Int("clocks", len(names)),
		slog.String("until", until.String()),
		slog.String("negative_time_policy", policy.String()),
	)
	runErr := k.Run(ctx, until)

	res := &Result{Now: k.Now()}
	for _, name := range names {
		clk, err := reg.Lookup(name)
		if err != nil {
			return res, err
		}
		s := ClockSummary{
			Name:   name,
			Period: clk.Period(),
			Edges:  *edges[name],
			Cycles: clk.Cycles(),
			Level:  clk.Read(),
		}
		res.Clocks = append(res.Clocks, s)
		simLogger.Info("clock summary",
			slog.String("clock", s.Name),
			slog.String("period", s.Period.String()),
			slog.Uint64("edges", s.Edges),
			slog.Uint64("cycles", s.Cycles),
			slog.Bool("read", s.Level),
		)
	}

	if runErr != nil {
		return res, fmt.Errorf("run simulation: %w", runErr)
	}
	return res, nil
}

// clockOptions converts the configured fields into clock options.
func clockOptions(t config.ClockTiming) []vclock.Option {
	var opts []vclock.Option
	if t.Duty != nil {
		opts = append(opts, vclock.WithDutyCycle(*t.Duty))
	}
	if t.Offset != nil {
		opts = append(opts, vclock.WithOffset(*t.Offset))
	}
	if t.Sample != nil {
		opts = append(opts, vclock.WithSampleTime(*t.Sample))
	}
	if t.Setedge != nil {
		opts = append(opts, vclock.WithSetedgeTime(*t.Setedge))
	}
	if t.Positive != nil {
		opts = append(opts, vclock.WithPolarity(*t.Positive))
	}
	return opts
}

// monitor counts the rising edges of the named global clock. It resolves the
// clock the way any simulated component would, through the registry in ctx.
func monitor(name string, edges *uint64) kernel.ProcessFunc {
	return func(ctx context.Context) error {
		reg, ok := vclock.RegistryFromContext(ctx)
		if !ok {
			return fmt.Errorf("monitor %s: %w", name, domain.ErrNotFound)
		}
		clk, err := reg.Lookup(name)
		if err != nil {
			return err
		}

		if err := clk.WaitPosedge(ctx, 0); err != nil {
			return err
		}
		for {
			*edges++
			if err := clk.WaitPosedge(ctx, 1); err != nil {
				return err
			}
		}
	}
}
