package simtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/virtualclock/internal/domain"
)

var negativeDifferencesTotal metric.Int64Counter

func init() {
	m := otel.Meter("virtualclock/simtime")

	negativeDifferencesTotal, _ = m.Int64Counter("simtime_negative_differences_total",
		metric.WithDescription("Total time differences that would have been negative"))
}

// NegativePolicy selects how FlooredDifference recovers when the result would be
// negative.
type NegativePolicy int

const (
	// PolicyZero recovers with a zero duration.
	PolicyZero NegativePolicy = iota
	// PolicyInvert recovers with the magnitude of the difference.
	PolicyInvert
)

func (p NegativePolicy) String() string {
	switch p {
	case PolicyZero:
		return "zero"
	case PolicyInvert:
		return "invert"
	default:
		return fmt.Sprintf("NegativePolicy(%d)", int(p))
	}
}

// ParseNegativePolicy parses "zero" or "invert" (case-insensitive).
func ParseNegativePolicy(s string) (NegativePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero", "":
		return PolicyZero, nil
	case "invert":
		return PolicyInvert, nil
	default:
		return PolicyZero, fmt.Errorf("negative time policy %q: %w", s, domain.ErrInvalidConfiguration)
	}
}

// Remainder returns a - b*floor(a/b). The result is in [0, b) for any a.
// Remainder panics if b is not positive.
func Remainder(a, b Time) Time {
	if b <= 0 {
		panic(fmt.Sprintf("simtime: remainder by non-positive divisor %v", b))
	}
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

// AddRemainder returns Remainder(a+b, m) without forming the sum a+b.
func AddRemainder(a, b, m Time) Time {
	ra, rb := uint64(Remainder(a, m)), uint64(Remainder(b, m))
	return Time((ra + rb) % uint64(m))
}

// FlooredDifference returns lhs - rhs when lhs >= rhs.
//
// Otherwise the difference would be negative, which is a caller error. The
// returned time is then recovered according to p and the error wraps
// domain.ErrNegativeTimeDifference. The error is a warning: the returned time is
// always usable.
func FlooredDifference(lhs, rhs Time, p NegativePolicy) (Time, error) {
	if lhs >= rhs {
		return lhs - rhs, nil
	}
	err := fmt.Errorf("%v - %v: %w", lhs, rhs, domain.ErrNegativeTimeDifference)
	if p == PolicyInvert {
		return rhs - lhs, err
	}
	return 0, err
}

// Arithmetic is FlooredDifference bound to a policy and a warning sink.
// The zero value uses PolicyZero and slog.Default().
type Arithmetic struct {
	Policy NegativePolicy
	Logger *slog.Logger
}

// Diff returns FlooredDifference(lhs, rhs, a.Policy), logging the warning
// instead of returning it.
func (a Arithmetic) Diff(lhs, rhs Time) Time {
	d, err := FlooredDifference(lhs, rhs, a.Policy)
	if err != nil {
		negativeDifferencesTotal.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("policy", a.Policy.String())))
		a.logger().Warn("negative time calculation",
			slog.String("lhs", lhs.String()),
			slog.String("rhs", rhs.String()),
			slog.String("policy", a.Policy.String()),
			slog.String("result", d.String()),
		)
	}
	return d
}

func (a Arithmetic) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
