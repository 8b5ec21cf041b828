package vclock

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	waitsTotal            metric.Int64Counter
	waitsElidedTotal      metric.Int64Counter
	notificationsTotal    metric.Int64Counter
	frequencyChangesTotal metric.Int64Counter
	clocksCreatedTotal    metric.Int64Counter
)

func init() {
	m := otel.Meter("virtualclock/vclock")

	waitsTotal, _ = m.Int64Counter("vclock_waits_total",
		metric.WithDescription("Total clock waits that suspended the caller"))
	waitsElidedTotal, _ = m.Int64Counter("vclock_waits_elided_total",
		metric.WithDescription("Total clock waits returned without suspending"))
	notificationsTotal, _ = m.Int64Counter("vclock_notifications_total",
		metric.WithDescription("Total clock event notifications"))
	frequencyChangesTotal, _ = m.Int64Counter("vclock_frequency_changes_total",
		metric.WithDescription("Total period or offset changes"))
	clocksCreatedTotal, _ = m.Int64Counter("vclock_registry_clocks_created_total",
		metric.WithDescription("Total clocks created by registries"))
}
