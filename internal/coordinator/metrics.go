package coordinator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics wraps the three named instruments spec.md §4.5 requires, built on
// the meter provider the teacher installs in internal/observability
// (otel.SetMeterProvider + Prometheus exporter). The coordinator registers
// the instruments under its own instrumentation scope.
type metrics struct {
	coordination      metric.Float64Histogram
	setJobEnvironment metric.Float64Histogram
	userLimitExceeded metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter("jobcoordinator.coordination")

	coordination, err := meter.Float64Histogram(
		"coordination.timer",
		metric.WithDescription("wall-clock duration of Coordinator.Submit"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	setJobEnvironment, err := meter.Float64Histogram(
		"submit.setJobEnvironment.timer",
		metric.WithDescription("duration of the runtime-binding persistence stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	userLimitExceeded, err := meter.Int64Counter(
		"submit.rejected.jobs-limit.counter",
		metric.WithDescription("submissions rejected for exceeding a user's active-jobs limit"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		coordination:      coordination,
		setJobEnvironment: setJobEnvironment,
		userLimitExceeded: userLimitExceeded,
	}, nil
}

// recordCoordination records stage1-9 wall clock, tagged with success/
// failure and, on failure, the failure class. Exactly one call per Submit,
// regardless of outcome (invariant 7).
func (m *metrics) recordCoordination(ctx context.Context, d time.Duration, outcomeErr error) {
	attrs := []attribute.KeyValue{attribute.Bool("success", outcomeErr == nil)}
	if outcomeErr != nil {
		if ce, ok := outcomeErr.(*CoordinatorError); ok {
			attrs = append(attrs, attribute.String("failure_class", ce.Kind.String()))
		} else {
			attrs = append(attrs, attribute.String("failure_class", "unknown"))
		}
	}
	m.coordination.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// recordSetJobEnvironment records the runtime-binding persistence stage's
// duration, tagged likewise with success/failure and, on failure, a
// failure class — here always "store_error" since this stage only ever
// fails on the store write itself, not on anything the coordinator
// classifies into a Kind.
func (m *metrics) recordSetJobEnvironment(ctx context.Context, d time.Duration, outcomeErr error) {
	attrs := []attribute.KeyValue{attribute.Bool("success", outcomeErr == nil)}
	if outcomeErr != nil {
		attrs = append(attrs, attribute.String("failure_class", "store_error"))
	}
	m.setJobEnvironment.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// recordUserLimitExceeded increments the rejection counter exactly once per
// UserLimitExceeded outcome, tagged by user and the limit that was hit
// (invariant 6).
func (m *metrics) recordUserLimitExceeded(ctx context.Context, user string, limit int64) {
	m.userLimitExceeded.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("user", user),
			attribute.Int64("limit", limit),
		),
	)
}
