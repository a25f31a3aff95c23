// Package observe provides application-wide observability primitives for
// phonoshift: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exported to
// Prometheus via [InitProvider]. Tests should use [NewMetrics] with their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all phonoshift metrics.
const meterName = "github.com/MrWong99/phonoshift"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// TrainingDuration tracks how long one speaker takes to train. Use with
	// attribute.String("speaker", ...).
	TrainingDuration metric.Float64Histogram

	// GuessDuration tracks the latency of a single guess.
	GuessDuration metric.Float64Histogram

	// Trainings counts training passes by speaker and status.
	Trainings metric.Int64Counter

	// Guesses counts guesses by speaker and status.
	Guesses metric.Int64Counter

	// TrainingPairs counts training pairs consumed, by speaker.
	TrainingPairs metric.Int64Counter

	// LearnedRules records the rule count of the last training pass, by
	// speaker and kind ("specific" or "generalized").
	LearnedRules metric.Int64Gauge

	// ToolCalls counts MCP tool invocations by tool and status.
	ToolCalls metric.Int64Counter

	// ActiveSpeakers tracks the number of speakers with a trained model.
	ActiveSpeakers metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// trainingBuckets covers training passes from tiny to large datasets.
var trainingBuckets = []float64{
	0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5,
}

// guessBuckets covers single-word guesses.
var guessBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TrainingDuration, err = m.Float64Histogram("phonoshift.training.duration",
		metric.WithDescription("Duration of one speaker training pass."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(trainingBuckets...),
	); err != nil {
		return nil, err
	}
	if met.GuessDuration, err = m.Float64Histogram("phonoshift.guess.duration",
		metric.WithDescription("Latency of a single pronunciation guess."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(guessBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Trainings, err = m.Int64Counter("phonoshift.trainings",
		metric.WithDescription("Total training passes by speaker and status."),
	); err != nil {
		return nil, err
	}
	if met.Guesses, err = m.Int64Counter("phonoshift.guesses",
		metric.WithDescription("Total guesses by speaker and status."),
	); err != nil {
		return nil, err
	}
	if met.TrainingPairs, err = m.Int64Counter("phonoshift.training.pairs",
		metric.WithDescription("Total training pairs consumed by speaker."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("phonoshift.tool.calls",
		metric.WithDescription("Total MCP tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}

	if met.LearnedRules, err = m.Int64Gauge("phonoshift.learned_rules",
		metric.WithDescription("Rules learned in the last training pass by speaker and kind."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSpeakers, err = m.Int64UpDownCounter("phonoshift.active_speakers",
		metric.WithDescription("Number of speakers with a trained model."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("phonoshift.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordTraining records one training pass for speaker.
func (m *Metrics) RecordTraining(ctx context.Context, speaker string, pairs, specific, generalized int, d time.Duration, err error) {
	sp := attribute.String("speaker", speaker)
	m.Trainings.Add(ctx, 1, metric.WithAttributes(sp, attribute.String("status", status(err))))
	m.TrainingDuration.Record(ctx, d.Seconds(), metric.WithAttributes(sp))
	if err != nil {
		return
	}
	m.TrainingPairs.Add(ctx, int64(pairs), metric.WithAttributes(sp))
	m.LearnedRules.Record(ctx, int64(specific), metric.WithAttributes(sp, attribute.String("kind", "specific")))
	m.LearnedRules.Record(ctx, int64(generalized), metric.WithAttributes(sp, attribute.String("kind", "generalized")))
}

// RecordGuess records one guess for speaker.
func (m *Metrics) RecordGuess(ctx context.Context, speaker string, d time.Duration, err error) {
	sp := attribute.String("speaker", speaker)
	m.Guesses.Add(ctx, 1, metric.WithAttributes(sp, attribute.String("status", status(err))))
	m.GuessDuration.Record(ctx, d.Seconds(), metric.WithAttributes(sp))
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool string, err error) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status(err)),
		),
	)
}
