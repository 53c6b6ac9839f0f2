// Package observe provides the OpenTelemetry metric instruments recorded
// during a silence analysis run.
//
// Metrics are a side channel: the analyzer records them but never reads them
// back. Callers that want numbers after a run back the instruments with an
// [sdkmetric.ManualReader] and [Collect] them; everyone else gets [Discard].
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope name used for all silan metrics.
const meterName = "github.com/x42/silan"

// Instrument names.
const (
	NameFramesDecoded = "silan.frames.decoded"
	NameBlocksRead    = "silan.blocks.read"
	NameSeeks         = "silan.decoder.seeks"
	NameFallbacks     = "silan.scan.fallbacks"
	NameEvents        = "silan.events"
	NameMismatches    = "silan.frames.mismatch"
	NamePassDuration  = "silan.pass.duration"
)

// Metrics holds the metric instruments for analyzer runs.
type Metrics struct {
	// FramesDecoded counts frames returned by the decoder, by direction.
	FramesDecoded metric.Int64Counter

	// BlocksRead counts decoder reads, by direction.
	BlocksRead metric.Int64Counter

	// Seeks counts decoder seeks. Use with attribute.String("status", "ok"|"error").
	Seeks metric.Int64Counter

	// Fallbacks counts backward scans abandoned for forward continuation.
	Fallbacks metric.Int64Counter

	// Events counts emitted boundaries. Use with attribute.String("kind", ...).
	Events metric.Int64Counter

	// Mismatches counts runs whose decoded length disagreed with the header.
	Mismatches metric.Int64Counter

	// PassDuration tracks wall time per scan pass. Use with attribute.String("pass", ...).
	PassDuration metric.Float64Histogram
}

// passBuckets are histogram boundaries in seconds, from short clips to long
// recordings.
var passBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60,
}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesDecoded, err = m.Int64Counter(NameFramesDecoded,
		metric.WithDescription("Audio frames returned by the decoder."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.BlocksRead, err = m.Int64Counter(NameBlocksRead,
		metric.WithDescription("Decoder read calls that returned audio."),
	); err != nil {
		return nil, err
	}
	if met.Seeks, err = m.Int64Counter(NameSeeks,
		metric.WithDescription("Decoder seek attempts by status."),
	); err != nil {
		return nil, err
	}
	if met.Fallbacks, err = m.Int64Counter(NameFallbacks,
		metric.WithDescription("Backward scans replaced by forward continuation."),
	); err != nil {
		return nil, err
	}
	if met.Events, err = m.Int64Counter(NameEvents,
		metric.WithDescription("Sound boundaries reported by kind."),
	); err != nil {
		return nil, err
	}
	if met.Mismatches, err = m.Int64Counter(NameMismatches,
		metric.WithDescription("Runs whose decoded frame count differed from the stream header."),
	); err != nil {
		return nil, err
	}
	if met.PassDuration, err = m.Float64Histogram(NamePassDuration,
		metric.WithDescription("Wall time of each scan pass."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(passBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// Discard returns instruments backed by the no-op provider.
func Discard() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		// the no-op provider never fails
		panic(err)
	}
	return m
}

// Block records one decoder read.
func (m *Metrics) Block(ctx context.Context, direction string, frames int) {
	attrs := metric.WithAttributes(attribute.String("direction", direction))
	m.BlocksRead.Add(ctx, 1, attrs)
	m.FramesDecoded.Add(ctx, int64(frames), attrs)
}

// Seek records a seek attempt.
func (m *Metrics) Seek(ctx context.Context, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Seeks.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// Event records an emitted boundary.
func (m *Metrics) Event(ctx context.Context, kind string) {
	m.Events.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Pass records how long a pass took.
func (m *Metrics) Pass(ctx context.Context, pass string, d time.Duration) {
	m.PassDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("pass", pass)))
}
