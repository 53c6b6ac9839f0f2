package observe

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Recorder pairs Metrics with a ManualReader so a CLI run can print what it
// recorded.
type Recorder struct {
	*Metrics
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// NewRecorder builds Metrics on a private SDK meter provider.
func NewRecorder() (*Recorder, error) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		return nil, err
	}
	return &Recorder{Metrics: m, reader: reader, provider: mp}, nil
}

// Sample is one flattened data point.
type Sample struct {
	Name  string
	Attrs string // "key=value" pairs, empty when unattributed
	Value float64
	Unit  string
}

// Collect flattens the current readings into name-sorted samples.
// Histograms report their sum.
func (r *Recorder) Collect(ctx context.Context) ([]Sample, error) {
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}

	enc := attribute.DefaultEncoder()
	var out []Sample
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out = append(out, Sample{Name: m.Name, Attrs: dp.Attributes.Encoded(enc), Value: float64(dp.Value), Unit: m.Unit})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					out = append(out, Sample{Name: m.Name, Attrs: dp.Attributes.Encoded(enc), Value: dp.Sum, Unit: m.Unit})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Attrs < out[j].Attrs
	})
	return out, nil
}

// Shutdown releases the meter provider.
func (r *Recorder) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}
