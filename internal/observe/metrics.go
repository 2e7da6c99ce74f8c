// Package observe holds the OpenTelemetry instruments used by the clip cache
// and the generation pipeline.
//
// Production code uses [DefaultMetrics], which binds to the global meter
// provider. Tests should build their own with [NewMetrics] and an SDK
// provider backed by a manual reader.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/forPelevin/hlshorts"

type Metrics struct {
	// CacheLookups counts cache lookups. Attribute "result" is "hit" or "miss".
	CacheLookups metric.Int64Counter

	// Renders counts renderer invocations. Attribute "status" is "ok" or "error".
	Renders metric.Int64Counter

	// SharedRenders counts callers that received another caller's render.
	SharedRenders metric.Int64Counter

	// RenderDuration tracks how long a single render took.
	RenderDuration metric.Float64Histogram

	// Shorts counts shorts produced per generation request.
	Shorts metric.Int64Counter

	// FallbackTranscripts counts requests that used a synthetic transcript.
	FallbackTranscripts metric.Int64Counter
}

var renderBuckets = []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.CacheLookups, err = m.Int64Counter("hlshorts.cache.lookups",
		metric.WithDescription("Clip cache lookups by result."),
	); err != nil {
		return nil, err
	}
	if met.Renders, err = m.Int64Counter("hlshorts.cache.renders",
		metric.WithDescription("Clip renders started on a cache miss."),
	); err != nil {
		return nil, err
	}
	if met.SharedRenders, err = m.Int64Counter("hlshorts.cache.shared",
		metric.WithDescription("Requests served by a render started for another request."),
	); err != nil {
		return nil, err
	}
	if met.RenderDuration, err = m.Float64Histogram("hlshorts.cache.render.duration",
		metric.WithDescription("Latency of a clip render."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(renderBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Shorts, err = m.Int64Counter("hlshorts.generate.shorts",
		metric.WithDescription("Shorts selected per generation request."),
	); err != nil {
		return nil, err
	}
	if met.FallbackTranscripts, err = m.Int64Counter("hlshorts.generate.fallback",
		metric.WithDescription("Generation requests that used a synthetic transcript."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordLookup counts a cache lookup.
func (m *Metrics) RecordLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordRender counts a render and its latency.
func (m *Metrics) RecordRender(ctx context.Context, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.Renders.Add(ctx, 1, attrs)
	m.RenderDuration.Record(ctx, seconds, attrs)
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// DefaultMetrics returns instruments bound to the global meter provider.
// It panics if the instruments cannot be created.
func DefaultMetrics() *Metrics {
	defaultOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}
