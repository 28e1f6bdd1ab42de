package core

import (
	"context"
	"time"
)

// MetricsRecorder receives per-operation outcome observations from the
// service layer.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan finalises one traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer opens spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// Observability bundles the optional instrumentation seams of a service.
// Zero value disables all instrumentation.
type Observability struct {
	Metrics MetricsRecorder
	Tracer  Tracer
}

// instrument wraps fn with metrics and tracing when configured.
func (o Observability) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	var span TraceSpan
	if o.Tracer != nil {
		ctx, span = o.Tracer.Start(ctx, operation)
	}
	start := time.Now()
	err := fn(ctx)
	if o.Metrics != nil {
		o.Metrics.Observe(ctx, operation, err == nil, time.Since(start))
	}
	if span != nil {
		span.End(err)
	}
	return err
}
