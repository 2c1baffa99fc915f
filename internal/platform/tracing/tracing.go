// Package tracing adapts OpenTelemetry to the core.Tracer interface.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bloodbank/internal/core"
)

// InstrumentationName names the tracer obtained from the provider.
const InstrumentationName = "bloodbank/internal/core"

// Tracer starts one OpenTelemetry span per service operation.
type Tracer struct {
	tracer trace.Tracer
}

var _ core.Tracer = (*Tracer)(nil)

// New builds a Tracer from provider, or from the global provider when nil.
// With no SDK installed the global provider is a no-op.
func New(provider trace.TracerProvider) *Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracer{tracer: provider.Tracer(InstrumentationName)}
}

// Start implements core.Tracer.
func (t *Tracer) Start(ctx context.Context, operation string) (context.Context, core.TraceSpan) {
	ctx, span := t.tracer.Start(ctx, "bloodbank."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("bloodbank.operation", operation)),
	)
	return ctx, otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
