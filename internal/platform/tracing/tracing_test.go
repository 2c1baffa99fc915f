package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordedSpan struct {
	noop.Span
	name   string
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) { s.errs = append(s.errs, err) }
func (s *recordedSpan) SetStatus(code codes.Code, _ string)            { s.status = code }
func (s *recordedSpan) End(...trace.SpanEndOption)                     { s.ended = true }

type recordingTracer struct {
	embedded.Tracer
	spans []*recordedSpan
	attrs []attribute.KeyValue
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	t.attrs = append(t.attrs, cfg.Attributes()...)
	span := &recordedSpan{name: name}
	t.spans = append(t.spans, span)
	return trace.ContextWithSpan(ctx, span), span
}

type recordingProvider struct {
	embedded.TracerProvider
	tracer *recordingTracer
}

func (p recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer { return p.tracer }

func TestTracerRecordsStatus(t *testing.T) {
	rt := &recordingTracer{}
	tr := New(recordingProvider{tracer: rt})

	ctx, span := tr.Start(context.Background(), "request_unit")
	require.NotNil(t, trace.SpanFromContext(ctx))
	span.End(nil)

	_, span = tr.Start(context.Background(), "add_donor")
	span.End(errors.New("persist failed"))

	require.Len(t, rt.spans, 2)
	assert.Equal(t, "bloodbank.request_unit", rt.spans[0].name)
	assert.Equal(t, codes.Ok, rt.spans[0].status)
	assert.True(t, rt.spans[0].ended)
	assert.Equal(t, codes.Error, rt.spans[1].status)
	assert.Len(t, rt.spans[1].errs, 1)
	assert.Contains(t, rt.attrs, attribute.String("bloodbank.operation", "add_donor"))
}

func TestTracerDefaultsToGlobalProvider(t *testing.T) {
	tr := New(nil)
	_, span := tr.Start(context.Background(), "load")
	assert.NotPanics(t, func() { span.End(nil) })
}
