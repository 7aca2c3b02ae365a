package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfind-dev/wayfind/pkg/router"
)

// Default tracer name.
const defaultTracerName = "wayfind"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "wayfind").
	TracerName string

	// IncludeSearch includes the search string in navigation spans.
	// May contain sensitive query parameters - disabled by default.
	IncludeSearch bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithIncludeSearch enables including the search string in spans.
func WithIncludeSearch(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeSearch = include
	}
}

// Tracing is a router.Observer emitting OpenTelemetry spans for
// navigations and preloads.
//
// Events arrive after the fact, so each span is created with its start
// timestamp backdated by the event duration. The tracer comes from the
// global provider; configure it in main() before constructing the
// router:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
type Tracing struct {
	config TracingConfig
}

var _ router.Observer = (*Tracing)(nil)

// NewTracing creates the OpenTelemetry observer.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &Tracing{config: config}
}

// NavigationResolved implements router.Observer.
func (t *Tracing) NavigationResolved(e router.NavigationEvent) {
	end := time.Now()
	attrs := []attribute.KeyValue{
		attribute.String("wayfind.pathname", e.Location.Pathname),
		attribute.Bool("wayfind.matched", e.Matched),
		attribute.Bool("wayfind.external", e.External),
	}
	if t.config.IncludeSearch {
		attrs = append(attrs, attribute.String("wayfind.search", e.Location.Search))
	}

	_, span := t.config.tracer.Start(
		context.Background(),
		"wayfind.navigate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(end.Add(-e.Duration)),
	)
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(end))
}

// PreloadFinished implements router.Observer.
func (t *Tracing) PreloadFinished(e router.PreloadEvent) {
	end := time.Now()
	_, span := t.config.tracer.Start(
		context.Background(),
		"wayfind.preload",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("wayfind.route", e.Template),
			attribute.String("wayfind.outcome", e.Outcome),
		),
		trace.WithTimestamp(end.Add(-e.Duration)),
	)
	if e.Outcome == router.OutcomeFailed {
		span.SetStatus(codes.Error, "preload failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}
