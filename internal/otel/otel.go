// Package otel configures OpenTelemetry tracing for fetchplan runs and
// attaches eventbus subscribers that turn run/iteration/dispatch events into
// spans.
package otel

import (
	"context"
	"strconv"
	"sync"

	eventbus "github.com/fetchplan/fetchplan/internal/eventbus"
	events "github.com/fetchplan/fetchplan/internal/events"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("fetchplan")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer    trace.Tracer
	runSpans  sync.Map // runID -> trace.Span
	iterSpans sync.Map // runID#index -> trace.Span
	dispSpans sync.Map // runID/sourceName -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.RunStart) {
		_, span := s.tracer.Start(ctx, "fetchplan.run")
		span.SetAttributes(attribute.String("fetchplan.run_id", e.RunID))
		s.runSpans.Store(e.RunID, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.RunFinish) {
		v, ok := s.runSpans.LoadAndDelete(e.RunID)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(
			attribute.Int("fetchplan.iterations", e.Iterations),
			attribute.Int64("fetchplan.duration_ms", e.Duration.Milliseconds()),
		)
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.IterationStart) {
		parent := ctx
		if v, ok := s.runSpans.Load(e.RunID); ok {
			parent = trace.ContextWithSpan(ctx, v.(trace.Span))
		}
		_, span := s.tracer.Start(parent, "fetchplan.iteration")
		span.SetAttributes(
			attribute.String("fetchplan.run_id", e.RunID),
			attribute.Int("fetchplan.iteration", e.Index),
		)
		s.iterSpans.Store(iterKey(e.RunID, e.Index), span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.IterationFinish) {
		v, ok := s.iterSpans.LoadAndDelete(iterKey(e.RunID, e.Index))
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(
			attribute.Int("fetchplan.groups", e.GroupCount),
			attribute.Int("fetchplan.dispatched", e.DispatchedSize),
			attribute.Int64("fetchplan.duration_ms", e.Duration.Milliseconds()),
		)
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.DispatchStart) {
		_, span := s.tracer.Start(ctx, "fetchplan.dispatch")
		span.SetAttributes(
			attribute.String("fetchplan.source_name", e.SourceName),
			attribute.Int("fetchplan.miss_count", e.MissCount),
			attribute.Bool("fetchplan.batched", e.Batched),
		)
		s.dispSpans.Store(dispKey(e.RunID, e.SourceName), span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.DispatchFinish) {
		v, ok := s.dispSpans.LoadAndDelete(dispKey(e.RunID, e.SourceName))
		if !ok {
			return
		}
		span := v.(trace.Span)
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})
}

func iterKey(runID string, index int) string {
	return runID + "#" + strconv.Itoa(index)
}

func dispKey(runID, sourceName string) string {
	return runID + "/" + sourceName
}
