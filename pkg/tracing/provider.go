package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Init builds a tracer provider for the service, installs it globally, and
// points the package tracer at it. Callers own shutdown:
//
//	tp, _ := tracing.Init(ctx, "unify-api")
//	defer tp.Shutdown(ctx)
func Init(ctx context.Context, serviceName string) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	SetTracer(tp.Tracer(serviceName))
	return tp, nil
}
