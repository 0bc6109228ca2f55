package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for scheduler spans.
const TracerName = "reflow.queues"

// Tracer returns the globally registered tracer for the scheduler.
// It is a no-op tracer until an SDK provider is installed with otel.SetTracerProvider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
