// Package trace opens the single per-job span each worker pipeline run
// wraps its HTTP-substrate calls in, the same otel span-per-call-site
// pattern the retrieval pack's admission-webhook tracing shows.
package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	apitrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/witto13/bess-crawler/worker"

// StartJob opens a span named "worker.<jobType>" tagged with the
// identifiers an operator needs to find one job's trace.
func StartJob(ctx context.Context, jobType, municipalityKey, jobID string) (context.Context, apitrace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, "worker."+jobType, apitrace.WithAttributes(
		attribute.String("job.type", jobType),
		attribute.String("job.id", jobID),
		attribute.String("municipality_key", municipalityKey),
	))
}

// EndJob records err on span, if non-nil, before the caller's deferred
// span.End() closes it.
func EndJob(span apitrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
