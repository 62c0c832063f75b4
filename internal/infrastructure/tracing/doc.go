/*
Package tracing provides lightweight request tracing.

# Overview

Each HTTP request gets a span carrying a trace ID, propagated through the
X-Trace-ID and X-Span-ID headers and the request context. Finished spans are
buffered and logged by a background collector.

# Usage

	tracer := tracing.New("gameshelf", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
