package ctxlog

import (
	"context"

	"github.com/go-kit/kit/log"
	"go.opencensus.io/trace"
)

type key int

const loggerKey key = 0

func NewContext(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// With returns a copy of ctx whose logger carries keyvals, eg: the
// stage a packaging step belongs to. Without a logger ctx is returned
// unchanged.
func With(ctx context.Context, keyvals ...interface{}) context.Context {
	v, ok := ctx.Value(loggerKey).(log.Logger)
	if !ok {
		return ctx
	}
	return NewContext(ctx, log.With(v, keyvals...))
}

// FromContext returns the logger stored in ctx, decorated with the
// ids of the current span. A nop logger is returned when none is set.
func FromContext(ctx context.Context) log.Logger {
	v, ok := ctx.Value(loggerKey).(log.Logger)
	if !ok {
		return log.NewNopLogger()
	}
	span := trace.FromContext(ctx)
	if span == nil {
		return v
	}
	sc := span.SpanContext()

	// If the span is uninitialized, don't add the 0 values to the
	// logs. They're noise.
	if isTraceUninitialized(sc) {
		return v
	}

	return log.With(
		v,
		"trace_id", sc.TraceID.String(),
		"span_id", sc.SpanID.String(),
		"trace_is_sampled", sc.IsSampled(),
	)
}

// isTraceUninitialized returns true when a span is is unconfigured.
func isTraceUninitialized(span trace.SpanContext) bool {
	for _, b := range span.TraceID {
		if b != 0 {
			return false
		}
	}
	return true
}
