package client

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"baasbox-client/internal/model"
)

const instrumentationName = "baasbox-client/internal/client"

func (c *Client) startSpan(ctx context.Context, cl call) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "baasbox."+cl.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("url.path", cl.path),
			attribute.Bool("baasbox.authenticated", cl.session && cl.token != ""),
		),
	)
}

func endSpan(span trace.Span, status int, e *model.ErrorResult) {
	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if e == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetAttributes(
		attribute.String("baasbox.result", e.Result),
		attribute.String("baasbox.error_kind", e.Kind.String()),
	)
	if e.BBCode != "" {
		span.SetAttributes(attribute.String("baasbox.bb_code", e.BBCode))
	}
	span.RecordError(e)
	span.SetStatus(codes.Error, e.Message)
}
