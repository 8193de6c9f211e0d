package usecase

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/kirillkom/kyc-compliance/internal/core/usecase")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func documentAttrs(documentID, customerID string) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("kyc.document_id", documentID),
		attribute.String("kyc.customer_id", customerID),
	)
}
