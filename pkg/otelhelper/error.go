package otelhelper

import (
	"errors"

	"github.com/dukex/flowrun/pkg/redact"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks span failed. The recorded message goes through
// redact.Message so credentials never reach the trace backend.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}

	message := redact.Message(err.Error())

	span.RecordError(errors.New(message), trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, message)
	span.SetAttributes(attrs...)
}
