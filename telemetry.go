package sqlkit

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName    = "github.com/taka-/sqlkit"
	instrumentationVersion = "v0.1.0"
)

// poolTracer resolves against the current global provider on every call, so
// a provider installed after pool construction still receives spans.
func poolTracer() trace.Tracer {
	return otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion))
}

// EnableTelemetry enables or disables OpenTelemetry tracing for this pool.
func (p *Pool) EnableTelemetry(enabled bool) {
	if p == nil {
		return
	}
	p.telemetryEnabled = enabled
}

// TelemetryDecorator wraps statement calls in spans carrying the statement
// text and operation. Spans are only created while telemetry is enabled on
// the pool; otherwise the wrapped call runs untouched.
func TelemetryDecorator(p *Pool) ExecutorDecorator {
	return func(ctx context.Context, op string, st *StatementTemplate, next StatementCall) StatementCall {
		return func() (any, error) {
			if p == nil || !p.telemetryEnabled {
				return next()
			}
			_, span := poolTracer().Start(ctx, "sqlkit."+op)
			span.SetAttributes(
				attribute.String("db.system", "sql"),
				attribute.String("db.operation", op),
			)
			if st != nil && st.SQL != "" {
				span.SetAttributes(attribute.String("db.statement", st.SQL))
			}
			res, err := next()
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.End()
			return res, err
		}
	}
}
