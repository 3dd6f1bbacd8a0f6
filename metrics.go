package sqlkit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metric instruments recorded by the metrics decorator
// and the session manager.
type Metrics struct {
	statementsTotal     metric.Int64Counter
	statementDuration   metric.Float64Histogram
	transactionsTotal   metric.Int64Counter
	transactionDuration metric.Float64Histogram
}

var defaultMeter = otel.Meter(instrumentationName)

// EnableMetrics enables or disables metrics collection for this pool.
func (p *Pool) EnableMetrics(enabled bool) {
	if p == nil {
		return
	}
	p.metricsEnabled = enabled
	if enabled && p.metrics == nil {
		p.initMetrics()
	}
}

// SetMeterProvider sets a custom meter provider for metrics.
func (p *Pool) SetMeterProvider(provider metric.MeterProvider) {
	if p == nil {
		return
	}
	p.meterProvider = provider
	if p.metricsEnabled {
		p.initMetrics()
	}
}

func (p *Pool) initMetrics() {
	if p == nil {
		return
	}
	meter := defaultMeter
	if p.meterProvider != nil {
		meter = p.meterProvider.Meter(instrumentationName)
	}

	p.metrics = &Metrics{}
	p.metrics.statementsTotal, _ = meter.Int64Counter(
		"sqlkit_statements_total",
		metric.WithDescription("Total number of executed statements"),
	)
	p.metrics.statementDuration, _ = meter.Float64Histogram(
		"sqlkit_statement_duration_seconds",
		metric.WithDescription("Duration of statement execution"),
		metric.WithUnit("s"),
	)
	p.metrics.transactionsTotal, _ = meter.Int64Counter(
		"sqlkit_transactions_total",
		metric.WithDescription("Total number of local transactions"),
	)
	p.metrics.transactionDuration, _ = meter.Float64Histogram(
		"sqlkit_transaction_duration_seconds",
		metric.WithDescription("Duration of local transactions"),
		metric.WithUnit("s"),
	)
}

// recordStatement records statement execution metrics.
func (p *Pool) recordStatement(ctx context.Context, op string, duration time.Duration, err error) {
	if p == nil || !p.metricsEnabled || p.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("operation", op),
		attribute.String("status", status),
	}
	p.metrics.statementsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	p.metrics.statementDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// recordTransaction records local-transaction outcome metrics.
func (p *Pool) recordTransaction(ctx context.Context, duration time.Duration, err error) {
	if p == nil || !p.metricsEnabled || p.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("status", status),
	}
	p.metrics.transactionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	p.metrics.transactionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// MetricsDecorator records per-statement counters and latency while metrics
// are enabled on the pool; otherwise the wrapped call runs untouched.
func MetricsDecorator(p *Pool) ExecutorDecorator {
	return func(ctx context.Context, op string, st *StatementTemplate, next StatementCall) StatementCall {
		return func() (any, error) {
			if p == nil || !p.metricsEnabled {
				return next()
			}
			start := time.Now()
			res, err := next()
			p.recordStatement(ctx, op, time.Since(start), err)
			return res, err
		}
	}
}
