package sqlkit

import (
	"context"
	"log/slog"
	"time"
)

// StatementCall performs one driver call (execute, query, update, batch) and
// returns its result. The call is side-effecting and must run exactly once
// per execution, whatever instrumentation is layered around it.
type StatementCall func() (any, error)

// ExecutorDecorator wraps a StatementCall with added behavior. Decorators
// must be value-transparent: the wrapped call's result and error reach the
// caller unchanged.
type ExecutorDecorator func(ctx context.Context, op string, st *StatementTemplate, next StatementCall) StatementCall

// Executor runs statement calls through a fixed decorator chain composed
// once at construction. The base executor is a no-op pass-through, so
// enabling, disabling or adding decorators never changes call sites.
type Executor struct {
	decorators []ExecutorDecorator
}

// NewExecutor builds an executor from decorators, outermost first.
func NewExecutor(decorators ...ExecutorDecorator) *Executor {
	return &Executor{decorators: decorators}
}

// Run executes call through the decorator chain.
func (e *Executor) Run(ctx context.Context, op string, st *StatementTemplate, call StatementCall) (any, error) {
	wrapped := call
	if e != nil {
		for i := len(e.decorators) - 1; i >= 0; i-- {
			wrapped = e.decorators[i](ctx, op, st, wrapped)
		}
	}
	return wrapped()
}

// runTyped adapts a typed driver call to the untyped decorator chain while
// keeping the result value bit-identical for the caller.
func runTyped[T any](ctx context.Context, e *Executor, op string, st *StatementTemplate, call func() (T, error)) (T, error) {
	res, err := e.Run(ctx, op, st, func() (any, error) { return call() })
	t, _ := res.(T)
	return t, err
}

// TraceDecorator returns the timing/logging decorator. When the settings
// manager reports tracing disabled, the wrapped call runs with no overhead
// beyond that single flag check. When enabled, the call is timed and a
// rendered SQL trace is logged, escalating to the warning level once the
// elapsed time meets the configured threshold. The log record embeds the
// rendered statement, elapsed milliseconds and a capped call-site stack
// excerpt.
func TraceDecorator(settings *TraceSettingsManager, logger func() *slog.Logger) ExecutorDecorator {
	return func(ctx context.Context, op string, st *StatementTemplate, next StatementCall) StatementCall {
		return func() (any, error) {
			if !settings.IsEnabled() {
				return next()
			}
			s := settings.Get()
			start := time.Now()
			res, err := next()
			elapsed := time.Since(start)

			level := s.Level
			if s.WarnEnabled && elapsed >= s.WarnThreshold {
				level = s.WarnLevel
			}
			if log := logger(); log != nil && log.Enabled(ctx, level) {
				attrs := []slog.Attr{
					slog.String("operation", op),
					slog.String("sql", renderTrace(st)),
					slog.Int64("duration_ms", elapsed.Milliseconds()),
					slog.String("stack", callStackExcerpt()),
				}
				if err != nil {
					attrs = append(attrs, slog.String("error", err.Error()))
				}
				log.LogAttrs(ctx, level, "statement trace", attrs...)
			}
			return res, err
		}
	}
}
